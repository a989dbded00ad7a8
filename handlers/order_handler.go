// handlers/order_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bathywatch/backend/models"
	"github.com/bathywatch/backend/services"
)

// PlaceOrderHandler sends a data export order to the NOAA point store.
// Expects POST /api/orders/{bboxID}/{dataType}.
func PlaceOrderHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	bboxID, err := strconv.ParseInt(chi.URLParam(r, "bboxID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bbox id")
		return
	}
	dataType := models.SourceType(chi.URLParam(r, "dataType"))

	order, err := services.PlaceOrder(r.Context(), bboxID, dataType, user)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, order)
}

// ListOrdersHandler returns all the user's orders, newest first.
func ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	orders, err := services.ListOrders(user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []models.DataOrder{}
	}
	respondWithJSON(w, http.StatusOK, orders)
}

// OrderStatusHandler re-checks one pending order against the point store and
// returns the updated order.
// Expects GET /api/order_status/{orderID}.
func OrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	order, err := services.RefreshOrderStatus(r.Context(), orderID, user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, order)
}
