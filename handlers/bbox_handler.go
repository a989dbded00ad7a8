// handlers/bbox_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jszwec/csvutil"

	"github.com/bathywatch/backend/fetchers"
	"github.com/bathywatch/backend/models"
	"github.com/bathywatch/backend/services"
)

// ListBBoxesHandler returns all bounding boxes for the authenticated user.
func ListBBoxesHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	bboxes, err := services.ListBBoxes(user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if bboxes == nil {
		bboxes = []models.BoundingBox{}
	}
	respondWithJSON(w, http.StatusOK, bboxes)
}

// CreateBBoxHandler adds a bounding box for the authenticated user. Corner
// points may arrive in any drag direction; they are normalized before saving.
func CreateBBoxHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	var req models.CreateBBoxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	bbox, err := services.CreateBBox(user.ID, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, bbox)
}

// DeleteBBoxHandler removes one of the user's boxes along with its orders.
func DeleteBBoxHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	bboxID, err := strconv.ParseInt(chi.URLParam(r, "bboxID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bbox id")
		return
	}

	deletedOrders, err := services.DeleteBBox(bboxID, user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Deleted box %d (and %d orders)", bboxID, deletedOrders),
	})
}

// ExportRecordsCSVHandler fetches the current records for one of the user's
// boxes from one source and streams them as CSV.
// Expects GET /api/bboxes/{bboxID}/records.csv?data_type=mbes
func ExportRecordsCSVHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	bboxID, err := strconv.ParseInt(chi.URLParam(r, "bboxID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bbox id")
		return
	}
	source := models.SourceType(r.URL.Query().Get("data_type"))
	if source == "" {
		source = models.SourceMBES
	}

	records, err := services.FetchRecordsForBBox(r.Context(), bboxID, user.ID, source)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	csvBytes, err := csvutil.Marshal(records)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to encode CSV: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=bbox_%d_%s.csv", bboxID, source))
	w.WriteHeader(http.StatusOK)
	w.Write(csvBytes)
}

// GetDataTypesHandler lists the available data sources.
func GetDataTypesHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, fetchers.DataTypeInfos())
}

// GetBBoxEventsHandler returns the notification audit trail for one box.
func GetBBoxEventsHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	bboxID, err := strconv.ParseInt(chi.URLParam(r, "bboxID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bbox id")
		return
	}

	events, err := services.ListBBoxEvents(bboxID, user.ID, 50)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if events == nil {
		events = []models.NotificationEvent{}
	}
	respondWithJSON(w, http.StatusOK, events)
}
