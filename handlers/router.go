// handlers/router.go
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/bathywatch/backend/services"
)

// NewRouter assembles the API routes. Everything under the authenticated
// group requires a valid bearer token. Account creation, login, and box
// mutations are rate limited per client IP.
func NewRouter(runner *services.CycleRunner, pingDB func() error) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	limit := httprate.LimitByIP(10, time.Minute)

	r.Get("/api/health", HealthHandler(pingDB))
	r.Get("/api/datatypes", GetDataTypesHandler)

	r.With(limit).Post("/api/users", RegisterUserHandler)
	r.With(limit).Post("/api/token", LoginHandler)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware)

		r.Get("/api/users/me", CurrentUserHandler)

		r.Get("/api/bboxes", ListBBoxesHandler)
		r.With(limit).Post("/api/bboxes", CreateBBoxHandler)
		r.With(limit).Delete("/api/bboxes/{bboxID}", DeleteBBoxHandler)
		r.Get("/api/bboxes/{bboxID}/records.csv", ExportRecordsCSVHandler)
		r.Get("/api/bboxes/{bboxID}/events", GetBBoxEventsHandler)

		r.Post("/api/orders/{bboxID}/{dataType}", PlaceOrderHandler)
		r.Get("/api/orders", ListOrdersHandler)
		r.Get("/api/order_status/{orderID}", OrderStatusHandler)

		r.Post("/api/admin/run-cycle", RunCycleHandler(runner))
	})

	return r
}
