// handlers/admin_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/bathywatch/backend/services"
)

// RunCycleHandler triggers one poll cycle in the background. Cron normally
// runs the worker binary; this endpoint exists for manual refreshes.
// Expects POST /api/admin/run-cycle.
func RunCycleHandler(runner *services.CycleRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Detach from the request context; the cycle outlives the response.
		go func() {
			stats, err := runner.Run(context.Background())
			if err != nil {
				log.Printf("ERROR Handler: Manual poll cycle failed: %v\n", err)
				return
			}
			log.Printf("Handler: Manual poll cycle completed. checked=%d failed=%d notified=%d\n",
				stats.BoxesChecked, stats.BoxesFailed, stats.Notified)
		}()

		respondWithJSON(w, http.StatusAccepted, map[string]string{
			"message": "Poll cycle initiated in background.",
		})
	}
}

// HealthHandler reports service and database health.
func HealthHandler(pingDB func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pingDB(); err != nil {
			log.Printf("Health check failed: DB ping error: %v", err)
			respondWithError(w, http.StatusInternalServerError, "database connection error")
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"message": "bathywatch backend is healthy",
		})
	}
}
