package http

import (
	"net/http"
	"time"

	"github.com/foliocms/folio/pkg/httpx"
)

// LivezHandler reports that the process is up. It always returns 200.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
