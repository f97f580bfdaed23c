package http

import (
	"net/http"
	"time"

	"github.com/foliocms/folio/internal/auth/revocation"
	"github.com/foliocms/folio/internal/auth/store"
	"github.com/foliocms/folio/pkg/httpx"
)

// ReadyzHandler reports whether the service can do useful work: the
// database must answer a ping and the revocation store must answer a probe
// lookup. Either failing flips the response to 503.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	rev revocation.Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Database:    "ok",
			Revocations: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if _, err := rev.Exists(r.Context(), "readyz-probe"); err != nil {
			checks.Revocations = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
