package httpadapter

import (
	"net/http"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/observability/logging"
)

func mapErrorToHTTPStatus(err error) int {
	switch domain.KindOf(err) {
	case domain.ErrInvalidCode, domain.ErrInvalidInput:
		return http.StatusBadRequest
	case domain.ErrNoTariffFound:
		return http.StatusNotFound
	case domain.ErrTemporary:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends the public message only; the full cause of a server-side
// failure goes to the request log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request_failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": domain.PublicMessage(err)})
}
