package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyponcloud/hyponcloud/pkg/hypon"
	"github.com/hyponcloud/hyponcloud/pkg/log"
)

// handleUpdate runs one collection. It is meant to be called by a scheduler
// when the daemon's own polling is too slow or disabled.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log.Ctx(ctx).InfoContext(ctx, "update requested", slog.String("email", getEmail(r)))

	status, err := s.monitor.Collect(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "update failed", slog.Any("error", err))
		switch {
		case errors.Is(err, hypon.ErrRateLimit):
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, "hypon rate limit exceeded", http.StatusServiceUnavailable)
		case errors.Is(err, hypon.ErrAuthentication):
			writeJSONError(w, "hypon authentication failed", http.StatusBadGateway)
		default:
			writeJSONError(w, "update failed", http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, status)
}
