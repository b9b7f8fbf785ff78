package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/dogadopt-api/internal/api/shared"
	"github.com/phrazzld/dogadopt-api/internal/platform/logger"
	"github.com/phrazzld/dogadopt-api/internal/redact"
)

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports process and database liveness.
type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
	now    func() time.Time
}

// NewHealthHandler creates a HealthHandler. db may be nil, in which case the
// database is reported as down.
func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		db:     db,
		logger: logger.With(slog.String("component", "health_handler")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Health handles GET /api/health. It always answers 200 so load balancers
// keep routing while the database recovers; the database field says whether
// it is reachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	database := "up"
	if h.db == nil {
		database = "down"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			database = "down"
			logger.FromContextOrDefault(r.Context(), h.logger).Warn("database ping failed",
				redact.ErrorAttr(err))
		}
	}

	shared.RespondSuccess(w, r, http.StatusOK, "", HealthResponse{
		Status:    "ok",
		Timestamp: h.now(),
		Database:  database,
	})
}
