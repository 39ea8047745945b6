package handlers

import (
	"log/slog"
	"net/http"

	"github.com/magicgame/topup-store/internal/service"
)

// StatsHandler обрабатывает запрос GET /api/admin/stats
func StatsHandler(log *slog.Logger, statsService service.StatsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.StatsHandler"
		logger := log.With(slog.String("op", op))

		stats, err := statsService.ComputeStats(r.Context())
		if err != nil {
			logger.Error("failed to compute stats", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}
