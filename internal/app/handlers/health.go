package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
)

// HealthHandler обрабатывает запрос GET /api/health: живость процесса
// и доступность БД.
func HealthHandler(log *slog.Logger, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.HealthHandler"

		if err := db.PingContext(r.Context()); err != nil {
			log.Error("database ping failed", slog.String("op", op), slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "database unavailable")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
