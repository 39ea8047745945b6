package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/magicgame/topup-store/internal/presence"
	"github.com/magicgame/topup-store/internal/security/jwtmiddleware"
)

// SetPresenceRequest — входной JSON для смены флага присутствия.
// Указатель, чтобы отличать явное false от отсутствующего поля.
type SetPresenceRequest struct {
	Online *bool `json:"online" validate:"required"`
}

// PresenceResponse — публичный ответ о присутствии администратора.
type PresenceResponse struct {
	Online bool `json:"online"`
}

// SetPresenceResponse — подтверждение смены флага.
type SetPresenceResponse struct {
	Success bool `json:"success"`
	Online  bool `json:"online"`
}

// GetPresenceHandler обрабатывает публичный запрос GET /api/admin/status
func GetPresenceHandler(tracker *presence.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, PresenceResponse{Online: tracker.Online()})
	}
}

// SetPresenceHandler обрабатывает запрос POST /api/admin/status
func SetPresenceHandler(log *slog.Logger, tracker *presence.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SetPresenceHandler"
		logger := log.With(slog.String("op", op))

		var req SetPresenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "online flag is required")
			return
		}

		principal, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		status := tracker.Set(*req.Online, principal.Email)
		logger.Info("admin presence updated",
			slog.Bool("online", status.Online),
			slog.String("admin", principal.Email),
		)

		writeJSON(w, http.StatusOK, SetPresenceResponse{Success: true, Online: status.Online})
	}
}
