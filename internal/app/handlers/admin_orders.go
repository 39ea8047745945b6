package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/magicgame/topup-store/internal/domain/models"
	"github.com/magicgame/topup-store/internal/security/jwtmiddleware"
	"github.com/magicgame/topup-store/internal/service"
	"github.com/magicgame/topup-store/internal/storage"
)

// UpdateStatusRequest — входной JSON для смены статуса заказа.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// MessageResponse — ответ-подтверждение без полезной нагрузки.
type MessageResponse struct {
	Message string `json:"message"`
}

// ListOrdersHandler обрабатывает запрос GET /api/admin/orders
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		orders, err := orderService.ListAll(r.Context())
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}

		writeJSON(w, http.StatusOK, orders)
	}
}

// UpdateStatusHandler обрабатывает запрос PUT /api/admin/orders/{id}
func UpdateStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateStatusHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "status is required")
			return
		}

		// Принципала установил JWT middleware
		principal, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := orderService.UpdateStatus(r.Context(), orderID, req.Status, principal.Email); err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidStatus):
				writeError(w, http.StatusBadRequest, service.ErrInvalidStatus.Error())
			case errors.Is(err, storage.ErrOrderNotFound):
				writeError(w, http.StatusNotFound, "order not found")
			case errors.Is(err, service.ErrOrderFinalized):
				writeError(w, http.StatusConflict, service.ErrOrderFinalized.Error())
			default:
				logger.Error("failed to update status", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "status updated"})
	}
}

// DeleteOrderHandler обрабатывает запрос DELETE /api/admin/orders/{id}
func DeleteOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteOrderHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}

		principal, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := orderService.Delete(r.Context(), orderID, principal.Email); err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				writeError(w, http.StatusNotFound, "order not found")
				return
			}
			logger.Error("failed to delete order", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "order deleted"})
	}
}
