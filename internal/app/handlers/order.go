package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/magicgame/topup-store/internal/domain/models"
	"github.com/magicgame/topup-store/internal/service"
)

// CreateOrderRequest — входной JSON публичной формы заказа.
type CreateOrderRequest struct {
	PubgID        string `json:"pubgId" validate:"required,numeric,min=5,max=20"`
	Pseudo        string `json:"pseudo" validate:"required"`
	Pack          string `json:"pack" validate:"required"`
	Price         string `json:"price" validate:"required"`
	PaymentMethod string `json:"paymentMethod"`
	Reference     string `json:"reference" validate:"required"`
}

// CreateOrderResponse — ответ при успешном создании заказа.
type CreateOrderResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
}

// CreateOrderHandler обрабатывает запрос POST /api/order
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "all fields are required")
			return
		}

		order := &models.Order{
			PubgID:        req.PubgID,
			Pseudo:        req.Pseudo,
			Pack:          req.Pack,
			Price:         req.Price,
			PaymentMethod: req.PaymentMethod,
			Reference:     req.Reference,
		}

		orderID, err := orderService.Create(r.Context(), order)
		if err != nil {
			if errors.Is(err, service.ErrInvalidPubgID) {
				writeError(w, http.StatusBadRequest, service.ErrInvalidPubgID.Error())
				return
			}
			logger.Error("failed to create order", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusCreated, CreateOrderResponse{
			Message: "order created",
			OrderID: orderID,
		})
	}
}

// UserOrdersHandler обрабатывает запрос GET /api/orders/user/{pubgId}.
// Публичная история покупателя: при ошибке хранилища клиент получает
// пустой список, а не 500 — витрина не должна падать из-за истории.
func UserOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UserOrdersHandler"
		logger := log.With(slog.String("op", op))

		pubgID := chi.URLParam(r, "pubgId")
		if pubgID == "" {
			writeError(w, http.StatusBadRequest, "pubgId parameter is required")
			return
		}

		orders, err := orderService.ListByPubgID(r.Context(), pubgID)
		if err != nil {
			logger.Error("failed to list user orders", slog.Any("error", err))
			writeJSON(w, http.StatusOK, []*models.Order{})
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}

		writeJSON(w, http.StatusOK, orders)
	}
}
