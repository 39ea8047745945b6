package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magicgame/topup-store/internal/domain/models"
	"github.com/magicgame/topup-store/internal/storage"
)

var (
	ErrInvalidPubgID  = errors.New("pubg id must be 5-20 digits")
	ErrInvalidStatus  = errors.New("unknown order status")
	ErrOrderFinalized = errors.New("order is in a terminal status")
)

// Число попыток подобрать свободный id при коллизии миллисекундных меток.
const createMaxAttempts = 5

type OrderService interface {
	Create(ctx context.Context, order *models.Order) (int64, error)
	ListAll(ctx context.Context) ([]*models.Order, error)
	ListByPubgID(ctx context.Context, pubgID string) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, newStatus, adminEmail string) error
	Delete(ctx context.Context, id int64, adminEmail string) error
	AuditLog(ctx context.Context) ([]*models.AuditEntry, error)
}

type orderService struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
	auditRepo storage.AuditStorage
	now       func() time.Time
}

func NewOrderService(log *slog.Logger, orderRepo storage.OrderStorage, auditRepo storage.AuditStorage) OrderService {
	return &orderService{
		log:       log,
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		now:       time.Now,
	}
}

// validPubgID проверяет идентификатор игрока: только цифры, длина от 5 до 20.
func validPubgID(pubgID string) bool {
	if len(pubgID) < 5 || len(pubgID) > 20 {
		return false
	}
	for _, c := range pubgID {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Create назначает заказу id от текущего времени, статус "en attente"
// и сохраняет его. Повторная отправка тех же полей создаёт независимый
// заказ — дедупликации нет.
func (s *orderService) Create(ctx context.Context, order *models.Order) (int64, error) {
	const op = "service.OrderService.Create"
	logger := s.log.With(slog.String("op", op), slog.String("pubgId", order.PubgID))

	if !validPubgID(order.PubgID) {
		logger.Warn("invalid pubg id")
		return 0, ErrInvalidPubgID
	}

	if order.PaymentMethod == "" {
		order.PaymentMethod = models.DefaultPaymentMethod
	}
	order.Date = s.now()
	order.Status = models.StatusPending
	order.ID = order.Date.UnixMilli()

	// Миллисекундная метка почти всегда уникальна; на случай двух заказов
	// в одну миллисекунду пробуем соседние значения.
	var err error
	for attempt := 0; attempt < createMaxAttempts; attempt++ {
		err = s.orderRepo.CreateOrder(ctx, order)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrOrderIDConflict) {
			logger.Error("failed to create order", slog.Any("error", err))
			return 0, fmt.Errorf("%s: failed to create order: %w", op, err)
		}
		order.ID++
	}
	if err != nil {
		logger.Error("could not assign unique order id", slog.Any("error", err))
		return 0, fmt.Errorf("%s: could not assign unique order id: %w", op, err)
	}

	s.appendAudit(ctx, logger, &models.AuditEntry{
		Timestamp: s.now(),
		Action:    models.AuditActionCreate,
		OrderID:   order.ID,
		Details: map[string]any{
			"pubgId": order.PubgID,
			"pseudo": order.Pseudo,
			"pack":   order.Pack,
			"price":  order.Price,
		},
	})

	logger.Info("order created", slog.Int64("orderID", order.ID))
	return order.ID, nil
}

func (s *orderService) ListAll(ctx context.Context) ([]*models.Order, error) {
	const op = "service.OrderService.ListAll"
	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) ListByPubgID(ctx context.Context, pubgID string) ([]*models.Order, error) {
	const op = "service.OrderService.ListByPubgID"
	orders, err := s.orderRepo.GetOrdersByPubgID(ctx, pubgID)
	if err != nil {
		s.log.Error("failed to list user orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// UpdateStatus переводит заказ в новый статус. Допустимы только канонические
// метки; из конечных статусов ("livré", "annulé") переходов нет.
func (s *orderService) UpdateStatus(ctx context.Context, id int64, newStatus, adminEmail string) error {
	const op = "service.OrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", id), slog.String("newStatus", newStatus))

	if !models.ValidStatus(newStatus) {
		logger.Warn("unknown status")
		return ErrInvalidStatus
	}

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return storage.ErrOrderNotFound
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	if models.TerminalStatus(order.Status) && newStatus != order.Status {
		logger.Warn("transition out of terminal status rejected", slog.String("oldStatus", order.Status))
		return ErrOrderFinalized
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, newStatus); err != nil {
		logger.Error("failed to update status", slog.Any("error", err))
		return fmt.Errorf("%s: failed to update status: %w", op, err)
	}

	s.appendAudit(ctx, logger, &models.AuditEntry{
		Timestamp: s.now(),
		Action:    models.AuditActionStatusUpdate,
		OrderID:   id,
		Details: map[string]any{
			"oldStatus": order.Status,
			"newStatus": newStatus,
			"updatedBy": adminEmail,
		},
	})

	logger.Info("status updated", slog.String("oldStatus", order.Status))
	return nil
}

// Delete удаляет заказ безвозвратно; полный снимок записи уходит в журнал
// аудита — единственный путь восстановить её после удаления.
func (s *orderService) Delete(ctx context.Context, id int64, adminEmail string) error {
	const op = "service.OrderService.Delete"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", id))

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return storage.ErrOrderNotFound
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	if err := s.orderRepo.DeleteOrder(ctx, id); err != nil {
		logger.Error("failed to delete order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete order: %w", op, err)
	}

	s.appendAudit(ctx, logger, &models.AuditEntry{
		Timestamp: s.now(),
		Action:    models.AuditActionDelete,
		OrderID:   id,
		Details: map[string]any{
			"deletedBy": adminEmail,
			"deleted":   order,
		},
	})

	logger.Info("order deleted", slog.String("deletedBy", adminEmail))
	return nil
}

func (s *orderService) AuditLog(ctx context.Context) ([]*models.AuditEntry, error) {
	const op = "service.OrderService.AuditLog"
	entries, err := s.auditRepo.ListEntries(ctx)
	if err != nil {
		s.log.Error("failed to read audit log", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

// appendAudit дописывает запись журнала. Сбой журнала не откатывает уже
// выполненную мутацию, но обязательно попадает в лог процесса.
func (s *orderService) appendAudit(ctx context.Context, logger *slog.Logger, entry *models.AuditEntry) {
	if err := s.auditRepo.AppendEntry(ctx, entry); err != nil {
		logger.Error("failed to append audit entry", slog.Any("error", err))
	}
}
