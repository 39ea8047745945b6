package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/magicgame/topup-store/internal/domain/models"
	"github.com/magicgame/topup-store/internal/storage"
)

var ErrInvalidSnapshot = errors.New("snapshot is not an array of order records")

// Snapshot — содержимое файла резервной копии.
type Snapshot struct {
	Timestamp time.Time       `json:"timestamp"`
	Count     int             `json:"count"`
	Orders    []*models.Order `json:"orders"`
}

// BackupInfo — ответ на создание резервной копии.
type BackupInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
	File      string    `json:"file"`
}

type BackupService interface {
	// Export возвращает все заказы для выгрузки клиенту; без побочных эффектов.
	Export(ctx context.Context) ([]*models.Order, error)
	// CreateBackup пишет snapshot в файл в каталоге резервных копий.
	// Прежние копии не удаляются.
	CreateBackup(ctx context.Context) (*BackupInfo, error)
	// Restore замещает весь живой набор заказов содержимым snapshot.
	Restore(ctx context.Context, orders []*models.Order) error
}

type backupService struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
	dir       string
	now       func() time.Time
}

func NewBackupService(log *slog.Logger, orderRepo storage.OrderStorage, dir string) BackupService {
	return &backupService{
		log:       log,
		orderRepo: orderRepo,
		dir:       dir,
		now:       time.Now,
	}
}

func (s *backupService) Export(ctx context.Context) ([]*models.Order, error) {
	const op = "service.BackupService.Export"
	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		s.log.Error("failed to export orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

func (s *backupService) CreateBackup(ctx context.Context) (*BackupInfo, error) {
	const op = "service.BackupService.CreateBackup"
	logger := s.log.With(slog.String("op", op))

	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		logger.Error("failed to get orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	if orders == nil {
		orders = []*models.Order{}
	}

	now := s.now()
	snapshot := Snapshot{
		Timestamp: now,
		Count:     len(orders),
		Orders:    orders,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal snapshot: %w", op, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: failed to create backup dir: %w", op, err)
	}

	filename := fmt.Sprintf("backup-%d.json", now.UnixMilli())
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		logger.Error("failed to write backup file", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to write backup file: %w", op, err)
	}

	logger.Info("backup created", slog.String("file", filename), slog.Int("count", len(orders)))
	return &BackupInfo{Timestamp: now, Count: len(orders), File: filename}, nil
}

// Restore деструктивен: заказы, созданные после снятия snapshot, будут
// потеряны. Замещение выполняется одной транзакцией хранилища.
func (s *backupService) Restore(ctx context.Context, orders []*models.Order) error {
	const op = "service.BackupService.Restore"
	logger := s.log.With(slog.String("op", op))

	if orders == nil {
		return ErrInvalidSnapshot
	}
	for _, order := range orders {
		if order == nil || order.ID == 0 || order.PubgID == "" || order.Pseudo == "" ||
			order.Pack == "" || order.Price == "" || order.Reference == "" {
			return ErrInvalidSnapshot
		}
		if order.Status == "" {
			order.Status = models.StatusPending
		}
		if order.PaymentMethod == "" {
			order.PaymentMethod = models.DefaultPaymentMethod
		}
	}

	if err := s.orderRepo.ReplaceAllOrders(ctx, orders); err != nil {
		logger.Error("failed to replace orders", slog.Any("error", err))
		return fmt.Errorf("%s: failed to replace orders: %w", op, err)
	}

	logger.Info("orders restored", slog.Int("count", len(orders)))
	return nil
}
