package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/magicgame/topup-store/internal/domain/models"
	"github.com/magicgame/topup-store/internal/service"
)

// RestoreRequest — конверт восстановления в формате файла резервной копии.
type RestoreRequest struct {
	BackupData *service.Snapshot `json:"backupData"`
	Orders     []*models.Order   `json:"orders"`
}

// RestoreResponse — подтверждение восстановления.
type RestoreResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// BackupResponse — подтверждение создания резервной копии.
type BackupResponse struct {
	Message string `json:"message"`
	File    string `json:"file"`
	Count   int    `json:"count"`
}

// AuditLogResponse — содержимое журнала аудита.
type AuditLogResponse struct {
	Logs []*models.AuditEntry `json:"logs"`
}

// ExportHandler обрабатывает запрос GET /api/admin/export:
// отдаёт все заказы одним JSON-массивом как скачиваемый файл.
func ExportHandler(log *slog.Logger, backupService service.BackupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ExportHandler"
		logger := log.With(slog.String("op", op))

		orders, err := backupService.Export(r.Context())
		if err != nil {
			logger.Error("failed to export orders", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=orders-%d.json", time.Now().UnixMilli()))
		writeJSON(w, http.StatusOK, orders)
	}
}

// BackupHandler обрабатывает запрос GET /api/admin/backup
func BackupHandler(log *slog.Logger, backupService service.BackupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.BackupHandler"
		logger := log.With(slog.String("op", op))

		info, err := backupService.CreateBackup(r.Context())
		if err != nil {
			logger.Error("failed to create backup", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, BackupResponse{
			Message: "backup created",
			File:    info.File,
			Count:   info.Count,
		})
	}
}

// RestoreHandler обрабатывает запрос POST /api/admin/restore.
// Принимает либо голый массив заказов (формат export), либо конверт
// {"backupData": {"orders": [...]}} / {"orders": [...]} (формат backup).
func RestoreHandler(log *slog.Logger, backupService service.BackupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RestoreHandler"
		logger := log.With(slog.String("op", op))

		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		orders, err := decodeSnapshotOrders(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, service.ErrInvalidSnapshot.Error())
			return
		}

		if err := backupService.Restore(r.Context(), orders); err != nil {
			if errors.Is(err, service.ErrInvalidSnapshot) {
				writeError(w, http.StatusBadRequest, service.ErrInvalidSnapshot.Error())
				return
			}
			logger.Error("failed to restore orders", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, RestoreResponse{
			Message: "orders restored",
			Count:   len(orders),
		})
	}
}

func decodeSnapshotOrders(raw json.RawMessage) ([]*models.Order, error) {
	// Сначала пробуем голый массив
	var orders []*models.Order
	if err := json.Unmarshal(raw, &orders); err == nil {
		return orders, nil
	}

	var req RestoreRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, service.ErrInvalidSnapshot
	}
	if req.BackupData != nil && req.BackupData.Orders != nil {
		return req.BackupData.Orders, nil
	}
	if req.Orders != nil {
		return req.Orders, nil
	}
	return nil, service.ErrInvalidSnapshot
}

// AuditLogHandler обрабатывает запрос GET /api/admin/debug/orders-log
func AuditLogHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AuditLogHandler"
		logger := log.With(slog.String("op", op))

		entries, err := orderService.AuditLog(r.Context())
		if err != nil {
			logger.Error("failed to read audit log", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if entries == nil {
			entries = []*models.AuditEntry{}
		}

		writeJSON(w, http.StatusOK, AuditLogResponse{Logs: entries})
	}
}
