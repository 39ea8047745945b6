package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/magicgame/topup-store/internal/domain/models"
)

// AuditStorage описывает журнал аудита: только дозапись и чтение целиком.
type AuditStorage interface {
	AppendEntry(ctx context.Context, entry *models.AuditEntry) error
	ListEntries(ctx context.Context) ([]*models.AuditEntry, error)
}

type auditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) AuditStorage {
	return &auditRepository{db: db}
}

func (r *auditRepository) AppendEntry(ctx context.Context, entry *models.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	query := `INSERT INTO order_audit_log (ts, action, order_id, details) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, entry.Timestamp, entry.Action, entry.OrderID, details); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListEntries возвращает записи в порядке добавления, старые первыми.
func (r *auditRepository) ListEntries(ctx context.Context) ([]*models.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, ts, action, order_id, details FROM order_audit_log ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		entry := &models.AuditEntry{}
		var details []byte
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Action, &entry.OrderID, &details); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
