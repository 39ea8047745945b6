package models

import "time"

// Действия, фиксируемые в журнале аудита.
const (
	AuditActionCreate       = "CREATE"
	AuditActionStatusUpdate = "STATUS_UPDATE"
	AuditActionDelete       = "DELETE"
)

// AuditEntry — одна запись журнала аудита. Журнал только дописывается,
// записи никогда не редактируются и не удаляются.
type AuditEntry struct {
	ID        int64          `json:"-"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	OrderID   int64          `json:"orderId"`
	Details   map[string]any `json:"details,omitempty"`
}
