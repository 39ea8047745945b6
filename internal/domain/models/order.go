package models

import "time"

// Статусы заказа. Метки соответствуют тому, что видит клиент в витрине,
// поэтому хранятся в исходном виде, без перевода.
const (
	StatusPending   = "en attente"
	StatusDelivered = "livré"
	StatusCancelled = "annulé"
)

// DefaultPaymentMethod — канал оплаты по умолчанию.
const DefaultPaymentMethod = "MVola"

// Order представляет одну заявку на пополнение игрового счёта.
// После создания изменяется только поле Status.
type Order struct {
	ID            int64     `json:"id"`
	Date          time.Time `json:"date"`
	PubgID        string    `json:"pubgId"`
	Pseudo        string    `json:"pseudo"`
	Pack          string    `json:"pack"`
	Price         string    `json:"price"` // сумма с валютным суффиксом, например "8000 Ar"
	PaymentMethod string    `json:"paymentMethod"`
	Reference     string    `json:"reference"`
	Status        string    `json:"status"`
}

// ValidStatus сообщает, входит ли метка в канонический набор статусов.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// TerminalStatus сообщает, является ли статус конечным:
// из "livré" и "annulé" переходов нет.
func TerminalStatus(status string) bool {
	return status == StatusDelivered || status == StatusCancelled
}
