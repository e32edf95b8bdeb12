package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// StreamTransaction сообщение из топика transactions.
// Формат публикует внешняя система, тип операции в нем отсутствует.
type StreamTransaction struct {
	Amount      decimal.Decimal `json:"amount"`
	Merchant    string          `json:"merchant"`
	UserID      string          `json:"user_id"`
	Description string          `json:"description"`
}

// DeadLetterMessage обертка для необрабатываемых сообщений стрима,
// публикуется в dead-letter топик вместо бесконечных ретраев.
type DeadLetterMessage struct {
	Reason   string          `json:"reason"`
	Payload  json.RawMessage `json:"payload"`
	FailedAt time.Time       `json:"failed_at"`
}
