package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const SettlementCompletedTopic = "settlement_completed"

type SettlementCompleted struct {
	EntryID    string          `json:"entry_id"`
	Kind       string          `json:"type_of_operation"`
	SenderID   string          `json:"sender_id,omitempty"`
	ReceiverID string          `json:"receiver_id"`
	Amount     decimal.Decimal `json:"amount"`
	Fee        decimal.Decimal `json:"fee"`
	OccurredAt time.Time       `json:"occurred_at"`
}
