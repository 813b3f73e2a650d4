package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pedromatt/tinyledger/internal/ledger"
)

// TransactionRecorded is emitted after the engine has appended a
// transaction to an account's history.
type TransactionRecorded struct {
	TransactionID int64                  `json:"transaction_id"`
	Reference     uuid.UUID              `json:"reference"`
	AccountID     string                 `json:"account_id"`
	Type          ledger.TransactionType `json:"type"`
	Amount        decimal.Decimal        `json:"amount"`
	Description   string                 `json:"description,omitempty"`
	OccurredAt    time.Time              `json:"occurred_at"`
}

// NewTransactionRecorded builds the event for a transaction recorded
// on accountID.
func NewTransactionRecorded(accountID string, tx ledger.Transaction) TransactionRecorded {
	return TransactionRecorded{
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		AccountID:     accountID,
		Type:          tx.Type,
		Amount:        tx.Amount,
		Description:   tx.Description,
		OccurredAt:    tx.Timestamp,
	}
}

// Publisher delivers ledger events to interested downstream systems.
// Publishing is best-effort: a failed publish never unwinds a ledger
// mutation that already happened.
type Publisher interface {
	Publish(ctx context.Context, event TransactionRecorded) error
	Close() error
}

// Nop discards every event. Used when no broker is configured and in
// tests.
type Nop struct{}

func (Nop) Publish(context.Context, TransactionRecorded) error { return nil }

func (Nop) Close() error { return nil }

var _ Publisher = Nop{}
