package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType tells whether money entered or left an account. A
// transfer has no type of its own; it is recorded as a withdrawal on
// the sender and a deposit on the receiver.
type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
)

// Transaction is a single immutable ledger record. Once appended to an
// account's history it is never changed or removed.
type Transaction struct {
	// ID is assigned by the engine and is strictly increasing across
	// all accounts, not just within one.
	ID int64 `json:"id"`
	// Reference is an external tracking id, safe to hand to other
	// systems without exposing the sequence number.
	Reference   uuid.UUID       `json:"reference"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   time.Time       `json:"timestamp"`
	Description string          `json:"description,omitempty"`
}
