package audit

import (
	"context"

	"github.com/pedromatt/tinyledger/internal/ledger"
)

// Archiver receives a copy of every recorded transaction for offline
// inspection. The archive is write-only from the service's point of
// view: the engine never reads it back, and losing it loses nothing
// the ledger needs.
type Archiver interface {
	Archive(ctx context.Context, accountID string, tx ledger.Transaction) error
	Close() error
}

// Nop drops everything. Used when no archive database is configured.
type Nop struct{}

func (Nop) Archive(context.Context, string, ledger.Transaction) error { return nil }

func (Nop) Close() error { return nil }

var _ Archiver = Nop{}
