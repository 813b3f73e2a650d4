package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/pedromatt/tinyledger/internal/audit"
	"github.com/pedromatt/tinyledger/internal/ledger"
)

const createTable = `CREATE TABLE IF NOT EXISTS ledger_audit (
	id           BIGINT PRIMARY KEY,
	reference    UUID NOT NULL,
	account_id   TEXT NOT NULL,
	type         TEXT NOT NULL,
	amount       NUMERIC NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	recorded_at  TIMESTAMPTZ NOT NULL
)`

// Archiver appends recorded transactions to a Postgres table. It is an
// audit trail only; the in-memory engine stays the source of truth and
// nothing is replayed from here at startup.
type Archiver struct {
	db *sql.DB
}

func NewArchiver(dsn string) (*Archiver, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	return &Archiver{db: db}, nil
}

func (a *Archiver) Archive(ctx context.Context, accountID string, tx ledger.Transaction) error {
	const query = `INSERT INTO ledger_audit (id, reference, account_id, type, amount, description, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := a.db.ExecContext(ctx, query,
		tx.ID, tx.Reference, accountID, string(tx.Type), tx.Amount, tx.Description, tx.Timestamp)
	return err
}

func (a *Archiver) Close() error {
	return a.db.Close()
}

var _ audit.Archiver = (*Archiver)(nil)
