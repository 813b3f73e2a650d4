package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine is the in-memory ledger. It owns every account's transaction
// history plus the global id counter, and is safe for concurrent use.
//
// Balances are never stored; they are derived by folding an account's
// history, so they cannot drift from it. Each account carries its own
// mutex, held across the whole check-then-append window of a mutation
// so two concurrent withdrawals can never both pass the balance check
// against a stale balance.
type Engine struct {
	mu       sync.Mutex // protects the accounts map itself
	accounts map[string]*account

	idMu   sync.Mutex
	lastID int64
}

// account bundles one account's history with the lock that guards it.
type account struct {
	mu      sync.Mutex
	history []Transaction
}

// NewEngine returns an empty ledger. State is volatile: every process
// starts from a clean ledger.
func NewEngine() *Engine {
	return &Engine{
		accounts: make(map[string]*account),
	}
}

// account returns the entry for accountID, creating it on first use.
func (e *Engine) account(accountID string) *account {
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.accounts[accountID]
	if !ok {
		acc = &account{}
		e.accounts[accountID] = acc
	}
	return acc
}

// nextID hands out the next global sequence number. Allocation is
// serialized so ids are unique and strictly increasing engine-wide.
func (e *Engine) nextID() int64 {
	e.idMu.Lock()
	defer e.idMu.Unlock()

	e.lastID++
	return e.lastID
}

func (e *Engine) newTransaction(txType TransactionType, amount decimal.Decimal, description string) Transaction {
	return Transaction{
		ID:          e.nextID(),
		Reference:   uuid.New(),
		Type:        txType,
		Amount:      amount,
		Timestamp:   time.Now().UTC(),
		Description: description,
	}
}

// Deposit records money entering an account. The only failure mode is
// a non-positive amount; a deposit is never rejected for balance
// reasons.
func (e *Engine) Deposit(accountID string, amount decimal.Decimal, description string) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	acc := e.account(accountID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	tx := e.newTransaction(TypeDeposit, amount, description)
	acc.history = append(acc.history, tx)
	return tx, nil
}

// Withdraw records money leaving an account. It fails with
// ErrInsufficientFunds when amount exceeds the current balance;
// withdrawing the exact balance is allowed and leaves it at zero.
// On failure the history is untouched.
func (e *Engine) Withdraw(accountID string, amount decimal.Decimal, description string) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	acc := e.account(accountID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if amount.Cmp(balanceOf(acc.history)) > 0 {
		return Transaction{}, ErrInsufficientFunds
	}

	tx := e.newTransaction(TypeWithdrawal, amount, description)
	acc.history = append(acc.history, tx)
	return tx, nil
}

// Transfer moves money between two accounts atomically: it records a
// withdrawal on the sender and a deposit on the receiver, or nothing
// at all. All validation happens before either append, and both
// account locks are held for the whole operation, so no observer ever
// sees exactly one leg.
//
// The withdrawal is returned first and always carries the smaller id.
func (e *Engine) Transfer(senderID string, amount decimal.Decimal, description string, receiverID string) (Transaction, Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, Transaction{}, ErrInvalidAmount
	}
	if senderID == receiverID {
		return Transaction{}, Transaction{}, ErrSameAccountTransfer
	}

	sender := e.account(senderID)
	receiver := e.account(receiverID)

	// Lock both accounts in a fixed order so an opposing transfer on
	// the same pair cannot deadlock against us.
	if senderID < receiverID {
		sender.mu.Lock()
		receiver.mu.Lock()
	} else {
		receiver.mu.Lock()
		sender.mu.Lock()
	}
	defer sender.mu.Unlock()
	defer receiver.mu.Unlock()

	// Only the sender's balance matters; the receiver gains money
	// unconditionally.
	if amount.Cmp(balanceOf(sender.history)) > 0 {
		return Transaction{}, Transaction{}, ErrInsufficientFunds
	}

	withdrawal := e.newTransaction(TypeWithdrawal, amount,
		fmt.Sprintf("Transfer to account %s --- %s", receiverID, description))
	sender.history = append(sender.history, withdrawal)

	deposit := e.newTransaction(TypeDeposit, amount,
		fmt.Sprintf("Received from account %s --- %s", senderID, description))
	receiver.history = append(receiver.history, deposit)

	return withdrawal, deposit, nil
}

// lookup is the read-path counterpart of account: it never creates an
// entry, so queries for unknown accounts do not grow the map.
func (e *Engine) lookup(accountID string) (*account, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.accounts[accountID]
	return acc, ok
}

// Balance derives the account's balance from its full history. An
// account that has never transacted has balance zero; this is not an
// error.
func (e *Engine) Balance(accountID string) decimal.Decimal {
	acc, ok := e.lookup(accountID)
	if !ok {
		return decimal.Zero
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()

	return balanceOf(acc.history)
}

// Transactions returns the account's history in insertion order. The
// returned slice is a copy so callers cannot reach into engine state.
func (e *Engine) Transactions(accountID string) []Transaction {
	acc, ok := e.lookup(accountID)
	if !ok {
		return nil
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()

	snapshot := make([]Transaction, len(acc.history))
	copy(snapshot, acc.history)
	return snapshot
}

// balanceOf folds a history: deposits add, withdrawals subtract. The
// caller must hold the owning account's lock.
func balanceOf(history []Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range history {
		switch tx.Type {
		case TypeDeposit:
			balance = balance.Add(tx.Amount)
		case TypeWithdrawal:
			balance = balance.Sub(tx.Amount)
		}
	}
	return balance
}
