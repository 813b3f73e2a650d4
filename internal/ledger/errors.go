package ledger

import "errors"

var (
	// ErrInvalidAmount is returned when an amount is missing, zero or
	// negative.
	ErrInvalidAmount = errors.New("amount must be a positive value")

	// ErrInsufficientFunds is returned when a withdrawal or transfer
	// would overdraw the account.
	ErrInsufficientFunds = errors.New("cannot withdraw more money than the account balance")

	// ErrSameAccountTransfer is returned when sender and receiver are
	// the same account.
	ErrSameAccountTransfer = errors.New("cannot transfer money to the same account")
)
