package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pedromatt/tinyledger/internal/audit"
	"github.com/pedromatt/tinyledger/internal/events"
	"github.com/pedromatt/tinyledger/internal/ledger"
)

// Server adapts HTTP requests onto the ledger engine. It owns no
// ledger state; it parses requests, calls the engine, and renders the
// result or maps a domain failure to a client error.
type Server struct {
	app       *fiber.App
	engine    *ledger.Engine
	publisher events.Publisher
	archiver  audit.Archiver
	log       *zap.Logger
}

func NewServer(engine *ledger.Engine, publisher events.Publisher, archiver audit.Archiver, log *zap.Logger) *Server {
	s := &Server{
		app:       fiber.New(fiber.Config{DisableStartupMessage: true}),
		engine:    engine,
		publisher: publisher,
		archiver:  archiver,
		log:       log,
	}

	s.app.Get("/ping", s.handlePing)

	group := s.app.Group("/ledger/:accountId")
	group.Post("/deposit", s.handleDeposit)
	group.Post("/withdraw", s.handleWithdraw)
	group.Post("/transfer", s.handleTransfer)
	group.Get("/balance", s.handleBalance)
	group.Get("/transactions", s.handleTransactions)

	return s
}

// Listen blocks serving the API until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

type ledgerRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type transferRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	ReceiverID  string          `json:"receiverId"`
}

type balanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type errorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (s *Server) handleDeposit(c *fiber.Ctx) error {
	accountID := c.Params("accountId")

	var req ledgerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	tx, err := s.engine.Deposit(accountID, req.Amount, req.Description)
	if err != nil {
		return s.renderError(c, err)
	}

	s.fanOut(c, accountID, tx)
	return c.JSON(tx)
}

func (s *Server) handleWithdraw(c *fiber.Ctx) error {
	accountID := c.Params("accountId")

	var req ledgerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	tx, err := s.engine.Withdraw(accountID, req.Amount, req.Description)
	if err != nil {
		return s.renderError(c, err)
	}

	s.fanOut(c, accountID, tx)
	return c.JSON(tx)
}

func (s *Server) handleTransfer(c *fiber.Ctx) error {
	senderID := c.Params("accountId")

	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	withdrawal, deposit, err := s.engine.Transfer(senderID, req.Amount, req.Description, req.ReceiverID)
	if err != nil {
		return s.renderError(c, err)
	}

	s.fanOut(c, senderID, withdrawal)
	s.fanOut(c, req.ReceiverID, deposit)
	return c.JSON([]ledger.Transaction{withdrawal, deposit})
}

func (s *Server) handleBalance(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	return c.JSON(balanceResponse{
		AccountID: accountID,
		Balance:   s.engine.Balance(accountID),
	})
}

func (s *Server) handleTransactions(c *fiber.Ctx) error {
	history := s.engine.Transactions(c.Params("accountId"))
	if history == nil {
		history = []ledger.Transaction{}
	}
	return c.JSON(history)
}

// fanOut hands a freshly recorded transaction to the event publisher
// and the audit archive. Both are best-effort: the transaction is
// already committed to the ledger, so failures are only logged.
func (s *Server) fanOut(c *fiber.Ctx, accountID string, tx ledger.Transaction) {
	ctx := c.UserContext()

	if err := s.publisher.Publish(ctx, events.NewTransactionRecorded(accountID, tx)); err != nil {
		s.log.Warn("publish transaction event failed",
			zap.Int64("transaction_id", tx.ID),
			zap.String("account_id", accountID),
			zap.Error(err))
	}
	if err := s.archiver.Archive(ctx, accountID, tx); err != nil {
		s.log.Warn("archive transaction failed",
			zap.Int64("transaction_id", tx.ID),
			zap.String("account_id", accountID),
			zap.Error(err))
	}
}

// renderError maps a domain failure onto the wire. Every validation
// error kind the engine can return is a client error.
func (s *Server) renderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrSameAccountTransfer):
		return badRequest(c, err.Error())
	default:
		s.log.Error("unexpected ledger error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
			Timestamp: time.Now().UTC(),
			Status:    fiber.StatusInternalServerError,
			Error:     "internal server error",
		})
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
		Timestamp: time.Now().UTC(),
		Status:    fiber.StatusBadRequest,
		Error:     message,
	})
}
