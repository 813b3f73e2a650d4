package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pedromatt/tinyledger/internal/audit"
	"github.com/pedromatt/tinyledger/internal/events"
	"github.com/pedromatt/tinyledger/internal/ledger"
)

// capturingPublisher records every published event for assertions.
type capturingPublisher struct {
	published []events.TransactionRecorded
}

func (p *capturingPublisher) Publish(_ context.Context, event events.TransactionRecorded) error {
	p.published = append(p.published, event)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func newTestServer() (*Server, *capturingPublisher) {
	publisher := &capturingPublisher{}
	s := NewServer(ledger.NewEngine(), publisher, audit.Nop{}, zap.NewNop())
	return s, publisher
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

func TestPing(t *testing.T) {
	s, _ := newTestServer()

	resp, body := doJSON(t, s, http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))
}

func TestDepositReturnsTransaction(t *testing.T) {
	s, publisher := newTestServer()

	resp, body := doJSON(t, s, http.MethodPost, "/ledger/acc-1/deposit",
		`{"amount": "100.00", "description": "Initial"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var tx ledger.Transaction
	require.NoError(t, json.Unmarshal(body, &tx))
	assert.Equal(t, ledger.TypeDeposit, tx.Type)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, "Initial", tx.Description)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, "acc-1", publisher.published[0].AccountID)
	assert.Equal(t, tx.ID, publisher.published[0].TransactionID)
}

func TestDepositInvalidAmountMapsToBadRequest(t *testing.T) {
	s, publisher := newTestServer()

	resp, body := doJSON(t, s, http.MethodPost, "/ledger/acc-1/deposit",
		`{"amount": "-5.00"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp struct {
		Timestamp string `json:"timestamp"`
		Status    int    `json:"status"`
		Error     string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, http.StatusBadRequest, errResp.Status)
	assert.NotEmpty(t, errResp.Timestamp)
	assert.Contains(t, errResp.Error, "positive")

	assert.Empty(t, publisher.published)
}

func TestDepositMalformedBodyMapsToBadRequest(t *testing.T) {
	s, _ := newTestServer()

	resp, _ := doJSON(t, s, http.MethodPost, "/ledger/acc-1/deposit", `{not json`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWithdrawInsufficientFundsMapsToBadRequest(t *testing.T) {
	s, _ := newTestServer()
	doJSON(t, s, http.MethodPost, "/ledger/acc-1/deposit", `{"amount": "100.00"}`)

	resp, body := doJSON(t, s, http.MethodPost, "/ledger/acc-1/withdraw",
		`{"amount": "300.00", "description": "Too big"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "balance")

	// The failed withdrawal must not have touched the account.
	resp, payload := doJSON(t, s, http.MethodGet, "/ledger/acc-1/transactions", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var history []ledger.Transaction
	require.NoError(t, json.Unmarshal(payload, &history))
	assert.Len(t, history, 1)
}

func TestTransferReturnsBothLegs(t *testing.T) {
	s, publisher := newTestServer()
	doJSON(t, s, http.MethodPost, "/ledger/acc-a/deposit", `{"amount": "100.00"}`)

	resp, body := doJSON(t, s, http.MethodPost, "/ledger/acc-a/transfer",
		`{"amount": "25.00", "description": "Payback", "receiverId": "acc-b"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var legs []ledger.Transaction
	require.NoError(t, json.Unmarshal(body, &legs))
	require.Len(t, legs, 2)
	assert.Equal(t, ledger.TypeWithdrawal, legs[0].Type)
	assert.Equal(t, ledger.TypeDeposit, legs[1].Type)
	assert.Less(t, legs[0].ID, legs[1].ID)

	// One event per leg, attributed to the right account.
	require.Len(t, publisher.published, 3) // initial deposit + both legs
	assert.Equal(t, "acc-a", publisher.published[1].AccountID)
	assert.Equal(t, "acc-b", publisher.published[2].AccountID)

	_, payload := doJSON(t, s, http.MethodGet, "/ledger/acc-a/balance", "")
	var balance struct {
		AccountID string          `json:"account_id"`
		Balance   decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(payload, &balance))
	assert.True(t, balance.Balance.Equal(decimal.RequireFromString("75.00")))
}

func TestTransferToSameAccountMapsToBadRequest(t *testing.T) {
	s, _ := newTestServer()
	doJSON(t, s, http.MethodPost, "/ledger/acc-a/deposit", `{"amount": "100.00"}`)

	resp, body := doJSON(t, s, http.MethodPost, "/ledger/acc-a/transfer",
		`{"amount": "10.00", "receiverId": "acc-a"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "same account")
}

func TestBalanceOfUnknownAccountIsZero(t *testing.T) {
	s, _ := newTestServer()

	resp, body := doJSON(t, s, http.MethodGet, "/ledger/ghost/balance", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var balance struct {
		Balance decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(body, &balance))
	assert.True(t, balance.Balance.IsZero())
}

func TestTransactionsOfUnknownAccountIsEmptyArray(t *testing.T) {
	s, _ := newTestServer()

	resp, body := doJSON(t, s, http.MethodGet, "/ledger/ghost/transactions", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))
}
