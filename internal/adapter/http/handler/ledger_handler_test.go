package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

type ledgerServiceStub struct {
	depositFn  func(ctx context.Context, input usecase.DepositInput) (*usecase.DepositResult, error)
	withdrawFn func(ctx context.Context, input usecase.WithdrawInput) (*usecase.WithdrawResult, error)
	transferFn func(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
}

func (s *ledgerServiceStub) Deposit(ctx context.Context, input usecase.DepositInput) (*usecase.DepositResult, error) {
	return s.depositFn(ctx, input)
}

func (s *ledgerServiceStub) Withdraw(ctx context.Context, input usecase.WithdrawInput) (*usecase.WithdrawResult, error) {
	return s.withdrawFn(ctx, input)
}

func (s *ledgerServiceStub) Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error) {
	return s.transferFn(ctx, input)
}

// countingRetrier retries once on any error.
type countingRetrier struct {
	calls int
}

func (r *countingRetrier) Retry(ctx context.Context, operation func() error) error {
	var err error
	for i := 0; i < 2; i++ {
		r.calls++
		if err = operation(); err == nil {
			return nil
		}
	}
	return err
}

func authedRequest(method, path string, body any) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	return req.WithContext(domain.WithPrincipal(req.Context(), domain.Principal{UserID: "actor-1", Role: domain.RoleEmployee}))
}

func TestLedgerHandler_Deposit_Success(t *testing.T) {
	var captured usecase.DepositInput
	handler := NewLedgerHandler(&ledgerServiceStub{
		depositFn: func(ctx context.Context, input usecase.DepositInput) (*usecase.DepositResult, error) {
			captured = input
			return &usecase.DepositResult{
				Wallet:      &usecase.WalletSnapshot{ID: "w1", Balance: "10.50", BalanceMinor: 1050},
				Transaction: &usecase.TransactionSnapshot{ID: "t1", Amount: "10.50"},
			}, nil
		},
	}, nil)

	req := authedRequest(http.MethodPost, "/transactions/deposit", map[string]any{"wallet_id": "w1", "amount": "10.50"})
	req.Header.Set(middleware.IdempotencyKeyHeader, "dep-1")
	rec := httptest.NewRecorder()

	handler.Deposit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.ActorID != "actor-1" || captured.WalletID != "w1" || captured.IdempotencyKey != "dep-1" {
		t.Fatalf("unexpected input %+v", captured)
	}
	if !captured.Amount.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("unexpected amount %s", captured.Amount)
	}

	var resp dto.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Wallet.Balance != "10.50" || resp.Replayed {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestLedgerHandler_Withdraw_ReplayReturns200(t *testing.T) {
	handler := NewLedgerHandler(&ledgerServiceStub{
		withdrawFn: func(ctx context.Context, input usecase.WithdrawInput) (*usecase.WithdrawResult, error) {
			return &usecase.WithdrawResult{
				Wallet:      &usecase.WalletSnapshot{ID: "w1"},
				Transaction: &usecase.TransactionSnapshot{ID: "t1"},
				Replayed:    true,
			}, nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	handler.Withdraw(rec, authedRequest(http.MethodPost, "/transactions/withdraw", map[string]any{"wallet_id": "w1", "amount": 1}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for replay, got %d", rec.Code)
	}
}

func TestLedgerHandler_Transfer_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"insufficient", domain.ErrInsufficientBalance, http.StatusConflict},
		{"receiver missing", domain.ErrReceiverNotFound, http.StatusNotFound},
		{"not owner", domain.ErrUnauthorized, http.StatusForbidden},
		{"lock timeout", domain.ErrLockTimeout, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			handler := NewLedgerHandler(&ledgerServiceStub{
				transferFn: func(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error) {
					return nil, tt.err
				},
			}, nil)

			rec := httptest.NewRecorder()
			handler.Transfer(rec, authedRequest(http.MethodPost, "/transactions/p2p", map[string]any{
				"sender_wallet_id": "w1", "receiver": "bob", "amount": "1",
			}))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestLedgerHandler_Transfer_UsesRetrier(t *testing.T) {
	attempts := 0
	retrier := &countingRetrier{}
	handler := NewLedgerHandler(&ledgerServiceStub{
		transferFn: func(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error) {
			attempts++
			if attempts == 1 {
				return nil, errors.New("deadlock detected")
			}
			return &usecase.TransferResult{
				Sender:      &usecase.WalletSnapshot{ID: "w1"},
				Transaction: &usecase.TransactionSnapshot{ID: "t1"},
			}, nil
		},
	}, retrier)

	rec := httptest.NewRecorder()
	handler.Transfer(rec, authedRequest(http.MethodPost, "/transactions/p2p", map[string]any{
		"sender_wallet_id": "w1", "receiver": "bob", "amount": "1",
	}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 after retry, got %d", rec.Code)
	}
	if retrier.calls != 2 || attempts != 2 {
		t.Fatalf("expected two attempts, got retrier=%d service=%d", retrier.calls, attempts)
	}
}

func TestLedgerHandler_RejectsBadInput(t *testing.T) {
	handler := NewLedgerHandler(&ledgerServiceStub{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/transactions/deposit", bytes.NewBufferString(`{"amount":`))
	req = req.WithContext(domain.WithPrincipal(req.Context(), domain.Principal{UserID: "actor-1"}))
	rec := httptest.NewRecorder()
	handler.Deposit(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Deposit(rec, httptest.NewRequest(http.MethodPost, "/transactions/deposit", bytes.NewBufferString(`{}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", rec.Code)
	}
}
