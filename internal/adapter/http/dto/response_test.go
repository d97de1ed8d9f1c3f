package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

func TestWalletFromSnapshot(t *testing.T) {
	now := time.Now()
	snapshot := &usecase.WalletSnapshot{
		ID:            "w1",
		OwnerID:       "u1",
		CurrencyID:    "c1",
		CurrencyCode:  "USD",
		DecimalPlaces: 2,
		BalanceMinor:  12345,
		Balance:       "123.45",
		Status:        domain.WalletStatusActive,
		UpdatedAt:     now,
	}

	resp := WalletFromSnapshot(snapshot)
	if resp.ID != "w1" || resp.Balance != "123.45" || resp.BalanceMinor != 12345 || resp.Currency != "USD" {
		t.Fatalf("unexpected wallet response: %+v", resp)
	}

	if WalletFromSnapshot(nil) != nil {
		t.Fatalf("expected nil for nil snapshot")
	}

	list := WalletsFromSnapshots([]*usecase.WalletSnapshot{snapshot, snapshot})
	if len(list) != 2 || list[1].ID != "w1" {
		t.Fatalf("unexpected wallet list %+v", list)
	}
}

func TestTransactionFromSnapshot_OmitsEmptyRelatedWallet(t *testing.T) {
	resp := TransactionFromSnapshot(&usecase.TransactionSnapshot{
		ID:           "t1",
		WalletID:     "w1",
		Amount:       "5.00",
		AmountMinor:  500,
		CurrencyCode: "USD",
		Type:         domain.TransactionTypeDeposit,
		Status:       domain.TransactionStatusComplete,
	})

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if strings.Contains(string(body), "related_wallet_id") {
		t.Fatalf("expected related_wallet_id to be omitted, got %s", body)
	}
	if !strings.Contains(string(body), `"amount":"5.00"`) {
		t.Fatalf("expected amount as decimal string, got %s", body)
	}
}

func TestTransferFromResult_HidesReceiver(t *testing.T) {
	resp := TransferFromResult(&usecase.TransferResult{
		Sender:      &usecase.WalletSnapshot{ID: "sender"},
		Receiver:    &usecase.WalletSnapshot{ID: "receiver", Balance: "999.00"},
		Transaction: &usecase.TransactionSnapshot{ID: "t1", RelatedWalletID: "receiver"},
		Replayed:    true,
	})

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if strings.Contains(string(body), "999.00") {
		t.Fatalf("receiver balance leaked: %s", body)
	}
	if resp.Wallet.ID != "sender" || !resp.Replayed || resp.Transaction.RelatedWalletID != "receiver" {
		t.Fatalf("unexpected transfer response %+v", resp)
	}
}

func TestAuthFromResult(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	resp := AuthFromResult(&usecase.AuthResult{
		User:    &usecase.UserSnapshot{ID: "u1", Username: "alice", Role: domain.RoleUser},
		Wallets: []*usecase.WalletSnapshot{{ID: "w1"}},
		Session: &usecase.Session{Token: "tok", ExpiresAt: expires},
	})

	if resp.Token != "tok" || !resp.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected session fields %+v", resp)
	}
	if resp.User.Username != "alice" || len(resp.Wallets) != 1 {
		t.Fatalf("unexpected auth response %+v", resp)
	}
}

func TestCurrenciesFromDomain(t *testing.T) {
	list := CurrenciesFromDomain([]*domain.Currency{
		{ID: "c1", Code: "USD", Name: "US Dollar", DecimalPlaces: 2},
		{ID: "c2", Code: "JPY", Name: "Yen", DecimalPlaces: 0},
	})

	if len(list) != 2 || list[1].Code != "JPY" || list[1].DecimalPlaces != 0 {
		t.Fatalf("unexpected currencies %+v", list)
	}
}
