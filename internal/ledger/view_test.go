package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/store/memory"
)

const testUser = "user-1"

func newTransaction(desc string, createdAt time.Time, date core.Date) core.Transaction {
	return core.Transaction{
		ID:          uuid.New(),
		UserID:      testUser,
		Type:        core.Expense,
		Description: desc,
		Amount:      decimal.NewFromInt(10),
		Date:        date,
		CreatedAt:   createdAt,
	}
}

func TestView_Ordering(t *testing.T) {
	stores := memory.NewStores()
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	older := newTransaction("older", base, core.NewDate(2024, 6, 1))
	newer := newTransaction("newer", base.Add(time.Hour), core.NewDate(2024, 5, 1))
	// No CreatedAt: ordering falls back to the transaction date.
	legacy := newTransaction("legacy", time.Time{}, core.NewDate(2024, 6, 1))

	for _, tx := range []core.Transaction{older, newer, legacy} {
		if err := stores.Transactions.Add(ctx, tx); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	v := NewView(stores.Transactions, testUser)
	defer v.Close()

	got := v.Snapshot()
	if len(got) != 3 {
		t.Fatalf("Snapshot() has %d transactions, want 3", len(got))
	}
	want := []string{"newer", "older", "legacy"}
	for i, desc := range want {
		if got[i].Description != desc {
			t.Errorf("Snapshot()[%d] = %q, want %q", i, got[i].Description, desc)
		}
	}
}

func TestView_TracksMutations(t *testing.T) {
	stores := memory.NewStores()
	ctx := context.Background()

	v := NewView(stores.Transactions, testUser)
	defer v.Close()

	if len(v.Snapshot()) != 0 {
		t.Fatal("fresh view is not empty")
	}

	tx := newTransaction("groceries", time.Now().UTC(), core.NewDate(2024, 6, 1))
	if err := stores.Transactions.Add(ctx, tx); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if len(v.Snapshot()) != 1 {
		t.Error("view missed an added transaction")
	}

	if err := stores.Transactions.Remove(ctx, testUser, tx.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(v.Snapshot()) != 0 {
		t.Error("view missed a removal")
	}
}

func TestView_Subscribe(t *testing.T) {
	stores := memory.NewStores()
	ctx := context.Background()

	v := NewView(stores.Transactions, testUser)
	defer v.Close()

	var deliveries [][]core.Transaction
	unsubscribe := v.Subscribe(func(txs []core.Transaction) {
		deliveries = append(deliveries, txs)
	}, nil)

	if len(deliveries) != 1 {
		t.Fatalf("got %d deliveries after subscribe, want immediate snapshot", len(deliveries))
	}

	if err := stores.Transactions.Add(ctx, newTransaction("a", time.Now().UTC(), core.NewDate(2024, 6, 1))); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("got %d deliveries after mutation, want 2", len(deliveries))
	}

	unsubscribe()
	if err := stores.Transactions.Add(ctx, newTransaction("b", time.Now().UTC(), core.NewDate(2024, 6, 2))); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if len(deliveries) != 2 {
		t.Error("delivery after unsubscribe")
	}
}

func TestView_IsolatedPerUser(t *testing.T) {
	stores := memory.NewStores()
	ctx := context.Background()

	v := NewView(stores.Transactions, testUser)
	defer v.Close()

	other := newTransaction("other", time.Now().UTC(), core.NewDate(2024, 6, 1))
	other.UserID = "user-2"
	if err := stores.Transactions.Add(ctx, other); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if len(v.Snapshot()) != 0 {
		t.Error("view shows another user's transaction")
	}
}

func TestService_Create(t *testing.T) {
	stores := memory.NewStores()
	s := NewService(stores.Transactions, nil)
	ctx := context.Background()

	created, err := s.Create(ctx, core.Transaction{
		UserID:      testUser,
		Description: "Coffee",
		Amount:      decimal.NewFromInt(3),
		Date:        core.NewDate(2024, 6, 1),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == uuid.Nil {
		t.Error("created transaction has no id")
	}
	if created.Type != core.Expense {
		t.Errorf("Type = %q, want normalized to expense", created.Type)
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}

	t.Run("invalid transaction rejected", func(t *testing.T) {
		_, err := s.Create(ctx, core.Transaction{UserID: testUser})
		var validation *core.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("Create() error = %v, want ValidationError", err)
		}
	})
}

func TestService_Update(t *testing.T) {
	stores := memory.NewStores()
	s := NewService(stores.Transactions, nil)
	ctx := context.Background()

	from := uuid.New()
	created, err := s.Create(ctx, core.Transaction{
		UserID:             testUser,
		Description:        "Rent",
		Amount:             decimal.NewFromInt(800),
		Date:               core.NewDate(2024, 6, 1),
		GeneratedFrom:      &from,
		IsRecurring:        true,
		RecurringFrequency: core.Monthly,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	edit := created
	edit.Amount = decimal.NewFromInt(850)
	edit.GeneratedFrom = nil
	edit.IsRecurring = false
	updated, err := s.Update(ctx, edit)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// The returned record is the stored one, not an echo of the edit.
	if updated.GeneratedFrom == nil || !updated.IsRecurring {
		t.Error("Update() returned a record without its provenance fields")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want the original %v", updated.CreatedAt, created.CreatedAt)
	}

	stored, err := stores.Transactions.Get(ctx, testUser, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !stored.Amount.Equal(decimal.NewFromInt(850)) {
		t.Errorf("Amount = %v, want 850", stored.Amount)
	}
	// Provenance is fixed at creation.
	if stored.GeneratedFrom == nil || !stored.IsRecurring {
		t.Error("update cleared provenance fields")
	}
}

func TestService_PublishesEvents(t *testing.T) {
	stores := memory.NewStores()

	var actions []string
	s := NewService(stores.Transactions, publisherFunc(func(_ context.Context, _ string, _ uuid.UUID, action string) error {
		actions = append(actions, action)
		return nil
	}))
	ctx := context.Background()

	created, err := s.Create(ctx, core.Transaction{
		UserID:      testUser,
		Description: "Coffee",
		Amount:      decimal.NewFromInt(3),
		Date:        core.NewDate(2024, 6, 1),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Delete(ctx, testUser, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	want := []string{ActionCreated, ActionDeleted}
	if len(actions) != len(want) {
		t.Fatalf("published %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("action %d = %q, want %q", i, actions[i], want[i])
		}
	}
}

type publisherFunc func(ctx context.Context, userID string, txID uuid.UUID, action string) error

func (f publisherFunc) PublishLedgerEvent(ctx context.Context, userID string, txID uuid.UUID, action string) error {
	return f(ctx, userID, txID, action)
}
