package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/store"
)

// Publisher announces committed ledger changes to other processes.
// Publishing is best effort: the local write already succeeded and is
// never rolled back over a missed announcement.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, userID string, txID uuid.UUID, action string) error
}

// Ledger event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Service owns transaction writes: validate, store, announce.
type Service struct {
	transactions store.TransactionStore
	publisher    Publisher
}

// NewService creates the ledger write service. publisher may be nil to
// run without cross-process announcements.
func NewService(transactions store.TransactionStore, publisher Publisher) *Service {
	return &Service{transactions: transactions, publisher: publisher}
}

// Create validates and stores a new transaction.
func (s *Service) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Type = tx.Type.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	tx.ID = uuid.New()
	tx.CreatedAt = time.Now().UTC()
	if err := s.transactions.Add(ctx, tx); err != nil {
		return core.Transaction{}, core.WrapStore("add transaction", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount,
		"category", tx.CategoryKey(),
		"date", tx.Date.String())

	s.publish(ctx, tx.UserID, tx.ID, ActionCreated)
	return tx, nil
}

// Update applies an explicit edit and returns the stored record. Only
// description, amount, category, date and type are mutable; provenance
// fields are fixed at creation.
func (s *Service) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Type = tx.Type.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	existing, err := s.transactions.Get(ctx, tx.UserID, tx.ID)
	if err != nil {
		return core.Transaction{}, core.WrapStore("get transaction", err)
	}
	existing.Description = tx.Description
	existing.Amount = tx.Amount
	existing.Category = tx.Category
	existing.Date = tx.Date
	existing.Type = tx.Type

	if err := s.transactions.Update(ctx, existing); err != nil {
		return core.Transaction{}, core.WrapStore("update transaction", err)
	}
	s.publish(ctx, tx.UserID, tx.ID, ActionUpdated)
	return existing, nil
}

// Delete removes a transaction from the ledger.
func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.transactions.Remove(ctx, userID, id); err != nil {
		return core.WrapStore("remove transaction", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	s.publish(ctx, userID, id, ActionDeleted)
	return nil
}

// List returns the user's raw transactions, unordered.
func (s *Service) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	txs, err := s.transactions.List(ctx, userID)
	if err != nil {
		return nil, core.WrapStore("list transactions", err)
	}
	return txs, nil
}

func (s *Service) publish(ctx context.Context, userID string, id uuid.UUID, action string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, userID, id, action); err != nil {
		slog.WarnContext(ctx, "Failed to publish ledger event",
			"id", id, "action", action, "error", err)
	}
}
