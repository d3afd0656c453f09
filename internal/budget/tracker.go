// Package budget maps category spending limits onto the aggregation
// engine's current-period output.
package budget

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/store"
)

// Status is one budget's progress against current-period spend.
type Status struct {
	BudgetID   uuid.UUID       `json:"budgetId"`
	Category   string          `json:"category"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Percentage float64         `json:"percentage"`
	IsExceeded bool            `json:"isExceeded"`
}

// Progress computes one Status per budget. A budgeted category with no
// spend yields Spent=0. A zero limit yields Percentage=0 and never counts
// as exceeded. Results are ordered by category for stable output.
//
// Category identity is case-insensitive, like duplicate detection: spend
// recorded as "food" counts against a "Food" budget.
func Progress(budgets []core.Budget, spentByCategory map[string]decimal.Decimal) []Status {
	folded := make(map[string]decimal.Decimal, len(spentByCategory))
	for category, amount := range spentByCategory {
		key := strings.ToLower(category)
		folded[key] = folded[key].Add(amount)
	}

	out := make([]Status, 0, len(budgets))
	for _, b := range budgets {
		spent := folded[strings.ToLower(b.Category)]
		var pct float64
		if b.Limit.IsPositive() {
			pct, _ = spent.Div(b.Limit).Mul(decimal.NewFromInt(100)).Float64()
		}
		out = append(out, Status{
			BudgetID:   b.ID,
			Category:   b.Category,
			Limit:      b.Limit,
			Spent:      spent,
			Percentage: pct,
			IsExceeded: pct > 100,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Tracker owns budget records. It enforces the one-budget-per-category
// invariant with a case-insensitive match.
type Tracker struct {
	budgets store.BudgetStore
}

func NewTracker(budgets store.BudgetStore) *Tracker {
	return &Tracker{budgets: budgets}
}

// Add validates and stores a new budget. A category that already has a
// budget fails with core.DuplicateBudgetError.
func (t *Tracker) Add(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.Period == "" {
		b.Period = core.BudgetPeriodMonthly
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := t.checkDuplicate(ctx, b.UserID, b.Category, uuid.Nil); err != nil {
		return core.Budget{}, err
	}

	b.ID = uuid.New()
	b.CreatedAt = time.Now().UTC()
	if err := t.budgets.Add(ctx, b); err != nil {
		return core.Budget{}, core.WrapStore("add budget", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"id", b.ID, "category", b.Category, "limit", b.Limit)
	return b, nil
}

// Update replaces a budget's mutable fields (category, limit) and returns
// the stored record. Renaming to a category another budget owns is
// rejected.
func (t *Tracker) Update(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	existing, err := t.budgets.Get(ctx, b.UserID, b.ID)
	if err != nil {
		return core.Budget{}, core.WrapStore("get budget", err)
	}
	if err := t.checkDuplicate(ctx, b.UserID, b.Category, b.ID); err != nil {
		return core.Budget{}, err
	}

	existing.Category = b.Category
	existing.Limit = b.Limit
	if err := t.budgets.Update(ctx, existing); err != nil {
		return core.Budget{}, core.WrapStore("update budget", err)
	}
	return existing, nil
}

// Remove deletes a budget. Past transactions are unaffected; the category
// simply stops appearing in future progress computations.
func (t *Tracker) Remove(ctx context.Context, userID string, id uuid.UUID) error {
	if err := t.budgets.Remove(ctx, userID, id); err != nil {
		return core.WrapStore("remove budget", err)
	}
	slog.InfoContext(ctx, "Budget deleted", "id", id)
	return nil
}

func (t *Tracker) List(ctx context.Context, userID string) ([]core.Budget, error) {
	budgets, err := t.budgets.List(ctx, userID)
	if err != nil {
		return nil, core.WrapStore("list budgets", err)
	}
	return budgets, nil
}

func (t *Tracker) checkDuplicate(ctx context.Context, userID, category string, self uuid.UUID) error {
	budgets, err := t.budgets.List(ctx, userID)
	if err != nil {
		return core.WrapStore("list budgets", err)
	}
	for _, other := range budgets {
		if other.ID == self {
			continue
		}
		if strings.EqualFold(other.Category, category) {
			return &core.DuplicateBudgetError{Category: category}
		}
	}
	return nil
}
