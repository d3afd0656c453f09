package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/store/memory"
)

const testUser = "user-1"

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestProgress(t *testing.T) {
	budgets := []core.Budget{
		{Category: "Food", Limit: dec("100")},
		{Category: "Transport", Limit: dec("50")},
		{Category: "Fun", Limit: dec("20")},
	}
	spent := map[string]decimal.Decimal{
		"Food": dec("50"),
		"Fun":  dec("25"),
	}

	got := Progress(budgets, spent)
	if len(got) != 3 {
		t.Fatalf("Progress() returned %d statuses, want 3", len(got))
	}

	// Ordered by category.
	if got[0].Category != "Food" || got[1].Category != "Fun" || got[2].Category != "Transport" {
		t.Fatalf("statuses not ordered by category: %v", got)
	}

	food := got[0]
	if food.Percentage != 50 || food.IsExceeded {
		t.Errorf("Food = %+v, want 50%% not exceeded", food)
	}

	fun := got[1]
	if fun.Percentage != 125 || !fun.IsExceeded {
		t.Errorf("Fun = %+v, want 125%% exceeded", fun)
	}

	transport := got[2]
	if !transport.Spent.IsZero() || transport.Percentage != 0 || transport.IsExceeded {
		t.Errorf("Transport = %+v, want zero spend", transport)
	}
}

func TestProgress_EdgeCases(t *testing.T) {
	t.Run("exactly at limit is not exceeded", func(t *testing.T) {
		got := Progress(
			[]core.Budget{{Category: "Food", Limit: dec("100")}},
			map[string]decimal.Decimal{"Food": dec("100")},
		)
		if got[0].Percentage != 100 || got[0].IsExceeded {
			t.Errorf("at-limit status = %+v, want 100%% not exceeded", got[0])
		}
	})

	t.Run("zero limit never exceeds", func(t *testing.T) {
		got := Progress(
			[]core.Budget{{Category: "Food"}},
			map[string]decimal.Decimal{"Food": dec("10")},
		)
		if got[0].Percentage != 0 || got[0].IsExceeded {
			t.Errorf("zero-limit status = %+v, want 0%% not exceeded", got[0])
		}
	})

	t.Run("no budgets", func(t *testing.T) {
		if got := Progress(nil, nil); len(got) != 0 {
			t.Errorf("Progress(nil) = %v, want empty", got)
		}
	})
}

func TestProgress_CategoryCaseInsensitive(t *testing.T) {
	// Spend joins the same way duplicates are detected: "food" and
	// "Food" are one category.
	got := Progress(
		[]core.Budget{{Category: "Food", Limit: dec("100")}},
		map[string]decimal.Decimal{"food": dec("50")},
	)
	if !got[0].Spent.Equal(dec("50")) || got[0].Percentage != 50 {
		t.Errorf("Food status = %+v, want 50 spent from lowercase key", got[0])
	}

	t.Run("mixed-case spend keys merge", func(t *testing.T) {
		got := Progress(
			[]core.Budget{{Category: "food", Limit: dec("100")}},
			map[string]decimal.Decimal{"Food": dec("30"), "FOOD": dec("30")},
		)
		if !got[0].Spent.Equal(dec("60")) {
			t.Errorf("Spent = %v, want 60 after folding keys", got[0].Spent)
		}
	})
}

func TestTracker_Add(t *testing.T) {
	tracker := NewTracker(memory.NewStores().Budgets)
	ctx := context.Background()

	created, err := tracker.Add(ctx, core.Budget{UserID: testUser, Category: "Food", Limit: dec("100")})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if created.Period != core.BudgetPeriodMonthly {
		t.Errorf("Period = %q, want default monthly", created.Period)
	}

	t.Run("duplicate category rejected case-insensitively", func(t *testing.T) {
		_, err := tracker.Add(ctx, core.Budget{UserID: testUser, Category: "food", Limit: dec("50")})
		var duplicate *core.DuplicateBudgetError
		if !errors.As(err, &duplicate) {
			t.Fatalf("Add() error = %v, want DuplicateBudgetError", err)
		}
	})

	t.Run("same category for another user allowed", func(t *testing.T) {
		if _, err := tracker.Add(ctx, core.Budget{UserID: "user-2", Category: "Food", Limit: dec("50")}); err != nil {
			t.Errorf("Add() error = %v", err)
		}
	})

	t.Run("invalid budget rejected", func(t *testing.T) {
		_, err := tracker.Add(ctx, core.Budget{UserID: testUser, Category: "", Limit: dec("0")})
		var validation *core.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("Add() error = %v, want ValidationError", err)
		}
		if len(validation.Violations) != 2 {
			t.Errorf("got %d violations, want 2", len(validation.Violations))
		}
	})
}

func TestTracker_Update(t *testing.T) {
	tracker := NewTracker(memory.NewStores().Budgets)
	ctx := context.Background()

	food, _ := tracker.Add(ctx, core.Budget{UserID: testUser, Category: "Food", Limit: dec("100")})
	if _, err := tracker.Add(ctx, core.Budget{UserID: testUser, Category: "Transport", Limit: dec("50")}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	t.Run("limit change returns stored record", func(t *testing.T) {
		edit := food
		edit.Limit = dec("120")
		edit.CreatedAt = time.Time{}
		updated, err := tracker.Update(ctx, edit)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if !updated.Limit.Equal(dec("120")) {
			t.Errorf("Limit = %v, want 120", updated.Limit)
		}
		if !updated.CreatedAt.Equal(food.CreatedAt) {
			t.Errorf("CreatedAt = %v, want the original %v", updated.CreatedAt, food.CreatedAt)
		}
		budgets, _ := tracker.List(ctx, testUser)
		for _, b := range budgets {
			if b.ID == food.ID && !b.Limit.Equal(dec("120")) {
				t.Errorf("stored Limit = %v, want 120", b.Limit)
			}
		}
	})

	t.Run("rename onto other budget's category rejected", func(t *testing.T) {
		edit := food
		edit.Category = "transport"
		_, err := tracker.Update(ctx, edit)
		var duplicate *core.DuplicateBudgetError
		if !errors.As(err, &duplicate) {
			t.Fatalf("Update() error = %v, want DuplicateBudgetError", err)
		}
	})

	t.Run("keeping own category allowed", func(t *testing.T) {
		edit := food
		edit.Limit = dec("130")
		if _, err := tracker.Update(ctx, edit); err != nil {
			t.Errorf("Update() error = %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		missing := food
		missing.ID = [16]byte{1}
		_, err := tracker.Update(ctx, missing)
		var notFound *core.NotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("Update() error = %v, want NotFoundError", err)
		}
	})
}

func TestTracker_Remove(t *testing.T) {
	tracker := NewTracker(memory.NewStores().Budgets)
	ctx := context.Background()

	food, _ := tracker.Add(ctx, core.Budget{UserID: testUser, Category: "Food", Limit: dec("100")})
	if err := tracker.Remove(ctx, testUser, food.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	budgets, _ := tracker.List(ctx, testUser)
	if len(budgets) != 0 {
		t.Errorf("List() after remove = %v, want empty", budgets)
	}

	// The category is free again.
	if _, err := tracker.Add(ctx, core.Budget{UserID: testUser, Category: "Food", Limit: dec("80")}); err != nil {
		t.Errorf("Add() after remove error = %v", err)
	}
}
