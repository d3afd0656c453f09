// Package goals tracks savings goals independently of the ledger.
package goals

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/store"
)

// Stats is the derived summary over a user's goals. Completion is checked
// before overdue: a fully-funded goal past its date counts as completed.
type Stats struct {
	TotalSaved     decimal.Decimal    `json:"totalSaved"`
	TotalTarget    decimal.Decimal    `json:"totalTarget"`
	CompletedGoals []core.SavingsGoal `json:"completedGoals"`
	ActiveGoals    []core.SavingsGoal `json:"activeGoals"`
	OverdueGoals   []core.SavingsGoal `json:"overdueGoals"`
}

// Compute partitions goals into completed / active / overdue and sums the
// saved and target amounts across all of them.
func Compute(gs []core.SavingsGoal, today core.Date) Stats {
	stats := Stats{
		TotalSaved:     decimal.Zero,
		TotalTarget:    decimal.Zero,
		CompletedGoals: []core.SavingsGoal{},
		ActiveGoals:    []core.SavingsGoal{},
		OverdueGoals:   []core.SavingsGoal{},
	}
	for _, g := range gs {
		stats.TotalSaved = stats.TotalSaved.Add(g.SavedAmount)
		stats.TotalTarget = stats.TotalTarget.Add(g.TargetAmount)
		switch {
		case g.IsCompleted():
			stats.CompletedGoals = append(stats.CompletedGoals, g)
		case g.IsOverdue(today):
			stats.OverdueGoals = append(stats.OverdueGoals, g)
		default:
			stats.ActiveGoals = append(stats.ActiveGoals, g)
		}
	}
	return stats
}

// Tracker owns savings goal records.
type Tracker struct {
	goals store.GoalStore
}

func NewTracker(goals store.GoalStore) *Tracker {
	return &Tracker{goals: goals}
}

// Create validates creation-time rules (all violations collected) and
// stores the goal.
func (t *Tracker) Create(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.ValidateNew(core.Today()); err != nil {
		return core.SavingsGoal{}, err
	}

	g.ID = uuid.New()
	g.CreatedAt = time.Now().UTC()
	if err := t.goals.Add(ctx, g); err != nil {
		return core.SavingsGoal{}, core.WrapStore("add goal", err)
	}

	slog.InfoContext(ctx, "Savings goal created",
		"id", g.ID,
		"name", g.Name,
		"target", g.TargetAmount,
		"target_date", g.TargetDate.String())
	return g, nil
}

// Deposit adds amount to the goal's saved total. Deposits are uncapped: a
// deposit may push SavedAmount past the target, which simply marks the
// goal completed.
func (t *Tracker) Deposit(ctx context.Context, userID string, id uuid.UUID, amount decimal.Decimal) (core.SavingsGoal, error) {
	if !amount.IsPositive() {
		v := &core.ValidationError{}
		v.Add("amount", "must be greater than zero")
		return core.SavingsGoal{}, v
	}
	g, err := t.goals.Get(ctx, userID, id)
	if err != nil {
		return core.SavingsGoal{}, core.WrapStore("get goal", err)
	}

	g.SavedAmount = g.SavedAmount.Add(amount)
	if err := t.goals.Update(ctx, g); err != nil {
		return core.SavingsGoal{}, core.WrapStore("update goal", err)
	}

	slog.InfoContext(ctx, "Goal deposit",
		"id", g.ID,
		"amount", amount,
		"saved", g.SavedAmount,
		"completed", g.IsCompleted())
	return g, nil
}

// Update edits a goal's descriptive fields. SavedAmount is only changed
// through Deposit.
func (t *Tracker) Update(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	existing, err := t.goals.Get(ctx, g.UserID, g.ID)
	if err != nil {
		return core.SavingsGoal{}, core.WrapStore("get goal", err)
	}

	v := &core.ValidationError{}
	if g.Name != "" {
		if len(g.Name) > core.MaxGoalNameLen {
			v.Add("name", "too long (max 50 characters)")
		} else {
			existing.Name = g.Name
		}
	}
	if !g.TargetAmount.IsZero() {
		if !g.TargetAmount.IsPositive() {
			v.Add("targetAmount", "must be greater than zero")
		} else {
			existing.TargetAmount = g.TargetAmount
		}
	}
	if !g.TargetDate.IsZero() {
		existing.TargetDate = g.TargetDate
	}
	if err := v.OrNil(); err != nil {
		return core.SavingsGoal{}, err
	}

	if err := t.goals.Update(ctx, existing); err != nil {
		return core.SavingsGoal{}, core.WrapStore("update goal", err)
	}
	return existing, nil
}

// Delete removes a goal.
func (t *Tracker) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := t.goals.Remove(ctx, userID, id); err != nil {
		return core.WrapStore("remove goal", err)
	}
	slog.InfoContext(ctx, "Savings goal deleted", "id", id)
	return nil
}

func (t *Tracker) List(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	gs, err := t.goals.List(ctx, userID)
	if err != nil {
		return nil, core.WrapStore("list goals", err)
	}
	return gs, nil
}

// Stats computes the derived summary for a user.
func (t *Tracker) Stats(ctx context.Context, userID string) (Stats, error) {
	gs, err := t.List(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return Compute(gs, core.Today()), nil
}
