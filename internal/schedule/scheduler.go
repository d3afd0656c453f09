package schedule

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/store"
)

// ErrRecurrenceInactive is returned when executing a deactivated definition.
var ErrRecurrenceInactive = errors.New("recurrence is not active")

// Scheduler owns recurrence definitions and materializes transactions from
// them. Execution is always caller-triggered; the scheduler defines what an
// execution does, never when it runs unattended.
type Scheduler struct {
	recurrences store.RecurrenceStore
	ledger      *ledger.Service
}

func NewScheduler(recurrences store.RecurrenceStore, ledgerService *ledger.Service) *Scheduler {
	return &Scheduler{recurrences: recurrences, ledger: ledgerService}
}

// Create validates and stores a new definition. The first occurrence is
// the start date advanced by one frequency offset.
func (s *Scheduler) Create(ctx context.Context, def core.RecurrenceDefinition) (core.RecurrenceDefinition, error) {
	def.Type = def.Type.Normalize()
	if err := def.Validate(); err != nil {
		return core.RecurrenceDefinition{}, err
	}
	next, err := NextDate(def.StartDate, def.Frequency)
	if err != nil {
		return core.RecurrenceDefinition{}, err
	}

	def.ID = uuid.New()
	def.NextDate = next
	def.IsActive = true
	def.LastExecuted = nil
	def.ExecutionCount = 0
	if err := s.recurrences.Add(ctx, def); err != nil {
		return core.RecurrenceDefinition{}, core.WrapStore("add recurrence", err)
	}

	slog.InfoContext(ctx, "Recurrence created",
		"id", def.ID,
		"frequency", def.Frequency,
		"start_date", def.StartDate.String(),
		"next_date", def.NextDate.String())
	return def, nil
}

// Update edits a definition's template fields. Changing the frequency or
// start date re-derives NextDate from the last execution, or from the new
// start date when the definition never executed.
func (s *Scheduler) Update(ctx context.Context, def core.RecurrenceDefinition) (core.RecurrenceDefinition, error) {
	def.Type = def.Type.Normalize()
	if err := def.Validate(); err != nil {
		return core.RecurrenceDefinition{}, err
	}
	existing, err := s.recurrences.Get(ctx, def.UserID, def.ID)
	if err != nil {
		return core.RecurrenceDefinition{}, core.WrapStore("get recurrence", err)
	}

	rederive := existing.Frequency != def.Frequency || !existing.StartDate.Equal(def.StartDate.Time)
	existing.Description = def.Description
	existing.Amount = def.Amount
	existing.Category = def.Category
	existing.Type = def.Type
	existing.Frequency = def.Frequency
	existing.StartDate = def.StartDate
	if rederive {
		anchor := existing.StartDate
		if existing.LastExecuted != nil {
			anchor = *existing.LastExecuted
		}
		next, err := NextDateFrom(anchor, existing.StartDate.Day(), existing.Frequency)
		if err != nil {
			return core.RecurrenceDefinition{}, err
		}
		existing.NextDate = next
	}

	if err := s.recurrences.Update(ctx, existing); err != nil {
		return core.RecurrenceDefinition{}, core.WrapStore("update recurrence", err)
	}
	return existing, nil
}

// SetActive toggles a definition. Deactivation is reversible; the schedule
// state (NextDate, ExecutionCount) is preserved across a toggle.
func (s *Scheduler) SetActive(ctx context.Context, userID string, id uuid.UUID, active bool) error {
	def, err := s.recurrences.Get(ctx, userID, id)
	if err != nil {
		return core.WrapStore("get recurrence", err)
	}
	if def.IsActive == active {
		return nil
	}
	def.IsActive = active
	if err := s.recurrences.Update(ctx, def); err != nil {
		return core.WrapStore("update recurrence", err)
	}
	slog.InfoContext(ctx, "Recurrence toggled", "id", id, "active", active)
	return nil
}

// Delete destroys a definition. Transactions it already materialized stay
// in the ledger.
func (s *Scheduler) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.recurrences.Remove(ctx, userID, id); err != nil {
		return core.WrapStore("remove recurrence", err)
	}
	slog.InfoContext(ctx, "Recurrence deleted", "id", id)
	return nil
}

func (s *Scheduler) Get(ctx context.Context, userID string, id uuid.UUID) (core.RecurrenceDefinition, error) {
	def, err := s.recurrences.Get(ctx, userID, id)
	if err != nil {
		return core.RecurrenceDefinition{}, core.WrapStore("get recurrence", err)
	}
	return def, nil
}

func (s *Scheduler) List(ctx context.Context, userID string) ([]core.RecurrenceDefinition, error) {
	defs, err := s.recurrences.List(ctx, userID)
	if err != nil {
		return nil, core.WrapStore("list recurrences", err)
	}
	return defs, nil
}

// Execute materializes one transaction from the definition, then advances
// it: LastExecuted, NextDate (one offset past the execution date, anchored
// to the start date's day of month) and ExecutionCount. Cycles missed
// before executionDate collapse into this single execution. The engine does
// not guard against a duplicate trigger for the same period.
func (s *Scheduler) Execute(ctx context.Context, userID string, id uuid.UUID, executionDate core.Date) (core.Transaction, error) {
	def, err := s.recurrences.Get(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, core.WrapStore("get recurrence", err)
	}
	if !def.IsActive {
		return core.Transaction{}, ErrRecurrenceInactive
	}
	next, err := NextDateFrom(executionDate, def.StartDate.Day(), def.Frequency)
	if err != nil {
		return core.Transaction{}, err
	}

	generatedFrom := def.ID
	tx, err := s.ledger.Create(ctx, core.Transaction{
		UserID:             userID,
		Type:               def.Type,
		Description:        def.Description,
		Amount:             def.Amount,
		Category:           def.Category,
		Date:               executionDate,
		GeneratedFrom:      &generatedFrom,
		IsRecurring:        true,
		RecurringFrequency: def.Frequency,
	})
	if err != nil {
		return core.Transaction{}, err
	}

	executed := executionDate
	def.LastExecuted = &executed
	def.NextDate = next
	def.ExecutionCount++
	if err := s.recurrences.Update(ctx, def); err != nil {
		// The transaction is already in the ledger; report the advance
		// failure so the caller can reconcile.
		return tx, core.WrapStore("advance recurrence", err)
	}

	slog.InfoContext(ctx, "Recurrence executed",
		"id", def.ID,
		"transaction_id", tx.ID,
		"execution_date", executionDate.String(),
		"next_date", def.NextDate.String(),
		"execution_count", def.ExecutionCount)
	return tx, nil
}

// RunDueScan executes every definition due as of today, once each. A
// failing definition is logged and skipped; the scan keeps going.
func (s *Scheduler) RunDueScan(ctx context.Context, userID string, today core.Date) (int, error) {
	defs, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}

	due := Due(defs, today)
	slog.InfoContext(ctx, "Processing due recurrences",
		"total_active", len(defs),
		"due", len(due),
		"processing_date", today.String())

	executed := 0
	for _, def := range due {
		if _, err := s.Execute(ctx, userID, def.ID, today); err != nil {
			slog.ErrorContext(ctx, "Failed to execute due recurrence",
				"id", def.ID,
				"description", def.Description,
				"error", err)
			continue
		}
		executed++
	}

	slog.InfoContext(ctx, "Due recurrence processing complete",
		"executed", executed,
		"due", len(due))
	return executed, nil
}
