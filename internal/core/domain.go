package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Biannual  Frequency = "biannual"
	Annual    Frequency = "annual"
)

// Uncategorized is the category key used for transactions without a category.
const Uncategorized = "Uncategorized"

// MaxDescriptionLen bounds transaction and recurrence descriptions.
const MaxDescriptionLen = 200

// MaxGoalNameLen bounds savings goal names.
const MaxGoalNameLen = 50

// BudgetPeriodMonthly is the only supported budget period.
const BudgetPeriodMonthly = "monthly"

type (
	// TransactionType determines the sign of a transaction in every
	// aggregation: expenses subtract, incomes add.
	TransactionType string

	// Frequency is the repetition cadence of a recurrence definition.
	Frequency string

	// Transaction is a single ledger entry. Amount is always positive;
	// the type carries the sign.
	Transaction struct {
		ID                 uuid.UUID       `json:"id"`
		UserID             string          `json:"userId"`
		Type               TransactionType `json:"type"`
		Description        string          `json:"description"`
		Amount             decimal.Decimal `json:"amount"`
		Category           string          `json:"category"`
		Date               Date            `json:"date"`
		CreatedAt          time.Time       `json:"createdAt"`
		GeneratedFrom      *uuid.UUID      `json:"generatedFrom,omitempty"`
		IsRecurring        bool            `json:"isRecurring,omitempty"`
		RecurringFrequency Frequency       `json:"recurringFrequency,omitempty"`
	}

	// Budget is a monthly spending limit for one category.
	// At most one budget per (user, category).
	Budget struct {
		ID        uuid.UUID       `json:"id"`
		UserID    string          `json:"userId"`
		Category  string          `json:"category"`
		Limit     decimal.Decimal `json:"limit"`
		Period    string          `json:"period"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	// RecurrenceDefinition is a template for a transaction that repeats
	// on a schedule. NextDate is derived: StartDate plus one frequency
	// offset at creation, advancing one offset per execution.
	RecurrenceDefinition struct {
		ID             uuid.UUID       `json:"id"`
		UserID         string          `json:"userId"`
		Description    string          `json:"description"`
		Amount         decimal.Decimal `json:"amount"`
		Category       string          `json:"category"`
		Type           TransactionType `json:"type"`
		Frequency      Frequency       `json:"frequency"`
		StartDate      Date            `json:"startDate"`
		NextDate       Date            `json:"nextDate"`
		IsActive       bool            `json:"isActive"`
		LastExecuted   *Date           `json:"lastExecuted,omitempty"`
		ExecutionCount int             `json:"executionCount"`
	}

	// SavingsGoal tracks money set aside toward a target. SavedAmount only
	// grows through explicit deposits.
	SavingsGoal struct {
		ID           uuid.UUID       `json:"id"`
		UserID       string          `json:"userId"`
		Name         string          `json:"name"`
		TargetAmount decimal.Decimal `json:"targetAmount"`
		SavedAmount  decimal.Decimal `json:"savedAmount"`
		TargetDate   Date            `json:"targetDate"`
		CreatedAt    time.Time       `json:"createdAt"`
	}
)

// Normalize maps a missing type to expense. Legacy records were written
// without a type field.
func (t TransactionType) Normalize() TransactionType {
	if t == Income {
		return Income
	}
	return Expense
}

func (t TransactionType) Valid() bool {
	switch t {
	case Expense, Income, "":
		return true
	}
	return false
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Quarterly, Biannual, Annual:
		return true
	}
	return false
}

// Frequencies lists every supported cadence, shortest first.
func Frequencies() []Frequency {
	return []Frequency{Daily, Weekly, Biweekly, Monthly, Quarterly, Biannual, Annual}
}

// CategoryKey returns the aggregation key for the transaction's category.
func (t Transaction) CategoryKey() string {
	if strings.TrimSpace(t.Category) == "" {
		return Uncategorized
	}
	return t.Category
}

// Signed returns the amount with the sign implied by the type.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type.Normalize() == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// SortKey is the ledger ordering key: CreatedAt when present, the
// transaction date otherwise.
func (t Transaction) SortKey() time.Time {
	if !t.CreatedAt.IsZero() {
		return t.CreatedAt
	}
	return t.Date.Time
}

// EffectiveDate is the calendar date used for period bucketing, falling
// back to CreatedAt for records without a date.
func (t Transaction) EffectiveDate() Date {
	if !t.Date.IsZero() {
		return t.Date
	}
	return DateOf(t.CreatedAt)
}

func (t Transaction) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(t.Description) == "" {
		v.Add("description", "must not be empty")
	} else if len(t.Description) > MaxDescriptionLen {
		v.Add("description", "too long (max 200 characters)")
	}
	if !t.Amount.IsPositive() {
		v.Add("amount", "must be greater than zero")
	}
	if !t.Type.Valid() {
		v.Add("type", "must be expense or income")
	}
	if t.Date.IsZero() {
		v.Add("date", "must be set")
	}
	if t.IsRecurring && !t.RecurringFrequency.Valid() {
		v.Add("recurringFrequency", "unknown frequency")
	}
	return v.OrNil()
}

func (b Budget) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(b.Category) == "" {
		v.Add("category", "must not be empty")
	}
	if !b.Limit.IsPositive() {
		v.Add("limit", "must be greater than zero")
	}
	if b.Period != "" && b.Period != BudgetPeriodMonthly {
		v.Add("period", "only monthly budgets are supported")
	}
	return v.OrNil()
}

func (r RecurrenceDefinition) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(r.Description) == "" {
		v.Add("description", "must not be empty")
	} else if len(r.Description) > MaxDescriptionLen {
		v.Add("description", "too long (max 200 characters)")
	}
	if !r.Amount.IsPositive() {
		v.Add("amount", "must be greater than zero")
	}
	if !r.Type.Valid() {
		v.Add("type", "must be expense or income")
	}
	if !r.Frequency.Valid() {
		v.Add("frequency", "unknown frequency")
	}
	if r.StartDate.IsZero() {
		v.Add("startDate", "must be set")
	}
	return v.OrNil()
}

// ValidateNew checks creation-time rules. Violations are collected, not
// short-circuited, so a caller can render all of them at once.
func (g SavingsGoal) ValidateNew(today Date) error {
	v := &ValidationError{}
	if strings.TrimSpace(g.Name) == "" {
		v.Add("name", "must not be empty")
	} else if len(g.Name) > MaxGoalNameLen {
		v.Add("name", "too long (max 50 characters)")
	}
	if !g.TargetAmount.IsPositive() {
		v.Add("targetAmount", "must be greater than zero")
	}
	if g.SavedAmount.IsNegative() {
		v.Add("savedAmount", "must not be negative")
	} else if g.TargetAmount.IsPositive() && g.SavedAmount.GreaterThan(g.TargetAmount) {
		v.Add("savedAmount", "must not exceed target amount")
	}
	if g.TargetDate.IsZero() {
		v.Add("targetDate", "must be set")
	} else if g.TargetDate.Before(today) {
		v.Add("targetDate", "must not be in the past")
	}
	return v.OrNil()
}

// IsCompleted reports whether the goal is fully funded, regardless of date.
func (g SavingsGoal) IsCompleted() bool {
	return g.SavedAmount.GreaterThanOrEqual(g.TargetAmount)
}

// IsOverdue reports whether the goal missed its target date. A completed
// goal is never overdue.
func (g SavingsGoal) IsOverdue(today Date) bool {
	return !g.IsCompleted() && g.TargetDate.Before(today)
}

// Remaining is the amount still to save, clamped at zero for overfunded goals.
func (g SavingsGoal) Remaining() decimal.Decimal {
	rem := g.TargetAmount.Sub(g.SavedAmount)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// Progress is the funded fraction as a percentage, capped at 100.
func (g SavingsGoal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	pct, _ := g.SavedAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Float64()
	if pct > 100 {
		return 100
	}
	return pct
}
