// Package aggregate computes ledger totals. Everything here is a pure
// function over a transaction snapshot; callers re-run it on every change.
package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// Totals is the derived summary of a transaction snapshot. Sums keep full
// precision; rounding for display is the presentation layer's concern.
type Totals struct {
	TotalExpenses      decimal.Decimal            `json:"totalExpenses"`
	TotalIncomes       decimal.Decimal            `json:"totalIncomes"`
	Balance            decimal.Decimal            `json:"balance"`
	ExpensesByCategory map[string]decimal.Decimal `json:"expensesByCategory"`
	IncomesByCategory  map[string]decimal.Decimal `json:"incomesByCategory"`
	ThisMonthExpenses  decimal.Decimal            `json:"thisMonthExpenses"`
	ThisMonthIncomes   decimal.Decimal            `json:"thisMonthIncomes"`
	ThisMonthBalance   decimal.Decimal            `json:"thisMonthBalance"`
}

// Aggregate folds a snapshot into Totals. "This month" is the calendar
// month of now; a transaction matches on its date, falling back to
// CreatedAt when the date is absent.
func Aggregate(txs []core.Transaction, now time.Time) Totals {
	t := Totals{
		TotalExpenses:      decimal.Zero,
		TotalIncomes:       decimal.Zero,
		Balance:            decimal.Zero,
		ExpensesByCategory: make(map[string]decimal.Decimal),
		IncomesByCategory:  make(map[string]decimal.Decimal),
		ThisMonthExpenses:  decimal.Zero,
		ThisMonthIncomes:   decimal.Zero,
		ThisMonthBalance:   decimal.Zero,
	}
	month := core.DateOf(now)

	for _, tx := range txs {
		category := tx.CategoryKey()
		inMonth := tx.EffectiveDate().SameMonth(month)

		switch tx.Type.Normalize() {
		case core.Income:
			t.TotalIncomes = t.TotalIncomes.Add(tx.Amount)
			t.IncomesByCategory[category] = t.IncomesByCategory[category].Add(tx.Amount)
			if inMonth {
				t.ThisMonthIncomes = t.ThisMonthIncomes.Add(tx.Amount)
			}
		default:
			t.TotalExpenses = t.TotalExpenses.Add(tx.Amount)
			t.ExpensesByCategory[category] = t.ExpensesByCategory[category].Add(tx.Amount)
			if inMonth {
				t.ThisMonthExpenses = t.ThisMonthExpenses.Add(tx.Amount)
			}
		}
	}

	t.Balance = t.TotalIncomes.Sub(t.TotalExpenses)
	t.ThisMonthBalance = t.ThisMonthIncomes.Sub(t.ThisMonthExpenses)
	return t
}

// MonthExpensesByCategory sums expenses per category for the calendar month
// of now. This is the current-period input of budget progress.
func MonthExpensesByCategory(txs []core.Transaction, now time.Time) map[string]decimal.Decimal {
	month := core.DateOf(now)
	out := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type.Normalize() != core.Expense {
			continue
		}
		if !tx.EffectiveDate().SameMonth(month) {
			continue
		}
		out[tx.CategoryKey()] = out[tx.CategoryKey()].Add(tx.Amount)
	}
	return out
}
