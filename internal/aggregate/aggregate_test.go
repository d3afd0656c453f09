package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func tx(t core.TransactionType, amount, category string, date core.Date) core.Transaction {
	return core.Transaction{Type: t, Amount: dec(amount), Category: category, Date: date}
}

func TestAggregate(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("empty snapshot", func(t *testing.T) {
		got := Aggregate(nil, now)
		if !got.TotalExpenses.IsZero() || !got.TotalIncomes.IsZero() || !got.Balance.IsZero() {
			t.Errorf("Aggregate(nil) = %+v, want all zeros", got)
		}
		if len(got.ExpensesByCategory) != 0 || len(got.IncomesByCategory) != 0 {
			t.Error("empty snapshot produced category entries")
		}
	})

	t.Run("expense and income", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Expense, "50.00", "Food", core.NewDate(2024, 6, 10)),
			tx(core.Income, "1000.00", "Salary", core.NewDate(2024, 6, 1)),
		}
		got := Aggregate(txs, now)

		if !got.TotalExpenses.Equal(dec("50")) {
			t.Errorf("TotalExpenses = %v, want 50", got.TotalExpenses)
		}
		if !got.TotalIncomes.Equal(dec("1000")) {
			t.Errorf("TotalIncomes = %v, want 1000", got.TotalIncomes)
		}
		if !got.Balance.Equal(dec("950")) {
			t.Errorf("Balance = %v, want 950", got.Balance)
		}
		if !got.ExpensesByCategory["Food"].Equal(dec("50")) {
			t.Errorf("ExpensesByCategory[Food] = %v, want 50", got.ExpensesByCategory["Food"])
		}
		if !got.IncomesByCategory["Salary"].Equal(dec("1000")) {
			t.Errorf("IncomesByCategory[Salary] = %v, want 1000", got.IncomesByCategory["Salary"])
		}
	})

	t.Run("this month windows on calendar month", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Expense, "30", "Food", core.NewDate(2024, 6, 1)),
			tx(core.Expense, "20", "Food", core.NewDate(2024, 5, 31)),
			tx(core.Income, "100", "Salary", core.NewDate(2024, 6, 30)),
		}
		got := Aggregate(txs, now)

		if !got.ThisMonthExpenses.Equal(dec("30")) {
			t.Errorf("ThisMonthExpenses = %v, want 30", got.ThisMonthExpenses)
		}
		if !got.ThisMonthIncomes.Equal(dec("100")) {
			t.Errorf("ThisMonthIncomes = %v, want 100", got.ThisMonthIncomes)
		}
		if !got.ThisMonthBalance.Equal(dec("70")) {
			t.Errorf("ThisMonthBalance = %v, want 70", got.ThisMonthBalance)
		}
		if !got.TotalExpenses.Equal(dec("50")) {
			t.Errorf("TotalExpenses = %v, want 50", got.TotalExpenses)
		}
	})

	t.Run("untyped transactions count as expenses", func(t *testing.T) {
		got := Aggregate([]core.Transaction{tx("", "10", "Misc", core.NewDate(2024, 6, 5))}, now)
		if !got.TotalExpenses.Equal(dec("10")) {
			t.Errorf("TotalExpenses = %v, want 10", got.TotalExpenses)
		}
	})

	t.Run("blank category aggregates under Uncategorized", func(t *testing.T) {
		got := Aggregate([]core.Transaction{tx(core.Expense, "10", " ", core.NewDate(2024, 6, 5))}, now)
		if !got.ExpensesByCategory[core.Uncategorized].Equal(dec("10")) {
			t.Errorf("ExpensesByCategory = %v, want 10 under %s", got.ExpensesByCategory, core.Uncategorized)
		}
	})

	t.Run("full precision is kept", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Expense, "0.1", "A", core.NewDate(2024, 6, 1)),
			tx(core.Expense, "0.2", "A", core.NewDate(2024, 6, 2)),
		}
		got := Aggregate(txs, now)
		if !got.TotalExpenses.Equal(dec("0.3")) {
			t.Errorf("TotalExpenses = %v, want exactly 0.3", got.TotalExpenses)
		}
	})

	t.Run("dateless transaction buckets by created at", func(t *testing.T) {
		in := core.Transaction{Type: core.Expense, Amount: dec("5"), CreatedAt: now}
		got := Aggregate([]core.Transaction{in}, now)
		if !got.ThisMonthExpenses.Equal(dec("5")) {
			t.Errorf("ThisMonthExpenses = %v, want 5", got.ThisMonthExpenses)
		}
	})
}

func TestMonthExpensesByCategory(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(core.Expense, "50", "Food", core.NewDate(2024, 6, 10)),
		tx(core.Expense, "25", "Food", core.NewDate(2024, 6, 12)),
		tx(core.Expense, "99", "Food", core.NewDate(2024, 5, 12)), // previous month
		tx(core.Income, "10", "Food", core.NewDate(2024, 6, 13)),  // incomes excluded
		tx(core.Expense, "40", "Transport", core.NewDate(2024, 6, 1)),
	}

	got := MonthExpensesByCategory(txs, now)
	if !got["Food"].Equal(dec("75")) {
		t.Errorf("Food = %v, want 75", got["Food"])
	}
	if !got["Transport"].Equal(dec("40")) {
		t.Errorf("Transport = %v, want 40", got["Transport"])
	}
	if len(got) != 2 {
		t.Errorf("got %d categories, want 2", len(got))
	}
}
