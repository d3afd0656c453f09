package trend

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

func tx(t core.TransactionType, amount string, date core.Date) core.Transaction {
	return core.Transaction{Type: t, Amount: dec(amount), Date: date}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input   string
		want    Period
		wantErr bool
	}{
		{input: "", want: PeriodAll},
		{input: "all", want: PeriodAll},
		{input: "7", want: Period7},
		{input: "30", want: Period30},
		{input: "90", want: Period90},
		{input: "180", want: Period180},
		{input: "365", want: Period365},
		{input: "14", wantErr: true},
		{input: "month", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("input "+tt.input, func(t *testing.T) {
			got, err := ParsePeriod(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePeriod(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePeriod(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseGranularity(t *testing.T) {
	if got, err := ParseGranularity(""); err != nil || got != GranularityDaily {
		t.Errorf("ParseGranularity(\"\") = %v, %v; want daily", got, err)
	}
	if _, err := ParseGranularity("hourly"); err == nil {
		t.Error("ParseGranularity(hourly) succeeded, want error")
	}
}

func TestBucketKey(t *testing.T) {
	d := core.NewDate(2024, 6, 19) // a Wednesday

	tests := []struct {
		name        string
		granularity Granularity
		want        core.Date
	}{
		{name: "daily is identity", granularity: GranularityDaily, want: d},
		{name: "weekly snaps to monday", granularity: GranularityWeekly, want: core.NewDate(2024, 6, 17)},
		{name: "monthly snaps to first", granularity: GranularityMonthly, want: core.NewDate(2024, 6, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketKey(d, tt.granularity); !got.Equal(tt.want.Time) {
				t.Errorf("BucketKey(%v, %s) = %v, want %v", d, tt.granularity, got, tt.want)
			}
		})
	}
}

func TestAnalyze_Bucketing(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(core.Income, "100", core.NewDate(2024, 6, 3)),
		tx(core.Expense, "40", core.NewDate(2024, 6, 3)),
		tx(core.Expense, "10", core.NewDate(2024, 6, 10)),
	}

	report := Analyze(txs, PeriodAll, GranularityDaily, now)
	if len(report.Buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(report.Buckets))
	}

	first := report.Buckets[0]
	if !first.Start.Equal(core.NewDate(2024, 6, 3).Time) {
		t.Errorf("first bucket start = %v, want 2024-06-03", first.Start)
	}
	if !first.Income.Equal(dec("100")) || !first.Expense.Equal(dec("40")) || !first.Balance.Equal(dec("60")) {
		t.Errorf("first bucket = %+v, want income 100, expense 40, balance 60", first)
	}
	if first.TransactionCount != 2 {
		t.Errorf("first bucket count = %d, want 2", first.TransactionCount)
	}

	second := report.Buckets[1]
	if !second.Balance.Equal(dec("-10")) {
		t.Errorf("second bucket balance = %v, want -10", second.Balance)
	}
	if !second.CumulativeBalance.Equal(dec("50")) {
		t.Errorf("cumulative balance = %v, want 50", second.CumulativeBalance)
	}
}

func TestAnalyze_PeriodFilter(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(core.Expense, "10", core.NewDate(2024, 6, 29)),
		tx(core.Expense, "20", core.NewDate(2024, 6, 25)),
		tx(core.Expense, "99", core.NewDate(2024, 6, 1)), // outside the 7-day window
	}

	report := Analyze(txs, Period7, GranularityDaily, now)
	if len(report.Buckets) != 2 {
		t.Fatalf("got %d buckets, want 2 inside the window", len(report.Buckets))
	}
	for _, b := range report.Buckets {
		if b.Expense.Equal(dec("99")) {
			t.Error("transaction outside the window was bucketed")
		}
	}
}

func TestAnalyze_FewBuckets(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	for _, txs := range [][]core.Transaction{
		nil,
		{tx(core.Expense, "10", core.NewDate(2024, 6, 1))},
	} {
		report := Analyze(txs, PeriodAll, GranularityDaily, now)
		if report.Income.Direction != DirectionNeutral ||
			report.Expense.Direction != DirectionNeutral ||
			report.Balance.Direction != DirectionNeutral {
			t.Errorf("directions = %v/%v/%v, want all neutral under two buckets",
				report.Income.Direction, report.Expense.Direction, report.Balance.Direction)
		}
		if report.BestPeriod != nil || report.WorstPeriod != nil {
			t.Error("best/worst set under two buckets, want nil")
		}
		if report.Buckets == nil {
			t.Error("Buckets is nil, want empty slice")
		}
	}
}

func TestAnalyze_Directions(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	t.Run("rising expenses", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Expense, "10", core.NewDate(2024, 6, 1)),
			tx(core.Expense, "10", core.NewDate(2024, 6, 2)),
			tx(core.Expense, "30", core.NewDate(2024, 6, 3)),
			tx(core.Expense, "30", core.NewDate(2024, 6, 4)),
		}
		report := Analyze(txs, PeriodAll, GranularityDaily, now)
		if report.Expense.Direction != DirectionUp {
			t.Errorf("Expense.Direction = %v, want up", report.Expense.Direction)
		}
		if !report.Expense.FirstHalfAvg.Equal(dec("10")) || !report.Expense.SecondHalfAvg.Equal(dec("30")) {
			t.Errorf("halves = %v/%v, want 10/30", report.Expense.FirstHalfAvg, report.Expense.SecondHalfAvg)
		}
	})

	t.Run("change within threshold is neutral", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Expense, "100", core.NewDate(2024, 6, 1)),
			tx(core.Expense, "100", core.NewDate(2024, 6, 2)),
			tx(core.Expense, "104", core.NewDate(2024, 6, 3)),
			tx(core.Expense, "104", core.NewDate(2024, 6, 4)),
		}
		report := Analyze(txs, PeriodAll, GranularityDaily, now)
		if report.Expense.Direction != DirectionNeutral {
			t.Errorf("Expense.Direction = %v, want neutral at 4%% change", report.Expense.Direction)
		}
	})

	t.Run("zero first half classifies by sign", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Expense, "10", core.NewDate(2024, 6, 1)),
			tx(core.Expense, "10", core.NewDate(2024, 6, 2)),
			tx(core.Income, "50", core.NewDate(2024, 6, 3)),
			tx(core.Expense, "1", core.NewDate(2024, 6, 4)),
		}
		report := Analyze(txs, PeriodAll, GranularityDaily, now)
		if report.Income.Direction != DirectionUp {
			t.Errorf("Income.Direction = %v, want up from a zero first half", report.Income.Direction)
		}
	})

	t.Run("falling income", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Income, "100", core.NewDate(2024, 6, 1)),
			tx(core.Income, "100", core.NewDate(2024, 6, 2)),
			tx(core.Income, "10", core.NewDate(2024, 6, 3)),
			tx(core.Income, "10", core.NewDate(2024, 6, 4)),
		}
		report := Analyze(txs, PeriodAll, GranularityDaily, now)
		if report.Income.Direction != DirectionDown {
			t.Errorf("Income.Direction = %v, want down", report.Income.Direction)
		}
	})
}

func TestAnalyze_BestWorst(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(core.Income, "100", core.NewDate(2024, 6, 1)),
		tx(core.Expense, "200", core.NewDate(2024, 6, 2)),
		tx(core.Income, "50", core.NewDate(2024, 6, 3)),
	}

	report := Analyze(txs, PeriodAll, GranularityDaily, now)
	if report.BestPeriod == nil || !report.BestPeriod.Balance.Equal(dec("100")) {
		t.Errorf("BestPeriod = %+v, want balance 100", report.BestPeriod)
	}
	if report.WorstPeriod == nil || !report.WorstPeriod.Balance.Equal(dec("-200")) {
		t.Errorf("WorstPeriod = %+v, want balance -200", report.WorstPeriod)
	}

	t.Run("tie keeps earliest bucket", func(t *testing.T) {
		flat := []core.Transaction{
			tx(core.Income, "10", core.NewDate(2024, 6, 1)),
			tx(core.Income, "10", core.NewDate(2024, 6, 2)),
		}
		report := Analyze(flat, PeriodAll, GranularityDaily, now)
		if !report.BestPeriod.Start.Equal(core.NewDate(2024, 6, 1).Time) {
			t.Errorf("BestPeriod.Start = %v, want earliest on tie", report.BestPeriod.Start)
		}
	})
}

func TestAnalyze_WeeklyGranularity(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(core.Expense, "10", core.NewDate(2024, 6, 17)), // Monday
		tx(core.Expense, "20", core.NewDate(2024, 6, 23)), // Sunday, same ISO week
		tx(core.Expense, "5", core.NewDate(2024, 6, 24)),  // next Monday
	}

	report := Analyze(txs, PeriodAll, GranularityWeekly, now)
	if len(report.Buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(report.Buckets))
	}
	if !report.Buckets[0].Expense.Equal(dec("30")) {
		t.Errorf("week bucket expense = %v, want 30", report.Buckets[0].Expense)
	}
}
