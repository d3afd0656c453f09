// Package trend buckets the ledger into time periods and derives simple
// direction statistics from them.
package trend

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// Granularity selects the bucket size.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// Period is a lookback window in days. PeriodAll disables filtering.
type Period int

const (
	Period7   Period = 7
	Period30  Period = 30
	Period90  Period = 90
	Period180 Period = 180
	Period365 Period = 365
	PeriodAll Period = 0
)

// Direction classifies how a series moved between the two halves of the
// bucket sequence.
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// directionThreshold is the relative change below which a series counts
// as neutral.
var directionThreshold = decimal.NewFromFloat(0.05)

// Bucket is one time window's aggregate.
type Bucket struct {
	Start             core.Date       `json:"start"`
	Income            decimal.Decimal `json:"income"`
	Expense           decimal.Decimal `json:"expense"`
	Balance           decimal.Decimal `json:"balance"`
	TransactionCount  int             `json:"transactionCount"`
	CumulativeBalance decimal.Decimal `json:"cumulativeBalance"`
}

// SeriesTrend compares a series' first-half and second-half averages.
type SeriesTrend struct {
	FirstHalfAvg  decimal.Decimal `json:"firstHalfAvg"`
	SecondHalfAvg decimal.Decimal `json:"secondHalfAvg"`
	Direction     Direction       `json:"direction"`
}

// Report is the full trend analysis over a filtered, bucketed snapshot.
type Report struct {
	Period      Period      `json:"period"`
	Granularity Granularity `json:"granularity"`
	Buckets     []Bucket    `json:"buckets"`
	Income      SeriesTrend `json:"income"`
	Expense     SeriesTrend `json:"expense"`
	Balance     SeriesTrend `json:"balance"`
	BestPeriod  *Bucket     `json:"bestPeriod"`
	WorstPeriod *Bucket     `json:"worstPeriod"`
}

// ParsePeriod accepts "7", "30", "90", "180", "365" or "all"/"".
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "", "all":
		return PeriodAll, nil
	case "7":
		return Period7, nil
	case "30":
		return Period30, nil
	case "90":
		return Period90, nil
	case "180":
		return Period180, nil
	case "365":
		return Period365, nil
	}
	return 0, fmt.Errorf("unknown period: %s", s)
}

// ParseGranularity accepts "daily", "weekly" and "monthly"; empty
// defaults to daily.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "":
		return GranularityDaily, nil
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("unknown granularity: %s", s)
}

// BucketKey maps a date to its bucket start: the date itself for daily,
// the Monday of its ISO week for weekly, the first of its month for
// monthly. Every date lands in exactly one bucket.
func BucketKey(d core.Date, g Granularity) core.Date {
	switch g {
	case GranularityWeekly:
		return d.StartOfWeek()
	case GranularityMonthly:
		return d.StartOfMonth()
	default:
		return d
	}
}

// Analyze filters, buckets and classifies the snapshot. With fewer than
// two buckets every direction is neutral and best/worst are nil.
func Analyze(txs []core.Transaction, period Period, granularity Granularity, now time.Time) Report {
	report := Report{Period: period, Granularity: granularity, Buckets: []Bucket{}}

	var cutoff core.Date
	if period != PeriodAll {
		cutoff = core.DateOf(now).AddDays(-int(period))
	}

	byStart := make(map[core.Date]*Bucket)
	for _, tx := range txs {
		date := tx.EffectiveDate()
		if period != PeriodAll && date.Before(cutoff) {
			continue
		}
		start := BucketKey(date, granularity)
		b, ok := byStart[start]
		if !ok {
			b = &Bucket{Start: start, Income: decimal.Zero, Expense: decimal.Zero}
			byStart[start] = b
		}
		if tx.Type.Normalize() == core.Income {
			b.Income = b.Income.Add(tx.Amount)
		} else {
			b.Expense = b.Expense.Add(tx.Amount)
		}
		b.TransactionCount++
	}

	for _, b := range byStart {
		b.Balance = b.Income.Sub(b.Expense)
		report.Buckets = append(report.Buckets, *b)
	}
	sort.Slice(report.Buckets, func(i, j int) bool {
		return report.Buckets[i].Start.Before(report.Buckets[j].Start)
	})

	running := decimal.Zero
	for i := range report.Buckets {
		running = running.Add(report.Buckets[i].Balance)
		report.Buckets[i].CumulativeBalance = running
	}

	report.Income = SeriesTrend{Direction: DirectionNeutral}
	report.Expense = SeriesTrend{Direction: DirectionNeutral}
	report.Balance = SeriesTrend{Direction: DirectionNeutral}
	if len(report.Buckets) < 2 {
		return report
	}

	report.Income = seriesTrend(report.Buckets, func(b Bucket) decimal.Decimal { return b.Income })
	report.Expense = seriesTrend(report.Buckets, func(b Bucket) decimal.Decimal { return b.Expense })
	report.Balance = seriesTrend(report.Buckets, func(b Bucket) decimal.Decimal { return b.Balance })

	best, worst := 0, 0
	for i, b := range report.Buckets {
		if b.Balance.GreaterThan(report.Buckets[best].Balance) {
			best = i
		}
		if b.Balance.LessThan(report.Buckets[worst].Balance) {
			worst = i
		}
	}
	bestBucket := report.Buckets[best]
	worstBucket := report.Buckets[worst]
	report.BestPeriod = &bestBucket
	report.WorstPeriod = &worstBucket

	return report
}

// seriesTrend splits the bucket sequence at floor(n/2), averages the
// series in each half and classifies the move. A change counts only when
// it exceeds 5% of the first-half average's absolute value; a zero first
// half classifies any move by its sign.
func seriesTrend(buckets []Bucket, value func(Bucket) decimal.Decimal) SeriesTrend {
	mid := len(buckets) / 2
	first := average(buckets[:mid], value)
	second := average(buckets[mid:], value)

	trend := SeriesTrend{FirstHalfAvg: first, SecondHalfAvg: second, Direction: DirectionNeutral}
	diff := second.Sub(first)
	if first.IsZero() {
		switch {
		case diff.IsPositive():
			trend.Direction = DirectionUp
		case diff.IsNegative():
			trend.Direction = DirectionDown
		}
		return trend
	}

	threshold := first.Abs().Mul(directionThreshold)
	switch {
	case diff.GreaterThan(threshold):
		trend.Direction = DirectionUp
	case diff.LessThan(threshold.Neg()):
		trend.Direction = DirectionDown
	}
	return trend
}

func average(buckets []Bucket, value func(Bucket) decimal.Decimal) decimal.Decimal {
	if len(buckets) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, b := range buckets {
		sum = sum.Add(value(b))
	}
	return sum.Div(decimal.NewFromInt(int64(len(buckets))))
}
