// Package report aggregates a user's expenses. The database only narrows
// rows by owner and date range; grouping and summing happen here so results
// are identical on every engine.
package report

import (
	"time"

	"expense_tracker/internal/ledger"

	"github.com/shopspring/decimal"
)

// Uncategorized labels expenses without a category
const Uncategorized = "Uncategorized"

// Stage transforms a fact stream
type Stage func([]ledger.Fact) []ledger.Fact

// Run applies stages in order
func Run(facts []ledger.Fact, stages ...Stage) []ledger.Fact {
	for _, stage := range stages {
		facts = stage(facts)
	}
	return facts
}

// Filter keeps facts matching keep
func Filter(keep func(ledger.Fact) bool) Stage {
	return func(in []ledger.Fact) []ledger.Fact {
		out := make([]ledger.Fact, 0, len(in))
		for _, f := range in {
			if keep(f) {
				out = append(out, f)
			}
		}
		return out
	}
}

// Expenses keeps amounts >= 0
func Expenses() Stage {
	return Filter(func(f ledger.Fact) bool { return !f.Amount.IsNegative() })
}

// Incomes keeps amounts < 0
func Incomes() Stage {
	return Filter(func(f ledger.Fact) bool { return f.Amount.IsNegative() })
}

// Categorized drops unclassified facts
func Categorized() Stage {
	return Filter(func(f ledger.Fact) bool { return f.CategoryName != nil })
}

// InMonth keeps facts dated in year/month
func InMonth(year int, month time.Month) Stage {
	return Filter(func(f ledger.Fact) bool {
		return f.TransactionDate.Year == year && f.TransactionDate.Month == month
	})
}

// InYear keeps facts dated in year
func InYear(year int) Stage {
	return Filter(func(f ledger.Fact) bool { return f.TransactionDate.Year == year })
}

// Key extracts a grouping key
type Key func(ledger.Fact) string

// ByCategory groups by category name, with Uncategorized for the rest
func ByCategory(f ledger.Fact) string {
	if f.CategoryName == nil {
		return Uncategorized
	}
	return *f.CategoryName
}

// ByMonth groups by "YYYY-MM"
func ByMonth(f ledger.Fact) string {
	return f.TransactionDate.MonthKey()
}

// GroupSum reduces facts to a sum per key
func GroupSum(facts []ledger.Fact, key Key) map[string]decimal.Decimal {
	sums := map[string]decimal.Decimal{}
	for _, f := range facts {
		k := key(f)
		sums[k] = sums[k].Add(f.Amount)
	}
	return sums
}

// Sum adds every amount
func Sum(facts []ledger.Fact) decimal.Decimal {
	total := decimal.Zero
	for _, f := range facts {
		total = total.Add(f.Amount)
	}
	return total
}
