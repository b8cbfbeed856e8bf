package report

import (
	"context"
	"sort"
	"time"

	"expense_tracker/internal/domain"
	"expense_tracker/internal/ledger"

	"github.com/shopspring/decimal"
)

// CategoryTotal is a sum for one category bucket
type CategoryTotal struct {
	Category string       `json:"category"`
	Total    domain.Money `json:"total_amount"`
}

// MonthTotal is a sum for one "YYYY-MM"
type MonthTotal struct {
	Month string       `json:"month"`
	Total domain.Money `json:"total_amount"`
}

// Split separates spending (amount >= 0) from income (amount < 0)
type Split struct {
	TotalExpense domain.Money `json:"total_expense"`
	TotalIncome  domain.Money `json:"total_income"`
}

// MonthSplit is one point of a yearly trend
type MonthSplit struct {
	Month int `json:"month"`
	Split
}

// Summary combines the two all-time views
type Summary struct {
	ByCategory []CategoryTotal `json:"by_category"`
	ByMonth    []MonthTotal    `json:"by_month"`
}

// Visual bundles the data behind the dashboard charts
type Visual struct {
	Period string          `json:"period,omitempty"` // "YYYY-MM", empty when there is no data
	Pie    []CategoryTotal `json:"pie"`              // Spending by category for the period
	Bar    Split           `json:"bar"`              // Spending vs income for the period
	Line   []MonthSplit    `json:"line"`             // Monthly trend of the period's year
	Top    []CategoryTotal `json:"top"`              // All-time top categories
}

// Engine answers aggregation queries for one user at a time
type Engine struct {
	store *ledger.Store
}

// NewEngine returns an Engine reading from store
func NewEngine(store *ledger.Store) *Engine {
	return &Engine{store: store}
}

// TotalByCategory sums every expense of userID per category name, with
// unclassified expenses in the Uncategorized bucket (listed last).
func (e *Engine) TotalByCategory(ctx context.Context, userID uint) ([]CategoryTotal, error) {
	facts, err := e.store.Facts(ctx, userID, ledger.FactFilter{})
	if err != nil {
		return nil, err
	}
	return totalByCategory(facts), nil
}

// TotalByMonth sums every expense of userID per month, ascending. Months
// without expenses are absent.
func (e *Engine) TotalByMonth(ctx context.Context, userID uint) ([]MonthTotal, error) {
	facts, err := e.store.Facts(ctx, userID, ledger.FactFilter{})
	if err != nil {
		return nil, err
	}
	return totalByMonth(facts), nil
}

// Summary returns TotalByCategory and TotalByMonth from one read
func (e *Engine) Summary(ctx context.Context, userID uint) (*Summary, error) {
	facts, err := e.store.Facts(ctx, userID, ledger.FactFilter{})
	if err != nil {
		return nil, err
	}
	return &Summary{ByCategory: totalByCategory(facts), ByMonth: totalByMonth(facts)}, nil
}

// LatestMonth returns the most recent "YYYY-MM" with data
func (e *Engine) LatestMonth(ctx context.Context, userID uint) (string, bool, error) {
	d, ok, err := e.store.LatestExpenseDate(ctx, userID)
	if err != nil || !ok {
		return "", false, err
	}
	return d.MonthKey(), true, nil
}

// Split returns spending and income for one calendar month
func (e *Engine) Split(ctx context.Context, userID uint, year int, month time.Month) (Split, error) {
	facts, err := e.monthFacts(ctx, userID, year, month)
	if err != nil {
		return Split{}, err
	}
	return split(facts), nil
}

// ByCategoryForMonth sums spending (income excluded) per category for one month
func (e *Engine) ByCategoryForMonth(ctx context.Context, userID uint, year int, month time.Month) ([]CategoryTotal, error) {
	facts, err := e.monthFacts(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}
	return totalByCategory(Run(facts, Expenses())), nil
}

// Trend returns a spending/income split for each month 1..12 of year.
// Months without data are present with zero totals.
func (e *Engine) Trend(ctx context.Context, userID uint, year int) ([]MonthSplit, error) {
	if err := checkYear(year); err != nil {
		return nil, err
	}
	from, to := domain.NewDate(year, time.January, 1), domain.NewDate(year, time.December, 31)
	facts, err := e.store.Facts(ctx, userID, ledger.FactFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	return trend(facts, year), nil
}

// TopCategories returns up to n categories by total spending, highest first,
// ties by name. Income, unclassified expenses and non-positive totals are
// left out.
func (e *Engine) TopCategories(ctx context.Context, userID uint, n int) ([]CategoryTotal, error) {
	if n < 1 {
		return nil, domain.Validation("n must be at least 1")
	}
	facts, err := e.store.Facts(ctx, userID, ledger.FactFilter{})
	if err != nil {
		return nil, err
	}
	return topCategories(facts, n), nil
}

// Visual builds the chart bundle for year/month, or for the latest month
// with data when period is nil.
func (e *Engine) Visual(ctx context.Context, userID uint, period *time.Time, n int) (*Visual, error) {
	if n < 1 {
		return nil, domain.Validation("n must be at least 1")
	}
	facts, err := e.store.Facts(ctx, userID, ledger.FactFilter{})
	if err != nil {
		return nil, err
	}
	out := &Visual{Pie: []CategoryTotal{}, Line: []MonthSplit{}, Top: []CategoryTotal{}}
	if period == nil {
		if len(facts) == 0 {
			return out, nil
		}
		latest := facts[len(facts)-1].TransactionDate // Facts are date ordered
		t := latest.Time()
		period = &t
	}
	year, month := period.Year(), period.Month()
	if err := checkMonth(year, month); err != nil {
		return nil, err
	}
	inMonth := Run(facts, InMonth(year, month))
	out.Period = domain.NewDate(year, month, 1).MonthKey()
	out.Pie = totalByCategory(Run(inMonth, Expenses()))
	out.Bar = split(inMonth)
	out.Line = trend(Run(facts, InYear(year)), year)
	out.Top = topCategories(facts, n)
	return out, nil
}

func (e *Engine) monthFacts(ctx context.Context, userID uint, year int, month time.Month) ([]ledger.Fact, error) {
	if err := checkMonth(year, month); err != nil {
		return nil, err
	}
	from := domain.NewDate(year, month, 1)
	to := domain.DateOf(from.Time().AddDate(0, 1, -1))
	return e.store.Facts(ctx, userID, ledger.FactFilter{From: &from, To: &to})
}

func totalByCategory(facts []ledger.Fact) []CategoryTotal {
	sums := GroupSum(facts, ByCategory)
	out := make([]CategoryTotal, 0, len(sums))
	uncategorized, hasUncategorized := sums[Uncategorized]
	for name, total := range sums {
		if name == Uncategorized {
			continue
		}
		out = append(out, CategoryTotal{Category: name, Total: domain.NewMoney(total)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	if hasUncategorized {
		out = append(out, CategoryTotal{Category: Uncategorized, Total: domain.NewMoney(uncategorized)})
	}
	return out
}

func totalByMonth(facts []ledger.Fact) []MonthTotal {
	sums := GroupSum(facts, ByMonth)
	out := make([]MonthTotal, 0, len(sums))
	for month, total := range sums {
		out = append(out, MonthTotal{Month: month, Total: domain.NewMoney(total)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func split(facts []ledger.Fact) Split {
	return Split{
		TotalExpense: domain.NewMoney(Sum(Run(facts, Expenses()))),
		TotalIncome:  domain.NewMoney(Sum(Run(facts, Incomes()))),
	}
}

func trend(facts []ledger.Fact, year int) []MonthSplit {
	out := make([]MonthSplit, 12)
	for m := time.January; m <= time.December; m++ {
		out[m-1] = MonthSplit{Month: int(m), Split: split(Run(facts, InMonth(year, m)))}
	}
	return out
}

func topCategories(facts []ledger.Fact, n int) []CategoryTotal {
	sums := GroupSum(Run(facts, Expenses(), Categorized()), ByCategory)
	out := make([]CategoryTotal, 0, len(sums))
	for name, total := range sums {
		if total.GreaterThan(decimal.Zero) {
			out = append(out, CategoryTotal{Category: name, Total: domain.NewMoney(total)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total.Decimal); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func checkYear(year int) error {
	if year < 1 || year > 9999 {
		return domain.Validation("year must be between 1 and 9999")
	}
	return nil
}

func checkMonth(year int, month time.Month) error {
	if err := checkYear(year); err != nil {
		return err
	}
	if month < time.January || month > time.December {
		return domain.Validation("month must be between 1 and 12")
	}
	return nil
}
