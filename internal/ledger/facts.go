package ledger

import (
	"context"
	"fmt"

	"expense_tracker/internal/domain"

	"github.com/shopspring/decimal"
)

// Fact is one expense as the aggregation pipeline sees it
type Fact struct {
	TransactionDate domain.Date
	Amount          decimal.Decimal
	CategoryName    *string // Nil when unclassified
}

// FactFilter is the part of an aggregation pushed down to the database
type FactFilter struct {
	From *domain.Date // Inclusive
	To   *domain.Date // Inclusive
}

// Facts returns userID's expenses with their category names
func (s *Store) Facts(ctx context.Context, userID uint, f FactFilter) ([]Fact, error) {
	q := s.conn(ctx).Table("expenses").
		Select("expenses.transaction_date, expenses.amount, categories.name AS category_name").
		Joins("JOIN accounts ON accounts.id = expenses.account_id").
		Joins("LEFT JOIN categories ON categories.id = expenses.category_id").
		Where("accounts.user_id = ?", userID)
	if f.From != nil {
		q = q.Where("expenses.transaction_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("expenses.transaction_date <= ?", *f.To)
	}
	var out []Fact
	if err := q.Order("expenses.transaction_date, expenses.id").Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("load facts: %w", err)
	}
	return out, nil
}

// LatestExpenseDate returns the most recent transaction date of userID, or
// false when the user has no expenses.
func (s *Store) LatestExpenseDate(ctx context.Context, userID uint) (domain.Date, bool, error) {
	var rows []struct{ TransactionDate domain.Date }
	err := s.conn(ctx).Table("expenses").
		Select("expenses.transaction_date").
		Joins("JOIN accounts ON accounts.id = expenses.account_id").
		Where("accounts.user_id = ?", userID).
		Order("expenses.transaction_date DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return domain.Date{}, false, fmt.Errorf("load latest expense date: %w", err)
	}
	if len(rows) == 0 {
		return domain.Date{}, false, nil
	}
	return rows[0].TransactionDate, true, nil
}
