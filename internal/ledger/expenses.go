package ledger

import (
	"context"
	"fmt"

	"expense_tracker/internal/domain"

	"gorm.io/gorm"
)

// ExpenseFilter narrows ListExpenses. Nil fields do not filter.
type ExpenseFilter struct {
	AccountID     *uint
	From          *domain.Date // Inclusive
	To            *domain.Date // Inclusive
	CategoryID    *uint
	Uncategorized bool
}

// UnclassifiedExpense is the projection the mapping sweep works on
type UnclassifiedExpense struct {
	ID          uint
	Description string
	UserID      uint
}

// CreateExpense inserts e as given. Callers check account and category
// ownership; no mapping is applied here.
func (s *Store) CreateExpense(ctx context.Context, e *domain.Expense) error {
	e.Amount = e.Amount.Round(2)
	if err := s.conn(ctx).Omit("Category").Create(e).Error; err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// ownedExpenses scopes a query on expenses to userID's accounts
func (s *Store) ownedExpenses(ctx context.Context, userID uint) *gorm.DB {
	return s.conn(ctx).Model(&domain.Expense{}).
		Joins("JOIN accounts ON accounts.id = expenses.account_id").
		Where("accounts.user_id = ?", userID)
}

// Expense loads an expense held by one of userID's accounts
func (s *Store) Expense(ctx context.Context, userID, id uint) (*domain.Expense, error) {
	var e domain.Expense
	if err := s.ownedExpenses(ctx, userID).Where("expenses.id = ?", id).First(&e).Error; err != nil {
		return nil, lookupErr(err, "expense")
	}
	return &e, nil
}

// ListExpenses returns userID's expenses matching f, newest first
func (s *Store) ListExpenses(ctx context.Context, userID uint, f ExpenseFilter) ([]domain.Expense, error) {
	q := s.ownedExpenses(ctx, userID)
	if f.AccountID != nil {
		q = q.Where("expenses.account_id = ?", *f.AccountID)
	}
	if f.From != nil {
		q = q.Where("expenses.transaction_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("expenses.transaction_date <= ?", *f.To)
	}
	if f.CategoryID != nil {
		q = q.Where("expenses.category_id = ?", *f.CategoryID)
	}
	if f.Uncategorized {
		q = q.Where("expenses.category_id IS NULL")
	}
	var out []domain.Expense
	if err := q.Order("expenses.transaction_date DESC, expenses.id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// SetExpenseCategory classifies (or, with nil, unclassifies) one expense
func (s *Store) SetExpenseCategory(ctx context.Context, id uint, categoryID *uint) error {
	err := s.conn(ctx).Model(&domain.Expense{}).Where("id = ?", id).Update("category_id", categoryID).Error
	if err != nil {
		return fmt.Errorf("set expense category: %w", err)
	}
	return nil
}

// EachUnclassified walks every expense without a category, across all users,
// in ID order and batches of size. Rows classified by fn drop out of later
// batches because paging is by ID.
func (s *Store) EachUnclassified(ctx context.Context, size int, fn func([]UnclassifiedExpense) error) error {
	var lastID uint
	for {
		var batch []UnclassifiedExpense
		err := s.conn(ctx).Table("expenses").
			Select("expenses.id, expenses.description, accounts.user_id").
			Joins("JOIN accounts ON accounts.id = expenses.account_id").
			Where("expenses.category_id IS NULL AND expenses.id > ?", lastID).
			Order("expenses.id").
			Limit(size).
			Scan(&batch).Error
		if err != nil {
			return fmt.Errorf("scan unclassified expenses: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		lastID = batch[len(batch)-1].ID
	}
}

// ClassifyExpenses assigns categoryID to the given expenses that are still
// unclassified. Returns the number of rows changed.
func (s *Store) ClassifyExpenses(ctx context.Context, categoryID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Model(&domain.Expense{}).
		Where("id IN ? AND category_id IS NULL", ids).
		Update("category_id", categoryID)
	if res.Error != nil {
		return 0, fmt.Errorf("classify expenses: %w", res.Error)
	}
	return res.RowsAffected, nil
}
