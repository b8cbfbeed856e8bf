package ledger

import (
	"context"
	"fmt"
	"strings"

	"expense_tracker/internal/domain"
)

// CreateCategory adds a category for userID, refusing a name the user
// already has.
func (s *Store) CreateCategory(ctx context.Context, userID uint, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validation("category name is required")
	}

	var n int64
	if err := s.conn(ctx).Model(&domain.Category{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check category name: %w", err)
	}
	if n > 0 {
		return nil, domain.Conflict("category %q already exists", name)
	}

	cat := domain.Category{Name: name, UserID: userID}
	if err := s.conn(ctx).Create(&cat).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &cat, nil
}

// Categories lists userID's categories by name
func (s *Store) Categories(ctx context.Context, userID uint) ([]domain.Category, error) {
	var out []domain.Category
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("name, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// Category loads a category owned by userID
func (s *Store) Category(ctx context.Context, userID, id uint) (*domain.Category, error) {
	var cat domain.Category
	if err := s.conn(ctx).Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
		return nil, lookupErr(err, "category")
	}
	return &cat, nil
}

// DeleteCategory removes a category and its mappings. Expenses classified
// under it are kept and become unclassified. Returns how many expenses were
// detached.
func (s *Store) DeleteCategory(ctx context.Context, userID, id uint) (int64, error) {
	var detached int64
	err := s.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.Category(ctx, userID, id); err != nil {
			return err
		}
		res := tx.conn(ctx).Model(&domain.Expense{}).
			Where("category_id = ?", id).
			Update("category_id", nil)
		if res.Error != nil {
			return fmt.Errorf("detach expenses: %w", res.Error)
		}
		detached = res.RowsAffected
		if err := tx.conn(ctx).Where("category_id = ?", id).Delete(&domain.CategoryMapping{}).Error; err != nil {
			return fmt.Errorf("delete mappings: %w", err)
		}
		if err := tx.conn(ctx).Delete(&domain.Category{}, id).Error; err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
	return detached, err
}
