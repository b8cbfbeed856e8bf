package ledger

import (
	"context"
	"fmt"
	"strings"

	"expense_tracker/internal/domain"
)

// CreateAccount adds an account for userID. Account names are unique across
// all users.
func (s *Store) CreateAccount(ctx context.Context, userID uint, name string) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validation("account name is required")
	}

	var n int64
	if err := s.conn(ctx).Model(&domain.Account{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check account name: %w", err)
	}
	if n > 0 {
		return nil, domain.Conflict("account %q already exists", name)
	}

	acc := domain.Account{Name: name, UserID: userID}
	if err := s.conn(ctx).Create(&acc).Error; err != nil {
		if isDuplicate(err) {
			return nil, domain.Conflict("account %q already exists", name)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &acc, nil
}

// Accounts lists userID's accounts by name
func (s *Store) Accounts(ctx context.Context, userID uint) ([]domain.Account, error) {
	var out []domain.Account
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

// Account loads an account owned by userID
func (s *Store) Account(ctx context.Context, userID, id uint) (*domain.Account, error) {
	var acc domain.Account
	if err := s.conn(ctx).Where("id = ? AND user_id = ?", id, userID).First(&acc).Error; err != nil {
		return nil, lookupErr(err, "account")
	}
	return &acc, nil
}
