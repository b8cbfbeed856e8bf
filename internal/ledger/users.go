package ledger

import (
	"context"
	"fmt"
	"strings"

	"expense_tracker/internal/domain"
)

// CreateUser inserts u. Username and email are stored lower-cased.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if strings.Contains(u.Username, "@") {
		return domain.Validation("username must not contain @")
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}

	var n int64
	if err := s.conn(ctx).Model(&domain.User{}).Where("email = ?", u.Email).Count(&n).Error; err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if n > 0 {
		return domain.Conflict("email already registered")
	}
	if err := s.conn(ctx).Model(&domain.User{}).Where("username = ?", u.Username).Count(&n).Error; err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if n > 0 {
		return domain.Conflict("username already taken")
	}

	if err := s.conn(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return domain.Conflict("username or email already registered")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UserByID loads a user
func (s *Store) UserByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := s.conn(ctx).First(&u, id).Error; err != nil {
		return nil, lookupErr(err, "user")
	}
	return &u, nil
}

// UserByLogin finds a user by email when identifier contains an @, and by
// username otherwise.
func (s *Store) UserByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	column := "username"
	if strings.Contains(identifier, "@") {
		column = "email"
	}
	var u domain.User
	if err := s.conn(ctx).Where(column+" = ?", identifier).First(&u).Error; err != nil {
		return nil, lookupErr(err, "user")
	}
	return &u, nil
}

// ListUsers returns one page of users ordered by ID, plus the total count
func (s *Store) ListUsers(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	var total int64
	if err := s.conn(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var users []domain.User
	if err := s.conn(ctx).Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}
