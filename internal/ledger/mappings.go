package ledger

import (
	"context"
	"fmt"

	"expense_tracker/internal/domain"
)

// MappingView is a mapping joined with its category and owner
type MappingView struct {
	ID           uint   `json:"id"`
	Substring    string `json:"substring"`
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	UserID       uint   `json:"-"`
}

const mappingViewColumns = "category_mappings.id, category_mappings.substring, category_mappings.category_id, " +
	"categories.name AS category_name, categories.user_id"

// Mappings lists the rules whose category userID owns, by substring
func (s *Store) Mappings(ctx context.Context, userID uint) ([]MappingView, error) {
	var out []MappingView
	err := s.conn(ctx).Table("category_mappings").
		Select(mappingViewColumns).
		Joins("JOIN categories ON categories.id = category_mappings.category_id").
		Where("categories.user_id = ?", userID).
		Order("category_mappings.substring").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	return out, nil
}

// AllMappings lists every rule in the system with its owner
func (s *Store) AllMappings(ctx context.Context) ([]MappingView, error) {
	var out []MappingView
	err := s.conn(ctx).Table("category_mappings").
		Select(mappingViewColumns).
		Joins("JOIN categories ON categories.id = category_mappings.category_id").
		Order("category_mappings.substring").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list all mappings: %w", err)
	}
	return out, nil
}

// MappingBySubstring finds the rule for substring, compared case-insensitively
func (s *Store) MappingBySubstring(ctx context.Context, substring string) (*MappingView, error) {
	var out []MappingView
	err := s.conn(ctx).Table("category_mappings").
		Select(mappingViewColumns).
		Joins("JOIN categories ON categories.id = category_mappings.category_id").
		Where("LOWER(category_mappings.substring) = LOWER(?)", substring).
		Limit(1).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}
	if len(out) == 0 {
		return nil, domain.NotFound("mapping")
	}
	return &out[0], nil
}

// CreateMapping inserts a new rule. A substring that is already stored
// fails with DuplicateSubstring.
func (s *Store) CreateMapping(ctx context.Context, substring string, categoryID uint) (*domain.CategoryMapping, error) {
	m := domain.CategoryMapping{Substring: substring, CategoryID: categoryID}
	if err := s.conn(ctx).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return nil, domain.DuplicateSubstring(substring)
		}
		return nil, fmt.Errorf("create mapping: %w", err)
	}
	return &m, nil
}

// UpsertMapping points substring at categoryID, creating the rule if needed.
// Idempotent; concurrent upserts of one substring are last-writer-wins.
func (s *Store) UpsertMapping(ctx context.Context, substring string, categoryID uint) (*domain.CategoryMapping, error) {
	var m domain.CategoryMapping
	err := s.conn(ctx).Where("LOWER(category_mappings.substring) = LOWER(?)", substring).Limit(1).Find(&m).Error
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}
	if m.ID == 0 {
		return s.CreateMapping(ctx, substring, categoryID)
	}
	if m.CategoryID == categoryID {
		return &m, nil
	}
	if err := s.conn(ctx).Model(&m).Update("category_id", categoryID).Error; err != nil {
		return nil, fmt.Errorf("update mapping: %w", err)
	}
	return &m, nil
}
