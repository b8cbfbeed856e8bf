package domain

import "github.com/shopspring/decimal"

// MaxDescriptionBytes is the size of the expense description column
const MaxDescriptionBytes = 1024

// MaxAmount bounds |amount| from above (exclusive) for a decimal(12,2) column
var MaxAmount = decimal.New(1, 10)

// Account Model. Names are unique across the whole system, not per user.
type Account struct {
	ID       uint      `gorm:"primaryKey" json:"id"`                                   // Primary key
	Name     string    `gorm:"size:255;uniqueIndex;not null" json:"name"`              // Globally unique name
	UserID   uint      `gorm:"index;not null" json:"user_id"`                          // Owner
	Expenses []Expense `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Held expenses
}

// Category Model. Names are unique per user by application check only.
type Category struct {
	ID       uint              `gorm:"primaryKey" json:"id"`                                   // Primary key
	Name     string            `gorm:"size:255;index;not null" json:"name"`                    // Display name
	UserID   uint              `gorm:"index;not null" json:"user_id"`                          // Owner
	Mappings []CategoryMapping `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Owned substring rules
}

// Expense Model. A positive amount is spending, a negative amount is income.
type Expense struct {
	ID              uint            `gorm:"primaryKey"`                    // Primary key
	TransactionDate Date            `gorm:"type:date;index;not null"`      // Calendar date, no time
	Description     string          `gorm:"size:1024;not null"`            // Free text matched by mappings
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`   // Signed amount
	AccountID       uint            `gorm:"index;not null"`                // Owning account
	CategoryID      *uint           `gorm:"index"`                         // Nullable classification
	Category        *Category       `gorm:"constraint:OnDelete:SET NULL;"` // Classification, never owns the expense
}

// CategoryMapping Model: a substring rule. Substrings are unique system-wide.
type CategoryMapping struct {
	ID         uint   `gorm:"primaryKey"`                    // Primary key
	Substring  string `gorm:"size:255;uniqueIndex;not null"` // Matched case-insensitively anywhere in a description
	CategoryID uint   `gorm:"index;not null"`                // Target category, owns the rule
}

// CheckLimits rejects an expense its columns cannot store exactly
func (e *Expense) CheckLimits() error {
	if len(e.Description) > MaxDescriptionBytes {
		return Validation("description longer than %d bytes", MaxDescriptionBytes)
	}
	if e.Amount.Abs().GreaterThanOrEqual(MaxAmount) {
		return Validation("amount %s out of range", e.Amount.StringFixed(2))
	}
	return nil
}
