package api

import (
	"expense_tracker/internal/domain"
)

// UserResponse is the public view of a user
type UserResponse struct {
	ID        uint   `json:"id"`         // User ID
	FirstName string `json:"first_name"` // Given name
	LastName  string `json:"last_name"`  // Family name
	Username  string `json:"username"`   // Username
	Email     string `json:"email"`      // Email address
	Role      string `json:"role"`       // User role
	CreatedAt int64  `json:"created_at"` // Milliseconds since epoch
}

func userResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// ExpenseResponse is the wire form of an expense
type ExpenseResponse struct {
	ID              uint         `json:"id"`               // Expense ID
	TransactionDate domain.Date  `json:"transaction_date"` // YYYY-MM-DD
	Description     string       `json:"description"`      // Free text
	Amount          domain.Money `json:"amount"`           // Two fractional digits, negative is income
	AccountID       uint         `json:"account_id"`       // Owning account
	CategoryID      *uint        `json:"category_id"`      // Null when unclassified
}

func expenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:              e.ID,
		TransactionDate: e.TransactionDate,
		Description:     e.Description,
		Amount:          domain.NewMoney(e.Amount),
		AccountID:       e.AccountID,
		CategoryID:      e.CategoryID,
	}
}

func expenseResponses(in []domain.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, len(in))
	for i := range in {
		out[i] = expenseResponse(&in[i])
	}
	return out
}

// MappingResponse is a freshly written rule
type MappingResponse struct {
	ID         uint   `json:"id"`
	Substring  string `json:"substring"`
	CategoryID uint   `json:"category_id"`
}

func mappingResponses(in []domain.CategoryMapping) []MappingResponse {
	out := make([]MappingResponse, len(in))
	for i, m := range in {
		out[i] = MappingResponse{ID: m.ID, Substring: m.Substring, CategoryID: m.CategoryID}
	}
	return out
}
