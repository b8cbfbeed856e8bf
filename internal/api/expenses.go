package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"expense_tracker/internal/domain"  // Importing domain models
	"expense_tracker/internal/ingest"  // Spreadsheet ingestion
	"expense_tracker/internal/ledger"  // Ledger store
	"expense_tracker/internal/mapping" // Rule resolution

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// maxUploadBytes caps a statement upload
const maxUploadBytes = 10 << 20

// ExpenseRequest creates one expense. A null category_id lets the caller's
// mapping rules pick one.
type ExpenseRequest struct {
	TransactionDate domain.Date   `json:"transaction_date"`               // YYYY-MM-DD
	Description     string        `json:"description" binding:"required"` // Matched by mappings
	Amount          *domain.Money `json:"amount"`                         // Negative is income
	AccountID       uint          `json:"account_id" binding:"required"`  // Must be the caller's
	CategoryID      *uint         `json:"category_id"`                    // Optional classification
}

// CategoryRequest sets or clears an expense's category
type CategoryRequest struct {
	CategoryID *uint `json:"category_id"` // Null unclassifies
}

// CreateExpenseHandler records one expense
func CreateExpenseHandler(engine *mapping.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req ExpenseRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount == nil || req.TransactionDate.IsZero() {
			badRequest(c, "transaction_date (YYYY-MM-DD), description, amount and account_id are required")
			return
		}
		exp := domain.Expense{
			TransactionDate: req.TransactionDate,
			Description:     req.Description,
			Amount:          req.Amount.Decimal,
			AccountID:       req.AccountID,
			CategoryID:      req.CategoryID,
		}
		ctx := c.Request.Context()
		if err := engine.Record(ctx, userID, &exp); err != nil {
			respondError(c, err) // Foreign account or category is a 404
			return
		}
		dropReports(c, rdb, userID) // Reports changed
		c.JSON(http.StatusCreated, expenseResponse(&exp))
	}
}

// ListExpensesHandler lists the caller's expenses, newest first
func ListExpensesHandler(store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var (
			f   ledger.ExpenseFilter
			err error
		)
		if f.AccountID, err = queryUint(c, "account_id"); err != nil {
			respondError(c, err)
			return
		}
		if f.CategoryID, err = queryUint(c, "category_id"); err != nil {
			respondError(c, err)
			return
		}
		if f.From, err = queryDate(c, "start_date"); err != nil {
			respondError(c, err)
			return
		}
		if f.To, err = queryDate(c, "end_date"); err != nil {
			respondError(c, err)
			return
		}
		if raw := c.Query("uncategorized"); raw != "" {
			if f.Uncategorized, err = strconv.ParseBool(raw); err != nil {
				badRequest(c, "uncategorized must be true or false")
				return
			}
		}
		if f.From != nil && f.To != nil && f.To.Before(*f.From) {
			badRequest(c, "end_date is before start_date")
			return
		}
		exps, err := store.ListExpenses(c.Request.Context(), userID, f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, expenseResponses(exps))
	}
}

// GetExpenseHandler returns one of the caller's expenses
func GetExpenseHandler(store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		exp, err := store.Expense(c.Request.Context(), userID, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, expenseResponse(exp))
	}
}

// SetExpenseCategoryHandler classifies an expense by hand
func SetExpenseCategoryHandler(store *ledger.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "category_id must be a number or null")
			return
		}
		ctx := c.Request.Context()
		var exp *domain.Expense
		err := store.Transaction(ctx, func(tx *ledger.Store) error {
			var err error
			if exp, err = tx.Expense(ctx, userID, id); err != nil {
				return err
			}
			if req.CategoryID != nil {
				if _, err := tx.Category(ctx, userID, *req.CategoryID); err != nil {
					return err // Only the caller's categories
				}
			}
			exp.CategoryID = req.CategoryID
			return tx.SetExpenseCategory(ctx, id, req.CategoryID)
		})
		if err != nil {
			respondError(c, err)
			return
		}
		dropReports(c, rdb, userID) // Reports changed
		c.JSON(http.StatusOK, expenseResponse(exp))
	}
}

// UploadExpensesHandler ingests a .csv or .xlsx statement into one of the
// caller's accounts. Bad rows are reported, not fatal.
func UploadExpensesHandler(ingester *ingest.Ingester, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes) // Cap before parsing the form
		accountID, err := strconv.ParseUint(c.PostForm("account_id"), 10, 64)
		if err != nil || accountID == 0 {
			badRequest(c, "account_id form field is required")
			return
		}
		fh, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "file form field is required")
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer f.Close()

		table, err := ingest.ReadTable(fh.Filename, f)
		if err != nil {
			respondError(c, err)
			return
		}
		ctx := c.Request.Context()
		res, err := ingester.Ingest(ctx, userID, uint(accountID), table)
		if err != nil {
			respondError(c, err) // Missing columns is a 422
			return
		}
		if res.Created > 0 {
			dropReports(c, rdb, userID) // Reports changed
		}
		c.JSON(http.StatusCreated, res)
	}
}
