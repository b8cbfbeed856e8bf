package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"expense_tracker/internal/domain"
	"expense_tracker/internal/ledger"
	"expense_tracker/internal/mapping"

	"github.com/sirupsen/logrus"
)

// Required upload columns
const (
	ColumnDate        = "transaction_date"
	ColumnDescription = "description"
	ColumnAmount      = "amount"
	ColumnCategoryID  = "category_id" // Optional
)

var requiredColumns = []string{ColumnDate, ColumnDescription, ColumnAmount}

// Skip is a row left out of an ingestion and why
type Skip struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result summarizes one ingestion
type Result struct {
	Created int    `json:"created_count"`
	Skipped []Skip `json:"skipped"`
}

// Ingester writes uploaded rows into an account
type Ingester struct {
	store *ledger.Store
}

// NewIngester returns an Ingester over store
func NewIngester(store *ledger.Store) *Ingester {
	return &Ingester{store: store}
}

// Ingest creates one expense per valid row of t in accountID. Rows that fail
// to parse, or name a category the user does not own, are reported in
// Result.Skipped and never abort the batch. Rows without a usable category_id
// are classified with the user's mapping rules. Everything is written in one
// transaction.
func (in *Ingester) Ingest(ctx context.Context, userID, accountID uint, t *Table) (*Result, error) {
	res := &Result{Skipped: []Skip{}}
	err := in.store.Transaction(ctx, func(tx *ledger.Store) error {
		if _, err := tx.Account(ctx, userID, accountID); err != nil {
			return err
		}
		var missing []string
		for _, col := range requiredColumns {
			if !t.Has(col) {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			return domain.MissingColumns(missing)
		}

		resolver, err := mapping.ResolverFor(ctx, tx, userID)
		if err != nil {
			return err
		}
		cats, err := tx.Categories(ctx, userID)
		if err != nil {
			return err
		}
		owned := make(map[uint]bool, len(cats))
		for _, c := range cats {
			owned[c.ID] = true
		}

		res.Created = 0
		res.Skipped = res.Skipped[:0]
		for _, row := range t.Rows {
			e, reason := buildExpense(row, accountID, owned, resolver)
			if reason != "" {
				res.Skipped = append(res.Skipped, Skip{Row: row.Line, Reason: reason})
				continue
			}
			if err := tx.CreateExpense(ctx, e); err != nil {
				return fmt.Errorf("row %d: %w", row.Line, err)
			}
			res.Created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": accountID,
		"rows":       len(t.Rows),
		"created":    res.Created,
		"skipped":    len(res.Skipped),
	}).Info("Upload ingested")
	return res, nil
}

// buildExpense returns the expense for row or the reason it is skipped
func buildExpense(row Row, accountID uint, owned map[uint]bool, resolver *mapping.Resolver) (*domain.Expense, string) {
	date, err := parseDate(row.Get(ColumnDate))
	if err != nil {
		return nil, err.Error()
	}
	amount, err := parseAmount(row.Get(ColumnAmount))
	if err != nil {
		return nil, err.Error()
	}
	desc := row.Get(ColumnDescription)
	if desc == "" {
		return nil, "missing description"
	}
	e := &domain.Expense{TransactionDate: date, Description: desc, Amount: amount, AccountID: accountID}
	if err := e.CheckLimits(); err != nil {
		return nil, reason(err)
	}

	if raw := row.Get(ColumnCategoryID); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			if id <= 0 || !owned[uint(id)] {
				return nil, fmt.Sprintf("category_id %d not found", id)
			}
			cid := uint(id)
			e.CategoryID = &cid
			return e, ""
		}
	}
	if cid, ok := resolver.Resolve(desc); ok {
		e.CategoryID = &cid
	}
	return e, ""
}

// reason is the message of a domain error, without its kind
func reason(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
