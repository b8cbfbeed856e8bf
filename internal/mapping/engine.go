package mapping

import (
	"context"
	"errors"
	"strings"
	"time"

	"expense_tracker/internal/domain"
	"expense_tracker/internal/ledger"

	"github.com/sirupsen/logrus"
)

// DefaultBatchSize is how many unclassified expenses a sweep reads at a time
const DefaultBatchSize = 500

// Engine maintains substring rules and applies them to expenses.
//
// Rules are unique system-wide by substring, but an expense is only ever
// resolved against rules whose category belongs to the expense's owner.
type Engine struct {
	store     *ledger.Store
	batchSize int
}

// NewEngine returns an Engine over store
func NewEngine(store *ledger.Store) *Engine {
	return &Engine{store: store, batchSize: DefaultBatchSize}
}

// CreateResult reports a strict mapping creation
type CreateResult struct {
	Category     *domain.Category
	Created      []domain.CategoryMapping
	Reclassified int64
}

// List returns userID's rules with category names
func (e *Engine) List(ctx context.Context, userID uint) ([]ledger.MappingView, error) {
	return e.store.Mappings(ctx, userID)
}

// ResolverFor compiles userID's rules using store, which may be a transaction
func ResolverFor(ctx context.Context, store *ledger.Store, userID uint) (*Resolver, error) {
	views, err := store.Mappings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewResolver(rulesOf(views)), nil
}

// Record stores a single expense for userID. The account must be the
// user's; an explicit category must be the user's too. Without one the
// description is resolved against the user's rules.
func (e *Engine) Record(ctx context.Context, userID uint, exp *domain.Expense) error {
	exp.Description = strings.TrimSpace(exp.Description)
	if exp.Description == "" {
		return domain.Validation("description must not be empty")
	}
	if exp.TransactionDate.IsZero() {
		return domain.Validation("transaction_date is required")
	}
	if err := exp.CheckLimits(); err != nil {
		return err
	}
	err := e.store.Transaction(ctx, func(tx *ledger.Store) error {
		if _, err := tx.Account(ctx, userID, exp.AccountID); err != nil {
			return err
		}
		if exp.CategoryID != nil {
			if _, err := tx.Category(ctx, userID, *exp.CategoryID); err != nil {
				return err
			}
		} else {
			resolver, err := ResolverFor(ctx, tx, userID)
			if err != nil {
				return err
			}
			if cat, ok := resolver.Resolve(exp.Description); ok {
				exp.CategoryID = &cat
			}
		}
		return tx.CreateExpense(ctx, exp)
	})
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"expense_id": exp.ID,
		"account_id": exp.AccountID,
		"classified": exp.CategoryID != nil,
	}).Info("Expense recorded")
	return nil
}

// Create adds new substrings for categoryID. Any substring already mapped to
// a different category fails the whole request with DuplicateSubstring and
// nothing is written. A substring already mapped to categoryID is left as is.
// On success every unclassified expense is swept in the same transaction.
func (e *Engine) Create(ctx context.Context, userID, categoryID uint, substrings []string) (*CreateResult, error) {
	cleaned, err := cleanSubstrings(substrings)
	if err != nil {
		return nil, err
	}
	res := &CreateResult{}
	err = e.store.Transaction(ctx, func(tx *ledger.Store) error {
		cat, err := tx.Category(ctx, userID, categoryID)
		if err != nil {
			return err
		}
		res.Category = cat
		res.Created = res.Created[:0]
		for _, sub := range cleaned {
			existing, err := tx.MappingBySubstring(ctx, sub)
			switch {
			case err == nil && existing.CategoryID == categoryID:
				continue
			case err == nil:
				return domain.DuplicateSubstring(sub)
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
			m, err := tx.CreateMapping(ctx, sub, categoryID)
			if err != nil {
				return err
			}
			res.Created = append(res.Created, *m)
		}
		res.Reclassified, err = e.sweep(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":      userID,
		"category_id":  categoryID,
		"created":      len(res.Created),
		"reclassified": res.Reclassified,
	}).Info("Mappings created")
	return res, nil
}

// Upsert points substring at categoryID whether or not it exists, then
// sweeps. A substring held by another user's category is never taken over.
func (e *Engine) Upsert(ctx context.Context, userID uint, substring string, categoryID uint) (*domain.CategoryMapping, int64, error) {
	cleaned, err := cleanSubstrings([]string{substring})
	if err != nil {
		return nil, 0, err
	}
	sub := cleaned[0]
	var (
		m            *domain.CategoryMapping
		reclassified int64
	)
	err = e.store.Transaction(ctx, func(tx *ledger.Store) error {
		if _, err := tx.Category(ctx, userID, categoryID); err != nil {
			return err
		}
		existing, err := tx.MappingBySubstring(ctx, sub)
		if err == nil && existing.UserID != userID {
			return domain.DuplicateSubstring(sub)
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if m, err = tx.UpsertMapping(ctx, sub, categoryID); err != nil {
			return err
		}
		reclassified, err = e.sweep(ctx, tx)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":      userID,
		"category_id":  categoryID,
		"substring":    sub,
		"reclassified": reclassified,
	}).Info("Mapping upserted")
	return m, reclassified, nil
}

// Sweep classifies every unclassified expense that a rule now matches, in a
// single transaction. Running it again without rule changes classifies
// nothing. Cost is O(unclassified expenses x rules): every mapping change
// rescans all unclassified rows.
func (e *Engine) Sweep(ctx context.Context) (int64, error) {
	var n int64
	err := e.store.Transaction(ctx, func(tx *ledger.Store) error {
		var err error
		n, err = e.sweep(ctx, tx)
		return err
	})
	return n, err
}

func (e *Engine) sweep(ctx context.Context, tx *ledger.Store) (int64, error) {
	started := time.Now()
	views, err := tx.AllMappings(ctx)
	if err != nil {
		return 0, err
	}
	if len(views) == 0 {
		return 0, nil
	}
	byOwner := map[uint][]Rule{}
	for _, v := range views {
		byOwner[v.UserID] = append(byOwner[v.UserID], Rule{Substring: v.Substring, CategoryID: v.CategoryID})
	}
	resolvers := make(map[uint]*Resolver, len(byOwner))
	for owner, rules := range byOwner {
		resolvers[owner] = NewResolver(rules)
	}

	var total, scanned int64
	err = tx.EachUnclassified(ctx, e.batchSize, func(batch []ledger.UnclassifiedExpense) error {
		scanned += int64(len(batch))
		assign := map[uint][]uint{}
		for _, exp := range batch {
			if cat, ok := resolvers[exp.UserID].Resolve(exp.Description); ok {
				assign[cat] = append(assign[cat], exp.ID)
			}
		}
		for cat, ids := range assign {
			n, err := tx.ClassifyExpenses(ctx, cat, ids)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{
		"rules":        len(views),
		"scanned":      scanned,
		"reclassified": total,
		"duration_ms":  time.Since(started).Milliseconds(),
	}).Debug("Sweep finished")
	return total, nil
}

func rulesOf(views []ledger.MappingView) []Rule {
	rules := make([]Rule, len(views))
	for i, v := range views {
		rules[i] = Rule{Substring: v.Substring, CategoryID: v.CategoryID}
	}
	return rules
}

// cleanSubstrings trims, rejects blanks and drops case-insensitive repeats
func cleanSubstrings(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, domain.Validation("at least one substring is required")
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, domain.Validation("substring must not be empty")
		}
		if len(s) > 255 {
			return nil, domain.Validation("substring %q is longer than 255 characters", s)
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out, nil
}
