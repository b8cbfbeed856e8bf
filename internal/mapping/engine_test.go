package mapping

import (
	"context"
	"errors"
	"strings"
	"testing"

	"expense_tracker/internal/db/dbtest"
	"expense_tracker/internal/domain"
	"expense_tracker/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *ledger.Store
	engine   *Engine
	user     *domain.User
	account  *domain.Account
	dining   *domain.Category
	rides    *domain.Category
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = ledger.New(dbtest.Open(s.T()))
	s.engine = NewEngine(s.store)
	s.user, s.account = s.newUser("u")
	var err error
	s.dining, err = s.store.CreateCategory(s.ctx, s.user.ID, "Dining")
	require.NoError(s.T(), err)
	s.rides, err = s.store.CreateCategory(s.ctx, s.user.ID, "Rides")
	require.NoError(s.T(), err)
}

func (s *EngineTestSuite) newUser(name string) (*domain.User, *domain.Account) {
	u := &domain.User{FirstName: name, LastName: name, Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(s.T(), s.store.CreateUser(s.ctx, u))
	acc, err := s.store.CreateAccount(s.ctx, u.ID, name+"-checking")
	require.NoError(s.T(), err)
	return u, acc
}

// addExpense writes directly through the store, bypassing resolution
func (s *EngineTestSuite) addExpense(accountID uint, desc string) *domain.Expense {
	d, _ := domain.ParseDate("2024-01-05")
	e := &domain.Expense{TransactionDate: d, Description: desc, Amount: decimal.RequireFromString("4.50"), AccountID: accountID}
	require.NoError(s.T(), s.store.CreateExpense(s.ctx, e))
	return e
}

func (s *EngineTestSuite) categoryOf(userID, expenseID uint) *uint {
	e, err := s.store.Expense(s.ctx, userID, expenseID)
	require.NoError(s.T(), err)
	return e.CategoryID
}

func (s *EngineTestSuite) TestSweepClassifiesExistingExpense() {
	_, err := s.engine.Create(s.ctx, s.user.ID, s.dining.ID, []string{"Coffee"})
	require.NoError(s.T(), err)

	e := s.addExpense(s.account.ID, "Local Coffee Shop")
	require.Nil(s.T(), s.categoryOf(s.user.ID, e.ID))

	n, err := s.engine.Sweep(s.ctx)
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, n)

	got := s.categoryOf(s.user.ID, e.ID)
	require.NotNil(s.T(), got)
	assert.Equal(s.T(), s.dining.ID, *got)
}

func (s *EngineTestSuite) TestSweepIsIdempotent() {
	s.addExpense(s.account.ID, "Coffee A")
	s.addExpense(s.account.ID, "coffee B")
	s.addExpense(s.account.ID, "Groceries")

	res, err := s.engine.Create(s.ctx, s.user.ID, s.dining.ID, []string{"coffee"})
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 2, res.Reclassified, "creation sweeps existing rows")

	n, err := s.engine.Sweep(s.ctx)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), n)
}

func (s *EngineTestSuite) TestCreateDuplicateSubstringLeavesStateUnchanged() {
	_, err := s.engine.Create(s.ctx, s.user.ID, s.rides.ID, []string{"Uber"})
	require.NoError(s.T(), err)
	e := s.addExpense(s.account.ID, "UBER EATS dinner")
	_, err = s.engine.Sweep(s.ctx)
	require.NoError(s.T(), err)

	pending := s.addExpense(s.account.ID, "Pizza place")

	_, err = s.engine.Create(s.ctx, s.user.ID, s.dining.ID, []string{"Pizza", "uber"})
	require.Error(s.T(), err)
	assert.True(s.T(), errors.Is(err, domain.ErrDuplicateSubstring))

	views, err := s.engine.List(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), views, 1, "Pizza must be rolled back with the failed request")
	assert.Equal(s.T(), "Uber", views[0].Substring)
	assert.Equal(s.T(), s.rides.ID, views[0].CategoryID)

	assert.Equal(s.T(), s.rides.ID, *s.categoryOf(s.user.ID, e.ID))
	assert.Nil(s.T(), s.categoryOf(s.user.ID, pending.ID))
}

func (s *EngineTestSuite) TestCreateSameCategoryIsNoop() {
	_, err := s.engine.Create(s.ctx, s.user.ID, s.rides.ID, []string{"Uber"})
	require.NoError(s.T(), err)

	res, err := s.engine.Create(s.ctx, s.user.ID, s.rides.ID, []string{"UBER", "Lyft", "lyft"})
	require.NoError(s.T(), err)
	require.Len(s.T(), res.Created, 1)
	assert.Equal(s.T(), "Lyft", res.Created[0].Substring)
	assert.Equal(s.T(), "Rides", res.Category.Name)
}

func (s *EngineTestSuite) TestCreateValidatesInput() {
	_, err := s.engine.Create(s.ctx, s.user.ID, s.rides.ID, []string{" "})
	assert.Equal(s.T(), domain.KindValidation, domain.KindOf(err))

	_, err = s.engine.Create(s.ctx, s.user.ID, s.rides.ID, nil)
	assert.Equal(s.T(), domain.KindValidation, domain.KindOf(err))

	other, _ := s.newUser("other")
	_, err = s.engine.Create(s.ctx, other.ID, s.rides.ID, []string{"Uber"})
	assert.True(s.T(), errors.Is(err, domain.ErrNotFound), "category of another user")
}

func (s *EngineTestSuite) TestRulesNeverCrossUsers() {
	other, otherAcc := s.newUser("other")
	foreign := s.addExpense(otherAcc.ID, "Local Coffee Shop")

	_, err := s.engine.Create(s.ctx, s.user.ID, s.dining.ID, []string{"Coffee"})
	require.NoError(s.T(), err)

	assert.Nil(s.T(), s.categoryOf(other.ID, foreign.ID))

	// The substring stays globally unique
	otherCat, err := s.store.CreateCategory(s.ctx, other.ID, "Cafes")
	require.NoError(s.T(), err)
	_, err = s.engine.Create(s.ctx, other.ID, otherCat.ID, []string{"coffee"})
	assert.True(s.T(), errors.Is(err, domain.ErrDuplicateSubstring))
	_, _, err = s.engine.Upsert(s.ctx, other.ID, "Coffee", otherCat.ID)
	assert.True(s.T(), errors.Is(err, domain.ErrDuplicateSubstring))
}

func (s *EngineTestSuite) TestUpsertRepointsAndSweeps() {
	_, err := s.engine.Create(s.ctx, s.user.ID, s.dining.ID, []string{"Uber"})
	require.NoError(s.T(), err)

	m, n, err := s.engine.Upsert(s.ctx, s.user.ID, "uber", s.rides.ID)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), n)
	assert.Equal(s.T(), s.rides.ID, m.CategoryID)

	e := s.addExpense(s.account.ID, "Uber trip")
	_, n, err = s.engine.Upsert(s.ctx, s.user.ID, "Uber", s.rides.ID)
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, n)
	assert.Equal(s.T(), s.rides.ID, *s.categoryOf(s.user.ID, e.ID))
}

func (s *EngineTestSuite) TestResolverForUsesOwnRulesOnly() {
	_, err := s.engine.Create(s.ctx, s.user.ID, s.dining.ID, []string{"Coffee"})
	require.NoError(s.T(), err)
	other, _ := s.newUser("other")

	mine, err := ResolverFor(s.ctx, s.store, s.user.ID)
	require.NoError(s.T(), err)
	cat, ok := mine.Resolve("Coffee time")
	assert.True(s.T(), ok)
	assert.Equal(s.T(), s.dining.ID, cat)

	theirs, err := ResolverFor(s.ctx, s.store, other.ID)
	require.NoError(s.T(), err)
	_, ok = theirs.Resolve("Coffee time")
	assert.False(s.T(), ok)
}

func TestCleanSubstrings(t *testing.T) {
	out, err := cleanSubstrings([]string{" Uber ", "uber", "Lyft"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Uber", "Lyft"}, out)
}

func (s *EngineTestSuite) TestRecordResolvesWithoutCategory() {
	_, err := s.engine.Create(s.ctx, s.user.ID, s.dining.ID, []string{"Coffee"})
	require.NoError(s.T(), err)
	d, _ := domain.ParseDate("2024-01-05")

	auto := &domain.Expense{TransactionDate: d, Description: " Coffee to go ", Amount: decimal.RequireFromString("3"), AccountID: s.account.ID}
	require.NoError(s.T(), s.engine.Record(s.ctx, s.user.ID, auto))
	require.NotNil(s.T(), auto.CategoryID)
	assert.Equal(s.T(), s.dining.ID, *auto.CategoryID)
	assert.Equal(s.T(), "Coffee to go", auto.Description)

	explicit := &domain.Expense{TransactionDate: d, Description: "Coffee", Amount: decimal.RequireFromString("3"), AccountID: s.account.ID, CategoryID: &s.rides.ID}
	require.NoError(s.T(), s.engine.Record(s.ctx, s.user.ID, explicit))
	assert.Equal(s.T(), s.rides.ID, *s.categoryOf(s.user.ID, explicit.ID))
}

func (s *EngineTestSuite) TestRecordChecksOwnership() {
	other, otherAcc := s.newUser("other")
	d, _ := domain.ParseDate("2024-01-05")

	err := s.engine.Record(s.ctx, s.user.ID, &domain.Expense{TransactionDate: d, Description: "x", AccountID: otherAcc.ID})
	assert.True(s.T(), errors.Is(err, domain.ErrNotFound))

	err = s.engine.Record(s.ctx, other.ID, &domain.Expense{TransactionDate: d, Description: "x", AccountID: otherAcc.ID, CategoryID: &s.dining.ID})
	assert.True(s.T(), errors.Is(err, domain.ErrNotFound))

	err = s.engine.Record(s.ctx, s.user.ID, &domain.Expense{TransactionDate: d, Description: "  ", AccountID: s.account.ID})
	assert.Equal(s.T(), domain.KindValidation, domain.KindOf(err))
}

func (s *EngineTestSuite) TestRecordRejectsValuesColumnsCannotHold() {
	d, _ := domain.ParseDate("2024-01-05")

	huge := &domain.Expense{TransactionDate: d, Description: "Huge", Amount: decimal.RequireFromString("-10000000000"), AccountID: s.account.ID}
	err := s.engine.Record(s.ctx, s.user.ID, huge)
	assert.Equal(s.T(), domain.KindValidation, domain.KindOf(err))

	long := &domain.Expense{TransactionDate: d, Description: strings.Repeat("é", domain.MaxDescriptionBytes/2+1), Amount: decimal.RequireFromString("1"), AccountID: s.account.ID}
	err = s.engine.Record(s.ctx, s.user.ID, long)
	assert.Equal(s.T(), domain.KindValidation, domain.KindOf(err))

	largest := &domain.Expense{TransactionDate: d, Description: "Largest", Amount: decimal.RequireFromString("9999999999.99"), AccountID: s.account.ID}
	require.NoError(s.T(), s.engine.Record(s.ctx, s.user.ID, largest))
	assert.NotZero(s.T(), largest.ID)
}
