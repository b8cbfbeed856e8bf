package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"expense_tracker/internal/db/dbtest"
	"expense_tracker/internal/domain"
	"expense_tracker/internal/ledger"
	"expense_tracker/internal/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
)

type IngestTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *ledger.Store
	ingester *Ingester
	user     *domain.User
	account  *domain.Account
	dining   *domain.Category
}

func TestIngestTestSuite(t *testing.T) {
	suite.Run(t, new(IngestTestSuite))
}

func (s *IngestTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = ledger.New(dbtest.Open(s.T()))
	s.ingester = NewIngester(s.store)
	s.user = s.newUser("u")
	var err error
	s.account, err = s.store.CreateAccount(s.ctx, s.user.ID, "Checking")
	require.NoError(s.T(), err)
	s.dining, err = s.store.CreateCategory(s.ctx, s.user.ID, "Dining")
	require.NoError(s.T(), err)
}

func (s *IngestTestSuite) newUser(name string) *domain.User {
	u := &domain.User{FirstName: name, LastName: name, Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(s.T(), s.store.CreateUser(s.ctx, u))
	return u
}

func (s *IngestTestSuite) csv(body string) *Table {
	t, err := ReadTable("upload.csv", strings.NewReader(body))
	require.NoError(s.T(), err)
	return t
}

func (s *IngestTestSuite) expenses() []domain.Expense {
	out, err := s.store.ListExpenses(s.ctx, s.user.ID, ledger.ExpenseFilter{})
	require.NoError(s.T(), err)
	return out
}

func (s *IngestTestSuite) TestMalformedRowIsReportedNotRaised() {
	res, err := s.ingester.Ingest(s.ctx, s.user.ID, s.account.ID, s.csv(
		"transaction_date,description,amount\n"+
			"2024-01-05,Local Coffee Shop,4.50\n"+
			"2024-01-06,Broken,abc\n"))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), 1, res.Created)
	require.Len(s.T(), res.Skipped, 1)
	assert.Equal(s.T(), 3, res.Skipped[0].Row)
	assert.Contains(s.T(), res.Skipped[0].Reason, "amount")

	got := s.expenses()
	require.Len(s.T(), got, 1)
	assert.Equal(s.T(), "Local Coffee Shop", got[0].Description)
	assert.Equal(s.T(), "4.50", got[0].Amount.StringFixed(2))
}

func (s *IngestTestSuite) TestMissingColumnsAreNamed() {
	_, err := s.ingester.Ingest(s.ctx, s.user.ID, s.account.ID, s.csv("Description, Date\nx,2024-01-01\n"))
	require.Error(s.T(), err)

	var derr *domain.Error
	require.True(s.T(), errors.As(err, &derr))
	assert.Equal(s.T(), domain.KindMissingColumns, derr.Kind)
	assert.Equal(s.T(), []string{"amount", "transaction_date"}, derr.Columns)
	assert.Empty(s.T(), s.expenses())
}

func (s *IngestTestSuite) TestAccountOfAnotherUser() {
	other := s.newUser("other")
	_, err := s.ingester.Ingest(s.ctx, other.ID, s.account.ID, s.csv("transaction_date,description,amount\n"))
	assert.True(s.T(), errors.Is(err, domain.ErrNotFound))
}

func (s *IngestTestSuite) TestCategoryIDMustBeOwned() {
	other := s.newUser("other")
	foreign, err := s.store.CreateCategory(s.ctx, other.ID, "Theirs")
	require.NoError(s.T(), err)

	res, err := s.ingester.Ingest(s.ctx, s.user.ID, s.account.ID, s.csv(fmt.Sprintf(
		"transaction_date,description,amount,category_id\n"+
			"2024-01-05,Mine,1,%d\n"+
			"2024-01-05,Foreign,1,%d\n"+
			"2024-01-05,Missing,1,99999\n"+
			"2024-01-05,Negative,1,-1\n"+
			"2024-01-05,Zero,1,0\n", s.dining.ID, foreign.ID)))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, res.Created)
	require.Len(s.T(), res.Skipped, 4)
	for i, row := range []int{3, 4, 5, 6} {
		assert.Equal(s.T(), row, res.Skipped[i].Row)
		assert.Contains(s.T(), res.Skipped[i].Reason, "not found")
	}
	assert.Contains(s.T(), res.Skipped[2].Reason, "category_id -1")

	got := s.expenses()
	require.Len(s.T(), got, 1)
	require.NotNil(s.T(), got[0].CategoryID)
	assert.Equal(s.T(), s.dining.ID, *got[0].CategoryID)
}

func (s *IngestTestSuite) TestRowsOutsideColumnLimitsAreSkipped() {
	res, err := s.ingester.Ingest(s.ctx, s.user.ID, s.account.ID, s.csv(
		"transaction_date,description,amount\n"+
			"2024-01-05,Huge,12345678901234567.89\n"+
			"2024-01-05,"+strings.Repeat("x", domain.MaxDescriptionBytes+1)+",1\n"+
			"2024-01-05,Largest,9999999999.99\n"+
			"2024-01-05,Lunch,\"4,50\"\n"))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), 2, res.Created)
	require.Len(s.T(), res.Skipped, 2)
	assert.Equal(s.T(), 2, res.Skipped[0].Row)
	assert.Contains(s.T(), res.Skipped[0].Reason, "out of range")
	assert.Equal(s.T(), 3, res.Skipped[1].Row)
	assert.Contains(s.T(), res.Skipped[1].Reason, "description longer than")

	amounts := map[string]string{}
	for _, e := range s.expenses() {
		amounts[e.Description] = e.Amount.StringFixed(2)
	}
	assert.Equal(s.T(), map[string]string{"Largest": "9999999999.99", "Lunch": "4.50"}, amounts)
}

func (s *IngestTestSuite) TestRowsWithoutCategoryAreResolved() {
	_, err := mapping.NewEngine(s.store).Create(s.ctx, s.user.ID, s.dining.ID, []string{"coffee"})
	require.NoError(s.T(), err)

	res, err := s.ingester.Ingest(s.ctx, s.user.ID, s.account.ID, s.csv(
		"Transaction_Date,Description,Amount,Category_ID\n"+
			"01/05/2024,COFFEE beans,\"$1,204.555\",\n"+
			"2024/01/06,Rent,-20,n/a\n"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, res.Created)
	assert.Empty(s.T(), res.Skipped)

	byDesc := map[string]domain.Expense{}
	for _, e := range s.expenses() {
		byDesc[e.Description] = e
	}
	coffee := byDesc["COFFEE beans"]
	require.NotNil(s.T(), coffee.CategoryID)
	assert.Equal(s.T(), s.dining.ID, *coffee.CategoryID)
	assert.Equal(s.T(), "1204.56", coffee.Amount.StringFixed(2))
	assert.Equal(s.T(), "2024-01-05", coffee.TransactionDate.String())
	assert.Nil(s.T(), byDesc["Rent"].CategoryID)
}

func (s *IngestTestSuite) TestWorkbookUpload() {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(s.T(), f.SetSheetRow(sheet, "A1", &[]any{"transaction_date", "description", "amount"}))
	require.NoError(s.T(), f.SetSheetRow(sheet, "A2", &[]any{"2024-02-01", "Lunch", 12.5}))
	require.NoError(s.T(), f.SetSheetRow(sheet, "A4", &[]any{"2024-02-02", "", 3}))
	buf, err := f.WriteToBuffer()
	require.NoError(s.T(), err)

	table, err := ReadTable("statement.XLSX", buf)
	require.NoError(s.T(), err)
	require.Len(s.T(), table.Rows, 2)

	res, err := s.ingester.Ingest(s.ctx, s.user.ID, s.account.ID, table)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, res.Created)
	require.Len(s.T(), res.Skipped, 1)
	assert.Equal(s.T(), Skip{Row: 4, Reason: "missing description"}, res.Skipped[0])
}

func TestReadTableRejectsUnknownType(t *testing.T) {
	_, err := ReadTable("notes.txt", strings.NewReader("a,b"))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = ReadTable("empty.csv", strings.NewReader(""))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestParseDate(t *testing.T) {
	for _, raw := range []string{"2024-03-07", "2024/03/07", "03/07/2024", "3/7/2024", "03-07-24", "2024-03-07T10:00:00Z"} {
		d, err := parseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "2024-03-07", d.String(), raw)
	}
	_, err := parseDate("yesterday")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	for raw, want := range map[string]string{
		" $ 1,000.005 ": "1000.01",
		"4.50":          "4.50",
		"4,50":          "4.50",
		"4,5":           "4.50",
		"-12,30":        "-12.30",
		"1,234":         "1234.00",
		"1,234,567.8":   "1234567.80",
		"1.234,56":      "1234.56",
		"-$1.234.567,8": "-1234567.80",
		"€ 7":           "7.00",
	} {
		d, err := parseAmount(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, d.StringFixed(2), raw)
	}

	for _, raw := range []string{"1,2345", "12,345,67", "1,23,456", ",50", "1.234,567", "4,50.1"} {
		_, err := parseAmount(raw)
		require.Error(t, err, raw)
		assert.Contains(t, err.Error(), "ambiguous amount", raw)
	}

	_, err := parseAmount("")
	assert.EqualError(t, err, "missing amount")
	_, err = parseAmount("abc")
	assert.Contains(t, err.Error(), "unparsable amount")
}
