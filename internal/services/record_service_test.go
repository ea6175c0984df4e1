package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfinances/internal/core"
	"myfinances/internal/sheets"
)

type appendCall struct {
	dataset sheets.Dataset
	fields  []any
}

type stubAppender struct {
	ref   string
	err   error
	calls []appendCall
}

func (s *stubAppender) AppendRow(_ context.Context, d sheets.Dataset, fields []any) (string, error) {
	s.calls = append(s.calls, appendCall{dataset: d, fields: fields})
	return s.ref, s.err
}

type publishCall struct {
	dataset     sheets.Dataset
	id, version int64
}

type stubPublisher struct {
	err   error
	calls []publishCall
}

func (s *stubPublisher) PublishRowSync(_ context.Context, d sheets.Dataset, id, version int64) error {
	s.calls = append(s.calls, publishCall{dataset: d, id: id, version: version})
	return s.err
}

func newService(store sheets.RowAppender, expenseSchema sheets.Schema, pub SyncPublisher) *RecordService {
	return NewRecordService(store, core.NewRecordValidator(core.DefaultCategories()),
		sheets.IncomeSchema(), expenseSchema, pub, nil)
}

func TestRecordService_AddIncome(t *testing.T) {
	store := &stubAppender{ref: "mem:income:2"}
	svc := newService(store, sheets.ExpenseSchema(), nil)

	ref, err := svc.AddIncome(context.Background(), core.IncomeRecord{
		Month: "january", Source: "  Salary ", Amount: decimal.NewFromInt(1500),
	})
	require.NoError(t, err)
	assert.Equal(t, "mem:income:2", ref)
	require.Len(t, store.calls, 1)
	assert.Equal(t, sheets.Income, store.calls[0].dataset)
	assert.Equal(t, []string{"January", "Salary", "1.500,00"}, sheets.FieldsToStrings(store.calls[0].fields))
}

func TestRecordService_AddIncome_Invalid(t *testing.T) {
	store := &stubAppender{}
	svc := newService(store, sheets.ExpenseSchema(), nil)

	_, err := svc.AddIncome(context.Background(), core.IncomeRecord{
		Month: "Smarch", Source: "Salary", Amount: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	_, err = svc.AddIncome(context.Background(), core.IncomeRecord{
		Month: "May", Source: "abc", Amount: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, core.ErrTextTooShort)
	assert.Empty(t, store.calls, "invalid records never reach the store")
}

func TestRecordService_AddExpense_StandardLayoutDropsDate(t *testing.T) {
	store := &stubAppender{ref: "7"}
	svc := newService(store, sheets.ExpenseSchema(), nil)

	_, err := svc.AddExpense(context.Background(), core.ExpenseRecord{
		Month: "March", Date: "not-a-date", Category: "food", Description: "Groceries",
		Amount: decimal.RequireFromString("42.1"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"March", "Food", "Groceries", "42,10"}, sheets.FieldsToStrings(store.calls[0].fields))
}

func TestRecordService_AddExpense_DatedLayout(t *testing.T) {
	store := &stubAppender{ref: "mem:expenses:2"}
	svc := newService(store, sheets.DatedExpenseSchema(), nil)
	ctx := context.Background()

	_, err := svc.AddExpense(ctx, core.ExpenseRecord{
		Month: "March", Category: "Food", Description: "Groceries", Amount: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, ErrDateRequired)

	_, err = svc.AddExpense(ctx, core.ExpenseRecord{
		Month: "March", Date: "2024-04-01", Category: "Food", Description: "Groceries", Amount: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, core.ErrDateMonthMismatch)

	_, err = svc.AddExpense(ctx, core.ExpenseRecord{
		Month: "March", Date: "2024-03-15", Category: "personal care", Description: "Haircut", Amount: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	require.Len(t, store.calls, 1)
	assert.Equal(t, []string{"March", "2024-03-15", "Personal Care", "Haircut", "25,00"},
		sheets.FieldsToStrings(store.calls[0].fields))
}

func TestRecordService_AddExpense_InvalidCategory(t *testing.T) {
	svc := newService(&stubAppender{}, sheets.ExpenseSchema(), nil)
	_, err := svc.AddExpense(context.Background(), core.ExpenseRecord{
		Month: "March", Category: "xyz", Description: "Groceries", Amount: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, core.ErrInvalidCategory)
}

func TestRecordService_StoreError(t *testing.T) {
	boom := errors.New("quota exceeded")
	svc := newService(&stubAppender{err: boom}, sheets.ExpenseSchema(), nil)
	_, err := svc.AddIncome(context.Background(), core.IncomeRecord{
		Month: "May", Source: "Salary", Amount: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, boom)
}

func TestRecordService_PublishesSyncForLocalRows(t *testing.T) {
	pub := &stubPublisher{}
	svc := newService(&stubAppender{ref: "42"}, sheets.ExpenseSchema(), pub)

	ref, err := svc.AddExpense(context.Background(), core.ExpenseRecord{
		Month: "March", Category: "Food", Description: "Groceries", Amount: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "42", ref)
	assert.Equal(t, []publishCall{{dataset: sheets.Expenses, id: 42, version: 1}}, pub.calls)
}

func TestRecordService_SkipsSyncForRemoteRefs(t *testing.T) {
	pub := &stubPublisher{}
	svc := newService(&stubAppender{ref: "income!A4:C4"}, sheets.ExpenseSchema(), pub)

	_, err := svc.AddIncome(context.Background(), core.IncomeRecord{
		Month: "May", Source: "Salary", Amount: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.Empty(t, pub.calls)
}

func TestRecordService_PublishFailureDoesNotFailAppend(t *testing.T) {
	pub := &stubPublisher{err: errors.New("circuit breaker is open")}
	svc := newService(&stubAppender{ref: "3"}, sheets.ExpenseSchema(), pub)

	ref, err := svc.AddIncome(context.Background(), core.IncomeRecord{
		Month: "May", Source: "Salary", Amount: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "3", ref)
	assert.Len(t, pub.calls, 1)
}
