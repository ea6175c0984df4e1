package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"myfinances/internal/core"
	"myfinances/internal/log"
	"myfinances/internal/sheets"
)

// ErrDateRequired is returned when the dated expense layout is in use and
// an expense has no date.
var ErrDateRequired = errors.New("date is required by the dated expense layout")

// SyncPublisher announces that a locally stored row should be mirrored.
type SyncPublisher interface {
	PublishRowSync(ctx context.Context, dataset sheets.Dataset, id, version int64) error
}

// RecordService validates new records and appends them to the store.
type RecordService struct {
	store         sheets.RowAppender
	validator     *core.RecordValidator
	incomeSchema  sheets.Schema
	expenseSchema sheets.Schema
	publisher     SyncPublisher
	logger        *log.Logger
}

// NewRecordService wires a record service. publisher may be nil.
func NewRecordService(
	store sheets.RowAppender,
	validator *core.RecordValidator,
	incomeSchema, expenseSchema sheets.Schema,
	publisher SyncPublisher,
	logger *log.Logger,
) *RecordService {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecordService{
		store:         store,
		validator:     validator,
		incomeSchema:  incomeSchema,
		expenseSchema: expenseSchema,
		publisher:     publisher,
		logger:        logger.WithComponent(log.ComponentRecords),
	}
}

// ExpenseSchema is the layout new expenses are written with.
func (s *RecordService) ExpenseSchema() sheets.Schema {
	return s.expenseSchema
}

// AddIncome validates r and appends it. The returned reference identifies
// the stored row.
func (s *RecordService) AddIncome(ctx context.Context, r core.IncomeRecord) (string, error) {
	r, err := s.validator.ValidateIncome(r)
	if err != nil {
		return "", fmt.Errorf("validate income: %w", err)
	}
	return s.append(ctx, sheets.Income, s.incomeSchema.EncodeIncome(r))
}

// AddExpense validates e and appends it. The date is required when the
// layout stores one and dropped otherwise.
func (s *RecordService) AddExpense(ctx context.Context, e core.ExpenseRecord) (string, error) {
	if !s.expenseSchema.HasDate() {
		e.Date = ""
	} else if e.Date == "" {
		return "", fmt.Errorf("validate expense: %w", ErrDateRequired)
	}
	e, err := s.validator.ValidateExpense(e)
	if err != nil {
		return "", fmt.Errorf("validate expense: %w", err)
	}
	return s.append(ctx, sheets.Expenses, s.expenseSchema.EncodeExpense(e))
}

func (s *RecordService) append(ctx context.Context, dataset sheets.Dataset, fields []any) (string, error) {
	ref, err := s.store.AppendRow(ctx, dataset, fields)
	if err != nil {
		return "", fmt.Errorf("append %s row: %w", dataset, err)
	}

	s.logger.InfoContext(ctx, "Record appended",
		log.FieldDataset, string(dataset),
		log.FieldRowRef, ref)

	if s.publisher == nil {
		return ref, nil
	}

	// Only local SQLite rows carry a numeric id worth syncing.
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		s.logger.DebugContext(ctx, "Row reference is not a local id, skipping sync",
			log.FieldRowRef, ref)
		return ref, nil
	}

	// Version 1: rows are append-only.
	if err := s.publisher.PublishRowSync(ctx, dataset, id, 1); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldRowID, id,
			log.FieldError, err)
	}
	return ref, nil
}
