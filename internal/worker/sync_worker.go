package worker

import (
	"context"
	"fmt"
	"log/slog"

	"myfinances/internal/amqp"
	"myfinances/internal/sheets"
	"myfinances/internal/storage"
)

// RowSource is the local side of the sync: rows waiting to be mirrored.
// ClaimRow must be atomic: of concurrent callers for one row, only one
// gets true.
type RowSource interface {
	GetRow(ctx context.Context, id int64) (*storage.Row, error)
	PendingRows(ctx context.Context, limit int) ([]storage.PendingRow, error)
	ClaimRow(ctx context.Context, id int64) (bool, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
	ResetStaleProcessing(ctx context.Context) (int64, error)
}

// SyncWorker mirrors rows from SQLite to Google Sheets.
type SyncWorker struct {
	source    RowSource
	sheets    sheets.RowAppender
	batchSize int
}

func NewSyncWorker(source RowSource, sheets sheets.RowAppender, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		source:    source,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single row sync message from AMQP. Rows
// that are missing, already synced or being synced by the periodic sweep
// are acknowledged without appending.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RowSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"message_id", msg.MessageID,
		"id", msg.ID,
		"version", msg.Version)

	_, err := w.syncRow(ctx, msg.ID, msg.Dataset)
	return err
}

// ProcessPending syncs up to limit rows that have not been mirrored yet.
// It is the backup path for lost or never published messages.
func (w *SyncWorker) ProcessPending(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = w.batchSize
	}
	pending, err := w.source.PendingRows(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending rows: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending rows", "count", len(pending))

	synced := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		ok, err := w.syncRow(ctx, p.ID, p.Dataset)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to sync row", "id", p.ID, "error", err)
			continue
		}
		if ok {
			synced++
		}
	}
	return synced, nil
}

// StartupSyncCheck releases rows a previous run left in processing, then
// drains a larger batch of pending rows to recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	if _, err := w.source.ResetStaleProcessing(ctx); err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	n, err := w.ProcessPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", n)
	return nil
}

// syncRow claims the row and appends it to the spreadsheet. It reports
// whether this call did the append.
func (w *SyncWorker) syncRow(ctx context.Context, id int64, dataset sheets.Dataset) (bool, error) {
	claimed, err := w.source.ClaimRow(ctx, id)
	if err != nil {
		return false, err
	}
	if !claimed {
		slog.InfoContext(ctx, "Row not claimable, skipping", "id", id)
		return false, nil
	}

	row, err := w.source.GetRow(ctx, id)
	if err != nil {
		w.markError(ctx, id)
		return false, fmt.Errorf("get row from storage: %w", err)
	}
	if dataset != "" && row.Dataset != dataset {
		slog.WarnContext(ctx, "Sync request dataset does not match stored row",
			"id", id,
			"requested_dataset", string(dataset),
			"row_dataset", string(row.Dataset))
	}

	fields := make([]any, len(row.Fields))
	for i, f := range row.Fields {
		fields[i] = f
	}

	ref, err := w.sheets.AppendRow(ctx, row.Dataset, fields)
	if err != nil {
		w.markError(ctx, id)
		return false, fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.source.MarkSynced(ctx, id); err != nil {
		// The row stays in processing; only a restart puts it back in the queue.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced row",
		"id", id,
		"dataset", string(row.Dataset),
		"sheets_ref", ref)

	return true, nil
}

func (w *SyncWorker) markError(ctx context.Context, id int64) {
	if err := w.source.MarkSyncError(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", err)
	}
}
