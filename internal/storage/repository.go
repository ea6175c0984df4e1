package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"myfinances/internal/sheets"

	_ "modernc.org/sqlite"
)

// ErrRowNotFound is returned when no row has the requested id.
var ErrRowNotFound = errors.New("row not found")

// Sync states of a stored row. A row moves pending -> processing -> synced,
// or back to error until MaxSyncAttempts claims have failed, then to failed.
const (
	SyncPending    = "pending"
	SyncProcessing = "processing"
	SyncDone       = "synced"
	SyncError      = "error"
	SyncFailed     = "failed"
)

// MaxSyncAttempts is how many claims a row gets before it is parked as failed.
const MaxSyncAttempts = 5

// SQLiteRepository stores records of both datasets locally. Each row keeps its
// positional fields so it can be replayed to the spreadsheet unchanged.
type SQLiteRepository struct {
	db      *sql.DB
	headers map[sheets.Dataset][]string
}

var _ sheets.Store = (*SQLiteRepository)(nil)

// Row is a stored row with its sync bookkeeping.
type Row struct {
	ID         int64
	Dataset    sheets.Dataset
	Fields     []string
	Version    int64
	SyncStatus string
	Attempts   int64
	CreatedAt  time.Time
	SyncedAt   *time.Time
}

// PendingRow represents the minimal data needed to enqueue a sync.
type PendingRow struct {
	ID        int64
	Dataset   sheets.Dataset
	Version   int64
	CreatedAt time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it. headers are prepended to every GetAllRows result so callers
// see the same shape as the spreadsheet.
func NewSQLiteRepository(dbPath string, headers map[sheets.Dataset][]string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One connection serializes writers in this process; busy_timeout covers
	// the menu program writing to the same file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, headers: headers}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetAllRows implements sheets.RowReader.
func (r *SQLiteRepository) GetAllRows(ctx context.Context, dataset sheets.Dataset) ([][]string, error) {
	if !dataset.Valid() {
		return nil, fmt.Errorf("unknown dataset %q", dataset)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT fields FROM records WHERE dataset = ? ORDER BY id`, string(dataset))
	if err != nil {
		return nil, fmt.Errorf("query %s rows: %w", dataset, err)
	}
	defer rows.Close()

	out := [][]string{append([]string(nil), r.headers[dataset]...)}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", dataset, err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, fields)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", dataset, err)
	}
	return out, nil
}

// AppendRow implements sheets.RowAppender. The returned reference is the
// numeric row id.
func (r *SQLiteRepository) AppendRow(ctx context.Context, dataset sheets.Dataset, fields []any) (string, error) {
	if !dataset.Valid() {
		return "", fmt.Errorf("unknown dataset %q", dataset)
	}
	raw, err := json.Marshal(sheets.FieldsToStrings(fields))
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO records (dataset, fields, created_at) VALUES (?, ?, ?)`,
		string(dataset), string(raw), formatTime(time.Now()))
	if err != nil {
		return "", fmt.Errorf("insert %s row: %w", dataset, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Row saved to SQLite",
		"id", id,
		"dataset", string(dataset))

	return strconv.FormatInt(id, 10), nil
}

// GetRow retrieves a single row by id.
func (r *SQLiteRepository) GetRow(ctx context.Context, id int64) (*Row, error) {
	var (
		row       Row
		dataset   string
		raw       string
		createdAt string
		syncedAt  sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, dataset, fields, version, sync_status, sync_attempts, created_at, synced_at FROM records WHERE id = ?`, id).
		Scan(&row.ID, &dataset, &raw, &row.Version, &row.SyncStatus, &row.Attempts, &createdAt, &syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRowNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get row by id: %w", err)
	}

	row.Dataset = sheets.Dataset(dataset)
	if row.Fields, err = decodeFields(raw); err != nil {
		return nil, err
	}
	row.CreatedAt = parseTime(createdAt)
	if syncedAt.Valid {
		t := parseTime(syncedAt.String)
		row.SyncedAt = &t
	}
	return &row, nil
}

// PendingRows returns up to limit rows that have not reached the
// spreadsheet yet, oldest first. Rows marked with a sync error are retried;
// failed and in-flight rows are left out.
func (r *SQLiteRepository) PendingRows(ctx context.Context, limit int) ([]PendingRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, dataset, version, created_at FROM records
		 WHERE sync_status IN (?, ?)
		 ORDER BY id
		 LIMIT ?`, SyncPending, SyncError, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending rows: %w", err)
	}
	defer rows.Close()

	var out []PendingRow
	for rows.Next() {
		var (
			p         PendingRow
			dataset   string
			createdAt string
		)
		if err := rows.Scan(&p.ID, &dataset, &p.Version, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending row: %w", err)
		}
		p.Dataset = sheets.Dataset(dataset)
		p.CreatedAt = parseTime(createdAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending rows: %w", err)
	}
	return out, nil
}

// MarkSynced marks a row as successfully mirrored.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.setStatus(ctx, id, SyncDone, formatTime(time.Now())); err != nil {
		return fmt.Errorf("mark row synced: %w", err)
	}
	slog.InfoContext(ctx, "Row marked as synced", "id", id)
	return nil
}

// ClaimRow moves a pending or errored row to processing and counts the
// attempt. It reports false when the row is missing, already synced, failed
// or claimed by someone else, in which case the caller must not sync it.
func (r *SQLiteRepository) ClaimRow(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE records SET sync_status = ?, sync_attempts = sync_attempts + 1
		 WHERE id = ? AND sync_status IN (?, ?)`,
		SyncProcessing, id, SyncPending, SyncError)
	if err != nil {
		return false, fmt.Errorf("claim row: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim row: %w", err)
	}
	return n == 1, nil
}

// MarkSyncError flags a row whose last sync attempt failed. After
// MaxSyncAttempts claims the row is parked as failed and no longer retried.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	err := r.execOne(ctx,
		`UPDATE records
		 SET sync_status = CASE WHEN sync_attempts >= ? THEN ? ELSE ? END, synced_at = NULL
		 WHERE id = ?`,
		id, MaxSyncAttempts, SyncFailed, SyncError, id)
	if err != nil {
		return fmt.Errorf("mark row sync error: %w", err)
	}
	slog.WarnContext(ctx, "Row marked with sync error", "id", id)
	return nil
}

// ResetStaleProcessing returns rows left in processing by a crashed worker
// to pending. Call it before any consumer or sweep starts.
func (r *SQLiteRepository) ResetStaleProcessing(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE records SET sync_status = ? WHERE sync_status = ?`, SyncPending, SyncProcessing)
	if err != nil {
		return 0, fmt.Errorf("reset stale processing rows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset stale processing rows: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Reset stale processing rows", "count", n)
	}
	return n, nil
}

func (r *SQLiteRepository) setStatus(ctx context.Context, id int64, status, syncedAt string) error {
	var at any
	if syncedAt != "" {
		at = syncedAt
	}
	return r.execOne(ctx, `UPDATE records SET sync_status = ?, synced_at = ? WHERE id = ?`, id, status, at, id)
}

// execOne runs an update that must touch the row with the given id.
func (r *SQLiteRepository) execOne(ctx context.Context, query string, id int64, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRowNotFound, id)
	}
	return nil
}

func decodeFields(raw string) ([]string, error) {
	var fields []string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode row fields: %w", err)
	}
	return fields, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
