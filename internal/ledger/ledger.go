// Package ledger keeps a queryable record of finished items in an in-memory
// SQLite database. It is fed from the event hub as a sink and serves paged
// history to the API without holding the workflow lock. Sink writes are
// queued and applied by a background writer; reads apply any queued writes
// first.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"wastetwin/internal/events"
	"wastetwin/internal/logging"
	"wastetwin/internal/queue"
)

//go:embed schema.sql
var schemaSQL string

const (
	table = "finished_items"
	// DefaultMaxRows bounds the ledger; older rows are pruned on insert.
	DefaultMaxRows = 10000
	// DefaultPageSize is used when a filter has no limit.
	DefaultPageSize = 50
)

var columns = []string{
	"item_id", "category", "status", "created_at", "started_at",
	"completed_at", "efficiency", "materials_json", "error_message",
}

const writeTimeout = 5 * time.Second

// Ledger records finished items.
type Ledger struct {
	db      *sql.DB
	logger  *slog.Logger
	maxRows int

	pendingMu sync.Mutex
	pending   []queue.Item
	wake      chan struct{}

	// writeMu serializes draining so queued items land in publish order.
	writeMu   sync.Mutex
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// Open creates an empty in-memory ledger. A non-positive maxRows uses
// DefaultMaxRows.
func Open(ctx context.Context, maxRows int, logger *slog.Logger) (*Ledger, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	l := &Ledger{
		db:      db,
		logger:  logging.NewComponentLogger(logger, "ledger"),
		maxRows: maxRows,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go l.writeLoop()
	return l, nil
}

// Close applies queued writes, stops the writer and releases the database.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	l.closeOnce.Do(func() {
		close(l.done)
		<-l.stopped
	})
	return l.db.Close()
}

// Append implements events.Sink. Completed and failed items are queued for the
// background writer; Append never touches the database.
func (l *Ledger) Append(evt events.Event) {
	if evt.Item == nil {
		return
	}
	if evt.Kind != events.KindProcessingCompleted && evt.Kind != events.KindProcessingFailed {
		return
	}
	l.pendingMu.Lock()
	l.pending = append(l.pending, evt.Item.Clone())
	l.pendingMu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending reports how many queued items have not been written yet.
func (l *Ledger) Pending() int {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()
	return len(l.pending)
}

func (l *Ledger) writeLoop() {
	defer close(l.stopped)
	for {
		select {
		case <-l.done:
			l.flush()
			return
		case <-l.wake:
			l.flush()
		}
	}
}

// flush writes every queued item.
func (l *Ledger) flush() {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.pendingMu.Lock()
	batch := l.pending
	l.pending = nil
	l.pendingMu.Unlock()

	for _, item := range batch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := l.Record(ctx, item)
		cancel()
		if err != nil {
			logging.WarnWithContext(l.logger, "ledger write failed", "ledger_write_failed",
				logging.String(logging.FieldItemID, item.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "item missing from processed history"),
			)
		}
	}
}

// Record stores a finished item. Recording the same id twice is a no-op.
func (l *Ledger) Record(ctx context.Context, item queue.Item) error {
	if !item.Status.IsTerminal() {
		return fmt.Errorf("record %s: status %q is not terminal", item.ID, item.Status)
	}
	materials, err := json.Marshal(item.MaterialsRecovered)
	if err != nil {
		return fmt.Errorf("encode materials: %w", err)
	}
	if item.MaterialsRecovered == nil {
		materials = []byte("{}")
	}

	query, args, err := sq.Insert(table).
		Columns(columns...).
		Values(
			item.ID,
			item.Category,
			string(item.Status),
			item.CreatedAt.UnixNano(),
			nullableTime(item.StartedAt),
			nullableTime(item.CompletedAt),
			item.RecoveryEfficiency,
			string(materials),
			item.ErrorMessage,
		).
		Suffix("ON CONFLICT(item_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", item.ID, err)
	}
	return l.prune(ctx)
}

func (l *Ledger) prune(ctx context.Context) error {
	query, args, err := sq.Delete(table).
		Where(sq.Expr("seq <= (SELECT MAX(seq) FROM "+table+") - ?", l.maxRows)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build prune: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune ledger: %w", err)
	}
	return nil
}

// Filter narrows List and Count.
type Filter struct {
	Category string
	Status   queue.Status
	Limit    int
	Offset   int
}

func (f Filter) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if f.Category != "" {
		b = b.Where(sq.Eq{"category": f.Category})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": string(f.Status)})
	}
	return b
}

// List returns matching items, most recently finished first.
func (l *Ledger) List(ctx context.Context, f Filter) ([]queue.Item, error) {
	l.flush()
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	b := f.apply(sq.Select(columns...).From(table)).
		OrderBy("seq DESC").
		Limit(uint64(limit))
	if f.Offset > 0 {
		b = b.Offset(uint64(f.Offset))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var items []queue.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}

// Count returns the number of matching rows, ignoring limit and offset.
func (l *Ledger) Count(ctx context.Context, f Filter) (int, error) {
	l.flush()
	query, args, err := f.apply(sq.Select("COUNT(1)").From(table)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger: %w", err)
	}
	return n, nil
}

// Get returns one recorded item.
func (l *Ledger) Get(ctx context.Context, id string) (queue.Item, bool, error) {
	l.flush()
	query, args, err := sq.Select(columns...).From(table).Where(sq.Eq{"item_id": id}).ToSql()
	if err != nil {
		return queue.Item{}, false, fmt.Errorf("build select: %w", err)
	}
	item, err := scanItem(l.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return queue.Item{}, false, nil
	}
	if err != nil {
		return queue.Item{}, false, err
	}
	return item, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (queue.Item, error) {
	var (
		item               queue.Item
		status             string
		created            int64
		started, completed sql.NullInt64
		materials          string
	)
	if err := row.Scan(&item.ID, &item.Category, &status, &created, &started, &completed,
		&item.RecoveryEfficiency, &materials, &item.ErrorMessage); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return queue.Item{}, err
		}
		return queue.Item{}, fmt.Errorf("scan item: %w", err)
	}
	item.Status = queue.Status(status)
	item.CreatedAt = time.Unix(0, created)
	item.StartedAt = fromNullable(started)
	item.CompletedAt = fromNullable(completed)
	if item.Status == queue.StatusCompleted {
		item.Progress = 100
	}
	if err := json.Unmarshal([]byte(materials), &item.MaterialsRecovered); err != nil {
		return queue.Item{}, fmt.Errorf("decode materials for %s: %w", item.ID, err)
	}
	return item, nil
}

func nullableTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNullable(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64)
	return &t
}
