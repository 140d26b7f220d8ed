// Package history records executed queries in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // driver "sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// FileName is the history database name inside the app config directory.
const FileName = "history.db"

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// Entry is one executed statement.
type Entry struct {
	ID         string
	Connection string
	SQL        string
	RowCount   int
	Duration   time.Duration
	Error      string
	ExecutedAt time.Time
}

// Failed reports whether the statement returned an error.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Store is the history database.
type Store struct {
	db     *sql.DB
	qb     sq.StatementBuilderType
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and migrates it.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if path == ":memory:" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("history opened", slog.String("path", path))
	return &Store{
		db:     db,
		qb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger: logger,
	}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores e. A missing ID or timestamp is filled in.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now()
	}
	e.ExecutedAt = e.ExecutedAt.UTC().Truncate(time.Millisecond)

	var errText any
	if e.Error != "" {
		errText = e.Error
	}

	query, args, err := s.qb.Insert("history").
		Columns("id", "connection", "sql", "row_count", "duration_ms", "error", "executed_at").
		Values(e.ID, e.Connection, e.SQL, e.RowCount, e.Duration.Milliseconds(), errText, e.ExecutedAt.UnixMilli()).
		ToSql()
	if err != nil {
		return e, err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return e, fmt.Errorf("failed to record history: %w", err)
	}
	s.logger.Debug("history recorded", slog.String("connection", e.Connection), slog.String("id", e.ID))
	return e, nil
}

// Recent returns up to limit entries, newest first. An empty connection
// matches every connection; limit <= 0 means no limit.
func (s *Store) Recent(ctx context.Context, connection string, limit int) ([]Entry, error) {
	q := s.qb.Select("id", "connection", "sql", "row_count", "duration_ms", "error", "executed_at").
		From("history").
		OrderBy("seq DESC")
	if connection != "" {
		q = q.Where(sq.Eq{"connection": connection})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMS int64
			errText    sql.NullString
			executedAt int64
		)
		if err := rows.Scan(&e.ID, &e.Connection, &e.SQL, &e.RowCount, &durationMS, &errText, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Error = errText.String
		e.ExecutedAt = time.UnixMilli(executedAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes the entries for connection, or every entry when connection
// is empty. It returns the number of deleted entries.
func (s *Store) Clear(ctx context.Context, connection string) (int64, error) {
	d := s.qb.Delete("history")
	if connection != "" {
		d = d.Where(sq.Eq{"connection": connection})
	}

	query, args, err := d.ToSql()
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}
