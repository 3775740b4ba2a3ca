package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/goccy/go-json"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS saved_requests (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT    NOT NULL,
	saved_at     INTEGER NOT NULL,
	method       TEXT    NOT NULL,
	url          TEXT    NOT NULL,
	headers      TEXT    NOT NULL,
	query_params TEXT    NOT NULL,
	body         TEXT    NOT NULL
)`

// SQLiteStore implements Store on a SQLite database. Rows keep save order
// through their autoincrement id; entry lists are stored as JSON.
type SQLiteStore struct {
	db           *sql.DB
	path         string
	logger       *slog.Logger
	queryTimeout time.Duration
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store needs a database path")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps index-addressed deletes consistent
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Debug("opened sqlite store", slog.String("path", path))

	return &SQLiteStore{
		db:           db,
		path:         path,
		logger:       logger,
		queryTimeout: 30 * time.Second,
	}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Save(saved draft.Saved) error {
	if err := saved.Validate(); err != nil {
		return err
	}

	headers, err := json.Marshal(nonNil(saved.Headers))
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}
	params, err := json.Marshal(nonNil(saved.QueryParams))
	if err != nil {
		return fmt.Errorf("marshal query params: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_requests (name, saved_at, method, url, headers, query_params, body)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		saved.Name, saved.Timestamp, string(saved.Method), saved.URL,
		string(headers), string(params), saved.Body)
	if err != nil {
		return fmt.Errorf("insert saved request: %w", err)
	}

	s.logger.Debug("saved request", slog.String("name", saved.Name))
	return nil
}

func (s *SQLiteStore) List() ([]draft.Saved, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, saved_at, method, url, headers, query_params, body
		 FROM saved_requests ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	out := make([]draft.Saved, 0)
	for rows.Next() {
		saved, err := scanSaved(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Get(index int) (draft.Saved, error) {
	if index < 0 {
		return draft.Saved{}, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT name, saved_at, method, url, headers, query_params, body
		 FROM saved_requests ORDER BY id LIMIT 1 OFFSET ?`, index)
	saved, err := scanSaved(row)
	if errors.Is(err, sql.ErrNoRows) {
		return draft.Saved{}, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	return saved, err
}

func (s *SQLiteStore) Load(index int) (draft.Draft, error) {
	saved, err := s.Get(index)
	if err != nil {
		return draft.Draft{}, err
	}
	return saved.Draft, nil
}

func (s *SQLiteStore) Delete(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: index %d", ErrNotFound, index)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM saved_requests ORDER BY id LIMIT 1 OFFSET ?`, index).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	if err != nil {
		return fmt.Errorf("find saved request: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM saved_requests WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete saved request: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("deleted saved request", slog.Int("index", index))
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSaved(row scanner) (draft.Saved, error) {
	var (
		saved           draft.Saved
		method          string
		headers, params string
	)
	if err := row.Scan(&saved.Name, &saved.Timestamp, &method, &saved.URL, &headers, &params, &saved.Body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return draft.Saved{}, err
		}
		return draft.Saved{}, fmt.Errorf("failed to scan row: %w", err)
	}
	saved.Method = draft.Method(method)

	if err := json.Unmarshal([]byte(headers), &saved.Headers); err != nil {
		return draft.Saved{}, fmt.Errorf("decode headers of %q: %w", saved.Name, err)
	}
	if err := json.Unmarshal([]byte(params), &saved.QueryParams); err != nil {
		return draft.Saved{}, fmt.Errorf("decode query params of %q: %w", saved.Name, err)
	}
	return saved, nil
}

func nonNil(es draft.Entries) draft.Entries {
	if es == nil {
		return draft.Entries{}
	}
	return es
}
