package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL UNIQUE,
	agent_name    TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	phone_number  TEXT NOT NULL,
	issue         TEXT NOT NULL,
	status        TEXT NOT NULL,
	call_duration TEXT NOT NULL,
	created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

const recordColumns = "id, agent_name, customer_name, phone_number, issue, status, call_duration"

// SQLiteStore keeps records in a local SQLite file
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(ctx context.Context, path string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	logger.Info().Str("path", path).Msg("SQLite store initialized")
	return &SQLiteStore{db: db, logger: logger}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (types.Record, error) {
	var (
		r                    types.Record
		id, status, duration string
	)
	if err := row.Scan(&id, &r.AgentName, &r.CustomerName, &r.PhoneNumber, &r.Issue, &status, &duration); err != nil {
		return types.Record{}, err
	}
	r.ID = types.RecordID(id)
	r.Status = types.Status(status)
	r.CallDuration = types.Minutes(duration)
	return r, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]types.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+recordColumns+" FROM records ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []types.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id types.RecordID) (types.Record, error) {
	return s.get(ctx, s.db, id)
}

type sqlQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) get(ctx context.Context, q sqlQuerier, id types.RecordID) (types.Record, error) {
	r, err := scanRecord(q.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM records WHERE id = ?", string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Record{}, ErrNotFound
	}
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to get record: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) Create(ctx context.Context, fields types.RecordFields) (types.Record, error) {
	r := types.Record{ID: types.RecordID(uuid.NewString()), RecordFields: fields}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO records ("+recordColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		string(r.ID), r.AgentName, r.CustomerName, r.PhoneNumber, r.Issue, string(r.Status), string(r.CallDuration))
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to insert record: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id types.RecordID, patch Patch) (types.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	r, err := s.get(ctx, tx, id)
	if err != nil {
		return types.Record{}, err
	}
	r.RecordFields = patch.Apply(r.RecordFields)

	_, err = tx.ExecContext(ctx,
		`UPDATE records SET agent_name = ?, customer_name = ?, phone_number = ?, issue = ?, status = ?, call_duration = ?
		 WHERE id = ?`,
		r.AgentName, r.CustomerName, r.PhoneNumber, r.Issue, string(r.Status), string(r.CallDuration), string(id))
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to update record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.Record{}, fmt.Errorf("failed to commit update: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id types.RecordID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
