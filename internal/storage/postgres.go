package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS records (
	seq           BIGSERIAL,
	id            TEXT PRIMARY KEY,
	agent_name    TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	phone_number  TEXT NOT NULL,
	issue         TEXT NOT NULL,
	status        TEXT NOT NULL,
	call_duration TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps records in PostgreSQL
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore connects to databaseURL and ensures the records table exists
func NewPostgresStore(ctx context.Context, databaseURL string, logger zerolog.Logger) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required for postgres store")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	logger.Info().Msg("Postgres store initialized")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func scanPgRecord(row pgx.Row) (types.Record, error) {
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

func (s *PostgresStore) List(ctx context.Context) ([]types.Record, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+recordColumns+" FROM records ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []types.Record{}
	for rows.Next() {
		r, err := scanPgRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id types.RecordID) (types.Record, error) {
	r, err := scanPgRecord(s.pool.QueryRow(ctx, "SELECT "+recordColumns+" FROM records WHERE id = $1", string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Record{}, ErrNotFound
	}
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to get record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Create(ctx context.Context, fields types.RecordFields) (types.Record, error) {
	r := types.Record{ID: types.RecordID(uuid.NewString()), RecordFields: fields}
	_, err := s.pool.Exec(ctx,
		"INSERT INTO records ("+recordColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
		string(r.ID), r.AgentName, r.CustomerName, r.PhoneNumber, r.Issue, string(r.Status), string(r.CallDuration))
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to insert record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Update(ctx context.Context, id types.RecordID, patch Patch) (types.Record, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	r, err := scanPgRecord(tx.QueryRow(ctx, "SELECT "+recordColumns+" FROM records WHERE id = $1 FOR UPDATE", string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Record{}, ErrNotFound
	}
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to get record: %w", err)
	}
	r.RecordFields = patch.Apply(r.RecordFields)

	_, err = tx.Exec(ctx,
		`UPDATE records SET agent_name = $1, customer_name = $2, phone_number = $3, issue = $4, status = $5, call_duration = $6
		 WHERE id = $7`,
		r.AgentName, r.CustomerName, r.PhoneNumber, r.Issue, string(r.Status), string(r.CallDuration), string(id))
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to update record: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return types.Record{}, fmt.Errorf("failed to commit update: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id types.RecordID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM records WHERE id = $1", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
