package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/semifinals/users/internal/patch"
)

// PostgreSQL error codes treated as a lost creation race.
const (
	pgUniqueViolation = "23505"
	pgDuplicateSchema = "42P06"
	pgDuplicateTable  = "42P07"
)

// PostgresStore keeps each container in a JSONB table inside a schema named
// after the logical database.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgres connects to databaseURL and verifies the connection.
func NewPostgres(ctx context.Context, databaseURL, database string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool, schema: database}, nil
}

func (s *PostgresStore) catalog() string {
	return pq.QuoteIdentifier(s.schema) + "." + pq.QuoteIdentifier("_containers")
}

func (s *PostgresStore) table(name string) string {
	return pq.QuoteIdentifier(s.schema) + "." + pq.QuoteIdentifier(name)
}

// EnsureContainer creates the schema, the catalog entry and the table on
// first use.
func (s *PostgresStore) EnsureContainer(ctx context.Context, name, partitionKeyPath string) (Container, error) {
	if _, err := patch.SplitPath(partitionKeyPath); err != nil {
		return nil, fmt.Errorf("partition key path: %w", err)
	}

	c := &postgresContainer{
		pool:   s.pool,
		table:  s.table(name),
		name:   name,
		pkPath: partitionKeyPath,
	}

	existing, err := s.registeredPath(ctx, name)
	if err == nil {
		if existing != partitionKeyPath {
			return nil, fmt.Errorf("%w: %s has %s", ErrPartitionKeyMismatch, name, existing)
		}
		return c, nil
	}

	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pq.QuoteIdentifier(s.schema),
		`CREATE TABLE IF NOT EXISTS ` + s.catalog() + ` (
			name TEXT PRIMARY KEY,
			partition_key_path TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + c.table + ` (
			partition_key TEXT NOT NULL,
			id TEXT NOT NULL,
			doc JSONB NOT NULL,
			PRIMARY KEY (partition_key, id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil && !isBenignRace(err) {
			return nil, fmt.Errorf("failed to create container %s: %w", name, err)
		}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.catalog()+` (name, partition_key_path) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, partitionKeyPath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register container %s: %w", name, err)
	}

	existing, err = s.registeredPath(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read container %s: %w", name, err)
	}
	if existing != partitionKeyPath {
		return nil, fmt.Errorf("%w: %s has %s", ErrPartitionKeyMismatch, name, existing)
	}

	return c, nil
}

func (s *PostgresStore) registeredPath(ctx context.Context, name string) (string, error) {
	var path string
	err := s.pool.QueryRow(ctx,
		`SELECT partition_key_path FROM `+s.catalog()+` WHERE name = $1`, name,
	).Scan(&path)
	return path, err
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type postgresContainer struct {
	pool   *pgxpool.Pool
	table  string
	name   string
	pkPath string
}

func (c *postgresContainer) Name() string             { return c.name }
func (c *postgresContainer) PartitionKeyPath() string { return c.pkPath }

func (c *postgresContainer) GetItem(ctx context.Context, id, partitionKey string) ([]byte, bool, error) {
	var doc []byte
	err := c.pool.QueryRow(ctx,
		`SELECT doc::text FROM `+c.table+` WHERE partition_key = $1 AND id = $2`,
		partitionKey, id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read item %s: %w", id, err)
	}
	return doc, true, nil
}

func (c *postgresContainer) CreateItem(ctx context.Context, partitionKey string, raw []byte) ([]byte, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, err
	}
	id, err := documentKey(doc, c.pkPath, partitionKey)
	if err != nil {
		return nil, err
	}

	var stored []byte
	err = c.pool.QueryRow(ctx,
		`INSERT INTO `+c.table+` (partition_key, id, doc) VALUES ($1, $2, $3::jsonb) RETURNING doc::text`,
		partitionKey, id, string(raw),
	).Scan(&stored)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrConflict, id)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return stored, nil
}

// PatchItem locks the row, applies ops in process and writes the result
// back in the same transaction.
func (c *postgresContainer) PatchItem(ctx context.Context, id, partitionKey string, ops []patch.Operation, cond Condition) ([]byte, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current []byte
	err = tx.QueryRow(ctx,
		`SELECT doc::text FROM `+c.table+` WHERE partition_key = $1 AND id = $2 FOR UPDATE`,
		partitionKey, id,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read item %s: %w", id, err)
	}

	updated, err := applyPatch(current, c.pkPath, ops, cond)
	if err != nil {
		return nil, err
	}

	var stored []byte
	err = tx.QueryRow(ctx,
		`UPDATE `+c.table+` SET doc = $3::jsonb WHERE partition_key = $1 AND id = $2 RETURNING doc::text`,
		partitionKey, id, string(updated),
	).Scan(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to patch item %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit patch: %w", err)
	}
	return stored, nil
}

func (c *postgresContainer) DeleteItem(ctx context.Context, id, partitionKey string) (bool, error) {
	tag, err := c.pool.Exec(ctx,
		`DELETE FROM `+c.table+` WHERE partition_key = $1 AND id = $2`,
		partitionKey, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isBenignRace reports errors raised when a concurrent caller created the
// same schema or table first.
func isBenignRace(err error) bool {
	switch pgCode(err) {
	case pgUniqueViolation, pgDuplicateSchema, pgDuplicateTable:
		return true
	}
	return false
}
