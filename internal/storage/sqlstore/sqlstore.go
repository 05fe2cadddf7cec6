// Package sqlstore keeps runs in a SQL database, either an embedded SQLite
// file or a Postgres server.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/san-kum/cellsim/internal/sim"
	"github.com/san-kum/cellsim/internal/storage"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	defaultSQLitePath = "cellsim.db"
	defaultDSN        = "postgres://localhost/cellsim?sslmode=disable"

	// fixed width so created_at sorts lexically
	sortableTime = "2006-01-02T15:04:05.000000000Z"
)

// Store persists each run as one row: metadata and samples are stored as
// JSON documents.
type Store struct {
	db     *sql.DB
	driver string
}

var _ storage.Backend = (*Store)(nil)

// Open connects to the database and creates the runs table. driver is
// "sqlite" or "pgx" ("postgres" is accepted as an alias).
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	case DriverPostgres, "postgres":
		driver = DriverPostgres
		if dsn == "" {
			dsn = defaultDSN
		}
	default:
		return nil, fmt.Errorf("unknown sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scene TEXT NOT NULL,
		created_at TEXT NOT NULL,
		meta TEXT NOT NULL,
		stats TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{db: db, driver: driver}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for tests.
func (s *Store) DB() *sql.DB { return s.db }

// rebind rewrites ? placeholders to $n for postgres.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) Save(ctx context.Context, meta storage.RunMetadata, stats []sim.Stats) (retID string, retErr error) {
	if meta.ID == "" {
		meta.ID = storage.NewRunID(meta.Scene)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	if stats == nil {
		stats = []sim.Stats{}
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return "", fmt.Errorf("encode stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	q := rebind(s.driver, `INSERT INTO runs(id, scene, created_at, meta, stats) VALUES(?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET scene=excluded.scene, created_at=excluded.created_at, meta=excluded.meta, stats=excluded.stats`)
	created := meta.Timestamp.UTC().Format(sortableTime)
	if _, err := tx.ExecContext(ctx, q, meta.ID, meta.Scene, created, string(metaJSON), string(statsJSON)); err != nil {
		return "", fmt.Errorf("upsert run %s: %w", meta.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *Store) List(ctx context.Context) ([]storage.RunMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT meta FROM runs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]storage.RunMetadata, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var meta storage.RunMetadata
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *Store) column(ctx context.Context, runID, col string) ([]byte, error) {
	var raw string
	q := rebind(s.driver, `SELECT `+col+` FROM runs WHERE id = ?`)
	err := s.db.QueryRowContext(ctx, q, runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, storage.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", col, err)
	}
	return []byte(raw), nil
}

func (s *Store) Load(ctx context.Context, runID string) (*storage.RunMetadata, error) {
	raw, err := s.column(ctx, runID, "meta")
	if err != nil {
		return nil, err
	}
	var meta storage.RunMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}

func (s *Store) LoadStats(ctx context.Context, runID string) ([]sim.Stats, error) {
	raw, err := s.column(ctx, runID, "stats")
	if err != nil {
		return nil, err
	}
	var stats []sim.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}
