package persist

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/save"
	"github.com/nathoo/questrun/types"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Dialect selects the SQL flavour.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DefaultRunID keys the single local run.
const DefaultRunID = "default"

// SQLStore keeps the run as a JSON payload row in SQLite or Postgres.
type SQLStore struct {
	dialect Dialect
	db      *sql.DB
	runID   string
	cat     *catalog.Catalog
	logger  *slog.Logger
}

// OpenSQL connects, pings and migrates.
func OpenSQL(ctx context.Context, dialect Dialect, dsn, runID string, cat *catalog.Catalog, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var driverName string
	switch dialect {
	case DialectSQLite:
		driverName = "sqlite"
		if dsn == "" {
			return nil, errors.New("sqlite store requires a path")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	case DialectPostgres:
		driverName = "pgx"
		if strings.TrimSpace(dsn) == "" {
			return nil, errors.New("postgres store requires a DSN")
		}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	if runID == "" {
		runID = DefaultRunID
	}
	st := &SQLStore{dialect: dialect, db: db, runID: runID, cat: cat, logger: logger}
	if err := st.applyMigrations(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("database opened", "dialect", dialect, "run", runID)
	return st, nil
}

func (r *SQLStore) bind(pos int) string {
	if r.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (r *SQLStore) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	files, err := fs.Glob(migrationFS, fmt.Sprintf("migrations/%s/*.sql", r.dialect))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		body, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		q := fmt.Sprintf("INSERT INTO schema_migrations (version, applied_at) VALUES (%s, %s)", r.bind(1), r.bind(2))
		if _, err := tx.ExecContext(ctx, q, base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
		r.logger.Debug("migration applied", "file", base)
	}
	return nil
}

func (r *SQLStore) Load(ctx context.Context) (*types.RunState, error) {
	q := fmt.Sprintf("SELECT payload FROM run_state WHERE run_id = %s", r.bind(1))
	var payload string
	if err := r.db.QueryRowContext(ctx, q, r.runID).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("load run %s: %w", r.runID, err)
	}
	return save.Load([]byte(payload), r.cat)
}

func (r *SQLStore) Save(ctx context.Context, s *types.RunState) error {
	data, err := save.Save(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO run_state (run_id, payload, level, updated_at) VALUES (%s, %s, %s, %s)
		ON CONFLICT (run_id) DO UPDATE SET payload = excluded.payload, level = excluded.level, updated_at = excluded.updated_at`,
		r.bind(1), r.bind(2), r.bind(3), r.bind(4))
	if _, err := r.db.ExecContext(ctx, q, r.runID, string(data), s.Level, time.Now().UTC()); err != nil {
		return fmt.Errorf("save run %s: %w", r.runID, err)
	}
	return nil
}

func (r *SQLStore) Close() error {
	return r.db.Close()
}
