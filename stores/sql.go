package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/9seconds/ipsleuth/sleuthlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlitePragmas are applied by the driver to every new connection of
// the pool. PRAGMA statements executed with db.Exec configure only one
// of them.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

type sqlDialect struct {
	name       string
	driver     string
	get        string
	put        string
	version    string
	addVersion string
	setup      []string
	migrations []string
}

var (
	sqliteDialect = sqlDialect{
		name:   NameSQLite,
		driver: "sqlite",
		get:    `SELECT document FROM ipsleuth_segments WHERE segment_key = ?;`,
		put: `INSERT INTO ipsleuth_segments (segment_key, document, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT (segment_key) DO UPDATE SET
				document = excluded.document,
				updated_at = excluded.updated_at;`,
		version:    `SELECT COALESCE(MAX(version), 0) FROM ipsleuth_schema;`,
		addVersion: `INSERT INTO ipsleuth_schema (version, time) VALUES (?, ?);`,
		setup: []string{
			`CREATE TABLE IF NOT EXISTS ipsleuth_schema (version INTEGER NOT NULL, time INTEGER NOT NULL);`,
		},
		migrations: []string{
			`CREATE TABLE ipsleuth_segments (
				segment_key TEXT PRIMARY KEY,
				document TEXT NOT NULL,
				updated_at INTEGER NOT NULL
			);`,
		},
	}

	postgresDialect = sqlDialect{
		name:   NamePostgres,
		driver: "postgres",
		get:    `SELECT document FROM ipsleuth_segments WHERE segment_key = $1;`,
		put: `INSERT INTO ipsleuth_segments (segment_key, document, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (segment_key) DO UPDATE SET
				document = EXCLUDED.document,
				updated_at = EXCLUDED.updated_at;`,
		version:    `SELECT COALESCE(MAX(version), 0) FROM ipsleuth_schema;`,
		addVersion: `INSERT INTO ipsleuth_schema (version, time) VALUES ($1, $2);`,
		setup: []string{
			`CREATE TABLE IF NOT EXISTS ipsleuth_schema (version INTEGER NOT NULL, time BIGINT NOT NULL);`,
		},
		migrations: []string{
			`CREATE TABLE ipsleuth_segments (
				segment_key TEXT PRIMARY KEY,
				document TEXT NOT NULL,
				updated_at BIGINT NOT NULL
			);`,
		},
	}
)

type sqlStore struct {
	db      *sql.DB
	dialect sqlDialect
	now     func() time.Time
}

func (s sqlStore) Name() string {
	return s.dialect.name
}

func (s sqlStore) Get(ctx context.Context, key string) ([]byte, error) {
	var doc string

	err := s.db.QueryRowContext(ctx, s.dialect.get, key).Scan(&doc)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, sleuthlib.ErrSegmentNotFound
	case err != nil:
		return nil, fmt.Errorf("cannot select a document: %w", err)
	}

	return []byte(doc), nil
}

func (s sqlStore) Put(ctx context.Context, key string, doc []byte) error {
	_, err := s.db.ExecContext(ctx, s.dialect.put, key, string(doc), s.now().Unix())
	if err != nil {
		return fmt.Errorf("cannot upsert a document: %w", err)
	}

	return nil
}

func (s sqlStore) Close() error {
	return s.db.Close()
}

func (s sqlStore) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.setup {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("cannot prepare a database: %w", err)
		}
	}

	var version int

	if err := s.db.QueryRowContext(ctx, s.dialect.version).Scan(&version); err != nil {
		return fmt.Errorf("cannot read a schema version: %w", err)
	}

	for ; version < len(s.dialect.migrations); version++ {
		if _, err := s.db.ExecContext(ctx, s.dialect.migrations[version]); err != nil {
			return fmt.Errorf("cannot migrate from schema version %d: %w", version, err)
		}

		_, err := s.db.ExecContext(ctx, s.dialect.addVersion, version+1, s.now().Unix())
		if err != nil {
			return fmt.Errorf("cannot update schema version to %d: %w", version+1, err)
		}
	}

	return nil
}

func newSQLStore(ctx context.Context, dialect sqlDialect, dsn string) (sleuthlib.SegmentStore, error) {
	db, err := sql.Open(dialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open a database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("cannot connect to a database: %w", err)
	}

	store := sqlStore{
		db:      db,
		dialect: dialect,
		now:     time.Now,
	}

	if err := store.migrate(ctx); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

// NewSQLite returns a store backed by SQLite database at dsn. It is a
// file path in most cases.
func NewSQLite(ctx context.Context, dsn string) (sleuthlib.SegmentStore, error) {
	return newSQLStore(ctx, sqliteDialect, sqliteDSN(dsn))
}

func sqliteDSN(dsn string) string {
	params := make([]string, 0, len(sqlitePragmas))

	for _, v := range sqlitePragmas {
		params = append(params, "_pragma="+v)
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return dsn + separator + strings.Join(params, "&")
}

// NewPostgres returns a store backed by PostgreSQL.
func NewPostgres(ctx context.Context, dsn string) (sleuthlib.SegmentStore, error) {
	store, err := newSQLStore(ctx, postgresDialect, dsn)
	if err != nil {
		return nil, err
	}

	db := store.(sqlStore).db
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)

	return store, nil
}
