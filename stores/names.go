package stores

const (
	// Identifier for a store which keeps a JSON file per segment.
	NameFS = "fs"

	// Identifier for a redis store.
	NameRedis = "redis"

	// Identifier for a SQLite store.
	NameSQLite = "sqlite"

	// Identifier for a PostgreSQL store.
	NamePostgres = "postgres"
)
