package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/db/engines/sqlbase"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	DriverName = "sqlite"   // Name the driver is registered with
	MemoryPath = ":memory:" // Path of a private in-memory database

	busyTimeoutMillis = 5000
)

// --------------------------------------------------------------------------
// Dialect
// --------------------------------------------------------------------------

// Dialect returns the SQLite dialect
func Dialect() *sqlbase.Dialect {
	return &sqlbase.Dialect{
		Impl:  db.ImplSQLite,
		Quote: Quote,
		KeyTypes: map[db.KeyKind]string{
			db.KeyText:    "TEXT",
			db.KeyInt32:   "INTEGER",
			db.KeyInt64:   "INTEGER",
			db.KeyFloat32: "REAL",
			db.KeyFloat64: "REAL",
			db.KeyUUID:    "BLOB",
		},
		ValueTypes: map[db.NumericKind]string{
			db.NumInt16:   "INTEGER",
			db.NumInt32:   "INTEGER",
			db.NumInt64:   "INTEGER",
			db.NumUint8:   "INTEGER",
			db.NumUint16:  "INTEGER",
			db.NumUint32:  "INTEGER",
			db.NumFloat32: "REAL",
			db.NumFloat64: "REAL",
			db.NumDecimal: "NUMERIC",
		},
		BlobType:         "BLOB",
		MaxTextKeyLength: 512,
		TableExists: func(table string) sqlbase.Command {
			return sqlbase.NewCommand(
				"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = @tableName",
				"tableName", table)
		},
		CreateTable: func(table, keyType, valueType string) sqlbase.Command {
			return sqlbase.NewCommand(fmt.Sprintf(
				"CREATE TABLE %s (%s %s NOT NULL PRIMARY KEY, %s %s NOT NULL)",
				Quote(table), Quote("Key"), keyType, Quote("Value"), valueType))
		},
		Count: func(table string) sqlbase.Command {
			return sqlbase.NewCommand(fmt.Sprintf("SELECT COUNT(*) FROM %s", Quote(table)))
		},
		IsDuplicateKey: IsDuplicateKey,
	}
}

// Quote escapes an identifier with double quotes
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// IsDuplicateKey reports whether err is a primary key or unique constraint violation
func IsDuplicateKey(err error) bool {
	var e *sqlite.Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// primary code only, if extended result codes are disabled
		return strings.Contains(e.Error(), "UNIQUE constraint failed")
	default:
		return false
	}
}

// --------------------------------------------------------------------------
// Connection & Constructors
// --------------------------------------------------------------------------

// Open opens the database file at path in WAL mode, creating it if needed, so readers
// with an open iterator do not block writers. An in-memory database (":memory:") is
// private to one connection, its pool is limited to that connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, busyTimeoutMillis)
	if path == MemoryPath {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, busyTimeoutMillis)
	}
	conn, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, err
	}
	if path == MemoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	return conn, nil
}

// NewSortedDict opens (and if needed creates) the table backed dictionary name
func NewSortedDict[K comparable, V any](ctx context.Context, name string, opts sqlbase.DictOptions) (db.SortedDict[K, V], error) {
	opts.Dialect = Dialect()
	return sqlbase.NewSortedDict[K, V](ctx, name, opts)
}

// NewIncrementingDict opens (and if needed creates) the table backed incrementing dictionary name
func NewIncrementingDict[K comparable, V any](ctx context.Context, name string, opts sqlbase.DictOptions) (db.IncrementingDict[K, V], error) {
	opts.Dialect = Dialect()
	return sqlbase.NewIncrementingDict[K, V](ctx, name, opts)
}
