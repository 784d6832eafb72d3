package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/db/engines/sqlbase"
	mssqldb "github.com/microsoft/go-mssqldb"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	DriverName = "sqlserver" // Name the driver is registered with

	errNumPrimaryKey  = 2627 // Violation of PRIMARY KEY or UNIQUE constraint
	errNumUniqueIndex = 2601 // Duplicate key row in a unique index

	memoryOptimizedClause = "WITH (MEMORY_OPTIMIZED = ON, DURABILITY = SCHEMA_AND_DATA)"
)

// --------------------------------------------------------------------------
// Dialect
// --------------------------------------------------------------------------

// Dialect returns the SQL Server dialect. With memoryOptimized set, tables are
// created as durable memory-optimized tables with a nonclustered primary key.
func Dialect(memoryOptimized bool) *sqlbase.Dialect {
	return &sqlbase.Dialect{
		Impl:  db.ImplMSSQL,
		Quote: Quote,
		KeyTypes: map[db.KeyKind]string{
			db.KeyText:    "NVARCHAR(512) COLLATE Latin1_General_BIN2",
			db.KeyInt32:   "INT",
			db.KeyInt64:   "BIGINT",
			db.KeyFloat32: "REAL",
			db.KeyFloat64: "FLOAT(53)",
			db.KeyUUID:    "BINARY(16)",
		},
		ValueTypes: map[db.NumericKind]string{
			db.NumInt16:   "SMALLINT",
			db.NumInt32:   "INT",
			db.NumInt64:   "BIGINT",
			db.NumUint8:   "TINYINT",
			db.NumUint16:  "INT",
			db.NumUint32:  "BIGINT",
			db.NumUint64:  "DECIMAL(20,0)",
			db.NumFloat32: "REAL",
			db.NumFloat64: "FLOAT(53)",
			db.NumDecimal: "DECIMAL(38,10)",
		},
		BlobType:         "VARBINARY(MAX)",
		MaxTextKeyLength: 512,
		TableExists: func(table string) sqlbase.Command {
			return sqlbase.NewCommand(
				"SELECT COUNT(1) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = @tableName",
				"tableName", table)
		},
		CreateTable: func(table, keyType, valueType string) sqlbase.Command {
			if memoryOptimized {
				return sqlbase.NewCommand(fmt.Sprintf(
					"CREATE TABLE %s (%s %s NOT NULL PRIMARY KEY NONCLUSTERED, %s %s NOT NULL) %s",
					Quote(table), Quote("Key"), keyType, Quote("Value"), valueType, memoryOptimizedClause))
			}
			return sqlbase.NewCommand(fmt.Sprintf(
				"CREATE TABLE %s (%s %s NOT NULL PRIMARY KEY, %s %s NOT NULL)",
				Quote(table), Quote("Key"), keyType, Quote("Value"), valueType))
		},
		Count: func(table string) sqlbase.Command {
			// partition stats do not track memory-optimized tables
			if memoryOptimized {
				return sqlbase.NewCommand(fmt.Sprintf("SELECT COUNT_BIG(*) FROM %s", Quote(table)))
			}
			return sqlbase.NewCommand(
				"SELECT COALESCE(SUM(row_count), 0) FROM sys.dm_db_partition_stats WHERE object_id = OBJECT_ID(@tableName) AND index_id < 2",
				"tableName", Quote(table))
		},
		IsDuplicateKey: IsDuplicateKey,
	}
}

// Quote escapes an identifier with brackets
func Quote(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

// IsDuplicateKey reports whether err is a primary key or unique index violation
func IsDuplicateKey(err error) bool {
	var e mssqldb.Error
	if errors.As(err, &e) {
		return e.Number == errNumPrimaryKey || e.Number == errNumUniqueIndex
	}
	var pe *mssqldb.Error
	if errors.As(err, &pe) && pe != nil {
		return pe.Number == errNumPrimaryKey || pe.Number == errNumUniqueIndex
	}
	return false
}

// --------------------------------------------------------------------------
// Connection & Constructors
// --------------------------------------------------------------------------

// Open opens a connection pool for the given sqlserver:// DSN and verifies it with a ping
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to sql server: %w", err)
	}
	return conn, nil
}

// Options configures the SQL Server dictionaries
type Options struct {
	sqlbase.DictOptions
	MemoryOptimized bool // Create tables as memory-optimized tables
}

func (o Options) dictOptions() sqlbase.DictOptions {
	opts := o.DictOptions
	opts.Dialect = Dialect(o.MemoryOptimized)
	return opts
}

// NewSortedDict opens (and if needed creates) the table backed dictionary name
func NewSortedDict[K comparable, V any](ctx context.Context, name string, opts Options) (db.SortedDict[K, V], error) {
	return sqlbase.NewSortedDict[K, V](ctx, name, opts.dictOptions())
}

// NewIncrementingDict opens (and if needed creates) the table backed incrementing dictionary name
func NewIncrementingDict[K comparable, V any](ctx context.Context, name string, opts Options) (db.IncrementingDict[K, V], error) {
	return sqlbase.NewIncrementingDict[K, V](ctx, name, opts.dictOptions())
}
