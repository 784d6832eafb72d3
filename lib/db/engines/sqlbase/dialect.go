package sqlbase

import (
	"fmt"

	"github.com/ValentinKolb/braidwood/lib/db"
)

// --------------------------------------------------------------------------
// Dialect configuration
// --------------------------------------------------------------------------

// Dialect holds everything that differs between relational engines. The table
// dictionaries are written against this struct only, a new engine is added by
// providing another Dialect value.
type Dialect struct {
	// Impl identifies the engine in db.DictInfo and in metric labels
	Impl db.Implementation

	// Quote escapes an identifier (table or column name)
	Quote func(ident string) string

	// KeyTypes maps the supported key kinds to column types. Kinds without an
	// entry fail with db.ErrUnsupportedKeyType.
	KeyTypes map[db.KeyKind]string

	// ValueTypes maps numeric kinds to the native column types used by incrementing
	// dictionaries. Kinds without an entry fail with db.ErrUnsupportedValueType.
	ValueTypes map[db.NumericKind]string

	// BlobType is the column type holding formatted values of plain dictionaries
	BlobType string

	// MaxTextKeyLength limits text keys to this many UTF-16 code units when they are
	// added, 0 means unbounded
	MaxTextKeyLength int

	// TableExists returns a command yielding a single count, > 0 if the table exists
	TableExists func(table string) Command

	// CreateTable returns the command creating the table with the given column types
	CreateTable func(table, keyType, valueType string) Command

	// Count returns the command counting the rows of the table
	Count func(table string) Command

	// IsDuplicateKey reports whether err is a primary key violation
	IsDuplicateKey func(err error) bool
}

// validate checks that all hooks are set
func (d *Dialect) validate() error {
	switch {
	case d == nil:
		return fmt.Errorf("dialect is nil")
	case d.Quote == nil, d.TableExists == nil, d.CreateTable == nil, d.Count == nil, d.IsDuplicateKey == nil:
		return fmt.Errorf("dialect %s is incomplete", d.Impl)
	case d.BlobType == "":
		return fmt.Errorf("dialect %s has no blob type", d.Impl)
	case d.MaxTextKeyLength < 0:
		return fmt.Errorf("dialect %s has a negative key length", d.Impl)
	}
	return nil
}

// --------------------------------------------------------------------------
// Statements
// --------------------------------------------------------------------------

// statements holds the SQL text of every operation of one table, generated once
type statements struct {
	insert    string
	selectOne string
	contains  string
	remove    string
	clear     string
	keys      string
	all       string
	rangeScan string
	drop      string
}

// buildStatements generates the statements for the quoted table name
func buildStatements(d *Dialect, table string) statements {
	t := d.Quote(table)
	k := d.Quote("Key")
	v := d.Quote("Value")

	return statements{
		insert:    fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (@key, @value)", t, k, v),
		selectOne: fmt.Sprintf("SELECT %s FROM %s WHERE %s = @key", v, t, k),
		contains:  fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE %s = @key", t, k),
		remove:    fmt.Sprintf("DELETE FROM %s WHERE %s = @key", t, k),
		clear:     fmt.Sprintf("DELETE FROM %s", t),
		keys:      fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC", k, t, k),
		all:       fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s ASC", k, v, t, k),
		rangeScan: fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s BETWEEN @from AND @to ORDER BY %s ASC", k, v, t, k, k),
		drop:      fmt.Sprintf("DROP TABLE %s", t),
	}
}

// incrementStatement generates the increment statement. The delta is cast to the
// column type so engines do not pick a narrower type for string bound decimals.
func incrementStatement(d *Dialect, table, valueType string) string {
	t := d.Quote(table)
	k := d.Quote("Key")
	v := d.Quote("Value")
	return fmt.Sprintf("UPDATE %s SET %s = %s + CAST(@inc AS %s) WHERE %s = @key", t, v, v, valueType, k)
}
