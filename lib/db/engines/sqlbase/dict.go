package sqlbase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/ValentinKolb/braidwood/lib/common"
	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/formatter"
)

var log = common.NewLogger("sqlbase")

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// DictOptions configures a table backed dictionary
type DictOptions struct {
	Conn      Conn                // Connection the statements are executed on (required)
	Dialect   *Dialect            // SQL dialect of the connection (required)
	Formatter formatter.Formatter // Encodes values of plain dictionaries (nil = formatter.Default())
}

// --------------------------------------------------------------------------
// Core table dictionary structure
// --------------------------------------------------------------------------

// tableDict implements db.SortedDict on one table with the columns Key (primary key) and Value
type tableDict[K comparable, V any] struct {
	name    string
	conn    Conn
	dialect *Dialect
	keyKind db.KeyKind
	numKind db.NumericKind
	cmp     func(a, b K) int
	key     codec[K]
	value   codec[V]
	stmts   statements
}

// NewSortedDict opens the dictionary stored in the table named like the dictionary,
// the table is created if it does not exist. Values are stored through the formatter.
func NewSortedDict[K comparable, V any](ctx context.Context, name string, opts DictOptions) (db.SortedDict[K, V], error) {
	f := opts.Formatter
	if f == nil {
		f = formatter.Default()
	}

	d, err := newTableDict[K, V](name, opts)
	if err != nil {
		return nil, err
	}
	d.value = newBlobCodec[V](f)

	if err := d.ensureTable(ctx, opts.Dialect.BlobType); err != nil {
		return nil, err
	}
	return d, nil
}

func newTableDict[K comparable, V any](name string, opts DictOptions) (*tableDict[K, V], error) {
	if strings.TrimSpace(name) == "" {
		return nil, db.NewError(db.ErrCInvalidArgument, name, "open", "dictionary name must not be blank")
	}
	if opts.Conn == nil {
		return nil, db.NewError(db.ErrCInvalidArgument, name, "open", "connection is required")
	}
	if err := opts.Dialect.validate(); err != nil {
		return nil, db.NewError(db.ErrCInvalidArgument, name, "open", err.Error())
	}

	keyKind, err := db.KeyKindOf[K]()
	if err != nil {
		return nil, withDict(err, name)
	}
	if _, ok := opts.Dialect.KeyTypes[keyKind]; !ok {
		return nil, db.NewError(db.ErrCUnsupportedKeyType, name, "open",
			fmt.Sprintf("%s has no column type for key kind %s", opts.Dialect.Impl, keyKind))
	}
	cmp, err := db.Comparator[K]()
	if err != nil {
		return nil, withDict(err, name)
	}

	return &tableDict[K, V]{
		name:    name,
		conn:    opts.Conn,
		dialect: opts.Dialect,
		keyKind: keyKind,
		cmp:     cmp,
		key:     newKeyCodec[K](keyKind),
		stmts:   buildStatements(opts.Dialect, name),
	}, nil
}

// checkKeyLength rejects text keys longer than the key column of the dialect
func (d *tableDict[K, V]) checkKeyLength(key K) error {
	if d.keyKind != db.KeyText || d.dialect.MaxTextKeyLength == 0 {
		return nil
	}
	n := 0
	for _, r := range any(key).(string) {
		n += utf16.RuneLen(r)
	}
	if n > d.dialect.MaxTextKeyLength {
		return db.NewError(db.ErrCInvalidArgument, d.name, "add",
			fmt.Sprintf("key is %d characters long, at most %d are allowed", n, d.dialect.MaxTextKeyLength))
	}
	return nil
}

// withDict attaches the dictionary name to a contract error
func withDict(err error, name string) error {
	var e *db.Error
	if errors.As(err, &e) {
		e.Dict = name
	}
	return err
}

// ensureTable creates the table unless it already exists
func (d *tableDict[K, V]) ensureTable(ctx context.Context, valueType string) (err error) {
	exists, err := d.tableExists(ctx)
	if err != nil || exists {
		return err
	}

	defer observe(d.impl(), "create", time.Now(), &err)
	cmd := d.dialect.CreateTable(d.name, d.dialect.KeyTypes[d.keyKind], valueType)
	if _, err = exec(ctx, d.conn, cmd); err != nil {
		// another process may have created it in between
		if exists, existsErr := d.tableExists(ctx); existsErr == nil && exists {
			return nil
		}
		return err
	}

	log.Infof("created table %s for dictionary (key %s, value %s)", d.dialect.Quote(d.name), d.keyKind, valueType)
	return nil
}

func (d *tableDict[K, V]) tableExists(ctx context.Context) (exists bool, err error) {
	defer observe(d.impl(), "exists", time.Now(), &err)

	var n int64
	if err = queryRow(ctx, d.conn, d.dialect.TableExists(d.name)).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *tableDict[K, V]) impl() string {
	return string(d.dialect.Impl)
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Add inserts a new row. A primary key violation is reported as db.ErrDuplicateKey
// with the native error as cause.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *tableDict[K, V]) Add(ctx context.Context, key K, value V) (err error) {
	defer observe(d.impl(), "add", time.Now(), &err)

	if err := d.checkKeyLength(key); err != nil {
		return err
	}
	k, err := d.key.toArg(key)
	if err != nil {
		return err
	}
	v, err := d.value.toArg(value)
	if err != nil {
		return err
	}

	_, err = exec(ctx, d.conn, NewCommand(d.stmts.insert, "key", k, "value", v))
	if err != nil && d.dialect.IsDuplicateKey(err) {
		return db.WrapError(db.ErrCDuplicateKey, d.name, "add", err)
	}
	return err
}

// Remove deletes the row of key and reports whether it existed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *tableDict[K, V]) Remove(ctx context.Context, key K) (removed bool, err error) {
	defer observe(d.impl(), "remove", time.Now(), &err)

	k, err := d.key.toArg(key)
	if err != nil {
		return false, err
	}
	res, err := exec(ctx, d.conn, NewCommand(d.stmts.remove, "key", k))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Clear deletes all rows, the table itself is kept.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *tableDict[K, V]) Clear(ctx context.Context) (err error) {
	defer observe(d.impl(), "clear", time.Now(), &err)

	_, err = exec(ctx, d.conn, NewCommand(d.stmts.clear))
	return err
}

// Drop drops the table.
func (d *tableDict[K, V]) Drop(ctx context.Context) (err error) {
	defer observe(d.impl(), "drop", time.Now(), &err)

	if _, err = exec(ctx, d.conn, NewCommand(d.stmts.drop)); err != nil {
		return err
	}
	log.Infof("dropped table %s", d.dialect.Quote(d.name))
	return nil
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get returns the value for key or db.ErrNotFound.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *tableDict[K, V]) Get(ctx context.Context, key K) (V, error) {
	value, ok, err := d.TryGet(ctx, key)
	if err != nil {
		return value, err
	}
	if !ok {
		return value, db.NewError(db.ErrCNotFound, d.name, "get", "")
	}
	return value, nil
}

// TryGet returns the value for key and whether it was found.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *tableDict[K, V]) TryGet(ctx context.Context, key K) (value V, ok bool, err error) {
	defer observe(d.impl(), "get", time.Now(), &err)

	k, err := d.key.toArg(key)
	if err != nil {
		return value, false, err
	}

	var src any
	err = queryRow(ctx, d.conn, NewCommand(d.stmts.selectOne, "key", k)).Scan(&src)
	if errors.Is(err, sql.ErrNoRows) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}

	value, err = d.value.scan(src)
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

// ContainsKey checks whether a row for key exists.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *tableDict[K, V]) ContainsKey(ctx context.Context, key K) (ok bool, err error) {
	defer observe(d.impl(), "contains", time.Now(), &err)

	k, err := d.key.toArg(key)
	if err != nil {
		return false, err
	}

	var n int64
	if err = queryRow(ctx, d.conn, NewCommand(d.stmts.contains, "key", k)).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of rows as reported by the dialect's count statement.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *tableDict[K, V]) Count(ctx context.Context) (count int, err error) {
	defer observe(d.impl(), "count", time.Now(), &err)

	var n int64
	if err = queryRow(ctx, d.conn, d.dialect.Count(d.name)).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

// --------------------------------------------------------------------------
// Iteration
// --------------------------------------------------------------------------

func (d *tableDict[K, V]) Keys(ctx context.Context) db.Iterator[K, V] {
	return &rowsIterator[K, V]{
		ctx:  ctx,
		d:    d,
		op:   "keys",
		cmd:  NewCommand(d.stmts.keys),
		scan: d.scanKey,
	}
}

func (d *tableDict[K, V]) Values(ctx context.Context) db.Iterator[K, V] {
	return d.All(ctx)
}

func (d *tableDict[K, V]) All(ctx context.Context) db.Iterator[K, V] {
	return &rowsIterator[K, V]{
		ctx:  ctx,
		d:    d,
		op:   "all",
		cmd:  NewCommand(d.stmts.all),
		scan: d.scanEntry,
	}
}

// Range returns the rows with from <= Key <= to. If from > to no statement is issued.
func (d *tableDict[K, V]) Range(ctx context.Context, from, to K) db.Iterator[K, V] {
	if d.cmp(from, to) > 0 {
		return db.EmptyIterator[K, V]()
	}

	f, err := d.key.toArg(from)
	if err != nil {
		return db.ErrIterator[K, V](err)
	}
	t, err := d.key.toArg(to)
	if err != nil {
		return db.ErrIterator[K, V](err)
	}

	return &rowsIterator[K, V]{
		ctx:  ctx,
		d:    d,
		op:   "range",
		cmd:  NewCommand(d.stmts.rangeScan, "from", f, "to", t),
		scan: d.scanEntry,
	}
}

func (d *tableDict[K, V]) scanKey(rows *sql.Rows) (key K, value V, err error) {
	var src any
	if err = rows.Scan(&src); err != nil {
		return
	}
	key, err = d.key.scan(src)
	return
}

func (d *tableDict[K, V]) scanEntry(rows *sql.Rows) (key K, value V, err error) {
	var kSrc, vSrc any
	if err = rows.Scan(&kSrc, &vSrc); err != nil {
		return
	}
	if key, err = d.key.scan(kSrc); err != nil {
		return
	}
	value, err = d.value.scan(vSrc)
	return
}

// --------------------------------------------------------------------------
// Feature Support
// --------------------------------------------------------------------------

func (d *tableDict[K, V]) Name() string {
	return d.name
}

func (d *tableDict[K, V]) features() db.Feature {
	return db.FeatureAdd | db.FeatureGet | db.FeatureRemove | db.FeatureRange | db.FeatureCount | db.FeatureDrop
}

func (d *tableDict[K, V]) SupportsFeature(feature db.Feature) bool {
	return d.features()&feature == feature
}

func (d *tableDict[K, V]) Info() db.DictInfo {
	return db.DictInfo{
		Name:              d.name,
		Impl:              d.dialect.Impl,
		KeyKind:           d.keyKind,
		SupportedFeatures: d.features().Features(),
	}
}
