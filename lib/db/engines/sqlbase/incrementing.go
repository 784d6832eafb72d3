package sqlbase

import (
	"context"
	"slices"
	"time"

	"github.com/ValentinKolb/braidwood/lib/db"
)

// incTableDict implements db.IncrementingDict on a table whose Value column has a native numeric type
type incTableDict[K comparable, V any] struct {
	*tableDict[K, V]
	increment string
}

// NewIncrementingDict opens the incrementing dictionary stored in the table named like the
// dictionary, creating it if needed. Values are bound natively, opts.Formatter is ignored.
// ErrUnsupportedValueType is returned if V is not a numeric kind or the dialect has no column type for it.
//
// Increments are executed as a single UPDATE statement, so they are atomic with respect
// to concurrent callers.
func NewIncrementingDict[K comparable, V any](ctx context.Context, name string, opts DictOptions) (db.IncrementingDict[K, V], error) {
	numKind, err := db.NumericKindOf[V]()
	if err != nil {
		return nil, withDict(err, name)
	}

	base, err := newTableDict[K, V](name, opts)
	if err != nil {
		return nil, err
	}
	valueType, ok := opts.Dialect.ValueTypes[numKind]
	if !ok {
		return nil, db.NewError(db.ErrCUnsupportedValueType, name, "open",
			string(opts.Dialect.Impl)+" has no column type for numeric kind "+numKind.String())
	}
	base.numKind = numKind
	base.value = newNumericCodec[V](numKind)

	if err := base.ensureTable(ctx, valueType); err != nil {
		return nil, err
	}
	return &incTableDict[K, V]{
		tableDict: base,
		increment: incrementStatement(opts.Dialect, name, valueType),
	}, nil
}

// Increment adds delta to the Value column of key in one statement, db.ErrNotFound is
// returned if no row was affected.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *incTableDict[K, V]) Increment(ctx context.Context, key K, delta V) (err error) {
	defer observe(d.impl(), "increment", time.Now(), &err)

	k, err := d.key.toArg(key)
	if err != nil {
		return err
	}
	inc, err := d.value.toArg(delta)
	if err != nil {
		return err
	}

	res, err := exec(ctx, d.conn, NewCommand(d.increment, "key", k, "inc", inc))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return db.NewError(db.ErrCNotFound, d.name, "increment", "")
	}
	return nil
}

// IncrementMany issues one Increment per pair in ascending key order and stops at the first error.
func (d *incTableDict[K, V]) IncrementMany(ctx context.Context, deltas map[K]V) error {
	keys := make([]K, 0, len(deltas))
	for k := range deltas {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, d.cmp)

	for _, k := range keys {
		if err := d.Increment(ctx, k, deltas[k]); err != nil {
			return err
		}
	}
	return nil
}

func (d *incTableDict[K, V]) NumericKind() db.NumericKind {
	return d.numKind
}

func (d *incTableDict[K, V]) incFeatures() db.Feature {
	return d.features() | db.FeatureIncrement | db.FeatureAtomicIncrement
}

func (d *incTableDict[K, V]) SupportsFeature(feature db.Feature) bool {
	return d.incFeatures()&feature == feature
}

func (d *incTableDict[K, V]) Info() db.DictInfo {
	info := d.tableDict.Info()
	info.NumericKind = d.numKind
	info.SupportedFeatures = d.incFeatures().Features()
	return info
}
