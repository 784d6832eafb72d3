package memory

import (
	"context"
	"slices"

	"github.com/ValentinKolb/braidwood/lib/db"
)

// incDictImpl implements db.IncrementingDict on top of dictImpl
type incDictImpl[K comparable, V any] struct {
	*dictImpl[K, V]
	numKind db.NumericKind
	add     func(a, b V) V
}

// NewIncrementingDict creates a new in-memory incrementing dictionary.
// ErrUnsupportedValueType is returned if V is not a supported numeric kind.
//
// Note: Increment reads and writes the value in two separate steps, concurrent increments
// of the same key can therefore lose updates. Callers sharing an instance across goroutines
// must synchronize increments themselves.
func NewIncrementingDict[K comparable, V any](name string, opts *DictOptions) (db.IncrementingDict[K, V], error) {
	numKind, err := db.NumericKindOf[V]()
	if err != nil {
		return nil, withDict(err, name)
	}
	add, err := db.Adder[V]()
	if err != nil {
		return nil, withDict(err, name)
	}

	base, err := newDict[K, V](name, opts)
	if err != nil {
		return nil, err
	}

	return &incDictImpl[K, V]{
		dictImpl: base,
		numKind:  numKind,
		add:      add,
	}, nil
}

// Increment adds delta to the value of key or returns db.ErrNotFound.
//
// Thread-safety: The read and the write are separate critical sections, the increment as a whole is not atomic.
func (d *incDictImpl[K, V]) Increment(ctx context.Context, key K, delta V) error {
	current, ok, err := d.TryGet(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return db.NewError(db.ErrCNotFound, d.name, "increment", "")
	}

	return d.replace(key, d.add(current, delta))
}

// replace overwrites the value of an existing key
func (d *incDictImpl[K, V]) replace(key K, value V) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry := db.Entry[K, V]{Key: key, Value: value}
	if !d.tree.Has(entry) {
		return db.NewError(db.ErrCNotFound, d.name, "increment", "key removed concurrently")
	}
	d.tree.ReplaceOrInsert(entry)
	return nil
}

// IncrementMany applies Increment to every pair in ascending key order and stops at the first error.
func (d *incDictImpl[K, V]) IncrementMany(ctx context.Context, deltas map[K]V) error {
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

func (d *incDictImpl[K, V]) NumericKind() db.NumericKind {
	return d.numKind
}

func (d *incDictImpl[K, V]) SupportsFeature(feature db.Feature) bool {
	return (d.features()|db.FeatureIncrement)&feature == feature
}

func (d *incDictImpl[K, V]) Info() db.DictInfo {
	info := d.dictImpl.Info()
	info.NumericKind = d.numKind
	info.SupportedFeatures = (d.features() | db.FeatureIncrement).Features()
	return info
}
