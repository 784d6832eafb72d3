package bolt

import (
	"context"
	"slices"

	"github.com/ValentinKolb/braidwood/lib/db"
	"go.etcd.io/bbolt"
)

// incDictImpl implements db.IncrementingDict on top of dictImpl
type incDictImpl[K comparable, V any] struct {
	*dictImpl[K, V]
	numKind db.NumericKind
	add     func(a, b V) V
}

// NewIncrementingDict opens the incrementing dictionary stored in the bucket name, creating the bucket if needed.
// ErrUnsupportedValueType is returned if V is not a supported numeric kind.
func NewIncrementingDict[K comparable, V any](name string, opts DictOptions) (db.IncrementingDict[K, V], error) {
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

// Increment reads, adds and writes the value of key in one write transaction
// or returns db.ErrNotFound.
//
// Thread-safety: This method is thread-safe, bbolt serializes write transactions.
func (d *incDictImpl[K, V]) Increment(ctx context.Context, key K, delta V) error {
	k := d.key.encode(key)
	return d.update(ctx, func(b *bbolt.Bucket) error {
		data := b.Get(k)
		if data == nil {
			return db.NewError(db.ErrCNotFound, d.name, "increment", "")
		}

		var current V
		if err := d.f.ToObject(data, &current); err != nil {
			return err
		}
		updated, err := d.f.ToStorage(d.add(current, delta))
		if err != nil {
			return err
		}
		return b.Put(k, updated)
	})
}

// IncrementMany applies Increment to every pair in ascending key order and stops at the first error.
// Every pair is committed in its own transaction.
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

func (d *incDictImpl[K, V]) incFeatures() db.Feature {
	return d.features() | db.FeatureIncrement | db.FeatureAtomicIncrement
}

func (d *incDictImpl[K, V]) SupportsFeature(feature db.Feature) bool {
	return d.incFeatures()&feature == feature
}

func (d *incDictImpl[K, V]) Info() db.DictInfo {
	info := d.dictImpl.Info()
	info.NumericKind = d.numKind
	info.SupportedFeatures = d.incFeatures().Features()
	return info
}
