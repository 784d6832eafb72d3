package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/google/btree"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultDegree = 32 // Default degree of the b-tree
)

// --------------------------------------------------------------------------
// Core memory dictionary structure
// --------------------------------------------------------------------------

// dictImpl implements db.SortedDict on top of an in-process b-tree
type dictImpl[K comparable, V any] struct {
	name     string
	keyKind  db.KeyKind
	cmp      func(a, b K) int
	pageSize int

	mu   sync.RWMutex
	tree *btree.BTreeG[db.Entry[K, V]]
}

// DictOptions configures the memory dictionaries during initialization
type DictOptions struct {
	Degree   int // Degree of the b-tree (0 = use default: 32)
	PageSize int // Entries loaded per iterator page (0 = use db.DefaultPageSize)
}

// DefaultOptions returns the default memory dictionary options
func DefaultOptions() *DictOptions {
	return &DictOptions{
		Degree:   defaultDegree,
		PageSize: db.DefaultPageSize,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewSortedDict creates a new in-memory dictionary with the specified options (optional).
// ErrUnsupportedKeyType is returned if K has no ordering.
func NewSortedDict[K comparable, V any](name string, opts *DictOptions) (db.SortedDict[K, V], error) {
	dict, err := newDict[K, V](name, opts)
	if err != nil {
		return nil, err
	}
	return dict, nil
}

func newDict[K comparable, V any](name string, opts *DictOptions) (*dictImpl[K, V], error) {
	if strings.TrimSpace(name) == "" {
		return nil, db.NewError(db.ErrCInvalidArgument, name, "open", "dictionary name must not be blank")
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Degree < 2 {
		opts.Degree = defaultDegree
	}

	keyKind, err := db.KeyKindOf[K]()
	if err != nil {
		return nil, withDict(err, name)
	}
	cmp, err := db.Comparator[K]()
	if err != nil {
		return nil, withDict(err, name)
	}

	less := func(a, b db.Entry[K, V]) bool {
		return cmp(a.Key, b.Key) < 0
	}

	return &dictImpl[K, V]{
		name:     name,
		keyKind:  keyKind,
		cmp:      cmp,
		pageSize: opts.PageSize,
		tree:     btree.NewG[db.Entry[K, V]](opts.Degree, less),
	}, nil
}

// withDict attaches the dictionary name to a contract error
func withDict(err error, name string) error {
	if e, ok := err.(*db.Error); ok {
		e.Dict = name
	}
	return err
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Add inserts a new entry or returns db.ErrDuplicateKey.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *dictImpl[K, V]) Add(ctx context.Context, key K, value V) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	entry := db.Entry[K, V]{Key: key, Value: value}
	if d.tree.Has(entry) {
		return db.NewError(db.ErrCDuplicateKey, d.name, "add", "key already exists")
	}
	d.tree.ReplaceOrInsert(entry)
	return nil
}

// Remove deletes the entry for key and reports whether it existed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *dictImpl[K, V]) Remove(ctx context.Context, key K) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	_, removed := d.tree.Delete(db.Entry[K, V]{Key: key})
	return removed, nil
}

// Clear removes all entries.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *dictImpl[K, V]) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.tree.Clear(false)
	return nil
}

// Drop releases all entries. There is no backing structure beyond the tree itself.
func (d *dictImpl[K, V]) Drop(ctx context.Context) error {
	return d.Clear(ctx)
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get returns the value for key or db.ErrNotFound.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *dictImpl[K, V]) Get(ctx context.Context, key K) (V, error) {
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
func (d *dictImpl[K, V]) TryGet(ctx context.Context, key K) (value V, ok bool, err error) {
	if err = ctx.Err(); err != nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	entry, ok := d.tree.Get(db.Entry[K, V]{Key: key})
	return entry.Value, ok, nil
}

// ContainsKey checks whether key exists.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *dictImpl[K, V]) ContainsKey(ctx context.Context, key K) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.tree.Has(db.Entry[K, V]{Key: key}), nil
}

// Count returns the number of entries.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *dictImpl[K, V]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.tree.Len(), nil
}

// --------------------------------------------------------------------------
// Iteration
// --------------------------------------------------------------------------

func (d *dictImpl[K, V]) Keys(ctx context.Context) db.Iterator[K, V] {
	return db.NewPagedIterator(d.pager(ctx, nil, nil, true), d.pageSize)
}

func (d *dictImpl[K, V]) Values(ctx context.Context) db.Iterator[K, V] {
	return db.NewPagedIterator(d.pager(ctx, nil, nil, false), d.pageSize)
}

func (d *dictImpl[K, V]) All(ctx context.Context) db.Iterator[K, V] {
	return db.NewPagedIterator(d.pager(ctx, nil, nil, false), d.pageSize)
}

// Range returns the entries with from <= key <= to.
func (d *dictImpl[K, V]) Range(ctx context.Context, from, to K) db.Iterator[K, V] {
	if d.cmp(from, to) > 0 {
		return db.EmptyIterator[K, V]()
	}
	return db.NewPagedIterator(d.pager(ctx, &from, &to, false), d.pageSize)
}

// pager returns a db.PageFunc over the closed interval [from, to], nil bounds are open.
// The read lock is only held while a single page is copied, so writes between two pages
// are visible to the iterator if they land ahead of its position.
func (d *dictImpl[K, V]) pager(ctx context.Context, from, to *K, keysOnly bool) db.PageFunc[K, V] {
	return func(after *K, limit int) ([]db.Entry[K, V], error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d.mu.RLock()
		defer d.mu.RUnlock()

		page := make([]db.Entry[K, V], 0, limit)
		visit := func(e db.Entry[K, V]) bool {
			if after != nil && d.cmp(e.Key, *after) <= 0 {
				return true
			}
			if to != nil && d.cmp(e.Key, *to) > 0 {
				return false
			}
			if keysOnly {
				e = db.Entry[K, V]{Key: e.Key}
			}
			page = append(page, e)
			return len(page) < limit
		}

		switch {
		case after != nil:
			d.tree.AscendGreaterOrEqual(db.Entry[K, V]{Key: *after}, visit)
		case from != nil:
			d.tree.AscendGreaterOrEqual(db.Entry[K, V]{Key: *from}, visit)
		default:
			d.tree.Ascend(visit)
		}
		return page, nil
	}
}

// --------------------------------------------------------------------------
// Feature Support
// --------------------------------------------------------------------------

func (d *dictImpl[K, V]) Name() string {
	return d.name
}

func (d *dictImpl[K, V]) features() db.Feature {
	return db.FeatureAdd | db.FeatureGet | db.FeatureRemove | db.FeatureRange | db.FeatureCount | db.FeatureDrop
}

func (d *dictImpl[K, V]) SupportsFeature(feature db.Feature) bool {
	return d.features()&feature == feature
}

func (d *dictImpl[K, V]) Info() db.DictInfo {
	return db.DictInfo{
		Name:              d.name,
		Impl:              db.ImplMemory,
		KeyKind:           d.keyKind,
		SupportedFeatures: d.features().Features(),
	}
}
