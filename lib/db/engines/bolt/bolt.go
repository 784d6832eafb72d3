package bolt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ValentinKolb/braidwood/lib/common"
	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/formatter"
	"go.etcd.io/bbolt"
)

var log = common.NewLogger("bolt")

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

// Options configures the bolt database file
type Options struct {
	Timeout time.Duration // Time to wait for the file lock (0 = 10s)
	NoSync  bool          // Skip fsync after every commit, only for tests
}

// Open opens (and if needed creates) the bolt database file at path.
// Dictionaries sharing one *bbolt.DB are stored as separate buckets.
func Open(path string, opts *Options) (*bbolt.DB, error) {
	if opts == nil {
		opts = &Options{}
	}

	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opts.Timeout > 0 {
		bopt.Timeout = opts.Timeout
	}
	bopt.NoSync = opts.NoSync
	bopt.FreelistType = bbolt.FreelistMapType

	return bbolt.Open(path, 0o600, &bopt)
}

// --------------------------------------------------------------------------
// Core bolt dictionary structure
// --------------------------------------------------------------------------

// dictImpl implements db.SortedDict on one bucket
type dictImpl[K comparable, V any] struct {
	name     string
	bucket   []byte
	bdb      *bbolt.DB
	keyKind  db.KeyKind
	cmp      func(a, b K) int
	key      keyCodec[K]
	f        formatter.Formatter
	pageSize int
}

// DictOptions configures the bolt dictionaries
type DictOptions struct {
	DB        *bbolt.DB           // Database holding the bucket (required)
	Formatter formatter.Formatter // Encodes the values (nil = formatter.Default())
	PageSize  int                 // Entries loaded per read transaction while iterating (0 = db.DefaultPageSize)
}

// NewSortedDict opens the dictionary stored in the bucket name, creating the bucket if needed.
func NewSortedDict[K comparable, V any](name string, opts DictOptions) (db.SortedDict[K, V], error) {
	d, err := newDict[K, V](name, opts)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func newDict[K comparable, V any](name string, opts DictOptions) (*dictImpl[K, V], error) {
	if strings.TrimSpace(name) == "" {
		return nil, db.NewError(db.ErrCInvalidArgument, name, "open", "dictionary name must not be blank")
	}
	if opts.DB == nil {
		return nil, db.NewError(db.ErrCInvalidArgument, name, "open", "database is required")
	}
	if opts.Formatter == nil {
		opts.Formatter = formatter.Default()
	}

	keyKind, err := db.KeyKindOf[K]()
	if err != nil {
		return nil, withDict(err, name)
	}
	cmp, err := db.Comparator[K]()
	if err != nil {
		return nil, withDict(err, name)
	}

	d := &dictImpl[K, V]{
		name:     name,
		bucket:   []byte(name),
		bdb:      opts.DB,
		keyKind:  keyKind,
		cmp:      cmp,
		key:      newKeyCodec[K](keyKind),
		f:        opts.Formatter,
		pageSize: opts.PageSize,
	}

	err = d.bdb.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(d.bucket) != nil {
			return nil
		}
		if _, err := tx.CreateBucket(d.bucket); err != nil {
			return err
		}
		log.Infof("created bucket %q for dictionary (key %s)", name, keyKind)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// withDict attaches the dictionary name to a contract error
func withDict(err error, name string) error {
	var e *db.Error
	if errors.As(err, &e) {
		e.Dict = name
	}
	return err
}

// view runs fn with the bucket in a read transaction
func (d *dictImpl[K, V]) view(ctx context.Context, fn func(b *bbolt.Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(d.bucket)
		if b == nil {
			return bbolt.ErrBucketNotFound
		}
		return fn(b)
	})
}

// update runs fn with the bucket in a write transaction
func (d *dictImpl[K, V]) update(ctx context.Context, fn func(b *bbolt.Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(d.bucket)
		if b == nil {
			return bbolt.ErrBucketNotFound
		}
		return fn(b)
	})
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Add inserts a new entry or returns db.ErrDuplicateKey.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *dictImpl[K, V]) Add(ctx context.Context, key K, value V) error {
	data, err := d.f.ToStorage(value)
	if err != nil {
		return err
	}
	k := d.key.encode(key)

	return d.update(ctx, func(b *bbolt.Bucket) error {
		if b.Get(k) != nil {
			return db.NewError(db.ErrCDuplicateKey, d.name, "add", "key already exists")
		}
		return b.Put(k, data)
	})
}

// Remove deletes the entry for key and reports whether it existed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *dictImpl[K, V]) Remove(ctx context.Context, key K) (removed bool, err error) {
	k := d.key.encode(key)
	err = d.update(ctx, func(b *bbolt.Bucket) error {
		if b.Get(k) == nil {
			return nil
		}
		removed = true
		return b.Delete(k)
	})
	return removed, err
}

// Clear replaces the bucket with an empty one.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *dictImpl[K, V]) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.bdb.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(d.bucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(d.bucket)
		return err
	})
}

// Drop deletes the bucket.
func (d *dictImpl[K, V]) Drop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := d.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket(d.bucket)
	})
	if err != nil {
		return err
	}
	log.Infof("dropped bucket %q", d.name)
	return nil
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
	k := d.key.encode(key)
	err = d.view(ctx, func(b *bbolt.Bucket) error {
		data := b.Get(k)
		if data == nil {
			return nil
		}
		ok = true
		return d.f.ToObject(data, &value)
	})
	return value, ok, err
}

// ContainsKey checks whether key exists.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *dictImpl[K, V]) ContainsKey(ctx context.Context, key K) (ok bool, err error) {
	k := d.key.encode(key)
	err = d.view(ctx, func(b *bbolt.Bucket) error {
		ok = b.Get(k) != nil
		return nil
	})
	return ok, err
}

// Count returns the number of entries.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *dictImpl[K, V]) Count(ctx context.Context) (count int, err error) {
	err = d.view(ctx, func(b *bbolt.Bucket) error {
		count = b.Stats().KeyN
		return nil
	})
	return count, err
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
// Every page is read in its own read transaction.
func (d *dictImpl[K, V]) pager(ctx context.Context, from, to *K, keysOnly bool) db.PageFunc[K, V] {
	var toKey []byte
	if to != nil {
		toKey = d.key.encode(*to)
	}

	return func(after *K, limit int) ([]db.Entry[K, V], error) {
		page := make([]db.Entry[K, V], 0, limit)
		err := d.view(ctx, func(b *bbolt.Bucket) error {
			c := b.Cursor()

			var k, v []byte
			switch {
			case after != nil:
				afterKey := d.key.encode(*after)
				k, v = c.Seek(afterKey)
				if k != nil && bytes.Equal(k, afterKey) {
					k, v = c.Next()
				}
			case from != nil:
				k, v = c.Seek(d.key.encode(*from))
			default:
				k, v = c.First()
			}

			for ; k != nil && len(page) < limit; k, v = c.Next() {
				if toKey != nil && bytes.Compare(k, toKey) > 0 {
					break
				}
				key, err := d.key.decode(k)
				if err != nil {
					return err
				}
				entry := db.Entry[K, V]{Key: key}
				if !keysOnly {
					if err := d.f.ToObject(v, &entry.Value); err != nil {
						return err
					}
				}
				page = append(page, entry)
			}
			return nil
		})
		return page, err
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
		Impl:              db.ImplBolt,
		KeyKind:           d.keyKind,
		SupportedFeatures: d.features().Features(),
	}
}
