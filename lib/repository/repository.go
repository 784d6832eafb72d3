package repository

import (
	"context"
	"reflect"
	"sort"
	"strings"

	"github.com/ValentinKolb/braidwood/lib/common"
	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/db/engines/bolt"
	"github.com/ValentinKolb/braidwood/lib/db/engines/memory"
	"github.com/ValentinKolb/braidwood/lib/db/engines/mssql"
	"github.com/ValentinKolb/braidwood/lib/db/engines/sqlbase"
	"github.com/ValentinKolb/braidwood/lib/db/engines/sqlite"
	"github.com/ValentinKolb/braidwood/lib/formatter"
	"github.com/puzpuzpuz/xsync/v3"
	"go.etcd.io/bbolt"
)

var log = common.NewLogger("repository")

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options selects the backend every dictionary of a repository is created on
type Options struct {
	Implementation  db.Implementation   // Backend of all dictionaries (required)
	Conn            sqlbase.Conn        // Connection for sqlite and mssql
	Bolt            *bbolt.DB           // Database for bolt
	Formatter       formatter.Formatter // Value formatter of plain dictionaries (nil = formatter.Default())
	MemoryOptimized bool                // mssql only: create memory-optimized tables
	Memory          *memory.DictOptions // memory only: b-tree options (nil = memory.DefaultOptions())
}

// --------------------------------------------------------------------------
// Repository
// --------------------------------------------------------------------------

// capability distinguishes plain from incrementing dictionaries
type capability uint8

const (
	capPlain capability = iota + 1
	capIncrementing
)

func (c capability) String() string {
	if c == capIncrementing {
		return "incrementing"
	}
	return "plain"
}

// handle is a resolved dictionary
type handle struct {
	capability capability
	keyType    reflect.Type
	valueType  reflect.Type
	dict       any
}

// Repository resolves dictionaries by name and caches the handles, so every name
// is created on the backend at most once per repository.
//
// Thread-safety: A Repository is safe for concurrent use.
type Repository struct {
	opts    Options
	handles *xsync.MapOf[string, handle]
}

// New creates a repository. db.ErrInvalidArgument is returned if the backend
// specific connection is missing.
func New(opts Options) (*Repository, error) {
	switch opts.Implementation {
	case db.ImplSQLite, db.ImplMSSQL:
		if opts.Conn == nil {
			return nil, db.NewError(db.ErrCInvalidArgument, "", "new", string(opts.Implementation)+" requires a connection")
		}
	case db.ImplBolt:
		if opts.Bolt == nil {
			return nil, db.NewError(db.ErrCInvalidArgument, "", "new", "bolt requires a database")
		}
	}
	if opts.Formatter == nil {
		opts.Formatter = formatter.Default()
	}

	return &Repository{
		opts:    opts,
		handles: xsync.NewMapOf[string, handle](),
	}, nil
}

// Implementation returns the backend of the repository
func (r *Repository) Implementation() db.Implementation {
	return r.opts.Implementation
}

// Dict returns the plain dictionary name, creating its backing structure if absent.
// db.ErrTypeMismatch is returned if the name was resolved before with another
// capability or other types.
func Dict[K comparable, V any](ctx context.Context, r *Repository, name string) (db.SortedDict[K, V], error) {
	h, err := resolve[K, V](r, name, capPlain, func() (any, error) {
		return newDict[K, V](ctx, r, name)
	})
	if err != nil {
		return nil, err
	}
	return h.dict.(db.SortedDict[K, V]), nil
}

// IncrementingDict returns the incrementing dictionary name, creating its backing structure if absent.
// db.ErrTypeMismatch is returned if the name was resolved before with another
// capability or other types.
func IncrementingDict[K comparable, V any](ctx context.Context, r *Repository, name string) (db.IncrementingDict[K, V], error) {
	h, err := resolve[K, V](r, name, capIncrementing, func() (any, error) {
		return newIncrementingDict[K, V](ctx, r, name)
	})
	if err != nil {
		return nil, err
	}
	return h.dict.(db.IncrementingDict[K, V]), nil
}

// resolve returns the cached handle of name or creates it. Concurrent first
// resolutions of the same name create the dictionary only once.
func resolve[K comparable, V any](r *Repository, name string, c capability, create func() (any, error)) (handle, error) {
	if strings.TrimSpace(name) == "" {
		return handle{}, db.NewError(db.ErrCInvalidArgument, name, "resolve", "dictionary name must not be blank")
	}
	keyType := reflect.TypeFor[K]()
	valueType := reflect.TypeFor[V]()

	var createErr error
	h, _ := r.handles.Compute(name, func(old handle, loaded bool) (handle, bool) {
		if loaded {
			return old, false
		}
		dict, err := create()
		if err != nil {
			createErr = err
			return handle{}, true
		}
		log.Infof("resolved %s dictionary %q (%s -> %s) on %s", c, name, keyType, valueType, r.opts.Implementation)
		return handle{capability: c, keyType: keyType, valueType: valueType, dict: dict}, false
	})
	if createErr != nil {
		return handle{}, createErr
	}

	if h.capability != c || h.keyType != keyType || h.valueType != valueType {
		return handle{}, db.NewError(db.ErrCTypeMismatch, name, "resolve",
			"resolved as "+h.capability.String()+" dictionary "+h.keyType.String()+" -> "+h.valueType.String())
	}
	return h, nil
}

// Drop drops the backing structure of a resolved dictionary and forgets its handle.
// db.ErrNotFound is returned if name was not resolved by this repository.
func (r *Repository) Drop(ctx context.Context, name string) error {
	h, ok := r.handles.LoadAndDelete(name)
	if !ok {
		return db.NewError(db.ErrCNotFound, name, "drop", "dictionary not resolved")
	}
	if err := h.dict.(interface{ Drop(context.Context) error }).Drop(ctx); err != nil {
		return err
	}
	log.Infof("dropped dictionary %q", name)
	return nil
}

// Names returns the names of all resolved dictionaries in ascending order
func (r *Repository) Names() []string {
	names := make([]string, 0, r.handles.Size())
	r.handles.Range(func(name string, _ handle) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// --------------------------------------------------------------------------
// Backend construction
// --------------------------------------------------------------------------

func (r *Repository) memoryOptions() *memory.DictOptions {
	if r.opts.Memory == nil {
		return memory.DefaultOptions()
	}
	opts := *r.opts.Memory
	return &opts
}

func (r *Repository) sqlOptions() sqlbase.DictOptions {
	return sqlbase.DictOptions{Conn: r.opts.Conn, Formatter: r.opts.Formatter}
}

func (r *Repository) boltOptions() bolt.DictOptions {
	return bolt.DictOptions{DB: r.opts.Bolt, Formatter: r.opts.Formatter}
}

func newDict[K comparable, V any](ctx context.Context, r *Repository, name string) (db.SortedDict[K, V], error) {
	switch r.opts.Implementation {
	case db.ImplMemory:
		return memory.NewSortedDict[K, V](name, r.memoryOptions())
	case db.ImplSQLite:
		return sqlite.NewSortedDict[K, V](ctx, name, r.sqlOptions())
	case db.ImplMSSQL:
		return mssql.NewSortedDict[K, V](ctx, name, mssql.Options{DictOptions: r.sqlOptions(), MemoryOptimized: r.opts.MemoryOptimized})
	case db.ImplBolt:
		return bolt.NewSortedDict[K, V](name, r.boltOptions())
	default:
		return nil, db.NewError(db.ErrCUnsupportedStructureKind, name, "resolve",
			"no plain dictionary for implementation "+string(r.opts.Implementation))
	}
}

func newIncrementingDict[K comparable, V any](ctx context.Context, r *Repository, name string) (db.IncrementingDict[K, V], error) {
	switch r.opts.Implementation {
	case db.ImplMemory:
		return memory.NewIncrementingDict[K, V](name, r.memoryOptions())
	case db.ImplSQLite:
		return sqlite.NewIncrementingDict[K, V](ctx, name, r.sqlOptions())
	case db.ImplMSSQL:
		return mssql.NewIncrementingDict[K, V](ctx, name, mssql.Options{DictOptions: r.sqlOptions(), MemoryOptimized: r.opts.MemoryOptimized})
	case db.ImplBolt:
		return bolt.NewIncrementingDict[K, V](name, r.boltOptions())
	default:
		return nil, db.NewError(db.ErrCUnsupportedStructureKind, name, "resolve",
			"no incrementing dictionary for implementation "+string(r.opts.Implementation))
	}
}
