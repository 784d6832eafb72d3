package db

import "context"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMemory Implementation = "memory"
	ImplSQLite Implementation = "sqlite"
	ImplMSSQL  Implementation = "mssql"
	ImplBolt   Implementation = "bolt"
)

// Feature represents dictionary features as bit flags
type Feature uint64

const (
	FeatureAdd             Feature = 1 << iota // Support for Add operations
	FeatureGet                                 // Support for Get, TryGet and ContainsKey operations
	FeatureRemove                              // Support for Remove and Clear operations
	FeatureRange                               // Support for ordered iteration and Range scans
	FeatureCount                               // Support for Count operations
	FeatureIncrement                           // Support for Increment operations
	FeatureAtomicIncrement                     // Increment is atomic with respect to concurrent callers
	FeatureDrop                                // Support for dropping the backing structure
)

func (f Feature) String() string {
	switch f {
	case FeatureAdd:
		return "Add"
	case FeatureGet:
		return "Get"
	case FeatureRemove:
		return "Remove"
	case FeatureRange:
		return "Range"
	case FeatureCount:
		return "Count"
	case FeatureIncrement:
		return "Increment"
	case FeatureAtomicIncrement:
		return "AtomicIncrement"
	case FeatureDrop:
		return "Drop"
	default:
		return "Unknown"
	}
}

// Features splits a combined feature mask into its single flags
func (f Feature) Features() []Feature {
	var res []Feature
	for flag := FeatureAdd; flag <= FeatureDrop; flag <<= 1 {
		if f&flag != 0 {
			res = append(res, flag)
		}
	}
	return res
}

// DictInfo describes a dictionary instance
type DictInfo struct {
	Name              string         `json:"name"`
	Impl              Implementation `json:"impl"`
	KeyKind           KeyKind        `json:"key_kind"`
	NumericKind       NumericKind    `json:"numeric_kind,omitempty"`
	SupportedFeatures []Feature      `json:"supported_features"`
}

// Entry is a single key value pair of a dictionary
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// --------------------------------------------------------------------------
// Dictionary Interfaces
// --------------------------------------------------------------------------

// SortedDict defines the contract every ordered dictionary backend implements.
// Keys are unique and totally ordered by the comparator of their KeyKind.
// All operations are synchronous and issue exactly one request against the backend.
// Errors are either one of the sentinel errors of this package (see errors.go)
// or the native error of the backend, returned unmodified.
type SortedDict[K comparable, V any] interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Add inserts a new entry. If the key is already present ErrDuplicateKey is returned
	// and the stored value is left untouched.
	Add(ctx context.Context, key K, value V) (err error)

	// Remove deletes the entry for key. The boolean reports whether an entry was deleted.
	Remove(ctx context.Context, key K) (removed bool, err error)

	// Clear removes all entries. Afterward Count returns 0.
	Clear(ctx context.Context) (err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key K) (value V, err error)

	// TryGet returns the value for key. The boolean is false if the key is absent.
	TryGet(ctx context.Context, key K) (value V, loaded bool, err error)

	// ContainsKey checks whether an entry for key exists.
	ContainsKey(ctx context.Context, key K) (loaded bool, err error)

	// Count returns the number of entries.
	Count(ctx context.Context) (count int, err error)

	// --------------------------------------------------------------------------
	// Iteration
	// --------------------------------------------------------------------------

	// Keys returns an iterator over all keys in ascending order. Value() of the
	// returned iterator always yields the zero value.
	Keys(ctx context.Context) Iterator[K, V]

	// Values returns an iterator over all entries in ascending key order.
	Values(ctx context.Context) Iterator[K, V]

	// All returns an iterator over all entries in ascending key order.
	All(ctx context.Context) Iterator[K, V]

	// Range returns an iterator over the entries with from <= key <= to in ascending order.
	// If from > to the iterator is empty.
	Range(ctx context.Context, from, to K) Iterator[K, V]

	// --------------------------------------------------------------------------
	// Lifecycle & Feature Support
	// --------------------------------------------------------------------------

	// Name returns the logical name of the dictionary.
	Name() string

	// Drop destroys the backing structure. The dictionary must not be used afterward.
	Drop(ctx context.Context) (err error)

	// SupportsFeature checks if the dictionary supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// Info returns information about the dictionary.
	Info() (info DictInfo)
}

// IncrementingDict extends SortedDict with numeric increments. The value type
// is one of the numeric kinds listed in numeric.go.
type IncrementingDict[K comparable, V any] interface {
	SortedDict[K, V]

	// Increment adds delta to the value stored for key. ErrNotFound is returned
	// if the key is absent, in which case nothing is written.
	Increment(ctx context.Context, key K, delta V) (err error)

	// IncrementMany applies Increment to every pair in ascending key order.
	// Pairs are independent: if one fails, the increments applied before it stay applied.
	IncrementMany(ctx context.Context, deltas map[K]V) (err error)

	// NumericKind returns the numeric kind bound at construction.
	NumericKind() NumericKind
}

// Iterator is a forward-only, non-restartable cursor over dictionary entries.
// The underlying cursor is opened by the first call to Next and released on
// exhaustion, on error or by Close, whichever happens first.
//
// Usage:
//
//	it := dict.Range(ctx, from, to)
//	defer it.Close()
//	for it.Next() {
//		use(it.Key(), it.Value())
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type Iterator[K comparable, V any] interface {
	// Next advances the iterator and reports whether an entry is available.
	Next() bool
	// Key returns the key of the current entry.
	Key() K
	// Value returns the value of the current entry.
	Value() V
	// Err returns the first error encountered while iterating.
	Err() error
	// Close releases the cursor. It is safe to call Close multiple times.
	Close() error
}
