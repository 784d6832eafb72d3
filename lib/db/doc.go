// Package db defines the ordered dictionary contract shared by every storage backend.
// A dictionary maps unique, totally ordered keys to values and supports point access,
// ascending scans over closed key ranges and, for numeric values, increments.
//
// The package focuses on:
//   - A single generic interface for all backends (SortedDict, IncrementingDict)
//   - Ordering rules that hold regardless of the backing engine
//   - Explicit iterators with scoped cursor lifetimes
//   - A small error taxonomy that survives errors.Is across backends
//
// Key Components:
//
//   - SortedDict: The core interface. Add fails for existing keys, Get fails for
//     absent ones, TryGet reports absence with a boolean. Keys, Values, All and Range
//     return a fresh Iterator on every call. Range is inclusive on both bounds and
//     empty if from > to.
//
//   - IncrementingDict: Extends SortedDict with Increment and IncrementMany. The
//     value type is resolved once to a NumericKind at construction. Relational
//     backends issue a single server-side update per increment and are atomic per
//     key; the in-memory backend does a local read-modify-write and is not.
//
//   - KeyKind / Comparator: The closed set of supported key types (text, int32,
//     int64, float32, float64, uuid) and their ordering. Text is ordered by its
//     bytes, uuids by their 16 raw bytes which equals the order of the canonical
//     string form.
//
//   - Iterator: Forward-only cursor. The cursor is opened on the first Next and
//     released on exhaustion, on error or on Close. Callers should always defer Close.
//
//   - Error: Contract violations carry an ErrCode (InvalidArgument, UnsupportedKeyType,
//     UnsupportedValueType, NotFound, DuplicateKey, UnsupportedStructureKind,
//     TypeMismatch). Any other error comes from the backend and is returned unmodified.
//
//   - Feature Flags & Implementation: Backends advertise their capabilities through
//     SupportsFeature, e.g. FeatureAtomicIncrement is only set where increments are
//     safe under concurrent access.
//
// Note on concurrency:
//   - No backend coordinates several operations. A caller that needs a group of writes
//     to be applied as a unit must provide that itself.
//   - Iterators are not safe for concurrent use.
package db
