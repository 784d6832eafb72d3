// Package bolt implements db.SortedDict and db.IncrementingDict on an embedded bbolt database,
// one bucket per dictionary.
//
// Keys are encoded so that the byte order of bbolt equals the key order of the other backends:
// text keys as their bytes, signed integers big-endian with the sign bit flipped, floats with
// the IEEE-754 total order transform and UUIDs as their 16 raw bytes. Values of both plain and
// incrementing dictionaries are stored through a formatter.
//
// Iterators read one page per read transaction and seek past the last yielded key, so no
// transaction is held open between two pages. Increments run in a single write transaction
// and are atomic.
package bolt
