// Package memory implements the db.SortedDict and db.IncrementingDict contracts
// entirely in process memory. It is the reference backend the other engines are
// compared against in the conformance suite.
//
// Entries are kept in a b-tree (github.com/google/btree) ordered by the comparator of
// the key kind. All operations take a read or write lock on the tree; iterators copy
// one page of entries under the read lock and seek past the last returned key for the
// next page, so no lock is held while the caller processes an entry.
//
// Values are stored as given, no formatter is involved. Callers that store pointers
// or slices share them with the dictionary.
//
// The incrementing variant reads and writes a value in two steps and is therefore
// not safe for concurrent increments of the same key (FeatureAtomicIncrement is not
// advertised).
package memory
