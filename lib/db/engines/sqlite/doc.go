// Package sqlite provides the SQLite dialect for the table backed dictionaries of package sqlbase,
// using the pure Go driver modernc.org/sqlite.
//
// Decimal values are stored in a NUMERIC column and therefore limited to the precision of
// SQLite's numeric affinity (64 bit integers or doubles).
package sqlite
