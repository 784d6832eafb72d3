// Package mssql provides the SQL Server dialect for the table backed dictionaries of package sqlbase.
//
// Text keys use a binary collation, so their order equals the ordinal order of the
// in-memory backend. UUID keys are stored as BINARY(16) and ordered bytewise.
//
// Count uses the partition statistics of the table, which avoids a full scan but may lag
// behind uncommitted writes of other sessions. Memory-optimized tables are not tracked by
// the partition statistics and are counted with COUNT_BIG(*).
package mssql
