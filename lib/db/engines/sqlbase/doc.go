// Package sqlbase implements db.SortedDict and db.IncrementingDict on a relational table.
//
// Every dictionary is one table with the columns Key (primary key) and Value. All engine
// specific parts (identifier quoting, column types, table existence, counting and primary
// key violation detection) are provided through a Dialect value, see the mssql and sqlite
// packages for the concrete dialects.
//
// Each operation issues exactly one parameterized statement on the Conn passed in the
// options, parameters are bound as sql.Named values referenced as @name. Iterators open
// their result set on the first call to Next and hold it until they are exhausted or closed.
//
// Every statement is counted and timed in the default VictoriaMetrics set:
//
//	braidwood_sql_statements_total{dialect,op}
//	braidwood_sql_errors_total{dialect,op}
//	braidwood_sql_duration_seconds{dialect,op}
package sqlbase
