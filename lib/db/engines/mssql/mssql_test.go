package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/db/engines/sqlbase"
	mssqldb "github.com/microsoft/go-mssqldb"
	"github.com/shopspring/decimal"
)

const existsQuery = "SELECT COUNT(1) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = @tableName"

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
	})
	return conn, mock
}

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"Balances":    "[Balances]",
		"weird]name":  "[weird]]name]",
		"E1_Accounts": "[E1_Accounts]",
		"with space":  "[with space]",
	}
	for in, expected := range tests {
		if got := Quote(in); got != expected {
			t.Errorf("Quote(%q): expected %q, got %q", in, expected, got)
		}
	}
}

func TestCreateTable(t *testing.T) {
	t.Run("Disk", func(t *testing.T) {
		cmd := Dialect(false).CreateTable("t", "BIGINT", "VARBINARY(MAX)")
		expected := "CREATE TABLE [t] ([Key] BIGINT NOT NULL PRIMARY KEY, [Value] VARBINARY(MAX) NOT NULL)"
		if cmd.Text != expected {
			t.Errorf("Expected %q, got %q", expected, cmd.Text)
		}
	})

	t.Run("MemoryOptimized", func(t *testing.T) {
		cmd := Dialect(true).CreateTable("t", "BIGINT", "DECIMAL(38,10)")
		expected := "CREATE TABLE [t] ([Key] BIGINT NOT NULL PRIMARY KEY NONCLUSTERED, [Value] DECIMAL(38,10) NOT NULL) " +
			"WITH (MEMORY_OPTIMIZED = ON, DURABILITY = SCHEMA_AND_DATA)"
		if cmd.Text != expected {
			t.Errorf("Expected %q, got %q", expected, cmd.Text)
		}
	})
}

func TestCount(t *testing.T) {
	disk := Dialect(false).Count("Balances")
	if disk.Args["tableName"] != "[Balances]" {
		t.Errorf("Expected the quoted table name as parameter, got %v", disk.Args["tableName"])
	}

	mem := Dialect(true).Count("Balances")
	if mem.Text != "SELECT COUNT_BIG(*) FROM [Balances]" {
		t.Errorf("Expected COUNT_BIG for memory-optimized tables, got %q", mem.Text)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{mssqldb.Error{Number: 2627}, true},
		{mssqldb.Error{Number: 2601}, true},
		{&mssqldb.Error{Number: 2627}, true},
		{fmt.Errorf("insert: %w", mssqldb.Error{Number: 2601}), true},
		{mssqldb.Error{Number: 547}, false},
		{errors.New("2627"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsDuplicateKey(tt.err); got != tt.expected {
			t.Errorf("IsDuplicateKey(%v): expected %v, got %v", tt.err, tt.expected, got)
		}
	}
}

func TestDictionary(t *testing.T) {
	ctx := context.Background()
	conn, mock := newMock(t)
	opts := Options{DictOptions: sqlbase.DictOptions{Conn: conn}}

	mock.ExpectQuery(existsQuery).
		WithArgs(sql.Named("tableName", "E1_Accounts")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec("CREATE TABLE [E1_Accounts] ([Key] NVARCHAR(512) COLLATE Latin1_General_BIN2 NOT NULL PRIMARY KEY, [Value] VARBINARY(MAX) NOT NULL)").
		WillReturnResult(sqlmock.NewResult(0, 0))

	dict, err := NewSortedDict[string, string](ctx, "E1_Accounts", opts)
	if err != nil {
		t.Fatalf("failed to open dictionary: %v", err)
	}
	if dict.Info().Impl != db.ImplMSSQL {
		t.Errorf("Expected impl mssql, got %s", dict.Info().Impl)
	}

	mock.ExpectExec("INSERT INTO [E1_Accounts] ([Key], [Value]) VALUES (@key, @value)").
		WillReturnError(mssqldb.Error{Number: 2627, Message: "Violation of PRIMARY KEY constraint"})
	if err := dict.Add(ctx, "001", "Caja"); !errors.Is(err, db.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	mock.ExpectQuery("SELECT COALESCE(SUM(row_count), 0) FROM sys.dm_db_partition_stats WHERE object_id = OBJECT_ID(@tableName) AND index_id < 2").
		WithArgs(sql.Named("tableName", "[E1_Accounts]")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(3)))
	if n, err := dict.Count(ctx); err != nil || n != 3 {
		t.Errorf("Expected count 3, got %d (%v)", n, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestIncrementingDictionary(t *testing.T) {
	ctx := context.Background()
	conn, mock := newMock(t)
	opts := Options{DictOptions: sqlbase.DictOptions{Conn: conn}, MemoryOptimized: true}

	mock.ExpectQuery(existsQuery).
		WithArgs(sql.Named("tableName", "E1_Balances")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	dict, err := NewIncrementingDict[string, decimal.Decimal](ctx, "E1_Balances", opts)
	if err != nil {
		t.Fatalf("failed to open dictionary: %v", err)
	}

	mock.ExpectExec("UPDATE [E1_Balances] SET [Value] = [Value] + CAST(@inc AS DECIMAL(38,10)) WHERE [Key] = @key").
		WithArgs(sql.Named("inc", "-200"), sql.Named("key", "001")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := dict.Increment(ctx, "001", decimal.NewFromInt(-200)); err != nil {
		t.Errorf("Increment failed: %v", err)
	}

	// go-mssqldb returns DECIMAL columns as text bytes
	mock.ExpectQuery("SELECT [Value] FROM [E1_Balances] WHERE [Key] = @key").
		WithArgs(sql.Named("key", "001")).
		WillReturnRows(sqlmock.NewRows([]string{"Value"}).AddRow([]byte("9800.0000000000")))
	v, err := dict.Get(ctx, "001")
	if err != nil || !v.Equal(decimal.NewFromInt(9800)) {
		t.Errorf("Expected 9800, got %s (%v)", v, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
