package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/db/engines/sqlbase"
	dbtesting "github.com/ValentinKolb/braidwood/lib/db/testing"
	"github.com/ValentinKolb/braidwood/lib/formatter"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// openTestDB opens a fresh database file that is removed with the test
func openTestDB(t testing.TB) *sql.DB {
	conn, err := Open(context.Background(), filepath.Join(t.TempDir(), "braidwood.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
	})
	return conn
}

func newTestDict[K comparable, V any](t testing.TB, name string) db.SortedDict[K, V] {
	dict, err := NewSortedDict[K, V](context.Background(), name, sqlbase.DictOptions{Conn: openTestDB(t)})
	if err != nil {
		t.Fatalf("failed to create dictionary: %v", err)
	}
	return dict
}

func newTestIncDict[V any](t testing.TB, name string) db.IncrementingDict[string, V] {
	dict, err := NewIncrementingDict[string, V](context.Background(), name, sqlbase.DictOptions{Conn: openTestDB(t)})
	if err != nil {
		t.Fatalf("failed to create dictionary: %v", err)
	}
	return dict
}

func Test(t *testing.T) {
	dbtesting.RunSortedDictTests(t, "SQLite", newTestDict[string, string])

	dbtesting.RunOrderingTests(t, "SQLite", dbtesting.OrderingFactories{
		Int64:   newTestDict[int64, string],
		Float64: newTestDict[float64, string],
		UUID:    newTestDict[uuid.UUID, string],
	})

	dbtesting.RunIncrementingDictTests(t, "SQLite", dbtesting.IncrementingFactories{
		Decimal: newTestIncDict[decimal.Decimal],
		Int64:   newTestIncDict[int64],
		Float64: newTestIncDict[float64],
		Int32:   newTestIncDict[int32],
	})

	conn := openTestDB(t)
	dbtesting.RunNameTests(t, "SQLite", func(name string) error {
		dict, err := NewSortedDict[string, string](context.Background(), name, sqlbase.DictOptions{Conn: conn})
		if err != nil {
			return err
		}
		return dict.Drop(context.Background())
	})
}

func TestJSONFormatter(t *testing.T) {
	dbtesting.RunSortedDictTests(t, "SQLiteJSON", func(t testing.TB, name string) db.SortedDict[string, string] {
		dict, err := NewSortedDict[string, string](context.Background(), name, sqlbase.DictOptions{
			Conn:      openTestDB(t),
			Formatter: formatter.NewJSONFormatter(),
		})
		if err != nil {
			t.Fatalf("failed to create dictionary: %v", err)
		}
		return dict
	})
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)

	first, err := NewSortedDict[string, string](ctx, "persisted", sqlbase.DictOptions{Conn: conn})
	if err != nil {
		t.Fatalf("failed to create dictionary: %v", err)
	}
	if err := first.Add(ctx, "hola", "mundo"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// the table exists now and must not be recreated
	second, err := NewSortedDict[string, string](ctx, "persisted", sqlbase.DictOptions{Conn: conn})
	if err != nil {
		t.Fatalf("failed to reopen dictionary: %v", err)
	}
	if v, err := second.Get(ctx, "hola"); err != nil || v != "mundo" {
		t.Errorf("Expected mundo, got %q (%v)", v, err)
	}
}

func TestDuplicateKeyKeepsNativeError(t *testing.T) {
	ctx := context.Background()
	dict := newTestDict[string, string](t, "dups")

	if err := dict.Add(ctx, "a", "1"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	err := dict.Add(ctx, "a", "2")
	if !errors.Is(err, db.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || !IsDuplicateKey(dbErr.Err) {
		t.Errorf("Expected the sqlite error as cause, got %v", err)
	}
}

func TestQuotedNames(t *testing.T) {
	ctx := context.Background()
	dict := newTestDict[int32, string](t, `E1_"quoted" name`)

	if err := dict.Add(ctx, -5, "x"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if n, err := dict.Count(ctx); err != nil || n != 1 {
		t.Errorf("Expected count 1, got %d (%v)", n, err)
	}
	if err := dict.Drop(ctx); err != nil {
		t.Errorf("Drop failed: %v", err)
	}
}

func TestSmallIntegerKinds(t *testing.T) {
	ctx := context.Background()
	dict, err := NewIncrementingDict[float32, uint8](ctx, "small", sqlbase.DictOptions{Conn: openTestDB(t)})
	if err != nil {
		t.Fatalf("failed to create dictionary: %v", err)
	}

	if err := dict.Add(ctx, 1.5, 7); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := dict.Increment(ctx, 1.5, 3); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if v, err := dict.Get(ctx, 1.5); err != nil || v != 10 {
		t.Errorf("Expected 10, got %d (%v)", v, err)
	}
	if dict.NumericKind() != db.NumUint8 {
		t.Errorf("Expected numeric kind uint8, got %s", dict.NumericKind())
	}
}

func TestTextKeyLength(t *testing.T) {
	ctx := context.Background()
	dict := newTestDict[string, string](t, "long_keys")

	if err := dict.Add(ctx, strings.Repeat("k", 512), "fits"); err != nil {
		t.Errorf("Expected a key of 512 characters to be accepted, got %v", err)
	}
	if err := dict.Add(ctx, strings.Repeat("k", 513), "too long"); !errors.Is(err, db.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
	if n, err := dict.Count(ctx); err != nil || n != 1 {
		t.Errorf("Expected count 1, got %d (%v)", n, err)
	}
}

func TestUint64Unsupported(t *testing.T) {
	_, err := NewIncrementingDict[string, uint64](context.Background(), "wide", sqlbase.DictOptions{Conn: openTestDB(t)})
	if !errors.Is(err, db.ErrUnsupportedValueType) {
		t.Errorf("Expected ErrUnsupportedValueType, got %v", err)
	}
}

func TestInMemoryDatabase(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(ctx, MemoryPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer conn.Close()

	dict, err := NewSortedDict[string, string](ctx, "mem", sqlbase.DictOptions{Conn: conn})
	if err != nil {
		t.Fatalf("failed to create dictionary: %v", err)
	}
	if err := dict.Add(ctx, "hola", "mundo"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if ok, err := dict.ContainsKey(ctx, "hola"); err != nil || !ok {
		t.Errorf("Expected hola to exist (%v)", err)
	}
}

func Benchmark(b *testing.B) {
	dbtesting.RunSortedDictBenchmarks(b, "SQLite", newTestDict[string, string], newTestIncDict[decimal.Decimal])
}
