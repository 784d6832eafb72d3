package repository

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/db/engines/bolt"
	"github.com/ValentinKolb/braidwood/lib/db/engines/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newMemoryRepo(t *testing.T) *Repository {
	r, err := New(Options{Implementation: db.ImplMemory})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	return r
}

func TestNew(t *testing.T) {
	if _, err := New(Options{Implementation: db.ImplSQLite}); !errors.Is(err, db.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for sqlite without connection, got %v", err)
	}
	if _, err := New(Options{Implementation: db.ImplMSSQL}); !errors.Is(err, db.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for mssql without connection, got %v", err)
	}
	if _, err := New(Options{Implementation: db.ImplBolt}); !errors.Is(err, db.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for bolt without database, got %v", err)
	}
}

func TestResolveCachesHandles(t *testing.T) {
	ctx := context.Background()
	r := newMemoryRepo(t)

	first, err := Dict[string, string](ctx, r, "E1_AccountDataByCode")
	if err != nil {
		t.Fatalf("Dict failed: %v", err)
	}
	if err := first.Add(ctx, "001", "Caja"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	second, err := Dict[string, string](ctx, r, "E1_AccountDataByCode")
	if err != nil {
		t.Fatalf("Dict failed: %v", err)
	}
	if first != second {
		t.Errorf("Expected the cached handle to be returned")
	}
	if v, err := second.Get(ctx, "001"); err != nil || v != "Caja" {
		t.Errorf("Expected Caja, got %q (%v)", v, err)
	}
}

func TestConcurrentResolution(t *testing.T) {
	ctx := context.Background()
	r := newMemoryRepo(t)

	const workers = 16
	dicts := make([]db.IncrementingDict[string, decimal.Decimal], workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dict, err := IncrementingDict[string, decimal.Decimal](ctx, r, "balances")
			if err != nil {
				t.Errorf("IncrementingDict failed: %v", err)
				return
			}
			dicts[i] = dict
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if dicts[i] != dicts[0] {
			t.Fatalf("Expected all workers to share one handle")
		}
	}
}

func TestTypeMismatch(t *testing.T) {
	ctx := context.Background()
	r := newMemoryRepo(t)

	if _, err := Dict[string, string](ctx, r, "records"); err != nil {
		t.Fatalf("Dict failed: %v", err)
	}

	tests := []struct {
		name string
		fn   func() error
	}{
		{"OtherKeyType", func() error { _, err := Dict[uuid.UUID, string](ctx, r, "records"); return err }},
		{"OtherValueType", func() error { _, err := Dict[string, int64](ctx, r, "records"); return err }},
		{"OtherCapability", func() error { _, err := IncrementingDict[string, int64](ctx, r, "records"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, db.ErrTypeMismatch) {
				t.Errorf("Expected ErrTypeMismatch, got %v", err)
			}
		})
	}
}

func TestFailedCreationIsNotCached(t *testing.T) {
	ctx := context.Background()
	r := newMemoryRepo(t)

	if _, err := IncrementingDict[string, string](ctx, r, "bad"); !errors.Is(err, db.ErrUnsupportedValueType) {
		t.Fatalf("Expected ErrUnsupportedValueType, got %v", err)
	}
	if names := r.Names(); len(names) != 0 {
		t.Errorf("Expected no resolved names, got %v", names)
	}
	if _, err := IncrementingDict[string, int32](ctx, r, "bad"); err != nil {
		t.Errorf("Expected the name to be usable after a failed creation, got %v", err)
	}
}

func TestBlankNames(t *testing.T) {
	ctx := context.Background()
	r := newMemoryRepo(t)

	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := Dict[string, string](ctx, r, name); !errors.Is(err, db.ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument for %q, got %v", name, err)
		}
		if _, err := IncrementingDict[string, int64](ctx, r, name); !errors.Is(err, db.ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument for %q, got %v", name, err)
		}
	}
	if names := r.Names(); len(names) != 0 {
		t.Errorf("Expected no resolved names, got %v", names)
	}
}

func TestUnsupportedImplementation(t *testing.T) {
	r, err := New(Options{Implementation: "cassandra"})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	if _, err := Dict[string, string](context.Background(), r, "x"); !errors.Is(err, db.ErrUnsupportedStructureKind) {
		t.Errorf("Expected ErrUnsupportedStructureKind, got %v", err)
	}
	if _, err := IncrementingDict[string, int64](context.Background(), r, "x"); !errors.Is(err, db.ErrUnsupportedStructureKind) {
		t.Errorf("Expected ErrUnsupportedStructureKind, got %v", err)
	}
}

func TestDropAndNames(t *testing.T) {
	ctx := context.Background()
	r := newMemoryRepo(t)

	for _, name := range []string{"c", "a", "b"} {
		if _, err := Dict[string, string](ctx, r, name); err != nil {
			t.Fatalf("Dict failed: %v", err)
		}
	}
	if names := r.Names(); !slices.Equal(names, []string{"a", "b", "c"}) {
		t.Errorf("Expected [a b c], got %v", names)
	}

	if err := r.Drop(ctx, "b"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if names := r.Names(); !slices.Equal(names, []string{"a", "c"}) {
		t.Errorf("Expected [a c], got %v", names)
	}
	if err := r.Drop(ctx, "b"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a dropped name, got %v", err)
	}

	// after the drop the name can be resolved with other types
	if _, err := IncrementingDict[string, int64](ctx, r, "b"); err != nil {
		t.Errorf("Expected re-resolution to succeed, got %v", err)
	}
}

func TestPersistentBackends(t *testing.T) {
	ctx := context.Background()

	sqlConn, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer sqlConn.Close()

	boltDB, err := bolt.Open(filepath.Join(t.TempDir(), "repo.bolt"), &bolt.Options{NoSync: true})
	if err != nil {
		t.Fatalf("failed to open bolt: %v", err)
	}
	defer boltDB.Close()

	backends := map[db.Implementation]Options{
		db.ImplSQLite: {Implementation: db.ImplSQLite, Conn: sqlConn},
		db.ImplBolt:   {Implementation: db.ImplBolt, Bolt: boltDB},
	}

	for impl, opts := range backends {
		t.Run(string(impl), func(t *testing.T) {
			r, err := New(opts)
			if err != nil {
				t.Fatalf("failed to create repository: %v", err)
			}

			dict, err := IncrementingDict[string, decimal.Decimal](ctx, r, "E1_AccountBalanceByCode")
			if err != nil {
				t.Fatalf("IncrementingDict failed: %v", err)
			}
			if dict.Info().Impl != impl {
				t.Errorf("Expected impl %s, got %s", impl, dict.Info().Impl)
			}
			if err := dict.Add(ctx, "001", decimal.NewFromInt(10000)); err != nil {
				t.Fatalf("Add failed: %v", err)
			}

			// a second repository on the same storage sees the data
			other, _ := New(opts)
			again, err := IncrementingDict[string, decimal.Decimal](ctx, other, "E1_AccountBalanceByCode")
			if err != nil {
				t.Fatalf("IncrementingDict failed: %v", err)
			}
			if v, err := again.Get(ctx, "001"); err != nil || !v.Equal(decimal.NewFromInt(10000)) {
				t.Errorf("Expected 10000, got %s (%v)", v, err)
			}
		})
	}
}
