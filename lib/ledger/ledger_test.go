package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/db/engines/bolt"
	"github.com/ValentinKolb/braidwood/lib/db/engines/sqlite"
	"github.com/ValentinKolb/braidwood/lib/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// repoFactory creates an empty repository on one backend
type repoFactory func(t *testing.T) *repository.Repository

var backends = map[string]repoFactory{
	"Memory": func(t *testing.T) *repository.Repository {
		r, err := repository.New(repository.Options{Implementation: db.ImplMemory})
		if err != nil {
			t.Fatalf("failed to create repository: %v", err)
		}
		return r
	},
	"SQLite": func(t *testing.T) *repository.Repository {
		conn, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
		if err != nil {
			t.Fatalf("failed to open sqlite: %v", err)
		}
		t.Cleanup(func() {
			conn.Close()
		})
		r, err := repository.New(repository.Options{Implementation: db.ImplSQLite, Conn: conn})
		if err != nil {
			t.Fatalf("failed to create repository: %v", err)
		}
		return r
	},
	"Bolt": func(t *testing.T) *repository.Repository {
		bdb, err := bolt.Open(filepath.Join(t.TempDir(), "ledger.bolt"), &bolt.Options{NoSync: true})
		if err != nil {
			t.Fatalf("failed to open bolt: %v", err)
		}
		t.Cleanup(func() {
			bdb.Close()
		})
		r, err := repository.New(repository.Options{Implementation: db.ImplBolt, Bolt: bdb})
		if err != nil {
			t.Fatalf("failed to create repository: %v", err)
		}
		return r
	},
}

// newTestLedger opens the ledger of "testEnterprise" with a clock that advances one minute per call
func newTestLedger(t *testing.T, factory repoFactory) *Ledger {
	l, err := New(context.Background(), factory(t), "testEnterprise")
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	clock := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return l
}

func addAccount(t *testing.T, l *Ledger, code, name string, nature Nature, initial int64) {
	err := l.AddAccount(context.Background(), NewAccount{
		Code:           code,
		Name:           name,
		Nature:         nature,
		InitialBalance: decimal.NewFromInt(initial),
	})
	if err != nil {
		t.Fatalf("AddAccount(%s) failed: %v", code, err)
	}
}

func entries(pairs ...any) []EntryInput {
	var res []EntryInput
	for i := 0; i+1 < len(pairs); i += 2 {
		res = append(res, EntryInput{AccountCode: pairs[i].(string), Value: decimal.NewFromInt(int64(pairs[i+1].(int)))})
	}
	return res
}

func TestLedger(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("AddAccount", func(t *testing.T) {
				testAddAccount(t, newTestLedger(t, factory))
			})
			t.Run("AddTransaction", func(t *testing.T) {
				testAddTransaction(t, newTestLedger(t, factory))
			})
			t.Run("RejectedTransactions", func(t *testing.T) {
				testRejectedTransactions(t, newTestLedger(t, factory))
			})
			t.Run("Periods", func(t *testing.T) {
				testPeriods(t, newTestLedger(t, factory))
			})
		})
	}
}

func testAddAccount(t *testing.T, l *Ledger) {
	ctx := context.Background()

	addAccount(t, l, "111", "Bancos", Debit, 10000)

	err := l.AddAccount(ctx, NewAccount{Code: "111", Name: "Bancos", Nature: Debit, InitialBalance: decimal.NewFromInt(10000)})
	if !errors.Is(err, ErrAccountExists) {
		t.Errorf("Expected ErrAccountExists, got %v", err)
	}
	if err := l.AddAccount(ctx, NewAccount{Code: "  "}); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for blank code, got %v", err)
	}

	addAccount(t, l, "021", "Proveedores", Credit, 0)

	accounts, err := l.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 2 || accounts[0].Code != "021" || accounts[1].Code != "111" {
		t.Fatalf("Expected accounts 021, 111 in order, got %+v", accounts)
	}
	if accounts[1].Name != "Bancos" || accounts[1].Nature != Debit {
		t.Errorf("Unexpected account data %+v", accounts[1])
	}

	balance, err := l.GetBalance(ctx, "111")
	if err != nil || !balance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected balance 10000, got %s (%v)", balance, err)
	}
	if _, err := l.GetBalance(ctx, "999"); !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("Expected ErrUnknownAccount, got %v", err)
	}
}

func testAddTransaction(t *testing.T, l *Ledger) {
	ctx := context.Background()

	addAccount(t, l, "001", "Bancos", Debit, 10000)
	addAccount(t, l, "021", "Proveedores", Credit, 10000)

	id, err := l.AddTransaction(ctx, NewTransaction{Holder: "holder", Entries: entries("001", 200, "021", -200)})
	if err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}

	if b, _ := l.GetBalance(ctx, "001"); !b.Equal(decimal.NewFromInt(10200)) {
		t.Errorf("Expected balance 10200 for 001, got %s", b)
	}
	if b, _ := l.GetBalance(ctx, "021"); !b.Equal(decimal.NewFromInt(9800)) {
		t.Errorf("Expected balance 9800 for 021, got %s", b)
	}

	tx, err := l.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if tx.ID != id || tx.Holder != "holder" || len(tx.Entries) != 2 {
		t.Errorf("Unexpected transaction %+v", tx)
	}
	if !tx.Total.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected total 200, got %s", tx.Total)
	}

	// several entries on one account are aggregated
	if _, err := l.AddTransaction(ctx, NewTransaction{Entries: entries("001", -50, "001", -25, "021", 75)}); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	if b, _ := l.GetBalance(ctx, "001"); !b.Equal(decimal.NewFromInt(10125)) {
		t.Errorf("Expected balance 10125 for 001, got %s", b)
	}

	records, err := l.ListEntries(ctx, "001")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 entries for 001, got %d", len(records))
	}
	if records[0].TransactionID != id || !records[0].Value.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected the first entry to belong to %s, got %+v", id, records[0])
	}
	if !records[1].Value.Equal(decimal.NewFromInt(-50)) || !records[2].Value.Equal(decimal.NewFromInt(-25)) {
		t.Errorf("Expected the entries of one transaction in booking order, got %s and %s", records[1].Value, records[2].Value)
	}
	if _, err := l.ListEntries(ctx, "999"); !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("Expected ErrUnknownAccount, got %v", err)
	}

	if _, err := l.GetTransaction(ctx, uuid.New()); !errors.Is(err, ErrUnknownTransaction) {
		t.Errorf("Expected ErrUnknownTransaction, got %v", err)
	}
}

func testRejectedTransactions(t *testing.T, l *Ledger) {
	ctx := context.Background()

	addAccount(t, l, "111", "Bancos", Debit, 10000)

	tests := []struct {
		name     string
		tx       NewTransaction
		expected error
	}{
		{"Empty", NewTransaction{Holder: "holder"}, ErrEmptyTransaction},
		{"OneEntry", NewTransaction{Entries: entries("001", 200)}, ErrUnbalanced},
		{"Unbalanced", NewTransaction{Entries: entries("111", 200, "111", -100)}, ErrUnbalanced},
		{"UnknownAccount", NewTransaction{Entries: entries("111", 200, "021", -200)}, ErrUnknownAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.AddTransaction(ctx, tt.tx); !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}

	// nothing was booked
	if b, _ := l.GetBalance(ctx, "111"); !b.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected balance 10000, got %s", b)
	}
	if records, _ := l.ListEntries(ctx, "111"); len(records) != 0 {
		t.Errorf("Expected no entries, got %d", len(records))
	}
}

func testPeriods(t *testing.T, l *Ledger) {
	ctx := context.Background()

	addAccount(t, l, "001", "Bancos", Debit, 10000)
	addAccount(t, l, "021", "Proveedores", Credit, 10000)

	first, err := l.ClosePeriod(ctx)
	if err != nil {
		t.Fatalf("ClosePeriod failed: %v", err)
	}
	if !first.Balances["001"].Equal(decimal.NewFromInt(10000)) || len(first.Balances) != 2 {
		t.Errorf("Unexpected snapshot %+v", first.Balances)
	}

	if _, err := l.AddTransaction(ctx, NewTransaction{Entries: entries("001", 200, "021", -200)}); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}

	second, err := l.ClosePeriod(ctx)
	if err != nil {
		t.Fatalf("ClosePeriod failed: %v", err)
	}
	if !second.Balances["021"].Equal(decimal.NewFromInt(9800)) {
		t.Errorf("Expected 9800 for 021 in the second snapshot, got %s", second.Balances["021"])
	}

	third, err := l.ClosePeriod(ctx)
	if err != nil {
		t.Fatalf("ClosePeriod failed: %v", err)
	}

	ids := func(periods []PeriodBalance) []uuid.UUID {
		res := make([]uuid.UUID, len(periods))
		for i, p := range periods {
			res[i] = p.ID
		}
		return res
	}
	tests := []struct {
		name      string
		since, to *time.Time
		expected  []uuid.UUID
	}{
		{"Open", nil, nil, []uuid.UUID{first.ID, second.ID, third.ID}},
		{"Since", &second.ClosedAt, nil, []uuid.UUID{second.ID, third.ID}},
		{"To", nil, &second.ClosedAt, []uuid.UUID{first.ID, second.ID}},
		{"Exact", &second.ClosedAt, &second.ClosedAt, []uuid.UUID{second.ID}},
		{"Reversed", &third.ClosedAt, &first.ClosedAt, []uuid.UUID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods, err := l.GetBalances(ctx, tt.since, tt.to)
			if err != nil {
				t.Fatalf("GetBalances failed: %v", err)
			}
			got := ids(periods)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Expected %v, got %v", tt.expected, got)
					break
				}
			}
		})
	}
}

func TestNew(t *testing.T) {
	if _, err := New(context.Background(), nil, "E1"); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for nil repository, got %v", err)
	}
	r, _ := repository.New(repository.Options{Implementation: db.ImplMemory})
	if _, err := New(context.Background(), r, " "); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for blank enterprise id, got %v", err)
	}
}

func TestEntriesKeepBookingOrder(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, backends["Memory"])
	frozen := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return frozen }

	addAccount(t, l, "001", "Bancos", Debit, 0)
	addAccount(t, l, "021", "Proveedores", Credit, 0)

	var booked []int64
	for i := 1; i <= 50; i++ {
		if _, err := l.AddTransaction(ctx, NewTransaction{Entries: entries("001", i, "021", -i)}); err != nil {
			t.Fatalf("AddTransaction failed: %v", err)
		}
		booked = append(booked, int64(i))
	}

	records, err := l.ListEntries(ctx, "001")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(records) != len(booked) {
		t.Fatalf("Expected %d entries, got %d", len(booked), len(records))
	}
	for i, r := range records {
		if !r.Value.Equal(decimal.NewFromInt(booked[i])) {
			t.Fatalf("Expected entry %d to be %d, got %s", i, booked[i], r.Value)
		}
	}
}

func TestIDSource(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("SameMillisecond", func(t *testing.T) {
		var ids idSource
		prev := uuid.Nil
		for i := 0; i < 3*maxSeq; i++ {
			id, err := ids.next(at)
			if err != nil {
				t.Fatal(err)
			}
			if id.Version() != 7 || id.Variant() != uuid.RFC4122 {
				t.Fatalf("Expected a RFC 4122 version 7 id, got %s", id)
			}
			if string(id[:]) <= string(prev[:]) {
				t.Fatalf("Expected %s > %s at call %d", id, prev, i)
			}
			prev = id
		}
	})

	t.Run("ClockStepsBack", func(t *testing.T) {
		var ids idSource
		first, _ := ids.next(at)
		second, _ := ids.next(at.Add(-time.Second))
		if string(second[:]) <= string(first[:]) {
			t.Errorf("Expected %s > %s", second, first)
		}
	})

	t.Run("NewMillisecondResetsSequence", func(t *testing.T) {
		var ids idSource
		ids.next(at)
		ids.next(at)
		id, _ := ids.next(at.Add(time.Millisecond))
		if id[6] != 0x70 || id[7] != 0 {
			t.Errorf("Expected sequence 0, got %x%x", id[6]&0x0f, id[7])
		}
		if lower := lowerV7(at.Add(time.Millisecond)); string(id[:6]) != string(lower[:6]) {
			t.Errorf("Expected the timestamp of the new millisecond, got %s", id)
		}
	})
}

func TestIDBounds(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids idSource
	id, err := ids.next(at)
	if err != nil {
		t.Fatal(err)
	}
	if id.Version() != 7 || id.Variant() != uuid.RFC4122 {
		t.Errorf("Expected a RFC 4122 version 7 id, got %s", id)
	}

	lower, upper := lowerV7(at), upperV7(at)
	if lower.Version() != 7 || upper.Version() != 7 {
		t.Errorf("Expected bounds of version 7, got %s and %s", lower, upper)
	}
	if string(lower[:]) > string(id[:]) || string(id[:]) > string(upper[:]) {
		t.Errorf("Expected %s <= %s <= %s", lower, id, upper)
	}

	next := lowerV7(at.Add(time.Millisecond))
	if string(upper[:]) >= string(next[:]) {
		t.Errorf("Expected the bounds of consecutive milliseconds not to overlap")
	}
}
