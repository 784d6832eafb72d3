package formatter

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// testFormatters is a map of formatter name to factory function
var testFormatters = map[string]func() Formatter{
	"Msgpack": NewMsgpackFormatter,
	"JSON":    NewJSONFormatter,
	"GOB":     NewGOBFormatter,
}

// testRecord mirrors the shape of the values the ledger stores
type testRecord struct {
	ID      uuid.UUID
	Code    string
	Amount  decimal.Decimal
	Time    time.Time
	Labels  map[string]string
	Entries []int64
}

func TestFormatterRecord(t *testing.T) {
	record := testRecord{
		ID:      uuid.MustParse("0190a3c4-6e6a-7b3e-8f5d-2b1c9a8e7f60"),
		Code:    "001",
		Amount:  decimal.RequireFromString("-1234.5600"),
		Time:    time.Date(2024, 7, 1, 12, 30, 0, 0, time.UTC),
		Labels:  map[string]string{"b": "2", "a": "1"},
		Entries: []int64{1, -2, 3},
	}

	for name, factory := range testFormatters {
		t.Run(name, func(t *testing.T) {
			f := factory()

			data, err := Encode(f, record)
			if err != nil {
				t.Fatalf("Failed to encode record: %v", err)
			}

			result, err := Decode[testRecord](f, data)
			if err != nil {
				t.Fatalf("Failed to decode record: %v", err)
			}

			if result.ID != record.ID {
				t.Errorf("ID mismatch: expected %s, got %s", record.ID, result.ID)
			}
			if result.Code != record.Code {
				t.Errorf("Code mismatch: expected %s, got %s", record.Code, result.Code)
			}
			if !result.Amount.Equal(record.Amount) {
				t.Errorf("Amount mismatch: expected %s, got %s", record.Amount, result.Amount)
			}
			if !result.Time.Equal(record.Time) {
				t.Errorf("Time mismatch: expected %s, got %s", record.Time, result.Time)
			}
			if len(result.Labels) != 2 || result.Labels["a"] != "1" || result.Labels["b"] != "2" {
				t.Errorf("Labels mismatch: got %v", result.Labels)
			}
			if len(result.Entries) != 3 || result.Entries[1] != -2 {
				t.Errorf("Entries mismatch: got %v", result.Entries)
			}
		})
	}
}

func TestFormatterScalars(t *testing.T) {
	for name, factory := range testFormatters {
		t.Run(name, func(t *testing.T) {
			f := factory()

			data, err := f.ToStorage("mundo")
			if err != nil {
				t.Fatalf("Failed to encode string: %v", err)
			}
			var s string
			if err := f.ToObject(data, &s); err != nil || s != "mundo" {
				t.Errorf("Expected mundo, got (%q, %v)", s, err)
			}

			data, err = f.ToStorage("")
			if err != nil {
				t.Fatalf("Failed to encode empty string: %v", err)
			}
			s = "not empty"
			if err := f.ToObject(data, &s); err != nil || s != "" {
				t.Errorf("Expected empty string, got (%q, %v)", s, err)
			}
		})
	}
}

func TestFormatterInvalidData(t *testing.T) {
	for name, factory := range testFormatters {
		t.Run(name, func(t *testing.T) {
			var record testRecord
			if err := factory().ToObject([]byte{0xc1, 0x00, 0xff}, &record); err == nil {
				t.Errorf("Expected an error decoding garbage")
			}
		})
	}
}

func TestMsgpackDeterministicMaps(t *testing.T) {
	f := NewMsgpackFormatter()
	m := map[string]int{"z": 1, "a": 2, "m": 3, "b": 4, "y": 5}

	first, err := f.ToStorage(m)
	if err != nil {
		t.Fatalf("Failed to encode map: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, _ := f.ToStorage(m)
		if !bytes.Equal(first, again) {
			t.Fatalf("Encoding of equal maps differs")
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range Names {
		f, err := ByName(name)
		if err != nil {
			t.Errorf("ByName(%s) failed: %v", name, err)
			continue
		}
		if f.Name() != name {
			t.Errorf("Expected formatter %s, got %s", name, f.Name())
		}
	}

	if f, err := ByName(""); err != nil || f.Name() != Default().Name() {
		t.Errorf("Expected the default formatter for an empty name")
	}

	if _, err := ByName("protobuf"); err == nil {
		t.Errorf("Expected an error for an unknown formatter")
	}
}
