package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Nature of an account
type Nature uint8

const (
	Debit Nature = iota + 1
	Credit
)

func (n Nature) String() string {
	switch n {
	case Debit:
		return "debit"
	case Credit:
		return "credit"
	default:
		return "unknown"
	}
}

// ParseNature parses "debit" or "credit" (case-insensitive)
func ParseNature(s string) (Nature, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit":
		return Debit, nil
	case "credit":
		return Credit, nil
	default:
		return 0, fmt.Errorf("invalid account nature %q", s)
	}
}

// --------------------------------------------------------------------------
// Input Types
// --------------------------------------------------------------------------

// NewAccount describes an account to be created
type NewAccount struct {
	Code           string
	Name           string
	Nature         Nature
	InitialBalance decimal.Decimal
}

// EntryInput is one line of a new transaction. Positive values are debits, negative values credits.
type EntryInput struct {
	AccountCode string
	Value       decimal.Decimal
}

// NewTransaction describes a transaction to be booked
type NewTransaction struct {
	Holder  string
	Entries []EntryInput
}

// --------------------------------------------------------------------------
// Stored Types
// --------------------------------------------------------------------------

// AccountData is stored per account code
type AccountData struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Nature Nature `json:"nature"`
}

// TransactionEntry is one line of a stored transaction
type TransactionEntry struct {
	EntryID     uuid.UUID       `json:"entry_id"`
	AccountCode string          `json:"account_code"`
	Value       decimal.Decimal `json:"value"`
}

// TransactionData is stored per transaction id
type TransactionData struct {
	ID      uuid.UUID          `json:"id"`
	Time    time.Time          `json:"time"`
	Holder  string             `json:"holder"`
	Total   decimal.Decimal    `json:"total"`
	Entries []TransactionEntry `json:"entries"`
}

// AccountingEntry is stored in the log of an account, keyed by the entry id
type AccountingEntry struct {
	EntryID       uuid.UUID       `json:"entry_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Time          time.Time       `json:"time"`
	AccountCode   string          `json:"account_code"`
	Value         decimal.Decimal `json:"value"`
}

// PeriodBalance is a snapshot of all account balances taken when a period is closed
type PeriodBalance struct {
	ID       uuid.UUID                  `json:"id"`
	ClosedAt time.Time                  `json:"closed_at"`
	Balances map[string]decimal.Decimal `json:"balances"`
}
