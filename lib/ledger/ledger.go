package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ValentinKolb/braidwood/lib/common"
	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var log = common.NewLogger("ledger")

// --------------------------------------------------------------------------
// Ledger
// --------------------------------------------------------------------------

// Ledger is the double-entry accounting of one enterprise. All of its data lives in
// dictionaries of the repository whose names are prefixed with the enterprise id.
//
// Note: Operations touching several dictionaries are not transactional. If a backend
// fails in the middle of AddTransaction, the writes made before the failure stay applied.
type Ledger struct {
	repo         *repository.Repository
	enterpriseID string
	now          func() time.Time
	ids          idSource

	accounts     db.SortedDict[string, AccountData]
	balances     db.IncrementingDict[string, decimal.Decimal]
	periods      db.SortedDict[uuid.UUID, PeriodBalance]
	transactions db.SortedDict[uuid.UUID, TransactionData]
}

// New opens the ledger of enterpriseID, creating its dictionaries if needed.
func New(ctx context.Context, repo *repository.Repository, enterpriseID string) (*Ledger, error) {
	if repo == nil {
		return nil, newError(KindInvalid, "repository is required")
	}
	if strings.TrimSpace(enterpriseID) == "" {
		return nil, newError(KindInvalid, "enterprise id must not be blank")
	}

	l := &Ledger{
		repo:         repo,
		enterpriseID: enterpriseID,
		now:          time.Now,
	}

	var err error
	if l.accounts, err = repository.Dict[string, AccountData](ctx, repo, enterpriseID+"_AccountDataByCode"); err != nil {
		return nil, err
	}
	if l.balances, err = repository.IncrementingDict[string, decimal.Decimal](ctx, repo, enterpriseID+"_AccountBalanceByCode"); err != nil {
		return nil, err
	}
	if l.periods, err = repository.Dict[uuid.UUID, PeriodBalance](ctx, repo, enterpriseID+"_Balances"); err != nil {
		return nil, err
	}
	if l.transactions, err = repository.Dict[uuid.UUID, TransactionData](ctx, repo, enterpriseID+"_TransactionsById"); err != nil {
		return nil, err
	}
	return l, nil
}

// EnterpriseID returns the id the ledger was opened for
func (l *Ledger) EnterpriseID() string {
	return l.enterpriseID
}

// records returns the entry log of an account
func (l *Ledger) records(ctx context.Context, code string) (db.SortedDict[uuid.UUID, AccountingEntry], error) {
	return repository.Dict[uuid.UUID, AccountingEntry](ctx, l.repo, l.enterpriseID+"_AccountRecords_"+code)
}

// --------------------------------------------------------------------------
// Accounts
// --------------------------------------------------------------------------

// AddAccount creates an account with its initial balance.
func (l *Ledger) AddAccount(ctx context.Context, account NewAccount) error {
	if strings.TrimSpace(account.Code) == "" {
		return newError(KindInvalid, "account code must not be blank")
	}

	if exists, err := l.accounts.ContainsKey(ctx, account.Code); err != nil {
		return err
	} else if exists {
		return newError(KindAccountExists, account.Code)
	}
	if exists, err := l.balances.ContainsKey(ctx, account.Code); err != nil {
		return err
	} else if exists {
		return newError(KindAccountExists, account.Code)
	}

	data := AccountData{Code: account.Code, Name: account.Name, Nature: account.Nature}
	if err := l.accounts.Add(ctx, account.Code, data); err != nil {
		if errors.Is(err, db.ErrDuplicateKey) {
			return newError(KindAccountExists, account.Code)
		}
		return err
	}
	if err := l.balances.Add(ctx, account.Code, account.InitialBalance); err != nil {
		if errors.Is(err, db.ErrDuplicateKey) {
			return newError(KindAccountExists, account.Code)
		}
		return err
	}

	log.Infof("[%s] added account %s (%s, %s) with balance %s", l.enterpriseID, account.Code, account.Name, account.Nature, account.InitialBalance)
	return nil
}

// ListAccounts returns all accounts in ascending order of their code.
func (l *Ledger) ListAccounts(ctx context.Context) ([]AccountData, error) {
	entries, err := db.Collect(l.accounts.Values(ctx))
	if err != nil {
		return nil, err
	}
	accounts := make([]AccountData, len(entries))
	for i, e := range entries {
		accounts[i] = e.Value
	}
	return accounts, nil
}

// GetBalance returns the current balance of an account.
func (l *Ledger) GetBalance(ctx context.Context, code string) (decimal.Decimal, error) {
	balance, ok, err := l.balances.TryGet(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, newError(KindUnknownAccount, code)
	}
	return balance, nil
}

// ListEntries returns the entry log of an account in booking order.
func (l *Ledger) ListEntries(ctx context.Context, code string) ([]AccountingEntry, error) {
	if exists, err := l.accounts.ContainsKey(ctx, code); err != nil {
		return nil, err
	} else if !exists {
		return nil, newError(KindUnknownAccount, code)
	}

	records, err := l.records(ctx, code)
	if err != nil {
		return nil, err
	}
	entries, err := db.Collect(records.Values(ctx))
	if err != nil {
		return nil, err
	}
	res := make([]AccountingEntry, len(entries))
	for i, e := range entries {
		res[i] = e.Value
	}
	return res, nil
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

// AddTransaction books a balanced transaction and returns its id.
// The entries must not be empty, sum up to zero and reference existing accounts.
func (l *Ledger) AddTransaction(ctx context.Context, tx NewTransaction) (uuid.UUID, error) {
	if len(tx.Entries) == 0 {
		return uuid.Nil, newError(KindEmptyTransaction, "")
	}

	sum := decimal.Zero
	for _, e := range tx.Entries {
		sum = sum.Add(e.Value)
	}
	if !sum.IsZero() {
		return uuid.Nil, newError(KindUnbalanced, "entries sum up to "+sum.String())
	}

	for _, e := range tx.Entries {
		exists, err := l.accounts.ContainsKey(ctx, e.AccountCode)
		if err != nil {
			return uuid.Nil, err
		}
		if !exists {
			return uuid.Nil, newError(KindUnknownAccount, e.AccountCode)
		}
	}

	now := l.now()
	txID, err := l.ids.next(now)
	if err != nil {
		return uuid.Nil, err
	}

	data := TransactionData{
		ID:      txID,
		Time:    now,
		Holder:  tx.Holder,
		Total:   decimal.Zero,
		Entries: make([]TransactionEntry, 0, len(tx.Entries)),
	}
	deltas := make(map[string]decimal.Decimal, len(tx.Entries))

	for _, e := range tx.Entries {
		entryID, err := l.ids.next(now)
		if err != nil {
			return uuid.Nil, err
		}

		if e.Value.IsPositive() {
			data.Total = data.Total.Add(e.Value)
		}
		data.Entries = append(data.Entries, TransactionEntry{
			EntryID:     entryID,
			AccountCode: e.AccountCode,
			Value:       e.Value,
		})

		records, err := l.records(ctx, e.AccountCode)
		if err != nil {
			return uuid.Nil, err
		}
		err = records.Add(ctx, entryID, AccountingEntry{
			EntryID:       entryID,
			TransactionID: txID,
			Time:          now,
			AccountCode:   e.AccountCode,
			Value:         e.Value,
		})
		if err != nil {
			return uuid.Nil, err
		}

		deltas[e.AccountCode] = deltas[e.AccountCode].Add(e.Value)
	}

	if err := l.balances.IncrementMany(ctx, deltas); err != nil {
		return uuid.Nil, err
	}
	if err := l.transactions.Add(ctx, txID, data); err != nil {
		return uuid.Nil, err
	}

	log.Infof("[%s] booked transaction %s with %d entries (total %s)", l.enterpriseID, txID, len(data.Entries), data.Total)
	return txID, nil
}

// GetTransaction returns a booked transaction.
func (l *Ledger) GetTransaction(ctx context.Context, id uuid.UUID) (TransactionData, error) {
	data, ok, err := l.transactions.TryGet(ctx, id)
	if err != nil {
		return data, err
	}
	if !ok {
		return data, newError(KindUnknownTransaction, id.String())
	}
	return data, nil
}

// --------------------------------------------------------------------------
// Periods
// --------------------------------------------------------------------------

// ClosePeriod stores a snapshot of the balances of all accounts.
func (l *Ledger) ClosePeriod(ctx context.Context) (PeriodBalance, error) {
	// drain first, some backends hold a cursor while iterating
	entries, err := db.Collect(l.balances.All(ctx))
	if err != nil {
		return PeriodBalance{}, err
	}

	now := l.now()
	id, err := l.ids.next(now)
	if err != nil {
		return PeriodBalance{}, err
	}

	period := PeriodBalance{
		ID:       id,
		ClosedAt: now,
		Balances: make(map[string]decimal.Decimal, len(entries)),
	}
	for _, e := range entries {
		period.Balances[e.Key] = e.Value
	}

	if err := l.periods.Add(ctx, id, period); err != nil {
		return PeriodBalance{}, err
	}

	log.Infof("[%s] closed period %s with %d balances", l.enterpriseID, id, len(period.Balances))
	return period, nil
}

// GetBalances returns the period snapshots closed within [since, to] in closing order.
// A nil bound leaves that side of the window open.
func (l *Ledger) GetBalances(ctx context.Context, since, to *time.Time) ([]PeriodBalance, error) {
	from := uuid.Nil
	if since != nil {
		from = lowerV7(*since)
	}
	until := maxUUID()
	if to != nil {
		until = upperV7(*to)
	}

	entries, err := db.Collect(l.periods.Range(ctx, from, until))
	if err != nil {
		return nil, err
	}
	res := make([]PeriodBalance, len(entries))
	for i, e := range entries {
		res[i] = e.Value
	}
	return res, nil
}
