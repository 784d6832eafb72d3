// Package ledger implements the double-entry accounting of an enterprise on top of
// the named dictionaries of a repository.
//
// For an enterprise id E the ledger uses the dictionaries:
//
//	E_AccountDataByCode        account code -> AccountData
//	E_AccountBalanceByCode     account code -> current balance (incrementing)
//	E_Balances                 period id    -> PeriodBalance
//	E_TransactionsById         transaction  -> TransactionData
//	E_AccountRecords_<code>    entry id     -> AccountingEntry, one log per account
//
// Transactions must be balanced: the values of their entries sum up to zero, positive
// values are debits and negative values credits. Balances are updated through the
// increments of the incrementing dictionary.
package ledger
