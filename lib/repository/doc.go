// Package repository resolves dictionaries by name on one configured backend.
//
// A Repository caches every resolved handle, so a name is created on the backend at most
// once and later resolutions return the same instance. A name is bound to the capability
// (plain or incrementing) and the key and value types of its first resolution, resolving it
// differently fails with db.ErrTypeMismatch.
//
// Example usage:
//
//	repo, err := repository.New(repository.Options{Implementation: db.ImplSQLite, Conn: conn})
//	if err != nil {
//		return err
//	}
//	balances, err := repository.IncrementingDict[string, decimal.Decimal](ctx, repo, "E1_AccountBalanceByCode")
package repository
