// Package cmd implements the command-line interface of braidwood. It provides a
// hierarchical command structure for working with single dictionaries and with the
// ledger of an enterprise, on any of the supported storage backends.
//
// The package is organized into several subpackages:
//
//   - dict: Commands for dictionary operations (add, get, range, increment, perf, etc.)
//   - ledger: Commands for accounts, transactions and closed periods of a ledger
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// The backend is selected with the persistent flags of the root command, every flag can
// also be set through a BRAIDWOOD_ prefixed environment variable or a .env file.
//
// See braidwood -help for a list of all commands.
package cmd
