package ledger

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ValentinKolb/braidwood/lib/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	accountAddCmd = &cobra.Command{
		Use:   "add [code] [name] [debit|credit] [initial-balance]",
		Short: "Creates an account",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			nature, err := ledger.ParseNature(args[2])
			if err != nil {
				return err
			}
			balance := decimal.Zero
			if len(args) == 4 {
				if balance, err = decimal.NewFromString(args[3]); err != nil {
					return fmt.Errorf("initial balance must be a number: %w", err)
				}
			}
			err = books.AddAccount(cmd.Context(), ledger.NewAccount{
				Code:           args[0],
				Name:           args[1],
				Nature:         nature,
				InitialBalance: balance,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "account added successfully")
			return nil
		},
	}
	accountListCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all accounts with their balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := books.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range accounts {
				balance, err := books.GetBalance(cmd.Context(), a.Code)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "code=%s, name=%s, nature=%s, balance=%s\n", a.Code, a.Name, a.Nature, balance)
			}
			return nil
		},
	}
	balanceCmd = &cobra.Command{
		Use:   "balance [code]",
		Short: "Prints the current balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := books.GetBalance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "code=%s, balance=%s\n", args[0], balance)
			return nil
		},
	}
	entriesCmd = &cobra.Command{
		Use:   "entries [code]",
		Short: "Lists the entries booked on an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := books.ListEntries(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "entry=%s, tx=%s, time=%s, value=%s\n", e.EntryID, e.TransactionID, e.Time.Format(time.RFC3339), e.Value)
			}
			return nil
		},
	}
	txAddCmd = &cobra.Command{
		Use:   "add [holder] [code=value]...",
		Short: "Books a transaction, the values must sum up to zero",
		Long:  "Books a transaction. Every entry is given as code=value, positive values are debits and negative values credits.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := parseEntries(args[1:])
			if err != nil {
				return err
			}
			id, err := books.AddTransaction(cmd.Context(), ledger.NewTransaction{
				Holder:  args[0],
				Entries: entries,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tx=%s\n", id)
			return nil
		},
	}
	txGetCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Prints a booked transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("id must be a uuid: %w", err)
			}
			tx, err := books.GetTransaction(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tx=%s, time=%s, holder=%s, total=%s\n", tx.ID, tx.Time.Format(time.RFC3339), tx.Holder, tx.Total)
			for _, e := range tx.Entries {
				fmt.Fprintf(out, "  entry=%s, code=%s, value=%s\n", e.EntryID, e.AccountCode, e.Value)
			}
			return nil
		},
	}
	closePeriodCmd = &cobra.Command{
		Use:   "close-period",
		Short: "Stores a snapshot of the balances of all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := books.ClosePeriod(cmd.Context())
			if err != nil {
				return err
			}
			printPeriod(cmd.OutOrStdout(), period)
			return nil
		},
	}
	balancesCmd = &cobra.Command{
		Use:   "balances",
		Short: "Lists the closed periods, optionally within --since and --to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			since, err := parseTimeFlag(cmd, "since")
			if err != nil {
				return err
			}
			to, err := parseTimeFlag(cmd, "to")
			if err != nil {
				return err
			}
			periods, err := books.GetBalances(cmd.Context(), since, to)
			if err != nil {
				return err
			}
			for _, p := range periods {
				printPeriod(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseEntries parses code=value arguments
func parseEntries(args []string) ([]ledger.EntryInput, error) {
	entries := make([]ledger.EntryInput, 0, len(args))
	for _, arg := range args {
		code, raw, ok := strings.Cut(arg, "=")
		if !ok || code == "" {
			return nil, fmt.Errorf("invalid entry %q, expected code=value", arg)
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value of entry %q: %w", arg, err)
		}
		entries = append(entries, ledger.EntryInput{AccountCode: code, Value: value})
	}
	return entries, nil
}

// parseTimeFlag returns nil if the flag is unset
func parseTimeFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil || raw == "" {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("--%s must be an RFC 3339 time: %w", name, err)
	}
	return &t, nil
}

func printPeriod(out io.Writer, p ledger.PeriodBalance) {
	fmt.Fprintf(out, "period=%s, closed=%s\n", p.ID, p.ClosedAt.Format(time.RFC3339))
	codes := make([]string, 0, len(p.Balances))
	for code := range p.Balances {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(out, "  code=%s, balance=%s\n", code, p.Balances[code])
	}
}
