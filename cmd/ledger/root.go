package ledger

import (
	"github.com/ValentinKolb/braidwood/cmd/util"
	"github.com/ValentinKolb/braidwood/lib/ledger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	session *util.Session
	books   *ledger.Ledger

	// LedgerCommands represents the ledger command group
	LedgerCommands = &cobra.Command{
		Use:                "ledger",
		Short:              "Perform double-entry ledger operations",
		PersistentPreRunE:  setupLedger,
		PersistentPostRunE: finishLedger,
	}

	accountCommands = &cobra.Command{
		Use:   "account",
		Short: "Create and list accounts",
	}

	txCommands = &cobra.Command{
		Use:   "tx",
		Short: "Book and read transactions",
	}
)

func init() {
	LedgerCommands.PersistentFlags().String("enterprise", "default", util.WrapString("ID of the enterprise whose ledger is used"))

	// Add subcommands
	accountCommands.AddCommand(accountAddCmd)
	accountCommands.AddCommand(accountListCmd)
	txCommands.AddCommand(txAddCmd)
	txCommands.AddCommand(txGetCmd)

	LedgerCommands.AddCommand(accountCommands)
	LedgerCommands.AddCommand(txCommands)
	LedgerCommands.AddCommand(balanceCmd)
	LedgerCommands.AddCommand(entriesCmd)
	LedgerCommands.AddCommand(closePeriodCmd)
	LedgerCommands.AddCommand(balancesCmd)

	balancesCmd.Flags().String("since", "", util.WrapString("Only periods closed at or after this time (RFC 3339)"))
	balancesCmd.Flags().String("to", "", util.WrapString("Only periods closed at or before this time (RFC 3339)"))
}

// setupLedger opens the repository of the configured backend and the ledger of the enterprise
func setupLedger(cmd *cobra.Command, _ []string) (err error) {
	if session, err = util.StartSession(cmd.Context(), cmd); err != nil {
		return err
	}
	books, err = ledger.New(cmd.Context(), session.Repo, viper.GetString("enterprise"))
	return err
}

func finishLedger(cmd *cobra.Command, _ []string) error {
	return session.Finish(cmd.OutOrStdout())
}
