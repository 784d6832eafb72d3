package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/braidwood/cmd/dict"
	"github.com/ValentinKolb/braidwood/cmd/ledger"
	"github.com/ValentinKolb/braidwood/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.2"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "braidwood",
		Short: "ordered key-value dictionaries and a double-entry ledger",
		Long: fmt.Sprintf(`braidwood (v%s)

Sorted, typed key-value dictionaries on interchangeable backends
(memory, sqlite, mssql, bolt) and a double-entry ledger built on top of them.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of braidwood",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("braidwood v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(dict.DictCommands)
	RootCmd.AddCommand(ledger.LedgerCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupStorageFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
