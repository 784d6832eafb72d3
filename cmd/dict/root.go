package dict

import (
	"github.com/ValentinKolb/braidwood/cmd/util"
	"github.com/ValentinKolb/braidwood/lib/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = common.NewLogger("cmd")

var (
	session *util.Session

	// DictCommands represents the dictionary command group
	DictCommands = &cobra.Command{
		Use:                "dict",
		Short:              "Perform dictionary operations",
		PersistentPreRunE:  setupSession,
		PersistentPostRunE: finishSession,
	}
)

func init() {
	DictCommands.PersistentFlags().String("name", "default", util.WrapString("Name of the dictionary"))
	DictCommands.PersistentFlags().Bool("incrementing", false, util.WrapString("Use an incrementing dictionary with decimal values instead of a plain dictionary with string values"))

	// Add subcommands
	DictCommands.AddCommand(addCmd)
	DictCommands.AddCommand(getCmd)
	DictCommands.AddCommand(hasCmd)
	DictCommands.AddCommand(removeCmd)
	DictCommands.AddCommand(countCmd)
	DictCommands.AddCommand(keysCmd)
	DictCommands.AddCommand(rangeCmd)
	DictCommands.AddCommand(clearCmd)
	DictCommands.AddCommand(dropCmd)
	DictCommands.AddCommand(incrementCmd)
	DictCommands.AddCommand(infoCmd)
	DictCommands.AddCommand(perfTestCmd)
}

// setupSession opens the repository of the configured backend
func setupSession(cmd *cobra.Command, _ []string) (err error) {
	session, err = util.StartSession(cmd.Context(), cmd)
	return err
}

func finishSession(cmd *cobra.Command, _ []string) error {
	return session.Finish(cmd.OutOrStdout())
}

// dictName returns the name of the dictionary selected by --name
func dictName() string {
	return viper.GetString("name")
}

// selected resolves the dictionary selected by --name and --incrementing
func selected(cmd *cobra.Command) (dictionary, error) {
	return openDictionary(cmd.Context(), session.Repo, dictName(), viper.GetBool("incrementing"))
}
