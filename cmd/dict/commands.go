package dict

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [key] [value]",
		Short: "Adds a new entry, fails if the key already exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := selected(cmd)
			if err != nil {
				return err
			}
			if err := d.Add(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "added successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := selected(cmd)
			if err != nil {
				return err
			}
			value, ok, err := d.TryGet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key=%s, found=%t, value=%s\n", args[0], ok, value)
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := selected(cmd)
			if err != nil {
				return err
			}
			found, err := d.ContainsKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key=%s, found=%t\n", args[0], found)
			return nil
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [key]",
		Short: "Removes the entry for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := selected(cmd)
			if err != nil {
				return err
			}
			removed, err := d.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key=%s, removed=%t\n", args[0], removed)
			return nil
		},
	}
	countCmd = &cobra.Command{
		Use:   "count",
		Short: "Prints the number of entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := selected(cmd)
			if err != nil {
				return err
			}
			count, err := d.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "count=%d\n", count)
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists all entries in ascending key order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := selected(cmd)
			if err != nil {
				return err
			}
			return d.Scan(cmd.Context(), false, "", "", printEntry(cmd))
		},
	}
	rangeCmd = &cobra.Command{
		Use:   "range [from] [to]",
		Short: "Lists the entries with from <= key <= to in ascending key order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := selected(cmd)
			if err != nil {
				return err
			}
			return d.Scan(cmd.Context(), true, args[0], args[1], printEntry(cmd))
		},
	}
	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Removes all entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := selected(cmd)
			if err != nil {
				return err
			}
			if err := d.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared successfully")
			return nil
		},
	}
	dropCmd = &cobra.Command{
		Use:   "drop",
		Short: "Removes the dictionary and its backing structure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// the repository only drops what it resolved
			if _, err := selected(cmd); err != nil {
				return err
			}
			if err := session.Repo.Drop(cmd.Context(), dictName()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "dropped successfully")
			return nil
		},
	}
	incrementCmd = &cobra.Command{
		Use:   "increment [key] [delta]",
		Short: "Adds delta to the value of an existing key of an incrementing dictionary",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDictionary(cmd.Context(), session.Repo, dictName(), true)
			if err != nil {
				return err
			}
			if err := d.Increment(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			value, _, err := d.TryGet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key=%s, value=%s\n", args[0], value)
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints the backend, key kind and features of the dictionary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := selected(cmd)
			if err != nil {
				return err
			}
			info := d.Info()
			features := make([]string, 0, len(info.SupportedFeatures))
			for _, f := range info.SupportedFeatures {
				features = append(features, f.String())
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name=%s, impl=%s, key=%s", info.Name, info.Impl, info.KeyKind)
			if info.NumericKind != 0 {
				fmt.Fprintf(out, ", value=%s", info.NumericKind)
			}
			fmt.Fprintf(out, "\nfeatures=%s\n", strings.Join(features, ","))
			return nil
		},
	}
)

// printEntry returns a callback printing one entry per line
func printEntry(cmd *cobra.Command) func(key, value string) error {
	out := cmd.OutOrStdout()
	return func(key, value string) error {
		_, err := fmt.Fprintf(out, "%s=%s\n", key, value)
		return err
	}
}
