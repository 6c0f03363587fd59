package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var triplesCmd = &cobra.Command{
	Use:   "triples",
	Short: "Load and query the shared knowledge store",
}

var triplesLoadCmd = &cobra.Command{
	Use:   "load <file>...",
	Short: "Load triples files into the configured store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bot, err := openBot(cmd, nil)
		if err != nil {
			return err
		}
		defer bot.Close()

		for _, path := range args {
			n := bot.IngestTriples(cmd.Context(), path)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d triples\n", path, n)
		}
		return nil
	},
}

var triplesQueryCmd = &cobra.Command{
	Use:   "query <subject> [predicate]",
	Short: "Print the triples matching subject and predicate",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bot, err := openBot(cmd, nil)
		if err != nil {
			return err
		}
		defer bot.Close()

		predicate := ""
		if len(args) > 1 {
			predicate = args[1]
		}
		found, err := bot.Triples().Match(cmd.Context(), args[0], predicate)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, t := range found {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Subject, t.Predicate, t.Object)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(triplesCmd)
	triplesCmd.AddCommand(triplesLoadCmd)
	triplesCmd.AddCommand(triplesQueryCmd)
}
