package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/stepbench/internal/runnable"
)

var listMatch string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the runnables in the project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Project.RunnablePath()

		names, err := runnable.List(dir, listMatch)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list runnables")
			return err
		}

		return printRunnables(cmd.OutOrStdout(), dir, names)
	},
}

func init() {
	listCmd.Flags().StringVar(&listMatch, "match", "", "glob filter on runnable names")
	rootCmd.AddCommand(listCmd)
}

func printRunnables(out io.Writer, dir string, names []string) error {
	if len(names) == 0 {
		fmt.Fprintf(out, "No runnables found in %s\n", dir)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tREGION\tREPETITIONS\tLOG GROUP\tOUTPUT")
	for _, name := range names {
		rb, err := runnable.Load(dir, name)
		if err != nil {
			// Show broken files instead of hiding them.
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%v\n", name, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", rb.Name, rb.Region, rb.Repetitions, rb.Logger.Name, rb.Output)
	}
	return tw.Flush()
}
