package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func RoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List documented responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			endpoints, err := s.loader.Indexer().Routes(cmd.Context())
			if err != nil {
				return err
			}

			if s.cfg.Format != "" {
				return writeOutput(cmd.OutOrStdout(), s.cfg.Format, endpoints)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "METHOD\tPATH\tSTATUS")
			for _, e := range endpoints {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Method, e.Path, e.Status)
			}
			return tw.Flush()
		},
	}
}
