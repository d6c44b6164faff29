package cli

import (
	"github.com/spf13/cobra"

	"github.com/kolah/respec/example"
	"github.com/kolah/respec/indexer"
)

func LookupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup ROUTE METHOD STATUS",
		Short: "Print the schema documenting a response",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, fragment, err := lookup(cmd, args)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), s.cfg.Format, fragment)
		},
	}
}

func ExampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "example ROUTE METHOD STATUS",
		Short: "Print an example payload for a response",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, fragment, err := lookup(cmd, args)
			if err != nil {
				return err
			}

			value, err := example.New(s.logger).Synthesize(fragment)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), s.cfg.Format, value)
		},
	}
}

func lookup(cmd *cobra.Command, args []string) (*session, map[string]any, error) {
	status, err := indexer.ParseStatusCode(args[2])
	if err != nil {
		return nil, nil, err
	}

	s, err := newSession(cmd)
	if err != nil {
		return nil, nil, err
	}

	fragment, err := s.loader.ResponseSchema(cmd.Context(), args[0], args[1], status)
	if err != nil {
		return nil, nil, err
	}
	return s, fragment, nil
}
