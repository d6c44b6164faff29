package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kolah/respec/schema"
)

func ValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Resolve and validate the OpenAPI schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			doc, err := s.loader.Schema(cmd.Context())
			if err != nil {
				return err
			}

			paths, _ := doc["paths"].(map[string]any)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid OpenAPI %s schema (%d paths)\n", s.cfg.Spec, schema.DialectOf(doc), len(paths))
			return nil
		},
	}
}
