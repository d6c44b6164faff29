package cli

import (
	"github.com/spf13/cobra"

	"github.com/kolah/respec/internal/config"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "respec",
		Short:         "respec - resolve, validate and query OpenAPI response schemas",
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	config.BindFlags(root)
	root.AddCommand(
		ValidateCommand(),
		LookupCommand(),
		ExampleCommand(),
		RoutesCommand(),
		ProxyCommand(),
		MCPCommand(),
	)

	return root
}
