package cli

import (
	"github.com/spf13/cobra"

	"github.com/kolah/respec/internal/mcpserver"
)

func MCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve response schema tools over MCP (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			return mcpserver.Run(cmd.Context(), s.loader, s.logger)
		},
	}
}
