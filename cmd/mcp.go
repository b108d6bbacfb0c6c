package cmd

import (
	"github.com/SaiNageswarS/krishi-boot/mcpserver"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the farm tools to MCP clients over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// a missing .env is fine when the client passes keys in the environment
		_ = godotenv.Load()

		a := bootstrap(getCancellableContext(), false)
		registry := newRegistry(a.cfg, newSearcher(a))

		return mcpserver.Serve(mcpserver.New(registry, a.languages))
	},
}
