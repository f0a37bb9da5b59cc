package cli

import (
	"github.com/spf13/cobra"

	"github.com/venusroot/bootstrap/internal/cli/config"
	"github.com/venusroot/bootstrap/internal/cli/discovery"
	"github.com/venusroot/bootstrap/internal/cli/sdb"
	"github.com/venusroot/bootstrap/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "venusctl",
	Short: "venusctl - operator tools for the VenusRootLoader bootstrap",
	Long: `Inspect and troubleshoot the bootstrap that brings up the game's embedded
runtime before the player does.

Key capabilities:
- Configuration: view and validate the merged bootstrap configuration
- Discovery: advertise a debugger endpoint the way the game does
- Wire protocol: rewrite captured debugger replies offline`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(config.NewConfigCmd())
	rootCmd.AddCommand(discovery.NewDiscoveryCmd())
	rootCmd.AddCommand(sdb.NewSDBCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()
			cmd.Printf("venusctl version %s\n", info.Version)
			cmd.Printf("Git commit: %s\n", info.GitCommit)
			cmd.Printf("Build date: %s\n", info.BuildDate)
			cmd.Printf("Go version: %s\n", info.GoVersion)
			cmd.Printf("Platform:   %s\n", info.Platform)
		},
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
