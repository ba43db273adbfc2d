package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soaringjerry/supportportal/internal/config"
	"github.com/soaringjerry/supportportal/internal/logging"
	"github.com/soaringjerry/supportportal/internal/utils"
)

var (
	configPath string
	verbose    bool

	// Set at build time with -ldflags "-X main.commit=... -X main.buildTime=...".
	commit    = utils.SafeEnv("PORTAL_COMMIT", "dev")
	buildTime = utils.SafeEnv("PORTAL_BUILD_TIME", "")

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Support portal backend-for-frontend",
	Long: `portal serves the wellness community portal. It fronts the community
actor, keeps sessions and the audit trail in SQLite, and streams inbox
updates over a websocket.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		l, err := logging.New(c.Logging.Level, verbose)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "portal %s %s\n", commit, buildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", utils.SafeEnv("PORTAL_CONFIG", "portal.yaml"), "Path to portal.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
