package cmd

import (
	"fmt"
	"os"

	"github.com/aTrapDeer/catalyst-backend/internal/config"
	"github.com/spf13/cobra"
)

var cfgFile string
var appConfig config.Config
var closeLog = func() {}

var rootCmd = &cobra.Command{
	Use:   "catalyst",
	Short: "Catalyst content service",
	Long: `catalyst keeps the content of the Catalyst site (events, projects,
testimonials, resources and blog posts), serves the admin API and renders
the public pages.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

func initializeConfig(_ *cobra.Command) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	closer, err := config.Logging(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	appConfig = cfg
	closeLog = closer
	return nil
}
