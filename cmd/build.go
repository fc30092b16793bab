package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aTrapDeer/catalyst-backend/internal/site"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var watchBuild bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Renders the public site, the dashboard and the blog pages into the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, closeDB, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer closeDB()

		rd, err := newRenderer(appConfig)
		if err != nil {
			return err
		}

		if _, err := site.Build(ctx, st, rd, appConfig.OutputDir); err != nil {
			return err
		}
		if !watchBuild {
			return nil
		}

		return site.Watch(ctx, appConfig.DatabasePath, func() {
			if _, err := site.Build(ctx, st, rd, appConfig.OutputDir); err != nil {
				log.Errorf("Error during rebuild: %v", err)
			}
		})
	},
}

func init() {
	buildCmd.Flags().BoolVarP(&watchBuild, "watch", "w", false, "rebuild whenever the content database changes")
	rootCmd.AddCommand(buildCmd)
}
