package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aTrapDeer/catalyst-backend/internal/blob"
	"github.com/aTrapDeer/catalyst-backend/internal/notify"
	"github.com/aTrapDeer/catalyst-backend/internal/server"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serverPort int // For the --port flag

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the admin API, the rendered pages and the change stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			appConfig.Port = serverPort
		}

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

		blobs, err := blob.Open(ctx, appConfig.Blob)
		if err != nil {
			return fmt.Errorf("open export archive: %w", err)
		}
		log.Infof("export archive: %s", blobs.Driver())

		if appConfig.NatsURL != "" {
			nc, err := notify.ConnectNATS(appConfig.NatsURL, appConfig.NatsToken)
			if err != nil {
				return fmt.Errorf("error connecting to NATS server: %w", err)
			}
			defer nc.Close()

			bridge := notify.NewNATSBridge(nc, st.Bus())
			defer bridge.Forward().Unsubscribe()
			sub, err := bridge.Listen()
			if err != nil {
				return fmt.Errorf("error subscribing to NATS: %w", err)
			}
			defer sub.Unsubscribe()
			log.Infof("relaying content changes over NATS as %s", bridge.InstanceID)
		}

		if appConfig.RevalidationURL != "" {
			defer notify.NewRevalidator(appConfig.RevalidationURL, appConfig.RevalidationSecret).Attach(st.Bus()).Unsubscribe()
		}

		if appConfig.SyncInterval > 0 {
			go st.Sync(ctx, appConfig.SyncInterval)
		}

		srv := server.New(st, rd, blobs, server.Options{
			Addr:         appConfig.Addr(),
			FrontendURLs: appConfig.FrontendURLs,
			RateLimit:    appConfig.RateLimit,
			CacheTTL:     appConfig.CacheTTL,
		})
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8081, "Port to serve on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
