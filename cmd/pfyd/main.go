package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/siva-netizen/Promptify/internal/config"
	"github.com/siva-netizen/Promptify/internal/daemon"
	"github.com/siva-netizen/Promptify/internal/logging"
	"github.com/siva-netizen/Promptify/internal/version"
)

func main() {
	var cfgPath string
	var addr string

	root := &cobra.Command{
		Use:     "pfyd",
		Short:   "Promptify daemon serving prompt refinement over HTTP",
		Version: version.Full(),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server, err := daemon.NewServer(cfg, logger)
			if err != nil {
				return err
			}
			return server.Run(ctx)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "Path to config file (default: ./config.yml or ~/.promptify/config.yml)")
	root.Flags().StringVar(&addr, "addr", "", "Listen address, overriding server.addr")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
