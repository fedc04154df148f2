package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siva-netizen/Promptify/internal/config"
	"github.com/siva-netizen/Promptify/internal/logging"
	refinerpc "github.com/siva-netizen/Promptify/internal/rpc/refine"
	"github.com/siva-netizen/Promptify/internal/service"
)

// Options holds global CLI options.
type Options struct {
	ConfigPath string

	// NewRefiner builds the local refinement service. Tests replace it.
	NewRefiner func(cfg *config.Config, logger *zap.Logger) (refinerpc.Refiner, error)
}

// NewRootCmd constructs the base CLI command tree.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWith(&Options{})
}

// NewRootCmdWith constructs the command tree around opts.
func NewRootCmdWith(opts *Options) *cobra.Command {
	if opts.NewRefiner == nil {
		opts.NewRefiner = defaultRefiner
	}

	cmd := &cobra.Command{
		Use:           "pfy",
		Short:         "Promptify: turn vague prompts into structured specifications",
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to config file (default: ./config.yml or ~/.promptify/config.yml)")

	cmd.AddCommand(NewRefineCmd(opts))
	cmd.AddCommand(NewConfigCmd(opts))
	cmd.AddCommand(NewDoctorCmd(opts))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	config.LoadDotEnv()
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		os.Exit(1)
	}
}

// loadConfig wraps config loading with shared options.
func loadConfig(opts *Options) (*config.Config, error) {
	return config.Load(opts.ConfigPath)
}

func defaultRefiner(cfg *config.Config, logger *zap.Logger) (refinerpc.Refiner, error) {
	svc, err := service.FromConfig(cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// cliLogger keeps stderr quiet unless verbose output was requested; failures
// are reported through the returned error instead.
func cliLogger(cfg *config.Config, verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
