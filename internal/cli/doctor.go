package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/siva-netizen/Promptify/internal/invoker"
	"github.com/siva-netizen/Promptify/internal/llm"
)

// NewDoctorCmd returns a health-check command validating config and credentials.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and provider credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := cfg.Path()
			if source == "" {
				source = "built-in defaults"
			}
			fmt.Fprintf(out, "Config OK (%s)\n", source)
			fmt.Fprintf(out, "Provider: %s, model: %s, temperature: %g\n", cfg.Model.Provider, cfg.Model.Model, cfg.Model.Temperature)
			fmt.Fprintf(out, "Known providers: %s\n", strings.Join(llm.DefaultRegistry().Names(), ", "))

			res, err := invoker.New(cfg.Model, nil).Resolve(nil)
			if err != nil {
				return err
			}
			route, model := res.Params.Route()
			fmt.Fprintf(out, "Route: %s, model: %s, key: %s\n", route, model, describeKey(res))
			fmt.Fprintf(out, "Daemon: addr %s, transport %s, metrics: %v\n", cfg.Server.Addr, cfg.Server.Transport, cfg.Server.MetricsEnabled)
			return nil
		},
	}
}

func describeKey(res invoker.Resolution) string {
	if res.KeySource == invoker.KeyFromEnv {
		return "env " + res.KeyEnv
	}
	return res.KeySource
}
