package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/siva-netizen/Promptify/internal/config"
	"github.com/siva-netizen/Promptify/internal/invoker"
	"github.com/siva-netizen/Promptify/internal/llm"
)

// NewConfigCmd shows or updates the persisted configuration.
func NewConfigCmd(opts *Options) *cobra.Command {
	var (
		show        bool
		provider    string
		model       string
		temperature float64
		verbose     bool
		noVerbose   bool
		preset      string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update Promptify settings",
		Example: `  pfy config --show
  pfy config --provider openai --model gpt-4o
  pfy config --preset claude`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			flags := cmd.Flags()

			if flags.Changed("verbose") && flags.Changed("no-verbose") {
				return fmt.Errorf("--verbose and --no-verbose are mutually exclusive")
			}

			updated := false
			if preset != "" {
				if err := cfg.ApplyPreset(preset); err != nil {
					return err
				}
				fmt.Fprintf(out, "Applied preset: %s\n", strings.ToLower(preset))
				updated = true
			}
			if flags.Changed("provider") {
				backend, err := llm.DefaultRegistry().Get(provider)
				if err != nil {
					return err
				}
				cfg.Model.Provider = backend.Name()
				fmt.Fprintf(out, "Set provider to: %s\n", cfg.Model.Provider)
				updated = true
			}
			if flags.Changed("model") {
				cfg.Model.Model = strings.TrimSpace(model)
				fmt.Fprintf(out, "Set model to: %s\n", cfg.Model.Model)
				updated = true
			}
			if flags.Changed("temp") {
				cfg.Model.Temperature = temperature
				fmt.Fprintf(out, "Set temperature to: %g\n", temperature)
				updated = true
			}
			if flags.Changed("verbose") || flags.Changed("no-verbose") {
				cfg.Verbose = verbose && !noVerbose
				status := "disabled"
				if cfg.Verbose {
					status = "enabled"
				}
				fmt.Fprintf(out, "Verbose mode %s\n", status)
				updated = true
			}

			if updated {
				if err := cfg.Save(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Configuration saved to %s\n\n", cfg.Path())
			}

			printConfig(out, cfg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Show current configuration (the default when nothing is set)")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Set LLM provider (cerebras, openai, anthropic, gemini, ollama, local)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Set model name")
	cmd.Flags().Float64VarP(&temperature, "temp", "t", config.DefaultTemperature, "Set temperature (0.0 - 1.0)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose mode")
	cmd.Flags().BoolVar(&noVerbose, "no-verbose", false, "Disable verbose mode")
	cmd.Flags().StringVar(&preset, "preset", "", "Apply a model preset ("+strings.Join(config.PresetNames(), ", ")+")")
	return cmd
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintf(out, "  Provider:    %s\n", cfg.Model.Provider)
	fmt.Fprintf(out, "  Model:       %s\n", cfg.Model.Model)
	fmt.Fprintf(out, "  Temperature: %g\n", cfg.Model.Temperature)
	fmt.Fprintf(out, "  Verbose:     %t\n", cfg.Verbose)
	fmt.Fprintf(out, "  API Key:     %s\n", keyStatus(cfg))
	if p := cfg.Path(); p != "" {
		fmt.Fprintf(out, "  File:        %s\n", p)
	}
}

func keyStatus(cfg *config.Config) string {
	res, err := invoker.New(cfg.Model, nil).Resolve(nil)
	if err != nil {
		return "Missing"
	}
	switch res.KeySource {
	case invoker.KeyFromConfig:
		return "Set in config"
	case invoker.KeyFromEnv:
		return "Set via " + res.KeyEnv
	default:
		return "Not required"
	}
}
