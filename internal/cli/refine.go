package cli

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bufbuild/connect-go"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"

	"github.com/siva-netizen/Promptify/internal/agent"
	"github.com/siva-netizen/Promptify/internal/apperr"
	"github.com/siva-netizen/Promptify/internal/config"
	"github.com/siva-netizen/Promptify/internal/llm"
	"github.com/siva-netizen/Promptify/internal/rpc"
	"github.com/siva-netizen/Promptify/internal/rpc/connectjson"
	refinerpc "github.com/siva-netizen/Promptify/internal/rpc/refine"
	"github.com/siva-netizen/Promptify/internal/service"
)

type refineFlags struct {
	file     string
	output   string
	format   string
	verbose  bool
	provider string
	model    string
	apiKey   string
	remote   string
}

// NewRefineCmd runs the four-stage pipeline over a query.
func NewRefineCmd(opts *Options) *cobra.Command {
	var f refineFlags

	cmd := &cobra.Command{
		Use:   "refine [query]",
		Short: "Refine a prompt using the Triage, Critic, Expert and Smith agents",
		Example: `  pfy refine "build a chat app"
  pfy refine --file input.txt
  pfy refine "design database" --verbose
  pfy refine "build api" --format json --output result.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			formatter, err := FormatterFor(f.format)
			if err != nil {
				return err
			}

			query, err := resolveQuery(f.file, args)
			if err != nil {
				return err
			}

			verbose := f.verbose || cfg.Verbose
			override := f.override()
			prog := newProgress(cmd.ErrOrStderr(), strings.EqualFold(f.format, FormatJSON))

			var res *rpc.RefineResponse
			if f.remote != "" {
				res, err = refineRemote(cmd.Context(), f.remote, query, override, verbose, prog)
			} else {
				res, err = refineLocal(cmd.Context(), opts, cfg, query, override, verbose, prog)
			}
			if err != nil {
				return err
			}

			if err := formatter.Format(cmd.OutOrStdout(), res, verbose); err != nil {
				return err
			}
			if f.output != "" {
				if err := writeOutput(f.output, res.RefinedPrompt); err != nil {
					return err
				}
				prog.printf("Saved to: %s\n", f.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read the query from a file")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Save the refined prompt to a file")
	cmd.Flags().StringVar(&f.format, "format", FormatRich, "Output format: rich|json")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Show critique and expert suggestions")
	cmd.Flags().StringVar(&f.provider, "provider", "", "Override the provider for this run")
	cmd.Flags().StringVar(&f.model, "model", "", "Override the model for this run")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key for this run (never stored)")
	cmd.Flags().StringVar(&f.remote, "remote", "", "Send the query to a pfyd daemon at this address instead of running locally")
	return cmd
}

func (f refineFlags) override() *llm.Override {
	o := &llm.Override{
		Provider: strings.TrimSpace(f.provider),
		Model:    strings.TrimSpace(f.model),
		APIKey:   strings.TrimSpace(f.apiKey),
	}
	if o.IsZero() {
		return nil
	}
	return o
}

// resolveQuery prefers --file over the positional argument.
func resolveQuery(file string, args []string) (string, error) {
	if file != "" {
		return readQueryFile(file)
	}
	var query string
	if len(args) > 0 {
		query = args[0]
	}
	return agent.ValidateQuery(query)
}

func refineLocal(ctx context.Context, opts *Options, cfg *config.Config, query string, override *llm.Override, verbose bool, prog *progress) (*rpc.RefineResponse, error) {
	logger := cliLogger(cfg, verbose)
	defer logger.Sync() //nolint:errcheck // best-effort

	refiner, err := opts.NewRefiner(cfg, logger)
	if err != nil {
		return nil, err
	}

	rec, err := refiner.Refine(ctx, service.Request{
		Query:    query,
		Override: override,
		Observer: agent.ObserverFunc(prog.onStage),
	})
	if err != nil {
		return nil, err
	}
	prog.done()
	return refinerpc.ResponseFrom(rec, verbose), nil
}

func refineRemote(ctx context.Context, addr, query string, override *llm.Override, verbose bool, prog *progress) (*rpc.RefineResponse, error) {
	req := rpc.RefineRequest{
		Prompt:        query,
		CorrelationID: "cli-" + uuid.NewString(),
		Verbose:       verbose,
	}
	if override != nil {
		req.ModelProvider, req.ModelName, req.APIKey = override.Provider, override.Model, override.APIKey
	}

	client := connect.NewClient[rpc.RefineRequest, rpc.RefineEvent](
		buildH2CClient(),
		daemonURL(addr)+refinerpc.ConnectRefineProcedure,
		connect.WithCodec(connectjson.Codec{}),
	)
	stream, err := client.CallServerStream(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, apperr.Classify(fmt.Errorf("connect to daemon: %w", err))
	}
	defer stream.Close()

	var result *rpc.RefineResponse
	for stream.Receive() {
		ev := stream.Msg()
		switch ev.Type {
		case rpc.EventStage:
			prog.onStage(agent.Event{
				Stage:   ev.Stage,
				Index:   ev.Step - 1,
				Total:   ev.Total,
				Kind:    agent.EventKind(ev.Status),
				Elapsed: time.Duration(ev.ElapsedMS) * time.Millisecond,
			})
		case rpc.EventResult:
			result = ev.Result
		case rpc.EventError:
			return nil, remoteError(ev.Error)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, apperr.Classify(fmt.Errorf("daemon stream: %w", err))
	}
	if result == nil {
		return nil, apperr.LLM(fmt.Errorf("daemon closed the stream without a result"))
	}
	prog.done()
	return result, nil
}

func remoteError(e *rpc.ErrorResponse) error {
	if e == nil {
		return apperr.LLM(fmt.Errorf("daemon reported an unspecified error"))
	}
	return &apperr.Error{
		Kind:    apperr.Kind(e.Kind),
		Stage:   e.Stage,
		Message: e.Error,
		Hint:    e.Hint,
	}
}

func daemonURL(addr string) string {
	addr = strings.TrimRight(addr, "/")
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func buildH2CClient() *http.Client {
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}

// progress prints stage transitions to stderr. It is silent for JSON output.
type progress struct {
	w     io.Writer
	quiet bool
}

func newProgress(w io.Writer, quiet bool) *progress {
	return &progress{w: w, quiet: quiet}
}

func (p *progress) onStage(e agent.Event) {
	switch e.Kind {
	case agent.EventStageStarted:
		p.printf("[%d/%d] %s...\n", e.Index+1, e.Total, e.Stage)
	case agent.EventStageCompleted:
		p.printf("[%d/%d] %s done (%s)\n", e.Index+1, e.Total, e.Stage, e.Elapsed.Round(time.Millisecond))
	case agent.EventStageFailed:
		p.printf("[%d/%d] %s failed\n", e.Index+1, e.Total, e.Stage)
	}
}

func (p *progress) done() {
	p.printf("Processing complete!\n\n")
}

func (p *progress) printf(format string, args ...any) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.w, format, args...)
}
