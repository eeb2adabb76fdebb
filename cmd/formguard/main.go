package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/domain"
	"github.com/goliatone/go-formguard/pkg/guard"
	"github.com/goliatone/go-formguard/pkg/orchestrator"
	"github.com/goliatone/go-formguard/pkg/render"
	"github.com/goliatone/go-formguard/pkg/renderers/tui"
	"github.com/goliatone/go-formguard/pkg/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = guard.ScriptVersion

var errInvalidDomains = errors.New("one or more domains are invalid")

var (
	configPath   string
	outputFormat string
	serveAddr    string
	historyQuery store.Query
	promptAgain  bool
)

var rootCmd = &cobra.Command{
	Use:           "formguard",
	Short:         "Domain estimator behind a guarded form",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the estimate form, the API and the guard script",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
		o, err := newOrchestrator(cfg)
		if err != nil {
			return err
		}
		defer o.Close()

		srv, err := o.Server(cmd.Context())
		if err != nil {
			return err
		}
		return srv.Run(cmd.Context())
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <domain>...",
	Short: "Check domains against the form guard pattern",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkDomains(cmd.OutOrStdout(), args)
	},
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <domain>...",
	Short: "Estimate domains and record them in the history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := terminalOrchestrator()
		if err != nil {
			return err
		}
		defer o.Close()
		return estimateDomains(cmd.Context(), cmd.OutOrStdout(), o, args)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past estimations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := terminalOrchestrator()
		if err != nil {
			return err
		}
		defer o.Close()

		records, err := o.History(cmd.Context(), historyQuery)
		if err != nil {
			return err
		}
		return renderTerminal(cmd.Context(), cmd.OutOrStdout(), o, render.PageHistory, map[string]any{"records": records})
	},
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Ask for a domain interactively, then estimate it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := terminalOrchestrator()
		if err != nil {
			return err
		}
		defer o.Close()
		return promptLoop(cmd.Context(), cmd.OutOrStdout(), o, o.Prompter())
	},
}

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Print the browser guard script",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		script, err := guard.Script(guard.Config{Locale: cfg.Locale})
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(script)
		return err
	},
}

var logger = logrus.StandardLogger()

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	l, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return config.Config{}, err
	}
	logger = l
	return cfg, nil
}

func newOrchestrator(cfg config.Config, options ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	options = append([]orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithVersion(version),
	}, options...)
	return orchestrator.New(cfg, options...)
}

func terminalOrchestrator() (*orchestrator.Orchestrator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newOrchestrator(cfg, orchestrator.WithTerminalOptions(tui.WithOutputFormat(tui.OutputFormat(outputFormat))))
}

// checkDomains prints one verdict per argument and fails when any is
// invalid.
func checkDomains(w io.Writer, args []string) error {
	var failed bool
	for _, arg := range args {
		if err := domain.Check(arg); err != nil {
			failed = true
			reason, _ := domain.ReasonOf(err)
			fmt.Fprintf(w, "invalid\t%s\t%s\n", domain.Normalize(arg), reason)
			continue
		}
		fmt.Fprintf(w, "ok\t%s\n", domain.Normalize(arg))
	}
	if failed {
		return errInvalidDomains
	}
	return nil
}

func estimateDomains(ctx context.Context, w io.Writer, o *orchestrator.Orchestrator, args []string) error {
	for _, arg := range args {
		res, err := o.Estimate(ctx, arg)
		if err != nil {
			return err
		}
		if err := renderTerminal(ctx, w, o, render.PageResult, map[string]any{"result": res}); err != nil {
			return err
		}
	}
	return nil
}

type asker interface {
	Ask(ctx context.Context) (string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}

func promptLoop(ctx context.Context, w io.Writer, o *orchestrator.Orchestrator, p asker) error {
	for {
		value, err := p.Ask(ctx)
		if err != nil {
			if errors.Is(err, tui.ErrAborted) {
				return nil
			}
			return err
		}
		if err := estimateDomains(ctx, w, o, []string{value}); err != nil {
			return err
		}
		if !promptAgain {
			return nil
		}
		again, err := p.Confirm(ctx, "Estimate another domain?", true)
		if errors.Is(err, tui.ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
}

func renderTerminal(ctx context.Context, w io.Writer, o *orchestrator.Orchestrator, page render.Page, data map[string]any) error {
	out, err := o.Render(ctx, "tui", page, data)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to formguard.yaml")
	rootCmd.Version = version

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(checkCmd)

	for _, cmd := range []*cobra.Command{estimateCmd, historyCmd, promptCmd} {
		cmd.Flags().StringVarP(&outputFormat, "format", "f", string(tui.OutputFormatPrettyText), "Output format (pretty|json)")
		rootCmd.AddCommand(cmd)
	}
	historyCmd.Flags().StringVar(&historyQuery.Domain, "domain", "", "Only domains containing this text")
	historyCmd.Flags().IntVar(&historyQuery.Limit, "limit", store.DefaultLimit, "Maximum number of records")
	promptCmd.Flags().BoolVar(&promptAgain, "repeat", false, "Offer another estimation after each result")

	rootCmd.AddCommand(scriptCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
