package service

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/shared"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/health"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/history"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/metrics"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/rules"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/server"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/validation"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the validation HTTP API",
		Long: `Run the validation HTTP API.

Endpoints:
  POST /api/yaml-check/validate     validate a JSON-encoded document
  POST /api/yaml-test-plan/upload   validate an uploaded YAML file
  GET  /api/yaml-check/rules        effective rule table
  GET  /api/yaml-check/history      recent validation runs
  GET  /health                      environment checks
  GET  /metrics                     Prometheus metrics (when metrics_enabled)

With --watch the rules file is reloaded whenever it changes. A reload that
fails keeps the previous rules in service.`,
		Example: `  yamlcheck serve
  yamlcheck serve --addr 127.0.0.1:9000 --rules rules.json --watch`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.GroupID = shared.GroupService
	cmd.Flags().String("addr", "", "Listen address (overrides listen_addr from config)")
	cmd.Flags().String("rules", "", "Rules file (overrides rules_file from config)")
	cmd.Flags().Bool("watch", false, "Reload the rules file when it changes")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	rulesOverride, _ := cmd.Flags().GetString("rules")
	watch, _ := cmd.Flags().GetBool("watch")

	rt, err := shared.LoadRuntime(cmd)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = rt.Config.ListenAddr
	}
	watch = watch || rt.Config.WatchRules

	rulesPath := rt.RulesPath(rulesOverride)
	if watch && rulesPath == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error: --watch requires a rules file")
		return shared.NewExitError(shared.ExitInvalidArguments)
	}

	svc, err := newService(rt, rulesPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return shared.NewExitError(shared.ExitInvalidArguments)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return svc.run(ctx, ln, watch)
}

// service holds everything one serve invocation wires together.
type service struct {
	rt        *shared.Runtime
	rulesPath string
	metrics   *metrics.Collector
	server    *server.Server
}

func newService(rt *shared.Runtime, rulesPath string) (*service, error) {
	table, err := rules.Load(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	svc := &service{rt: rt, rulesPath: rulesPath}
	if rt.Config.MetricsEnabled {
		svc.metrics = metrics.NewCollector(nil)
	}

	cfg := rt.Config
	svc.server = server.New(svc.validator(table), server.Options{
		Logger:       rt.Logger,
		Metrics:      svc.metrics,
		History:      history.NewWriter(cfg.StateDir, cfg.MaxHistory, rt.Logger),
		StateDir:     cfg.StateDir,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Health: func() *health.HealthReport {
			return health.RunHealthChecks(cfg, rt.ConfigPath)
		},
	})
	return svc, nil
}

func (s *service) validator(table *rules.Table) *validation.Validator {
	opts := []validation.Option{validation.WithLogger(s.rt.Logger)}
	if s.metrics != nil {
		opts = append(opts, validation.WithObserver(s.metrics))
	}
	return validation.New(table, opts...)
}

// reload is the rules watcher callback. A failed load keeps the current validator.
func (s *service) reload(table *rules.Table, err error) {
	if s.metrics != nil {
		s.metrics.ObserveRuleReload(err)
	}
	if err != nil {
		s.rt.Logger.Warn("keeping previous rules", "path", s.rulesPath, "error", err)
		return
	}
	s.server.SetValidator(s.validator(table))
}

// run serves on ln until ctx is cancelled. With watch set the rules file is watched alongside.
func (s *service) run(ctx context.Context, ln net.Listener, watch bool) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.server.Serve(ctx, ln)
	})
	if watch {
		w := rules.NewWatcher(s.rulesPath, s.rt.Logger, s.reload)
		g.Go(func() error {
			return w.Run(ctx)
		})
	}
	return g.Wait()
}
