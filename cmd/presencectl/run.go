package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/railroadide/richpresence/pkg/activity"
	"github.com/railroadide/richpresence/pkg/config"
	"github.com/railroadide/richpresence/pkg/connection"
	"github.com/railroadide/richpresence/pkg/log"
	"github.com/railroadide/richpresence/pkg/metrics"
	"github.com/railroadide/richpresence/pkg/presence"
	"github.com/railroadide/richpresence/pkg/rpc"
	"github.com/railroadide/richpresence/pkg/version"
)

// shutdownTimeout bounds the final clear and the metrics server shutdown.
const shutdownTimeout = 3 * time.Second

type runOptions struct {
	configPath  string
	clientID    string
	hideAfter   int
	displayMode string
	protocolLog string
	metricsAddr string
	interactive bool
	level       *slog.LevelVar
}

func runCmd() *cobra.Command {
	return newRunCmd(&runOptions{level: new(slog.LevelVar)})
}

// newRunCmd binds the run flags to opts.
func newRunCmd(opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the companion and drive presence",
		Long: `Connect to the companion application, publish an activity and hide it
after the configured idle period. In interactive mode a console accepts
commands; type "help" to list them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			return runPresence(cmd.Context(), settings, opts, cmd.ErrOrStderr())
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.configPath, "config", "c", "", "Settings file (.yaml, .toml or .jsonc)")
	fs.StringVar(&opts.clientID, "client-id", "", "Application id (overrides the settings file)")
	fs.IntVar(&opts.hideAfter, "hide-after", config.DefaultHideAfterMinutes, "Idle minutes before hiding the activity, 0 disables")
	fs.StringVar(&opts.displayMode, "display-mode", string(config.DisplayDocument), "Details shown: application, project or document")
	fs.StringVar(&opts.protocolLog, "protocol-log", "", "Write a CBOR protocol capture to this file")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address")
	fs.BoolVarP(&opts.interactive, "interactive", "i", true, "Read commands from an interactive console")
	addLevelFlag(fs, opts.level)
	return cmd
}

// loadSettings reads the settings file, if any, and applies the flags that
// were set explicitly.
func loadSettings(fs *pflag.FlagSet, opts *runOptions) (config.Settings, error) {
	settings := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Settings{}, err
		}
		settings = loaded
	}

	if fs.Changed("client-id") {
		settings.ClientID = opts.clientID
	}
	if fs.Changed("hide-after") {
		settings.HideAfterMinutes = opts.hideAfter
	}
	if fs.Changed("display-mode") {
		settings.DisplayMode = config.DisplayMode(opts.displayMode)
	}
	if fs.Changed("protocol-log") {
		settings.ProtocolLog = opts.protocolLog
	}
	if fs.Changed("metrics-addr") {
		settings.MetricsAddr = opts.metricsAddr
	}

	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

func runPresence(ctx context.Context, settings config.Settings, opts *runOptions, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The console owns the terminal; logs go through it so they do not
	// interfere with the prompt.
	var rl *readline.Instance
	logOut := stderr
	if opts.interactive {
		var err error
		rl, err = readline.NewEx(&readline.Config{
			Prompt:          "presence> ",
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			AutoComplete:    completer(),
		})
		if err != nil {
			return fmt.Errorf("failed to create readline: %w", err)
		}
		defer rl.Close()
		logOut = rl.Stderr()
	}

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: opts.level}))
	logger.Info("starting", "version", version.String(), "client_id", settings.ClientID)

	plog, closeCapture, err := protocolLogger(logger, settings.ProtocolLog)
	if err != nil {
		return err
	}
	defer closeCapture()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(metrics.WithRegistry(registry))

	store := config.NewStore(settings)

	sup := connection.NewSupervisor(func(ctx context.Context) (*rpc.Client, error) {
		return dialClient(ctx, store, logger, plog, m)
	},
		connection.WithLogger(logger),
		connection.WithProtocolLogger(plog),
	)
	if _, err := sup.Start(ctx); err != nil {
		return fmt.Errorf("connect to companion: %w", err)
	}
	defer sup.Close()

	bus := &presence.InteractionBus{}
	ctrl := presence.New(rpc.NewActivityManagerFunc(sup.Current), bus, store.HideAfter,
		presence.WithLogger(logger),
		presence.WithProtocolLogger(plog),
		presence.WithMetrics(m),
	)
	ctrl.Start()
	defer ctrl.Shutdown()

	sup.OnRebuilt(func(*rpc.Client) {
		refreshCtx, cancel := context.WithTimeout(context.Background(), presence.DefaultCallTimeout)
		defer cancel()
		if err := ctrl.Refresh(refreshCtx); err != nil {
			logger.Warn("republish after reconnect failed", "error", err)
		}
	})
	watchSettings(store, sup, ctrl, logger)

	host := &workspace{ctrl: ctrl, store: store}
	if err := host.publish(ctx); err != nil {
		logger.Warn("initial activity not published", "error", err)
	}

	if settings.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              settings.MetricsAddr,
			Handler:           newRouter(registry, func() status { return snapshot(sup, ctrl, store) }),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", settings.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if rl != nil {
		console := newConsole(rl.Stdout(), host, bus, func() status { return snapshot(sup, ctrl, store) })
		console.savePath = opts.configPath
		go console.Run(ctx, rl, cancel)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	clearCtx, clearCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer clearCancel()
	if err := ctrl.Clear(clearCtx); err != nil {
		logger.Debug("final clear failed", "error", err)
	}
	return nil
}

// dialClient builds and connects one client with the current settings.
func dialClient(ctx context.Context, store *config.Store, logger *slog.Logger, plog log.Logger, m *metrics.Metrics) (*rpc.Client, error) {
	cfg := rpc.DefaultConfig(store.ClientID())
	cfg.Reconnect = store.Reconnect
	cfg.Logger = logger
	cfg.ProtocolLogger = plog
	cfg.Metrics = m

	c, err := rpc.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// protocolLogger sends protocol events to the debug log and, if path is
// set, to a capture file.
func protocolLogger(logger *slog.Logger, path string) (log.Logger, func(), error) {
	adapter := log.NewSlogAdapter(logger)
	if path == "" {
		return adapter, func() {}, nil
	}

	capture, err := log.NewFileLogger(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open protocol log: %w", err)
	}
	closeCapture := func() {
		if err := capture.Close(); err != nil {
			logger.Warn("closing protocol log failed", "error", err)
		}
	}
	return log.NewMultiLogger(adapter, capture), closeCapture, nil
}

// watchSettings applies setting changes to the running client and
// controller.
func watchSettings(store *config.Store, sup *connection.Supervisor[*rpc.Client], ctrl *presence.Controller, logger *slog.Logger) {
	store.OnChange(func(old, updated config.Settings) {
		if old.ClientID != updated.ClientID {
			if c := sup.Current(); c != nil {
				if err := c.SetClientID(updated.ClientID); err != nil {
					logger.Warn("client id not applied", "error", err)
				}
			}
		}
		if old.HideAfterMinutes != updated.HideAfterMinutes {
			ctrl.ThresholdChanged()
		}
	})
}

// workspace is the host state the activity is built from.
type workspace struct {
	ctrl  *presence.Controller
	store *config.Store

	project string
	file    string
}

func (w *workspace) activity() (*activity.Activity, error) {
	s := w.store.Get()
	return activity.NewBuilder().
		Playing().
		State(version.String()).
		Details(s.DisplayMode.Details(w.project, w.file)).
		StartNow().
		LargeImage(s.LargeImage, "").
		Build()
}

func (w *workspace) publish(ctx context.Context) error {
	a, err := w.activity()
	if err != nil {
		return err
	}
	return w.ctrl.Publish(ctx, a)
}
