// goradiusd -- RADIUS decode daemon (RFC 2865/2868/6929).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/dantte-lp/goradius/internal/config"
	"github.com/dantte-lp/goradius/internal/dict"
	radmetrics "github.com/dantte-lp/goradius/internal/metrics"
	"github.com/dantte-lp/goradius/internal/netio"
	"github.com/dantte-lp/goradius/internal/server"
	"github.com/dantte-lp/goradius/internal/usersfile"
	appversion "github.com/dantte-lp/goradius/internal/version"
)

// shutdownTimeout is the maximum time to wait for the admin HTTP server
// to drain active connections during graceful shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Parse flags.
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appversion.Full("goradiusd"))
		return 0
	}

	// 2. Load config.
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logger is not set up yet; use a temporary stderr logger.
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	// 3. Set up logger with dynamic level support for SIGHUP reload.
	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("goradiusd starting",
		slog.String("version", appversion.Version),
		slog.String("admin_addr", cfg.Admin.Addr),
		slog.Int("auth_port", int(cfg.Listen.AuthPort)),
	)

	// 4. Load the dictionary and users file.
	dictionary, err := loadDictionary(cfg)
	if err != nil {
		logger.Error("failed to load dictionary", slog.String("error", err.Error()))
		return 1
	}

	// 5. Create Prometheus metrics collector.
	reg := prometheus.NewRegistry()
	collector := radmetrics.NewCollector(reg)

	if err := loadUsers(cfg, dictionary, collector, logger); err != nil {
		logger.Error("failed to load users file", slog.String("error", err.Error()))
		return 1
	}

	// 6. Run servers.
	if err := runServers(cfg, dictionary, collector, reg, logger, *configPath, logLevel); err != nil {
		logger.Error("goradiusd exited with error",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logger.Info("goradiusd stopped")
	return 0
}

// loadDictionary assembles the dictionary from the builtin set and any
// configured extra files.
func loadDictionary(cfg *config.Config) (*dict.Dictionary, error) {
	var d *dict.Dictionary
	if cfg.Dictionary.Builtin {
		d = dict.Builtin()
	} else {
		d = dict.New()
	}

	for _, path := range cfg.Dictionary.Files {
		if err := d.LoadFile(path); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// loadUsers parses the configured users file, if any, and updates the
// entries gauge.
func loadUsers(cfg *config.Config, d *dict.Dictionary, collector *radmetrics.Collector, logger *slog.Logger) error {
	if cfg.UsersFile == "" {
		return nil
	}

	entries, err := usersfile.ParseFile(d, cfg.UsersFile)
	if err != nil {
		return err
	}

	collector.UsersEntries.Set(float64(len(entries)))
	logger.Info("users file loaded",
		slog.String("path", cfg.UsersFile),
		slog.Int("entries", len(entries)),
	)

	return nil
}

// runServers sets up and runs the UDP listeners and the admin HTTP server
// using an errgroup with signal-aware context for graceful shutdown.
func runServers(
	cfg *config.Config,
	dictionary *dict.Dictionary,
	collector *radmetrics.Collector,
	reg *prometheus.Registry,
	logger *slog.Logger,
	configPath string,
	logLevel *slog.LevelVar,
) error {
	clients, err := config.BuildClientTable(cfg.Clients)
	if err != nil {
		return fmt.Errorf("build client table: %w", err)
	}

	engine := server.NewEngine(dictionary, clients, collector, logger)
	adminSrv := newAdminServer(cfg.Admin, dictionary, reg, logger)

	// errgroup with signal-aware context.
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	// Start RADIUS packet listeners and receiver.
	listeners, err := createListeners(gCtx, cfg)
	if err != nil {
		return fmt.Errorf("create listeners: %w", err)
	}

	recv := netio.NewReceiver(engine, logger)
	g.Go(func() error {
		return recv.Run(gCtx, listeners...)
	})

	g.Go(func() error {
		logger.Info("admin server listening",
			slog.String("addr", cfg.Admin.Addr),
			slog.String("metrics_path", cfg.Admin.MetricsPath),
		)
		return listenAndServe(gCtx, adminSrv, cfg.Admin.Addr)
	})

	g.Go(func() error {
		return runWatchdog(gCtx, logger)
	})

	// SIGHUP reloads the users file and the log level.
	sigHUP := make(chan os.Signal, 1)
	signal.Notify(sigHUP, syscall.SIGHUP)
	g.Go(func() error {
		defer signal.Stop(sigHUP)
		handleSIGHUP(gCtx, sigHUP, configPath, logLevel, dictionary, collector, logger)
		return nil
	})

	notifyReady(logger)

	// Shutdown goroutine: waits for context cancellation.
	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, logger, adminSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

// createListeners binds the authentication and, when configured, the
// accounting UDP sockets.
func createListeners(ctx context.Context, cfg *config.Config) ([]*netio.Listener, error) {
	var addr netip.Addr
	if cfg.Listen.Addr != "" {
		parsed, err := netip.ParseAddr(cfg.Listen.Addr)
		if err != nil {
			return nil, fmt.Errorf("parse listen addr: %w", err)
		}
		addr = parsed
	}

	ports := []uint16{cfg.Listen.AuthPort}
	if cfg.Listen.AcctPort != 0 {
		ports = append(ports, cfg.Listen.AcctPort)
	}

	listeners := make([]*netio.Listener, 0, len(ports))
	for _, port := range ports {
		ln, err := netio.NewListener(ctx, netio.ListenerConfig{Addr: addr, Port: port})
		if err != nil {
			for _, open := range listeners {
				_ = open.Close()
			}
			return nil, err
		}
		listeners = append(listeners, ln)
	}

	return listeners, nil
}

// -------------------------------------------------------------------------
// Logger Setup
// -------------------------------------------------------------------------

// newLoggerWithLevel builds the slog logger per the configured format,
// bound to a LevelVar so SIGHUP can adjust verbosity at runtime.
func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// -------------------------------------------------------------------------
// Systemd Integration — sd_notify + watchdog
// -------------------------------------------------------------------------

// notifyReady sends READY=1 to systemd, indicating the daemon has
// completed initialization and is ready to serve.
func notifyReady(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Warn("failed to notify systemd readiness",
			slog.String("error", err.Error()),
		)
		return
	}
	if sent {
		logger.Info("notified systemd: READY")
	}
}

// notifyStopping sends STOPPING=1 to systemd, indicating the daemon is
// beginning graceful shutdown.
func notifyStopping(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		logger.Warn("failed to notify systemd stopping",
			slog.String("error", err.Error()),
		)
		return
	}
	if sent {
		logger.Info("notified systemd: STOPPING")
	}
}

// runWatchdog sends periodic watchdog keepalives to systemd.
// The interval is WatchdogSec/2 as recommended by the systemd
// documentation. If watchdog is not configured, the goroutine exits
// immediately.
func runWatchdog(ctx context.Context, logger *slog.Logger) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("failed to check systemd watchdog",
			slog.String("error", err.Error()),
		)
		return nil
	}
	if interval == 0 {
		logger.Debug("systemd watchdog not configured, skipping keepalive")
		return nil
	}

	tickInterval := interval / 2
	logger.Info("systemd watchdog enabled",
		slog.Duration("watchdog_sec", interval),
		slog.Duration("keepalive_interval", tickInterval),
	)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, wdErr := daemon.SdNotify(false, daemon.SdNotifyWatchdog); wdErr != nil {
				logger.Warn("failed to send watchdog keepalive",
					slog.String("error", wdErr.Error()),
				)
			}
		}
	}
}

// -------------------------------------------------------------------------
// SIGHUP Reload — log level + users file
// -------------------------------------------------------------------------

// reloadCount tracks SIGHUP reloads for log correlation.
var reloadCount atomic.Uint64

// handleSIGHUP listens for SIGHUP signals and reloads the users file and
// log level. Blocks until the context is cancelled.
func handleSIGHUP(
	ctx context.Context,
	sigHUP <-chan os.Signal,
	configPath string,
	logLevel *slog.LevelVar,
	dictionary *dict.Dictionary,
	collector *radmetrics.Collector,
	logger *slog.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigHUP:
			logger.Info("received SIGHUP, reloading",
				slog.Uint64("reload", reloadCount.Add(1)),
			)
			reloadConfig(configPath, logLevel, dictionary, collector, logger)
		}
	}
}

// reloadConfig loads a fresh configuration, updates the dynamic log
// level, and re-parses the users file. Errors during reload are logged
// but do not stop the daemon -- the previous state remains in effect.
func reloadConfig(
	configPath string,
	logLevel *slog.LevelVar,
	dictionary *dict.Dictionary,
	collector *radmetrics.Collector,
	logger *slog.Logger,
) {
	newCfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to reload configuration, keeping current settings",
			slog.String("error", err.Error()),
		)
		return
	}

	oldLevel := logLevel.Level()
	newLevel := config.ParseLogLevel(newCfg.Log.Level)
	logLevel.Set(newLevel)

	logger.Info("configuration reloaded",
		slog.String("old_log_level", oldLevel.String()),
		slog.String("new_log_level", newLevel.String()),
	)

	if err := loadUsers(newCfg, dictionary, collector, logger); err != nil {
		logger.Error("failed to reload users file, keeping current entries",
			slog.String("error", err.Error()),
		)
	}
}

// -------------------------------------------------------------------------
// Server Setup and Shutdown
// -------------------------------------------------------------------------

// newAdminServer creates the admin HTTP server: health, decode API and
// Prometheus metrics. The handler is wrapped with h2c so HTTP/2 clients
// work over plaintext.
func newAdminServer(cfg config.AdminConfig, d *dict.Dictionary, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := server.NewMux(d, logger, map[string]http.Handler{
		cfg.MetricsPath: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// listenAndServe creates a TCP listener and serves HTTP requests until
// the server is shut down.
func listenAndServe(ctx context.Context, srv *http.Server, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

// gracefulShutdown drains the admin HTTP server within shutdownTimeout.
// The UDP listeners are closed by the receiver when the context ends.
func gracefulShutdown(ctx context.Context, logger *slog.Logger, srv *http.Server) error {
	notifyStopping(logger)

	// Derive a fresh shutdown context from the parent (which is
	// cancelled) so the drain gets its own timeout.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown admin server: %w", err)
	}
	return nil
}
