package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kardianos/service"

	"github.com/jaka1m/rokok/internal/config"
	"github.com/jaka1m/rokok/internal/health"
	"github.com/jaka1m/rokok/internal/tunnel"
	"github.com/jaka1m/rokok/internal/wsapi"
)

// gateway implements kardianos/service.Interface for OS service lifecycle.
type gateway struct {
	cfg    *config.Config
	cancel context.CancelFunc
}

func (g *gateway) Start(s service.Service) error {
	go g.run()
	return nil
}

func (g *gateway) Stop(s service.Service) error {
	slog.Info("service stop requested")
	if g.cancel != nil {
		g.cancel()
	}
	return nil
}

func (g *gateway) run() {
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	defer cancel()

	if err := runGateway(ctx, g.cfg); err != nil {
		slog.Error("gateway exited with error", "error", err)
		os.Exit(1)
	}
}

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default: "+config.DefaultConfigPath+")")
		doInstall   = flag.Bool("install", false, "install as an OS service")
		doUninstall = flag.Bool("uninstall", false, "uninstall the OS service")
		doRun       = flag.Bool("run", false, "run in foreground (non-service mode)")
	)
	flag.Parse()

	initLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	initLogger(cfg.LogLevel)

	svcConfig := &service.Config{
		Name:        cfg.ServiceName,
		DisplayName: cfg.ServiceName,
		Description: "Multi-protocol WebSocket tunneling gateway",
		Arguments:   []string{},
	}

	gw := &gateway{cfg: cfg}
	svc, err := service.New(gw, svcConfig)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	switch {
	case *doInstall:
		if err := svc.Install(); err != nil {
			slog.Error("failed to install service", "error", err)
			os.Exit(1)
		}
		fmt.Println("Service installed successfully:", cfg.ServiceName)
		return

	case *doUninstall:
		if err := svc.Stop(); err != nil {
			slog.Warn("failed to stop service (may not be running)", "error", err)
		}
		if err := svc.Uninstall(); err != nil {
			slog.Error("failed to uninstall service", "error", err)
			os.Exit(1)
		}
		fmt.Println("Service uninstalled successfully:", cfg.ServiceName)
		return

	case *doRun:
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		slog.Info("starting gateway in foreground mode")
		if err := runGateway(ctx, cfg); err != nil {
			slog.Error("gateway exited with error", "error", err)
			os.Exit(1)
		}
		return

	default:
		if service.Interactive() {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := runGateway(ctx, cfg); err != nil {
				slog.Error("gateway exited with error", "error", err)
				os.Exit(1)
			}
		} else {
			if err := svc.Run(); err != nil {
				slog.Error("service run failed", "error", err)
				os.Exit(1)
			}
		}
	}
}

// runGateway wires the router, tunnel controller and health monitor into an
// HTTP server and blocks until ctx is cancelled or the server fails.
func runGateway(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting gateway",
		"listen_addr", cfg.ListenAddr,
		"dns_server", fmt.Sprintf("%s:%d", cfg.DNSServerAddress, cfg.DNSServerPort),
	)

	monitor := health.New()

	ctrl := tunnel.New(tunnel.Config{
		DNSServerAddress: cfg.DNSServerAddress,
		DNSServerPort:    cfg.DNSServerPort,
		DialTimeout:      time.Duration(cfg.DialTimeoutSeconds) * time.Second,
	})

	handler := wsapi.NewRouter(cfg.HandshakePath, func(conn *wsapi.Conn, stream *wsapi.InboundStream, hint string) {
		monitor.TunnelStarted()
		defer monitor.TunnelEnded()

		if err := ctrl.Run(conn, stream, hint); err != nil {
			slog.Debug("tunnel ended", "error", err)
		}
	}, func() any {
		return monitor.Status()
	})

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // tunnels are long-lived; the relay sets no write deadlines
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown requested")
	case err := <-errCh:
		slog.Error("server error, shutting down", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	slog.Info("gateway shut down cleanly")
	return nil
}

func initLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	slog.SetDefault(slog.New(handler))
}
