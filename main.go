package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidemill/storefront/internal/application/transaction"
	"github.com/tidemill/storefront/internal/config"
	"github.com/tidemill/storefront/internal/infrastructure/audit"
	"github.com/tidemill/storefront/internal/infrastructure/memory"
	"github.com/tidemill/storefront/internal/infrastructure/outbox"
	"github.com/tidemill/storefront/internal/infrastructure/udp"
	"github.com/tidemill/storefront/internal/observability"
	"github.com/tidemill/storefront/internal/pkg/logging"
	"github.com/tidemill/storefront/internal/presentation/command"
	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad(getenvDefault("CONFIG_PATH", "config.yaml"))

	baseLogger := logging.MustNewLogger(cfg.Service.Name, cfg.Service.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithRequestID(baseLogger, logging.SystemRequestID)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	inventoryStore := memory.NewInventoryStore()
	orderLedger := memory.NewOrderLedger()

	// The server has nothing to sell without a catalog, so a bad feed is
	// fatal at startup.
	feed, err := os.Open(cfg.Inventory.FeedPath)
	if err != nil {
		systemLogger.Fatal("inventory_feed_open_failed",
			zap.String("path", cfg.Inventory.FeedPath),
			zap.Error(err),
		)
	}
	if err := inventoryStore.Load(context.Background(), feed); err != nil {
		_ = feed.Close()
		systemLogger.Fatal("inventory_feed_load_failed",
			zap.String("path", cfg.Inventory.FeedPath),
			zap.Error(err),
		)
	}
	_ = feed.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := outbox.NewBus(baseLogger)
	bus.Start(ctx)
	defer bus.Stop(context.Background())

	auditWorker := audit.New(bus)
	auditWorker.Start()

	coordinator := transaction.NewCoordinator(inventoryStore, orderLedger, bus)
	processor := command.NewProcessor(coordinator, inventoryStore, orderLedger, baseLogger, metrics)

	server := udp.NewServer(cfg.UDPServer.Addr, processor, baseLogger,
		udp.WithBufferSize(cfg.UDPServer.BufferSize),
		udp.WithWorkers(cfg.UDPServer.Workers),
		udp.WithDrainTimeout(cfg.UDPServer.DrainTimeout),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	adminServer := &http.Server{
		Addr:    cfg.Admin.Addr,
		Handler: mux,
	}

	go func() {
		systemLogger.Info("admin_server_start", zap.String("addr", adminServer.Addr))
		err := adminServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("admin_server_error", zap.Error(err))
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe(ctx)
	}()

	select {
	case <-ctx.Done():
		if err := <-serverErr; err != nil {
			systemLogger.Error("udp_server_shutdown_error", zap.Error(err))
		}
	case err := <-serverErr:
		if err != nil {
			systemLogger.Error("udp_server_error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("admin_server_shutdown_error", zap.Error(err))
	} else {
		systemLogger.Info("admin_server_stopped")
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
