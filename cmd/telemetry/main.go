package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	corecfg "github.com/xcity-lab/telemetry/internal/core/config"
	"github.com/xcity-lab/telemetry/internal/core/storage"
	"github.com/xcity-lab/telemetry/internal/core/storage/cache"
	"github.com/xcity-lab/telemetry/internal/core/storage/memory"
	"github.com/xcity-lab/telemetry/internal/core/storage/postgres"
	"github.com/xcity-lab/telemetry/internal/ingestion"
	"github.com/xcity-lab/telemetry/internal/migrations"
	"github.com/xcity-lab/telemetry/internal/projection"
	"github.com/xcity-lab/telemetry/internal/publish"
	"github.com/xcity-lab/telemetry/internal/server"
)

func main() {
	configPath := flag.String("config", "telemetry.yaml", "Path to configuration file")
	flag.Parse()

	// .env is optional; real env vars win.
	_ = godotenv.Load()

	// 0. Initialize Logger (text until config is known)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Logging))
	slog.Info("Loaded config",
		"storage", cfg.Storage.Backend,
		"timezone", cfg.Location.String(),
		"classes", len(cfg.Catalog.All()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize Storage
	var (
		store   storage.ReadingStore
		devices storage.DeviceDirectory
	)
	switch cfg.Storage.Backend {
	case "postgres":
		dbAdapter, err := postgres.NewAdapter(
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
		)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer dbAdapter.Close()

		// 2.1. Run Database Migrations
		if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}
		if err := dbAdapter.Prepare(); err != nil {
			slog.Error("Failed to prepare statements", "error", err)
			os.Exit(1)
		}
		store = dbAdapter
		devices = postgres.NewDeviceAdapter(dbAdapter.DB())
	default:
		slog.Warn("Using in-memory store; readings are lost on restart")
		store = memory.NewStore()
		devices = memory.NewDirectory()
	}

	if cfg.Classes.DeviceCacheSize > 0 {
		cached, err := cache.NewDirectory(devices, cfg.Classes.DeviceCacheSize)
		if err != nil {
			slog.Error("Failed to initialize device cache", "error", err)
			os.Exit(1)
		}
		devices = cached
	}

	// 3. Initialize Live Publishers
	fanout := publish.NewFanout()
	var hub *publish.Hub
	if cfg.Publish.Websocket.Enabled {
		hub = publish.NewHub(cfg.Publish.Websocket.SendBuffer, cfg.Server.AllowedOrigins)
		defer hub.Close()
		fanout.Add("websocket", hub)
	}
	if cfg.Publish.Redis.Enabled {
		rp, err := publish.NewRedisPublisher(ctx, publish.RedisConfig{
			Addr:          cfg.Publish.Redis.Addr,
			Password:      cfg.Publish.Redis.Password,
			DB:            cfg.Publish.Redis.DB,
			ChannelPrefix: cfg.Publish.Redis.ChannelPrefix,
		})
		if err != nil {
			slog.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rp.Close()
		fanout.Add("redis", rp)
	}
	if cfg.Publish.AMQP.Enabled {
		ap, err := publish.NewAMQPPublisher(cfg.Publish.AMQP.URL, cfg.Publish.AMQP.Exchange)
		if err != nil {
			slog.Error("Failed to connect to amqp broker", "error", err)
			os.Exit(1)
		}
		defer ap.Close()
		fanout.Add("amqp", ap)
	}
	slog.Info("Live publishers initialized", "count", fanout.Len())

	// 4. Initialize Ingestion (write path)
	ingestionSvc := ingestion.NewService(
		cfg.Catalog,
		store,
		devices,
		fanout,
		cfg.Publish.Timeout,
		cfg.Server.MaxBodySizeMB,
	)

	// 5. Initialize Projection (statistics read path)
	projectionSvc := projection.NewService(
		cfg.Catalog,
		store,
		devices,
		cfg.Location,
		cfg.Statistics.MaxDownloadDevices,
	)

	// 6. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), store, cfg.Server.Mode)
	api := srv.API()
	ingestionSvc.RegisterRoutes(api, server.RateLimit(cfg.Server.RateLimit, cfg.Server.RateLimitBurst))
	projectionSvc.RegisterRoutes(api)
	if hub != nil {
		srv.MountSubscriptions(hub)
	}

	// Signal handler → triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func newLogger(w io.Writer, cfg corecfg.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
