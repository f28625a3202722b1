package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/duskspire/server/internal/config"
	"github.com/duskspire/server/internal/data"
	gonet "github.com/duskspire/server/internal/net"
	"github.com/duskspire/server/internal/persist"
	"github.com/duskspire/server/internal/room"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("DUSKSPIRE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("duskspire starting",
		zap.String("server", cfg.Server.Name), zap.Int("id", cfg.Server.ID))

	// 3. Connect to PostgreSQL and run migrations
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("database ready")

	// 4. Load static data tables
	tables, err := data.LoadAll(cfg.Server.DataDir)
	if err != nil {
		return fmt.Errorf("load data tables: %w", err)
	}
	log.Info("data tables loaded",
		zap.Int("monsters", tables.Monsters.Count()),
		zap.Int("items", tables.Items.Count()),
		zap.Int("skills", tables.Skills.Count()),
		zap.Int("dungeons", tables.Dungeons.Count()))

	// 5. Persistence service and room manager
	svc := persist.NewService(db, tables, cfg.Gameplay, log)

	mgr, err := room.NewManager(cfg, tables, svc, log)
	if err != nil {
		return fmt.Errorf("room manager: %w", err)
	}

	// 6. Websocket gateway
	server := gonet.NewServer(mgr, cfg.Network, cfg.RateLimit, log)
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	log.Info("listening", zap.String("addr", cfg.Network.BindAddress))

	// 7. Wait for shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listener: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("listener shutdown", zap.Error(err))
	}
	if err := mgr.Shutdown(shutdownCtx); err != nil {
		log.Warn("room shutdown", zap.Error(err))
	}
	log.Info("goodbye")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
