package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xgenlab/xgenaudio/internal/auditlog"
	"github.com/xgenlab/xgenaudio/internal/config"
	"github.com/xgenlab/xgenaudio/internal/configstore"
	"github.com/xgenlab/xgenaudio/internal/dbstore"
	"github.com/xgenlab/xgenaudio/internal/env"
	"github.com/xgenlab/xgenaudio/internal/logger"
	"github.com/xgenlab/xgenaudio/internal/provider"
	"github.com/xgenlab/xgenaudio/internal/provider/piper"
	"github.com/xgenlab/xgenaudio/internal/provider/whisper"
	"github.com/xgenlab/xgenaudio/internal/provider/zonos"
	httpserver "github.com/xgenlab/xgenaudio/internal/server/http"
	"github.com/xgenlab/xgenaudio/internal/service"
	"github.com/xgenlab/xgenaudio/internal/xfs"
)

func main() {
	var (
		flagConfigPath = flag.String("config", path.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
	)
	flag.Parse()

	environment := env.FromEnv()
	configPath := xfs.ExpandTilde(*flagConfigPath)

	watcher, err := config.NewWatcher(configPath, func(cfg *config.Config, err error) {
		if err != nil {
			slog.Error("Failed to reload config", "error", err)
			return
		}
		slog.Info("Config reloaded", "config", configPath)
	})
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return
	}
	cfg := watcher.Snapshot()

	logOpts := []logger.Option{}
	if cfg.Logging.File != "" {
		logOpts = append(logOpts,
			logger.WithLogToFile(true),
			logger.WithLogFile(cfg.Logging.File),
			logger.WithRotation(cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups),
		)
	}
	slog.SetDefault(logger.New(environment, logOpts...))

	slog.Info("Config loaded successfully", "config", configPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	store := configstore.New(rdb)
	if err := store.Ping(ctx); err != nil {
		slog.Error("Failed to connect to config store", "addr", cfg.RedisAddr(), "error", err)
		return
	}

	if report := store.ValidateCritical(ctx); !report.Valid {
		slog.Warn("Critical configuration issues found", "errors", report.Errors, "warnings", report.Warnings)
	}

	var db *dbstore.Store
	if url := cfg.DatabaseURL(); url != "" {
		connCfg, err := dbstore.ParseURL(url)
		if err != nil {
			slog.Error("Invalid database URL", "error", err)
			return
		}

		db, err = dbstore.Open(ctx, connCfg)
		if err != nil {
			var cerr *dbstore.ConnError
			if errors.As(err, &cerr) {
				slog.Error("Failed to connect to database", "kind", cerr.Kind, "hints", cerr.Hints, "error", err)
			} else {
				slog.Error("Failed to connect to database", "error", err)
			}
			return
		}
		defer db.Close()

		result, err := db.Reconcile(ctx, auditlog.Table, auditlog.TableSchema())
		if err != nil {
			slog.Error("Failed to reconcile audit table", "error", err)
			return
		}
		if result.Partial() {
			slog.Warn("Audit table reconciled partially", "added", result.Added, "failed", len(result.Failed))
		}
	} else {
		slog.Info("No database configured, audit persistence disabled")
	}

	audit := auditlog.New(db)
	bins := service.BinPaths{
		Whisper: xfs.ExpandTilde(cfg.Providers.WhisperBin),
		Zonos:   xfs.ExpandTilde(cfg.Providers.ZonosBin),
		Piper:   xfs.ExpandTilde(cfg.Providers.PiperBin),
	}

	sttFactory := provider.NewFactory[provider.STT]("stt")
	sttFactory.Register(whisper.Kind, "Whisper STT", func(ctx context.Context, pc provider.Config) (provider.STT, error) {
		return whisper.New(ctx, pc)
	})

	ttsFactory := provider.NewFactory[provider.TTS]("tts")
	ttsFactory.Register(zonos.Kind, "Zonos TTS", func(ctx context.Context, pc provider.Config) (provider.TTS, error) {
		return zonos.New(ctx, pc)
	})
	ttsFactory.Register(piper.Kind, "Piper TTS", func(ctx context.Context, pc provider.Config) (provider.TTS, error) {
		return piper.New(ctx, pc)
	})

	sttService := service.NewSTT(store, sttFactory, audit, bins)
	ttsService := service.NewTTS(store, ttsFactory, audit, bins)

	server := httpserver.New(cfg.Addr(), sttService, ttsService)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Addr())
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			slog.Error("HTTP server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}

	sttFactory.Dispose(shutdownCtx)
	ttsFactory.Dispose(shutdownCtx)

	slog.Info("Shutdown complete")
}
