package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pedromatt/tinyledger/internal/api"
	"github.com/pedromatt/tinyledger/internal/audit"
	auditpg "github.com/pedromatt/tinyledger/internal/audit/postgres"
	"github.com/pedromatt/tinyledger/internal/config"
	"github.com/pedromatt/tinyledger/internal/events"
	"github.com/pedromatt/tinyledger/internal/events/kafka"
	"github.com/pedromatt/tinyledger/internal/ledger"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		logger.Info("event publishing enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic))
	}

	var archiver audit.Archiver = audit.Nop{}
	if cfg.AuditDatabaseURL != "" {
		pg, err := auditpg.NewArchiver(cfg.AuditDatabaseURL)
		if err != nil {
			logger.Fatal("connect audit database", zap.Error(err))
		}
		defer pg.Close()
		archiver = pg
		logger.Info("audit archive enabled")
	}

	engine := ledger.NewEngine()
	server := api.NewServer(engine, publisher, archiver, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("ledger server listening", zap.String("addr", cfg.ServerAddr))
	if err := server.Listen(cfg.ServerAddr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
