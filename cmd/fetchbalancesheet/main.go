package main

import (
	"context"
	"os"
	"os/signal"

	"marketetl/config"
	"marketetl/internal/fetch"
	"marketetl/internal/pipeline"
	"marketetl/internal/report"
	"marketetl/logger"
	"marketetl/pkg/storage/postgres"
	"marketetl/pkg/yahoo"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		log.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()

	job := &pipeline.BalanceSheetJob{
		Cfg:     cfg,
		Store:   store,
		Source:  yahoo.NewClient(cfg.Yahoo, fetch.NewPolicy(cfg.Retry)),
		Reports: report.New(cfg.Report.Dir),
		Logger:  log,
	}
	if err := job.Run(ctx); err != nil {
		log.Fatal("balance sheet ingestion failed", zap.Error(err))
	}
}
