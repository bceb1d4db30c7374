package main

import (
	"context"
	"os"
	"os/signal"
	"sort"

	"marketetl/config"
	"marketetl/internal/fetch"
	"marketetl/internal/universe"
	"marketetl/logger"
	"marketetl/pkg/nse"

	"go.uber.org/zap"
)

const index = "NIFTY 500"

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

	client := nse.NewClient(cfg.NSE, fetch.NewPolicy(cfg.Retry))
	symbols, err := client.FetchIndexConstituents(ctx, index)
	if err != nil {
		log.Fatal("fetching index constituents failed", zap.String("index", index), zap.Error(err))
	}

	// provider symbols carry the exchange suffix
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		ticker := s + ".NS"
		if _, dup := seen[ticker]; dup {
			continue
		}
		seen[ticker] = struct{}{}
		out = append(out, ticker)
	}
	sort.Strings(out)

	if err := universe.Write(cfg.Ingest.UniverseFile, out); err != nil {
		log.Fatal("writing universe file failed", zap.Error(err))
	}
	log.Info("universe file written",
		zap.String("path", cfg.Ingest.UniverseFile),
		zap.Int("symbols", len(out)))
}
