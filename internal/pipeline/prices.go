package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"marketetl/config"
	"marketetl/internal/fetch"
	"marketetl/internal/report"
	"marketetl/internal/series"
	"marketetl/internal/snapshot"
	"marketetl/internal/universe"
	"marketetl/pkg/storage/postgres"

	"go.uber.org/zap"
)

const PricePipelineName = "fetch_price_history"

// PriceJob is the primary price-ingestion pipeline: universe-driven batch
// fetch, validation, dedup against stored dates, and per-entity transactional
// persistence.
type PriceJob struct {
	Cfg       *config.Config
	Store     *postgres.PostgresClient
	Source    PriceSource
	Snapshots *snapshot.FileStore // optional
	Reports   *report.Writer      // optional
	Logger    *zap.Logger
}

// Run executes one full ingestion pass. A missing universe file aborts
// before any audit row is written; every other failure mode is local to a
// symbol or batch and degrades the run to PARTIAL instead of killing it.
func (j *PriceJob) Run(ctx context.Context) error {
	started := time.Now().UTC()
	log := j.Logger

	symbols, err := universe.Load(j.Cfg.Ingest.UniverseFile)
	if err != nil {
		return err // fatal configuration: no storage touched yet, no run row
	}
	log.Info("loaded universe", zap.Int("symbols", len(symbols)), zap.String("file", j.Cfg.Ingest.UniverseFile))

	seeds := make([]postgres.CompanySeed, 0, len(symbols))
	for _, s := range symbols {
		seeds = append(seeds, postgres.CompanySeed{Symbol: s, Exchange: j.Cfg.Ingest.Exchange})
	}
	mapping, err := j.Store.EnsureCompanies(ctx, seeds)
	if err != nil {
		return recordFailure(ctx, j.Store, log, PricePipelineName, started,
			fmt.Errorf("ensure companies: %w", err))
	}
	log.Info("company mapping ready", zap.Int("companies", len(mapping)))

	end := time.Now().UTC()
	start := end.AddDate(-j.Cfg.Ingest.Years, 0, 0)

	var (
		totalRows int64
		warnings  int64
		rowsMu    sync.Mutex
		rows      []report.Row
		wg        sync.WaitGroup
	)
	collect := func(r report.Row) {
		rowsMu.Lock()
		rows = append(rows, r)
		rowsMu.Unlock()
	}

	workers := j.Cfg.Ingest.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	batches := universe.Chunk(symbols, j.Cfg.Ingest.BatchSize)
	aborted := false
	for i, batch := range batches {
		// Cancellation is honored at batch boundaries only: whatever is
		// already committed stays committed.
		if ctx.Err() != nil {
			log.Warn("run cancelled between batches", zap.Int("remaining", len(batches)-i))
			aborted = true
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(batch []string) {
			defer wg.Done()
			defer func() { <-sem }()
			j.processBatch(ctx, batch, mapping, start, end, &totalRows, &warnings, collect)
		}(batch)

		// Polite pause between batch dispatches. With more workers than
		// batches in flight this does not space out the provider calls
		// themselves; the pause is a courtesy, not a rate limit.
		if i < len(batches)-1 {
			time.Sleep(j.Cfg.Ingest.BatchPause)
		}
	}
	wg.Wait()

	if j.Reports != nil {
		if path, err := j.Reports.Write(PricePipelineName, rows); err != nil {
			log.Warn("failed to write report", zap.Error(err))
		} else {
			log.Info("wrote report", zap.String("path", path))
		}
	}

	status := runStatus(warnings)
	if aborted {
		status = postgres.StatusPartial
	}
	inserted := int(atomic.LoadInt64(&totalRows))
	if _, err := j.Store.RecordRun(ctx, PricePipelineName, status, inserted, "", started, time.Now().UTC()); err != nil {
		log.Error("failed to record run outcome", zap.Error(err))
	}
	log.Info("price ingestion finished",
		zap.String("status", string(status)),
		zap.Int("rows_inserted", inserted),
		zap.Int64("warnings", atomic.LoadInt64(&warnings)))
	return nil
}

// processBatch handles one batch end to end. All persistence for a symbol
// happens inside this goroutine, so writes to one entity are serialized by
// construction; concurrent batches touch disjoint entities.
func (j *PriceJob) processBatch(ctx context.Context, batch []string, mapping map[string]uint,
	start, end time.Time, totalRows, warnings *int64, collect func(report.Row)) {

	log := j.Logger
	results := j.Source.FetchRange(ctx, batch, start, end)

	for _, symbol := range batch {
		res := results[symbol]
		switch res.Outcome {
		case fetch.Empty:
			log.Warn("no data for symbol", zap.String("symbol", symbol))
			atomic.AddInt64(warnings, 1)
			collect(report.Row{Entity: symbol, Status: "EMPTY", Detail: "provider returned no data"})
			continue
		case fetch.Transient, fetch.Fatal:
			log.Warn("fetch failed for symbol",
				zap.String("symbol", symbol),
				zap.String("outcome", res.Outcome.String()),
				zap.Error(res.Err))
			atomic.AddInt64(warnings, 1)
			collect(report.Row{Entity: symbol, Status: "FETCH_FAILED", Detail: res.Err.Error()})
			continue
		}

		if j.Snapshots != nil {
			if err := j.Snapshots.WriteRaw(symbol, res.Rows); err != nil {
				log.Warn("failed to write raw snapshot", zap.String("symbol", symbol), zap.Error(err))
			}
		}

		bars := series.Clean(res.Rows)
		if len(bars) == 0 {
			log.Warn("series empty after validation", zap.String("symbol", symbol))
			atomic.AddInt64(warnings, 1)
			collect(report.Row{Entity: symbol, Status: "EMPTY", Detail: "no rows survived validation"})
			continue
		}
		if j.Snapshots != nil {
			if err := j.Snapshots.WriteClean(symbol, bars); err != nil {
				log.Warn("failed to write clean snapshot", zap.String("symbol", symbol), zap.Error(err))
			}
		}

		companyID, ok := mapping[symbol]
		if !ok {
			log.Error("no company id for symbol", zap.String("symbol", symbol))
			atomic.AddInt64(warnings, 1)
			collect(report.Row{Entity: symbol, Status: "NO_ENTITY", Detail: "symbol missing from mapping"})
			continue
		}

		inserted, err := j.persistNewBars(ctx, companyID, bars)
		if err != nil {
			// Already rolled back; the entity's date coverage is intact.
			log.Warn("persist failed for symbol", zap.String("symbol", symbol), zap.Error(err))
			atomic.AddInt64(warnings, 1)
			collect(report.Row{Entity: symbol, Status: "PERSIST_FAILED", Detail: err.Error()})
			continue
		}

		atomic.AddInt64(totalRows, int64(inserted))
		log.Info("inserted rows for symbol", zap.String("symbol", symbol), zap.Int("rows", inserted))
		collect(report.Row{Entity: symbol, Status: "OK", Detail: fmt.Sprintf("inserted %d rows", inserted)})
	}
}

// persistNewBars inserts only the dates not already stored, in ascending
// order, as one transaction.
func (j *PriceJob) persistNewBars(ctx context.Context, companyID uint, bars []series.Bar) (int, error) {
	existing, err := j.Store.ExistingDates(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("existing dates: %w", err)
	}

	toInsert := make([]postgres.PriceBar, 0, len(bars))
	for _, b := range bars {
		if _, present := existing[postgres.DateKey(b.Date)]; present {
			continue
		}
		toInsert = append(toInsert, postgres.PriceBar{
			CompanyID: companyID,
			TradeDate: b.Date,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			AdjClose:  b.AdjClose,
			Volume:    b.Volume,
		})
	}

	return j.Store.InsertBars(ctx, toInsert)
}
