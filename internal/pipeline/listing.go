package pipeline

import (
	"context"
	"fmt"
	"time"

	"marketetl/internal/report"
	"marketetl/internal/universe"
	"marketetl/pkg/storage/postgres"

	"go.uber.org/zap"
)

const ListingPipelineName = "fill_listing_date"

// ListingJob backfills missing listing dates from the exchange's official
// listed-securities file. One bulk download covers every company.
type ListingJob struct {
	Store   *postgres.PostgresClient
	Source  ListingSource
	Reports *report.Writer // optional
	Logger  *zap.Logger
}

func (j *ListingJob) Run(ctx context.Context) error {
	started := time.Now().UTC()
	log := j.Logger

	companies, err := j.Store.Companies(ctx)
	if err != nil {
		return recordFailure(ctx, j.Store, log, ListingPipelineName, started,
			fmt.Errorf("list companies: %w", err))
	}

	listings, err := j.Source.FetchEquityList(ctx)
	if err != nil {
		return recordFailure(ctx, j.Store, log, ListingPipelineName, started,
			fmt.Errorf("fetch equity list: %w", err))
	}
	byBase := make(map[string]time.Time, len(listings))
	for _, l := range listings {
		if !l.ListingDate.IsZero() {
			byBase[l.Symbol] = l.ListingDate
		}
	}
	log.Info("equity list loaded",
		zap.Int("listings", len(listings)),
		zap.Int("with_dates", len(byBase)),
		zap.Int("companies", len(companies)))

	var (
		updated  int64
		warnings int64
		rows     []report.Row
	)
	for _, c := range companies {
		if c.ListingDate.Valid {
			continue
		}
		d, ok := byBase[universe.BaseSymbol(c.Symbol)]
		if !ok {
			rows = append(rows, report.Row{Entity: c.Symbol, Status: "NOT_FOUND", Detail: "no listing date in equity list"})
			continue
		}
		done, err := j.Store.UpdateListingDate(ctx, c.ID, d)
		if err != nil {
			log.Warn("listing date update failed", zap.String("symbol", c.Symbol), zap.Error(err))
			warnings++
			rows = append(rows, report.Row{Entity: c.Symbol, Status: "DB_ERROR", Detail: err.Error()})
			continue
		}
		if done {
			updated++
			rows = append(rows, report.Row{Entity: c.Symbol, Status: "UPDATED", Detail: postgres.DateKey(d)})
		}
	}

	if j.Reports != nil {
		if _, err := j.Reports.Write(ListingPipelineName, rows); err != nil {
			log.Warn("failed to write report", zap.Error(err))
		}
	}

	status := runStatus(warnings)
	if _, err := j.Store.RecordRun(ctx, ListingPipelineName, status, int(updated), "", started, time.Now().UTC()); err != nil {
		log.Error("failed to record run outcome", zap.Error(err))
	}
	log.Info("listing date backfill finished",
		zap.String("status", string(status)),
		zap.Int64("companies_updated", updated))
	return nil
}
