package pipeline

import (
	"context"
	"fmt"
	"time"

	"marketetl/config"
	"marketetl/internal/metadata"
	"marketetl/internal/report"
	"marketetl/pkg/storage/postgres"

	"go.uber.org/zap"
)

const MetadataPipelineName = "fetch_company_metadata"

// MetadataJob enriches stored companies from descriptive sources. Fields
// already populated are never overwritten, so the job is safe to re-run and
// safe to point at sources of different quality.
type MetadataJob struct {
	Cfg      *config.Config
	Store    *postgres.PostgresClient
	Primary  MetadataSource
	Fallback MetadataSource // optional, consulted only when core fields are still missing
	Reports  *report.Writer // optional
	Logger   *zap.Logger
}

func (j *MetadataJob) Run(ctx context.Context) error {
	started := time.Now().UTC()
	log := j.Logger

	companies, err := j.Store.Companies(ctx)
	if err != nil {
		return recordFailure(ctx, j.Store, log, MetadataPipelineName, started,
			fmt.Errorf("list companies: %w", err))
	}
	log.Info("enriching company metadata", zap.Int("companies", len(companies)))

	var (
		updated  int64
		warnings int64
		rows     []report.Row
	)
	for i, c := range companies {
		if ctx.Err() != nil {
			log.Warn("run cancelled", zap.Int("remaining", len(companies)-i))
			warnings++
			break
		}

		rec, fetched := j.fetchMerged(ctx, c.Symbol)
		if !fetched {
			warnings++
			rows = append(rows, report.Row{Entity: c.Symbol, Status: "FETCH_FAILED", Detail: "no source produced a record"})
			continue
		}

		changed, err := j.Store.UpdateCompanyMetadata(ctx, c.ID, rec)
		if err != nil {
			log.Warn("metadata update failed", zap.String("symbol", c.Symbol), zap.Error(err))
			warnings++
			rows = append(rows, report.Row{Entity: c.Symbol, Status: "DB_ERROR", Detail: err.Error()})
			continue
		}
		if changed {
			updated++
			rows = append(rows, report.Row{Entity: c.Symbol, Status: "UPDATED", Detail: "source " + rec.Source})
		} else {
			rows = append(rows, report.Row{Entity: c.Symbol, Status: "UNCHANGED", Detail: ""})
		}

		if i < len(companies)-1 {
			time.Sleep(j.Cfg.Ingest.SymbolPause)
		}
	}

	if j.Reports != nil {
		if _, err := j.Reports.Write(MetadataPipelineName, rows); err != nil {
			log.Warn("failed to write report", zap.Error(err))
		}
	}

	status := runStatus(warnings)
	if _, err := j.Store.RecordRun(ctx, MetadataPipelineName, status, int(updated), "", started, time.Now().UTC()); err != nil {
		log.Error("failed to record run outcome", zap.Error(err))
	}
	log.Info("metadata enrichment finished",
		zap.String("status", string(status)),
		zap.Int64("companies_updated", updated),
		zap.Int64("warnings", warnings))
	return nil
}

// fetchMerged asks the primary source first and consults the fallback only
// when the merged view still misses core fields. The merge keeps the primary
// value wherever both sources know a field.
func (j *MetadataJob) fetchMerged(ctx context.Context, symbol string) (metadata.Record, bool) {
	log := j.Logger

	rec, err := j.Primary.FetchOne(ctx, symbol)
	fetched := err == nil
	if err != nil {
		log.Warn("primary metadata fetch failed", zap.String("symbol", symbol), zap.Error(err))
		rec = metadata.Record{}
	}

	if j.Fallback != nil && rec.MissingCore() {
		fb, err := j.Fallback.FetchOne(ctx, symbol)
		if err != nil {
			log.Warn("fallback metadata fetch failed", zap.String("symbol", symbol), zap.Error(err))
		} else {
			merged := metadata.Merge(rec, fb)
			if !fetched || merged != rec {
				merged.Source = fb.Source
				if fetched {
					merged.Source = rec.Source + "+" + fb.Source
				}
				rec = merged
			}
			fetched = true
		}
	}
	return rec, fetched
}
