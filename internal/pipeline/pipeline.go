// Package pipeline holds the reconciliation jobs that drive one full
// ingestion run each: load the universe, fetch from imperfect sources,
// validate, dedup against stored state, persist, and leave exactly one
// audit record behind.
//
// Jobs are safe to re-run: persistence is idempotent and metadata merges
// only ever fill empty fields. Two concurrent invocations of the same
// pipeline against the same storage are NOT safe and must be serialized
// externally (one active job per pipeline name).
package pipeline

import (
	"context"
	"time"

	"marketetl/internal/fetch"
	"marketetl/internal/fundamentals"
	"marketetl/internal/metadata"
	"marketetl/pkg/nse"
	"marketetl/pkg/storage/postgres"

	"go.uber.org/zap"
)

// PriceSource fetches a batch of raw daily series and classifies each
// symbol's outcome. One symbol failing never fails the batch.
type PriceSource interface {
	FetchRange(ctx context.Context, symbols []string, start, end time.Time) map[string]fetch.SeriesResult
}

// MetadataSource returns a best-effort partial record for one symbol.
type MetadataSource interface {
	FetchOne(ctx context.Context, symbol string) (metadata.Record, error)
}

// VolumeSource returns the authoritative base-symbol -> traded quantity
// mapping for one trade date, or fetch.ErrNotAvailable on non-trading days.
type VolumeSource interface {
	FetchForDate(ctx context.Context, date time.Time) (map[string]int64, error)
}

// ListingSource returns the exchange's official listed-securities file.
type ListingSource interface {
	FetchEquityList(ctx context.Context) ([]nse.EquityListing, error)
}

// FundamentalsSource returns a company's quarterly balance-sheet history.
type FundamentalsSource interface {
	FetchQuarterly(ctx context.Context, symbol string) ([]fundamentals.Statement, error)
}

// recordFailure writes the FAILED audit row. Once that row lands the run has
// terminated cleanly as far as the process is concerned, so the error is
// swallowed and the binary exits zero; err propagates only when the audit row
// itself could not be written.
func recordFailure(ctx context.Context, store *postgres.PostgresClient, logger *zap.Logger,
	pipeline string, started time.Time, err error) error {

	_, rerr := store.RecordRun(ctx, pipeline, postgres.StatusFailed, 0, err.Error(), started, time.Now().UTC())
	if rerr != nil {
		logger.Error("failed to record run outcome", zap.String("pipeline", pipeline), zap.Error(rerr))
		return err
	}
	logger.Error("run failed", zap.String("pipeline", pipeline), zap.Error(err))
	return nil
}

// runStatus maps "did anything go sideways" onto the audit status.
func runStatus(warnings int64) postgres.RunStatus {
	if warnings > 0 {
		return postgres.StatusPartial
	}
	return postgres.StatusSuccess
}
