package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketetl/config"
	"marketetl/internal/fetch"
	"marketetl/internal/report"
	"marketetl/internal/universe"
	"marketetl/pkg/storage/postgres"

	"go.uber.org/zap"
)

const VolumePipelineName = "fix_zero_volume"

// VolumeJob repairs zero-volume bars from the exchange's bulk daily
// snapshot. Volume is the only field it may touch, and only while the stored
// value is still zero.
type VolumeJob struct {
	Cfg     *config.Config
	Store   *postgres.PostgresClient
	Source  VolumeSource
	Reports *report.Writer // optional
	Logger  *zap.Logger
}

func (j *VolumeJob) Run(ctx context.Context) error {
	started := time.Now().UTC()
	log := j.Logger

	dates, err := j.Store.ZeroVolumeDates(ctx)
	if err != nil {
		return recordFailure(ctx, j.Store, log, VolumePipelineName, started,
			fmt.Errorf("zero-volume dates: %w", err))
	}
	log.Info("dates with zero-volume bars", zap.Int("dates", len(dates)))

	var (
		updates  int64
		warnings int64
		rows     []report.Row
	)
	for i, date := range dates {
		if ctx.Err() != nil {
			log.Warn("run cancelled", zap.Int("remaining", len(dates)-i))
			warnings++
			break
		}

		day := postgres.DateKey(date)
		volumes, err := j.Source.FetchForDate(ctx, date)
		if errors.Is(err, fetch.ErrNotAvailable) {
			// Holiday or pre-publication date: nothing to reconcile against.
			log.Info("no snapshot published for date", zap.String("date", day))
			rows = append(rows, report.Row{Entity: day, Status: "SKIPPED", Detail: "no snapshot available"})
			continue
		}
		if err != nil {
			log.Warn("snapshot fetch failed", zap.String("date", day), zap.Error(err))
			warnings++
			rows = append(rows, report.Row{Entity: day, Status: "FETCH_FAILED", Detail: err.Error()})
			continue
		}

		bars, err := j.Store.ZeroVolumeBars(ctx, date)
		if err != nil {
			log.Warn("loading zero-volume bars failed", zap.String("date", day), zap.Error(err))
			warnings++
			rows = append(rows, report.Row{Entity: day, Status: "DB_ERROR", Detail: err.Error()})
			continue
		}

		dayUpdates := 0
		for _, bar := range bars {
			vol, ok := volumes[universe.BaseSymbol(bar.Symbol)]
			if !ok || vol <= 0 {
				rows = append(rows, report.Row{Entity: bar.Symbol, Status: "UNRESOLVED", Detail: day})
				continue
			}
			done, err := j.Store.UpdateVolume(ctx, bar.ID, vol)
			if err != nil {
				log.Warn("volume update failed",
					zap.String("symbol", bar.Symbol), zap.String("date", day), zap.Error(err))
				warnings++
				rows = append(rows, report.Row{Entity: bar.Symbol, Status: "DB_ERROR", Detail: err.Error()})
				continue
			}
			if done {
				dayUpdates++
				rows = append(rows, report.Row{Entity: bar.Symbol, Status: "UPDATED", Detail: fmt.Sprintf("%s volume=%d", day, vol)})
			}
		}
		updates += int64(dayUpdates)
		log.Info("date reconciled", zap.String("date", day), zap.Int("bars_fixed", dayUpdates))

		if i < len(dates)-1 {
			time.Sleep(j.Cfg.NSE.RequestPause)
		}
	}

	if j.Reports != nil {
		if _, err := j.Reports.Write(VolumePipelineName, rows); err != nil {
			log.Warn("failed to write report", zap.Error(err))
		}
	}

	status := runStatus(warnings)
	if _, err := j.Store.RecordRun(ctx, VolumePipelineName, status, int(updates), "", started, time.Now().UTC()); err != nil {
		log.Error("failed to record run outcome", zap.Error(err))
	}
	log.Info("zero-volume repair finished",
		zap.String("status", string(status)),
		zap.Int64("bars_updated", updates),
		zap.Int64("warnings", warnings))
	return nil
}
