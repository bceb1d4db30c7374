package pipeline

import (
	"context"
	"fmt"
	"time"

	"marketetl/config"
	"marketetl/internal/fundamentals"
	"marketetl/internal/report"
	"marketetl/pkg/storage/postgres"

	"go.uber.org/zap"
)

const BalanceSheetPipelineName = "fetch_quarterly_balance_sheet"

// BalanceSheetJob ingests quarterly balance-sheet filings per company.
// Periods already stored are never refetched, so the job only ever appends
// the newest filings on a re-run.
type BalanceSheetJob struct {
	Cfg     *config.Config
	Store   *postgres.PostgresClient
	Source  FundamentalsSource
	Reports *report.Writer // optional
	Logger  *zap.Logger
}

func (j *BalanceSheetJob) Run(ctx context.Context) error {
	started := time.Now().UTC()
	log := j.Logger

	companies, err := j.Store.Companies(ctx)
	if err != nil {
		return recordFailure(ctx, j.Store, log, BalanceSheetPipelineName, started,
			fmt.Errorf("list companies: %w", err))
	}
	log.Info("ingesting balance sheets", zap.Int("companies", len(companies)))

	var (
		totalRows int64
		warnings  int64
		rows      []report.Row
	)
	for i, c := range companies {
		if ctx.Err() != nil {
			log.Warn("run cancelled", zap.Int("remaining", len(companies)-i))
			warnings++
			break
		}

		stmts, err := j.Source.FetchQuarterly(ctx, c.Symbol)
		if err != nil {
			log.Warn("balance sheet fetch failed", zap.String("symbol", c.Symbol), zap.Error(err))
			warnings++
			rows = append(rows, report.Row{Entity: c.Symbol, Status: "FETCH_FAILED", Detail: err.Error()})
			continue
		}
		if len(stmts) == 0 {
			log.Warn("no balance sheet data", zap.String("symbol", c.Symbol))
			warnings++
			rows = append(rows, report.Row{Entity: c.Symbol, Status: "NO_DATA", Detail: "provider returned no statements"})
			continue
		}

		inserted, err := j.persistNewStatements(ctx, c.ID, stmts)
		if err != nil {
			log.Warn("persist failed", zap.String("symbol", c.Symbol), zap.Error(err))
			warnings++
			rows = append(rows, report.Row{Entity: c.Symbol, Status: "PERSIST_FAILED", Detail: err.Error()})
			continue
		}

		totalRows += int64(inserted)
		log.Info("inserted filings", zap.String("symbol", c.Symbol), zap.Int("rows", inserted))
		rows = append(rows, report.Row{Entity: c.Symbol, Status: "OK", Detail: fmt.Sprintf("inserted %d filings", inserted)})

		if i < len(companies)-1 {
			time.Sleep(j.Cfg.Ingest.SymbolPause)
		}
	}

	if j.Reports != nil {
		if _, err := j.Reports.Write(BalanceSheetPipelineName, rows); err != nil {
			log.Warn("failed to write report", zap.Error(err))
		}
	}

	status := runStatus(warnings)
	if _, err := j.Store.RecordRun(ctx, BalanceSheetPipelineName, status, int(totalRows), "", started, time.Now().UTC()); err != nil {
		log.Error("failed to record run outcome", zap.Error(err))
	}
	log.Info("balance sheet ingestion finished",
		zap.String("status", string(status)),
		zap.Int64("rows_inserted", totalRows),
		zap.Int64("warnings", warnings))
	return nil
}

// persistNewStatements inserts only the fiscal periods not already stored,
// as one transaction per company. Duplicate periods inside one response
// (provider hiccup) are collapsed, first occurrence wins.
func (j *BalanceSheetJob) persistNewStatements(ctx context.Context, companyID uint, stmts []fundamentals.Statement) (int, error) {
	existing, err := j.Store.ExistingPeriods(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("existing periods: %w", err)
	}

	seen := make(map[string]struct{}, len(stmts))
	toInsert := make([]postgres.BalanceSheet, 0, len(stmts))
	for _, s := range stmts {
		key := postgres.PeriodKey(s.FiscalYear(), s.FiscalQuarter())
		if _, present := existing[key]; present {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		toInsert = append(toInsert, postgres.BalanceSheet{
			CompanyID:     companyID,
			FiscalYear:    s.FiscalYear(),
			FiscalQuarter: s.FiscalQuarter(),
			ReportDate:    s.ReportDate,

			TotalAssets:        s.Values[fundamentals.TotalAssets],
			TotalLiabilities:   s.Values[fundamentals.TotalLiabilities],
			ShareholderEquity:  s.Values[fundamentals.ShareholderEquity],
			CurrentAssets:      s.Values[fundamentals.CurrentAssets],
			CurrentLiabilities: s.Values[fundamentals.CurrentLiabilities],
			CashAndEquivalents: s.Values[fundamentals.CashAndEquivalents],
			Inventory:          s.Values[fundamentals.Inventory],
			Receivables:        s.Values[fundamentals.Receivables],
			LongTermDebt:       s.Values[fundamentals.LongTermDebt],
			ShortTermDebt:      s.Values[fundamentals.ShortTermDebt],
			RetainedEarnings:   s.Values[fundamentals.RetainedEarnings],
		})
	}

	return j.Store.InsertBalanceSheets(ctx, toInsert)
}
