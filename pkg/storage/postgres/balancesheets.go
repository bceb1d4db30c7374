package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// PeriodKey is the canonical map key for a fiscal period, e.g. "2024-Q3".
func PeriodKey(year, quarter int) string {
	return fmt.Sprintf("%d-Q%d", year, quarter)
}

// ExistingPeriods returns the set of fiscal periods already stored for a
// company. Called once per company per run, mirroring the trade-date dedup.
func (p *PostgresClient) ExistingPeriods(ctx context.Context, companyID uint) (map[string]struct{}, error) {
	var rows []struct {
		FiscalYear    int
		FiscalQuarter int
	}
	err := p.DB.WithContext(ctx).
		Model(&BalanceSheet{}).
		Where("company_id = ?", companyID).
		Select("fiscal_year", "fiscal_quarter").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		out[PeriodKey(r.FiscalYear, r.FiscalQuarter)] = struct{}{}
	}
	return out, nil
}

// InsertBalanceSheets inserts the given filings in one transaction: either
// the whole flush lands or none of it does, same contract as price bars.
func (p *PostgresClient) InsertBalanceSheets(ctx context.Context, rows []BalanceSheet) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
