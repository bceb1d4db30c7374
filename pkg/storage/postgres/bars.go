package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const dateKeyLayout = "2006-01-02"

// DateKey is the canonical map key for a trade date.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// ExistingDates returns the set of trade dates already stored for a company.
// Called once per company per run so dedup stays O(existing), not
// O(existing x incoming).
func (p *PostgresClient) ExistingDates(ctx context.Context, companyID uint) (map[string]struct{}, error) {
	var dates []time.Time
	err := p.DB.WithContext(ctx).
		Model(&PriceBar{}).
		Where("company_id = ?", companyID).
		Pluck("trade_date", &dates).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		out[DateKey(d)] = struct{}{}
	}
	return out, nil
}

// InsertBars inserts the given bars in one transaction: either the whole
// flush lands or none of it does. A unique-constraint violation (another
// writer raced us) rolls the flush back and surfaces to the caller, who
// logs it and moves on. Price fields are never updated after insert.
func (p *PostgresClient) InsertBars(ctx context.Context, bars []PriceBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&bars).Error
	})
	if err != nil {
		return 0, err
	}
	return len(bars), nil
}

// ZeroVolumeDates returns the distinct trade dates that still have at least
// one zero-volume bar, in chronological order.
func (p *PostgresClient) ZeroVolumeDates(ctx context.Context) ([]time.Time, error) {
	var dates []time.Time
	err := p.DB.WithContext(ctx).
		Model(&PriceBar{}).
		Distinct("trade_date").
		Where("volume = 0").
		Order("trade_date").
		Pluck("trade_date", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// ZeroVolumeBar is one correction candidate joined with its company symbol.
type ZeroVolumeBar struct {
	ID        uint64
	CompanyID uint
	Symbol    string
}

// ZeroVolumeBars returns all zero-volume bars on the given trade date.
func (p *PostgresClient) ZeroVolumeBars(ctx context.Context, date time.Time) ([]ZeroVolumeBar, error) {
	var out []ZeroVolumeBar
	err := p.DB.WithContext(ctx).
		Table("price_history").
		Select("price_history.id, price_history.company_id, companies.symbol").
		Joins("JOIN companies ON companies.id = price_history.company_id").
		Where("price_history.trade_date = ? AND price_history.volume = 0", date).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateVolume corrects a bar's volume from an authoritative snapshot. The
// volume = 0 guard lives in the statement itself so a bar that was already
// corrected (or never broken) can never be touched. Reports whether a row
// was updated.
func (p *PostgresClient) UpdateVolume(ctx context.Context, barID uint64, volume int64) (bool, error) {
	tx := p.DB.WithContext(ctx).
		Model(&PriceBar{}).
		Where("id = ? AND volume = 0", barID).
		Update("volume", volume)
	return tx.RowsAffected > 0, tx.Error
}
