package postgres

import (
	"context"
	"errors"
	"time"

	"marketetl/internal/metadata"

	"github.com/guregu/null/v6"
	"gorm.io/gorm"
)

// CompanySeed is the minimal payload needed to register a company on first
// sight during a fetch run.
type CompanySeed struct {
	Symbol   string
	Exchange string
	Name     null.String
}

// EnsureCompanies upserts any seed not yet known and returns the
// symbol -> company id mapping. Existing rows are never modified here.
func (p *PostgresClient) EnsureCompanies(ctx context.Context, seeds []CompanySeed) (map[string]uint, error) {
	mapping := make(map[string]uint, len(seeds))

	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range seeds {
			var c Company
			err := tx.Where("symbol = ? AND exchange = ?", s.Symbol, s.Exchange).First(&c).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				c = Company{Symbol: s.Symbol, Exchange: s.Exchange, Name: s.Name}
				if err := tx.Create(&c).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			}
			mapping[s.Symbol] = c.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mapping, nil
}

// Companies returns all registered companies.
func (p *PostgresClient) Companies(ctx context.Context) ([]Company, error) {
	var out []Company
	if err := p.DB.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateCompanyMetadata merges rec into the stored company under the
// null-only-overwrite rule and persists the result. Reports whether any
// field changed.
func (p *PostgresClient) UpdateCompanyMetadata(ctx context.Context, companyID uint, rec metadata.Record) (bool, error) {
	var changed bool
	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c Company
		if err := tx.First(&c, companyID).Error; err != nil {
			return err
		}

		current := metadata.Record{
			Name:        c.Name,
			Sector:      c.Sector,
			Industry:    c.Industry,
			ISIN:        c.ISIN,
			ListingDate: c.ListingDate,
		}
		merged := metadata.Merge(current, rec)
		if merged == current {
			return nil
		}

		c.Name = merged.Name
		c.Sector = merged.Sector
		c.Industry = merged.Industry
		c.ISIN = merged.ISIN
		c.ListingDate = merged.ListingDate
		changed = true
		return tx.Save(&c).Error
	})
	return changed, err
}

// UpdateListingDate backfills a company's listing date. Rows that already
// carry a listing date are left untouched.
func (p *PostgresClient) UpdateListingDate(ctx context.Context, companyID uint, d time.Time) (bool, error) {
	tx := p.DB.WithContext(ctx).
		Model(&Company{}).
		Where("id = ? AND listing_date IS NULL", companyID).
		Update("listing_date", d)
	return tx.RowsAffected > 0, tx.Error
}
