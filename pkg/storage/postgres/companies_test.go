package postgres

import (
	"context"
	"testing"
	"time"

	"marketetl/internal/metadata"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCompaniesIsIdempotent(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	seeds := []CompanySeed{
		{Symbol: "RELIANCE.NS", Exchange: "NSE"},
		{Symbol: "TCS.NS", Exchange: "NSE", Name: null.StringFrom("Tata Consultancy Services")},
	}

	first, err := client.EnsureCompanies(ctx, seeds)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := client.EnsureCompanies(ctx, seeds)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	companies, err := client.Companies(ctx)
	require.NoError(t, err)
	assert.Len(t, companies, 2)
}

func TestEnsureCompaniesNeverModifiesExistingRows(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.EnsureCompanies(ctx, []CompanySeed{
		{Symbol: "RELIANCE.NS", Exchange: "NSE", Name: null.StringFrom("Reliance Industries")},
	})
	require.NoError(t, err)

	// re-seeding with a different name leaves the stored one alone
	_, err = client.EnsureCompanies(ctx, []CompanySeed{
		{Symbol: "RELIANCE.NS", Exchange: "NSE", Name: null.StringFrom("Wrong Name")},
	})
	require.NoError(t, err)

	companies, err := client.Companies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Reliance Industries", companies[0].Name.String)
}

func TestUpdateCompanyMetadataFillsOnlyNullFields(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	mapping, err := client.EnsureCompanies(ctx, []CompanySeed{
		{Symbol: "RELIANCE.NS", Exchange: "NSE", Name: null.StringFrom("Reliance Industries")},
	})
	require.NoError(t, err)
	id := mapping["RELIANCE.NS"]

	changed, err := client.UpdateCompanyMetadata(ctx, id, metadata.Record{
		Name:   null.StringFrom("Different Name"),
		Sector: null.StringFrom("Energy"),
	})
	require.NoError(t, err)
	assert.True(t, changed)

	companies, err := client.Companies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Reliance Industries", companies[0].Name.String)
	assert.Equal(t, "Energy", companies[0].Sector.String)

	// merging the same record again is a no-op
	changed, err = client.UpdateCompanyMetadata(ctx, id, metadata.Record{
		Name:   null.StringFrom("Different Name"),
		Sector: null.StringFrom("Energy"),
	})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUpdateListingDateOnlyFillsNull(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	mapping, err := client.EnsureCompanies(ctx, []CompanySeed{
		{Symbol: "RELIANCE.NS", Exchange: "NSE"},
	})
	require.NoError(t, err)
	id := mapping["RELIANCE.NS"]

	d1 := time.Date(1995, 11, 29, 0, 0, 0, 0, time.UTC)
	done, err := client.UpdateListingDate(ctx, id, d1)
	require.NoError(t, err)
	assert.True(t, done)

	// a second backfill attempt cannot overwrite
	done, err = client.UpdateListingDate(ctx, id, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, done)

	companies, err := client.Companies(ctx)
	require.NoError(t, err)
	assert.Equal(t, d1.Format("2006-01-02"), companies[0].ListingDate.Time.Format("2006-01-02"))
}
