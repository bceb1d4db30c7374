package series

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(f float64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(f), Valid: true}
}

func noDec() decimal.NullDecimal {
	return decimal.NullDecimal{}
}

func rawBar(date string, open, high, low, close, adjClose decimal.NullDecimal, volume null.Int) RawBar {
	return RawBar{Date: date, Open: open, High: high, Low: low, Close: close, AdjClose: adjClose, Volume: volume}
}

func fullBar(date string, px float64, vol int64) RawBar {
	return rawBar(date, dec(px), dec(px), dec(px), dec(px), dec(px), null.IntFrom(vol))
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-01-15", "2024-01-15 00:00:00", "2024-01-15T00:00:00Z", "15-Jan-2024"} {
		d, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d, s)
	}

	_, ok := ParseDate("not-a-date")
	assert.False(t, ok)
}

func TestCleanSortsAndCollapsesDuplicates(t *testing.T) {
	bars := Clean([]RawBar{
		fullBar("2024-01-03", 30, 300),
		fullBar("2024-01-01", 10, 100),
		fullBar("2024-01-01", 99, 999), // duplicate date, first occurrence wins
		fullBar("2024-01-02", 20, 200),
	})

	require.Len(t, bars, 3)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[1].Date)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), bars[2].Date)
	assert.True(t, bars[0].Close.Decimal.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, int64(100), bars[0].Volume)
}

func TestCleanDropsEmptyAndUnparseableRows(t *testing.T) {
	bars := Clean([]RawBar{
		rawBar("2024-01-01", noDec(), noDec(), noDec(), noDec(), noDec(), null.Int{}),
		fullBar("garbage", 10, 100),
		fullBar("2024-01-02", 20, 200),
	})

	require.Len(t, bars, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
}

func TestCleanForwardFillsNonPositivePrices(t *testing.T) {
	bars := Clean([]RawBar{
		fullBar("2024-01-01", 10, 100),
		rawBar("2024-01-02", dec(-5), dec(11), dec(9), dec(-1), dec(0), null.IntFrom(200)),
	})

	require.Len(t, bars, 2)
	// negative and zero prices are feed errors, replaced by the prior day's value
	assert.True(t, bars[1].Open.Decimal.Equal(decimal.NewFromInt(10)))
	assert.True(t, bars[1].Close.Decimal.Equal(decimal.NewFromInt(10)))
	assert.True(t, bars[1].AdjClose.Decimal.Equal(decimal.NewFromInt(10)))
	// valid fields on the same row are kept
	assert.True(t, bars[1].High.Decimal.Equal(decimal.NewFromInt(11)))
}

func TestCleanNoFillAtSeriesStart(t *testing.T) {
	// first row has no close to fill from, so it is dropped
	bars := Clean([]RawBar{
		rawBar("2024-01-01", dec(10), dec(10), dec(10), noDec(), noDec(), null.IntFrom(100)),
		fullBar("2024-01-02", 20, 200),
	})

	require.Len(t, bars, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
}

func TestCleanDefaultsMissingVolumeToZero(t *testing.T) {
	bars := Clean([]RawBar{
		rawBar("2024-01-01", dec(10), dec(10), dec(10), dec(10), dec(10), null.Int{}),
		rawBar("2024-01-02", dec(10), dec(10), dec(10), dec(10), dec(10), null.IntFrom(-7)),
	})

	require.Len(t, bars, 2)
	assert.Equal(t, int64(0), bars[0].Volume)
	assert.Equal(t, int64(0), bars[1].Volume)
}

func TestCleanIsIdempotent(t *testing.T) {
	raw := []RawBar{
		fullBar("2024-01-03", 30, 300),
		rawBar("2024-01-01", dec(10), dec(10), dec(10), dec(10), dec(10), null.Int{}),
		rawBar("2024-01-02", dec(-1), dec(20), dec(20), noDec(), dec(20), null.IntFrom(200)),
		fullBar("2024-01-02", 99, 999),
	}

	once := Clean(raw)

	reraw := make([]RawBar, 0, len(once))
	for _, b := range once {
		reraw = append(reraw, RawBar{
			Date:     b.Date.Format("2006-01-02"),
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			AdjClose: b.AdjClose,
			Volume:   null.IntFrom(b.Volume),
		})
	}
	twice := Clean(reraw)

	assert.Equal(t, once, twice)
}
