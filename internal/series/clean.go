package series

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are the accepted upstream date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-Jan-2006",
}

// ParseDate parses an upstream date string, truncated to the day.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// Clean turns a raw provider series into an analysis-ready one. Rules, in
// order: drop rows with no fields at all, discard rows whose date does not
// parse, null out non-positive prices, forward-fill price gaps from the prior
// valid row (nothing to fill from at series start), default missing volume to
// zero, and finally drop rows still missing close or adjusted close.
//
// The result is in ascending date order with duplicate dates collapsed
// (first occurrence wins). Clean is idempotent: Clean(Clean(x)) == Clean(x).
func Clean(raw []RawBar) []Bar {
	type dated struct {
		date time.Time
		row  RawBar
	}

	rows := make([]dated, 0, len(raw))
	for _, r := range raw {
		if allAbsent(r) {
			continue
		}
		d, ok := ParseDate(r.Date)
		if !ok {
			continue
		}
		rows = append(rows, dated{date: d, row: r})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	var (
		out  []Bar
		prev Bar // carries last valid value per price field for forward-fill
		seen = map[time.Time]struct{}{}
	)
	for _, dr := range rows {
		if _, dup := seen[dr.date]; dup {
			continue
		}
		seen[dr.date] = struct{}{}

		b := Bar{
			Date:     dr.date,
			Open:     fill(positive(dr.row.Open), prev.Open),
			High:     fill(positive(dr.row.High), prev.High),
			Low:      fill(positive(dr.row.Low), prev.Low),
			Close:    fill(positive(dr.row.Close), prev.Close),
			AdjClose: fill(positive(dr.row.AdjClose), prev.AdjClose),
			Volume:   dr.row.Volume.ValueOrZero(),
		}
		if b.Volume < 0 {
			b.Volume = 0
		}
		prev = b

		if !b.Close.Valid || !b.AdjClose.Valid {
			continue
		}
		out = append(out, b)
	}
	return out
}

// positive nulls out prices <= 0: a non-positive quote is a feed error, not a
// real price.
func positive(d decimal.NullDecimal) decimal.NullDecimal {
	if d.Valid && d.Decimal.Sign() <= 0 {
		return decimal.NullDecimal{}
	}
	return d
}

func fill(cur, last decimal.NullDecimal) decimal.NullDecimal {
	if cur.Valid {
		return cur
	}
	return last
}

func allAbsent(r RawBar) bool {
	return !r.Open.Valid && !r.High.Valid && !r.Low.Valid &&
		!r.Close.Valid && !r.AdjClose.Valid && !r.Volume.Valid
}
