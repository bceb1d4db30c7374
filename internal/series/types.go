package series

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// RawBar is one provider row before validation. Every field is optional:
// upstream feeds routinely omit prices, report garbage dates, or drop volume.
type RawBar struct {
	Date     string // as delivered upstream, parsed during Clean
	Open     decimal.NullDecimal
	High     decimal.NullDecimal
	Low      decimal.NullDecimal
	Close    decimal.NullDecimal
	AdjClose decimal.NullDecimal
	Volume   null.Int
}

// Bar is one cleaned, analysis-ready OHLCV row. After Clean, Close and
// AdjClose are always present; Open/High/Low may still be absent when the
// series starts with a gap (forward-fill has nothing to fill from).
type Bar struct {
	Date     time.Time
	Open     decimal.NullDecimal
	High     decimal.NullDecimal
	Low      decimal.NullDecimal
	Close    decimal.NullDecimal
	AdjClose decimal.NullDecimal
	Volume   int64
}
