package postgres

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// Company represents a tracked security. (symbol, exchange) is unique and the
// id is immutable once assigned; descriptive fields start out null and are
// only ever filled in, never regressed, by the metadata pipelines.
type Company struct {
	ID uint `gorm:"primaryKey"`

	Symbol   string `gorm:"size:32;not null;uniqueIndex:uq_symbol_exchange,priority:1"`
	Exchange string `gorm:"size:32;not null;uniqueIndex:uq_symbol_exchange,priority:2"`

	Name        null.String `gorm:"size:128"`
	Sector      null.String `gorm:"size:64"`
	Industry    null.String `gorm:"size:128"`
	ISIN        null.String `gorm:"column:isin;size:32;uniqueIndex"`
	ListingDate null.Time   `gorm:"type:date"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Company) TableName() string {
	return "companies"
}

// PriceBar is one day's OHLCV row. Unique per (company_id, trade_date).
// Price fields are immutable after insert; volume is mutable only through
// the zero-volume correction path.
type PriceBar struct {
	ID uint64 `gorm:"primaryKey"`

	CompanyID uint      `gorm:"not null;uniqueIndex:uq_price_company_date,priority:1"`
	TradeDate time.Time `gorm:"type:date;not null;uniqueIndex:uq_price_company_date,priority:2"`

	Open     decimal.NullDecimal `gorm:"type:numeric(24,6)"`
	High     decimal.NullDecimal `gorm:"type:numeric(24,6)"`
	Low      decimal.NullDecimal `gorm:"type:numeric(24,6)"`
	Close    decimal.NullDecimal `gorm:"type:numeric(24,6)"`
	AdjClose decimal.NullDecimal `gorm:"column:adj_close;type:numeric(24,6)"`

	Volume int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (PriceBar) TableName() string {
	return "price_history"
}

// BalanceSheet is one quarterly balance-sheet filing. Unique per
// (company_id, fiscal_year, fiscal_quarter); rows are insert-only, a period
// already stored is never refetched or amended.
type BalanceSheet struct {
	ID uint64 `gorm:"primaryKey"`

	CompanyID     uint      `gorm:"not null;uniqueIndex:uq_bs_company_fy_fq,priority:1"`
	FiscalYear    int       `gorm:"not null;uniqueIndex:uq_bs_company_fy_fq,priority:2"`
	FiscalQuarter int       `gorm:"not null;uniqueIndex:uq_bs_company_fy_fq,priority:3"`
	ReportDate    time.Time `gorm:"type:date;not null"`

	TotalAssets        decimal.NullDecimal `gorm:"type:numeric(28,2)"`
	TotalLiabilities   decimal.NullDecimal `gorm:"type:numeric(28,2)"`
	ShareholderEquity  decimal.NullDecimal `gorm:"type:numeric(28,2)"`
	CurrentAssets      decimal.NullDecimal `gorm:"type:numeric(28,2)"`
	CurrentLiabilities decimal.NullDecimal `gorm:"type:numeric(28,2)"`
	CashAndEquivalents decimal.NullDecimal `gorm:"type:numeric(28,2)"`
	Inventory          decimal.NullDecimal `gorm:"type:numeric(28,2)"`
	Receivables        decimal.NullDecimal `gorm:"type:numeric(28,2)"`
	LongTermDebt       decimal.NullDecimal `gorm:"type:numeric(28,2)"`
	ShortTermDebt      decimal.NullDecimal `gorm:"type:numeric(28,2)"`
	RetainedEarnings   decimal.NullDecimal `gorm:"type:numeric(28,2)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (BalanceSheet) TableName() string {
	return "financials_balance_sheet"
}

// RunStatus is the terminal state of one pipeline invocation.
type RunStatus string

const (
	StatusSuccess RunStatus = "SUCCESS"
	StatusFailed  RunStatus = "FAILED"
	StatusPartial RunStatus = "PARTIAL"
)

// ETLRun is a write-once audit record: exactly one per pipeline invocation,
// never updated after insert.
type ETLRun struct {
	ID uint64 `gorm:"primaryKey"`

	PipelineName  string      `gorm:"size:256;not null"`
	Status        RunStatus   `gorm:"type:varchar(16);not null"`
	RowsProcessed int         `gorm:"not null;default:0"`
	ErrorMessage  null.String `gorm:"type:text"`

	StartedAt time.Time
	EndedAt   time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ETLRun) TableName() string {
	return "etl_runs"
}
