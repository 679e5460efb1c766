package dto

import "github.com/shopspring/decimal"

// DailyFlowEntry is one calendar date with at least one movement.
// NetBalance is per-date, not cumulative.
type DailyFlowEntry struct {
	Date         string          `json:"date"` // YYYY-MM-DD
	InflowTotal  decimal.Decimal `json:"inflow_total"`
	OutflowTotal decimal.Decimal `json:"outflow_total"`
	NetBalance   decimal.Decimal `json:"net_balance"`
}

// CategoryTotal carries the summed amount for one category plus its display
// color. The color is a pure function of the category, so two reports over
// the same data are byte-identical.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Color    string          `json:"color"`
}

type ReportSummary struct {
	TotalInflow   decimal.Decimal `json:"total_inflow"`
	TotalOutflow  decimal.Decimal `json:"total_outflow"`
	NetBalance    decimal.Decimal `json:"net_balance"`
	MovementCount int             `json:"movement_count"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
}

// CashFlowReport is the aggregator output: movements over an inclusive
// [from, to] date range, independent of session boundaries.
type CashFlowReport struct {
	From              string           `json:"from"` // YYYY-MM-DD
	To                string           `json:"to"`   // YYYY-MM-DD
	DailyFlow         []DailyFlowEntry `json:"daily_flow"`
	InflowByCategory  []CategoryTotal  `json:"inflow_by_category"`
	OutflowByCategory []CategoryTotal  `json:"outflow_by_category"`
	Summary           ReportSummary    `json:"summary"`
}
