package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
	Notes          *string         `json:"notes"`
}

type CloseSessionRequest struct {
	// ClosingBalance is the operator-declared count of cash on hand.
	ClosingBalance decimal.Decimal `json:"closing_balance" validate:"min=0"`
	Notes          *string         `json:"notes"`
}

type MovementRequest struct {
	Kind        string          `json:"kind"        validate:"required,oneof=inflow outflow"`
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Description string          `json:"description" validate:"required,min=1"`
	// Category defaults to "other" when omitted.
	Category      string  `json:"category"        validate:"omitempty,oneof=sales services payments receipts expenses investments other"`
	Notes         *string `json:"notes"`
	LinkedOrderID *string `json:"linked_order_id" validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovementResponse struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	Kind          string          `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	OccurredAt    string          `json:"occurred_at"`
	Notes         *string         `json:"notes"`
	LinkedOrderID *string         `json:"linked_order_id"`
}

type SessionResponse struct {
	ID             string           `json:"id"`
	OperatorID     string           `json:"operator_id"`
	Status         string           `json:"status"`
	OpeningBalance decimal.Decimal  `json:"opening_balance"`
	ClosingBalance *decimal.Decimal `json:"closing_balance"`
	Notes          *string          `json:"notes"`
	OpenedAt       string           `json:"opened_at"`
	ClosedAt       *string          `json:"closed_at"`
}

// SessionReportResponse is the per-session summary: expected cash on hand is
// openingBalance + inflows − outflows; deviation compares the declared
// closing balance against it (closed sessions only).
type SessionReportResponse struct {
	Session         SessionResponse    `json:"session"`
	TotalInflow     decimal.Decimal    `json:"total_inflow"`
	TotalOutflow    decimal.Decimal    `json:"total_outflow"`
	ExpectedBalance decimal.Decimal    `json:"expected_balance"`
	Deviation       *decimal.Decimal   `json:"deviation"`
	MovementCount   int                `json:"movement_count"`
	Movements       []MovementResponse `json:"movements"`
}
