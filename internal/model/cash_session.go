package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session status values. The transition is one-way: open → closed.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// CashSession represents one cash-drawer period, from opening balance to
// operator-declared closing balance.
// Status: "open" | "closed"
//
// At most one row may have status='open' at any time — enforced by the
// partial unique index uniq_cash_sessions_open (see infra.applySchemaPatches),
// not by application-level checks alone.
type CashSession struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OperatorID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ClosingBalance is declared by the closing operator (a count of cash on
	// hand), never computed. Present iff Status == closed.
	ClosingBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status         string           `gorm:"type:varchar(20);not null;default:'open'"`
	Notes          *string
	OpenedAt       time.Time
	ClosedAt       *time.Time

	Movements []CashMovement `gorm:"foreignKey:SessionID"`
}

// Movement kinds. Kind decides the sign of a movement in every aggregation;
// amounts are always stored positive.
const (
	KindInflow  = "inflow"
	KindOutflow = "outflow"
)

const (
	CategorySales       = "sales"
	CategoryServices    = "services"
	CategoryPayments    = "payments"
	CategoryReceipts    = "receipts"
	CategoryExpenses    = "expenses"
	CategoryInvestments = "investments"
	CategoryOther       = "other"
)

// Categories lists every movement category in its canonical order. Report
// breakdowns and palette colors follow this order so output never depends on
// row traversal order.
var Categories = []string{
	CategorySales,
	CategoryServices,
	CategoryPayments,
	CategoryReceipts,
	CategoryExpenses,
	CategoryInvestments,
	CategoryOther,
}

// ValidKind reports whether k is a known movement kind.
func ValidKind(k string) bool {
	return k == KindInflow || k == KindOutflow
}

// ValidCategory reports whether c is a known movement category.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// CashMovement is a dated monetary inflow or outflow owned by exactly one
// session. Mutable (update / hard delete) only while its session is open;
// once the session closes every movement becomes immutable and is kept for
// reporting.
type CashMovement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	Kind        string          `gorm:"type:varchar(10);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description string          `gorm:"not null"`
	Category    string          `gorm:"type:varchar(20);not null;default:'other'"`
	// OccurredAt is the aggregation key for all reports; index backs range scans.
	OccurredAt time.Time `gorm:"index;not null"`
	Notes      *string
	// LinkedOrderID is a weak back-reference to a service order. Lookup-only:
	// no FK, no existence validation, no cascading delete.
	LinkedOrderID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
