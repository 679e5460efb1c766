package infra

// pdf.go — PDF rendering with go-pdf/fpdf.
// Two documents are produced here:
//   - the cash-flow report export (daily flow + category breakdown + summary)
//   - the end-of-session close summary attached to the supervisor email
// Both render into memory; callers decide whether the bytes become an HTTP
// response or an attachment.

import (
	"bytes"
	"fmt"
	"time"

	"garagepos/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// RenderReportPDF renders an aggregated cash-flow report as an A4 document.
func RenderReportPDF(report *dto.CashFlowReport) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Cash flow report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("%s to %s", report.From, report.To), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Daily flow ───────────────────────────────────────────────────────────
	col := contentW / 4

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col, 6, "Date", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col, 6, "Inflow", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col, 6, "Outflow", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col, 6, "Net", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, day := range report.DailyFlow {
		pdf.CellFormat(col, 5, day.Date, "", 0, "L", false, 0, "")
		pdf.CellFormat(col, 5, day.InflowTotal.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col, 5, day.OutflowTotal.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col, 5, day.NetBalance.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// ── Category breakdowns ──────────────────────────────────────────────────
	writeCategoryBlock(pdf, contentW, "Inflow by category", report.InflowByCategory)
	writeCategoryBlock(pdf, contentW, "Outflow by category", report.OutflowByCategory)

	// ── Summary ──────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 7, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	summaryRow(pdf, contentW, "Total inflow", report.Summary.TotalInflow.StringFixed(2))
	summaryRow(pdf, contentW, "Total outflow", report.Summary.TotalOutflow.StringFixed(2))
	summaryRow(pdf, contentW, "Net balance", report.Summary.NetBalance.StringFixed(2))
	summaryRow(pdf, contentW, "Movements", fmt.Sprintf("%d", report.Summary.MovementCount))
	summaryRow(pdf, contentW, "Average ticket", report.Summary.AverageTicket.StringFixed(2))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render report: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCategoryBlock(pdf *fpdf.Fpdf, contentW float64, title string, cats []dto.CategoryTotal) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 7, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if len(cats) == 0 {
		pdf.CellFormat(contentW, 5, "(no movements)", "", 1, "L", false, 0, "")
	}
	for _, cat := range cats {
		pdf.CellFormat(contentW*0.6, 5, cat.Category, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.4, 5, cat.Total.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
}

func summaryRow(pdf *fpdf.Fpdf, contentW float64, label, value string) {
	pdf.CellFormat(contentW*0.6, 5, label+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.4, 5, value, "", 1, "R", false, 0, "")
}

// SessionCloseSummary carries everything the close-report PDF needs; the
// worker assembles it from the closed session and its movements.
type SessionCloseSummary struct {
	SessionID      string
	Operator       string
	OpenedAt       time.Time
	ClosedAt       time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	TotalInflow    decimal.Decimal
	TotalOutflow   decimal.Decimal
	Expected       decimal.Decimal
	Deviation      decimal.Decimal
	MovementCount  int
}

// RenderSessionClosePDF renders the compact end-of-session summary.
func RenderSessionClosePDF(sum *SessionCloseSummary) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 8, "Cash session closed", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Session "+sum.SessionID, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 9)
	summaryRow(pdf, contentW, "Operator", sum.Operator)
	summaryRow(pdf, contentW, "Opened", sum.OpenedAt.Format("02/01/2006 15:04"))
	summaryRow(pdf, contentW, "Closed", sum.ClosedAt.Format("02/01/2006 15:04"))
	summaryRow(pdf, contentW, "Movements", fmt.Sprintf("%d", sum.MovementCount))
	pdf.Ln(2)
	summaryRow(pdf, contentW, "Opening balance", sum.OpeningBalance.StringFixed(2))
	summaryRow(pdf, contentW, "Total inflow", sum.TotalInflow.StringFixed(2))
	summaryRow(pdf, contentW, "Total outflow", sum.TotalOutflow.StringFixed(2))
	summaryRow(pdf, contentW, "Expected cash", sum.Expected.StringFixed(2))
	summaryRow(pdf, contentW, "Declared cash", sum.ClosingBalance.StringFixed(2))

	pdf.SetFont("Helvetica", "B", 10)
	summaryRow(pdf, contentW, "Deviation", sum.Deviation.StringFixed(2))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render close summary: %w", err)
	}
	return buf.Bytes(), nil
}
