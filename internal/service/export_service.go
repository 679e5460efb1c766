package service

import (
	"bytes"
	"encoding/csv"
	"html/template"
	"strconv"

	"garagepos/internal/dto"
	"garagepos/internal/infra"
)

// Export formats accepted by the /reports/cash-flow/export endpoint.
const (
	FormatCSV  = "csv"
	FormatHTML = "html"
	FormatPDF  = "pdf"
)

// ExportService renders an aggregated report into a downloadable byte stream.
// It is a pure downstream consumer of the aggregator — it never touches
// ledger state.
type ExportService interface {
	Render(report *dto.CashFlowReport, format string) (data []byte, contentType string, err error)
}

type exportService struct{}

func NewExportService() ExportService { return &exportService{} }

func (s *exportService) Render(report *dto.CashFlowReport, format string) ([]byte, string, error) {
	switch format {
	case FormatCSV:
		data, err := renderCSV(report)
		return data, "text/csv; charset=utf-8", err
	case FormatHTML:
		data, err := renderHTML(report)
		return data, "text/html; charset=utf-8", err
	case FormatPDF:
		data, err := infra.RenderReportPDF(report)
		return data, "application/pdf", err
	default:
		return nil, "", validationf("unsupported export format %q", format)
	}
}

// ── CSV ──────────────────────────────────────────────────────────────────────

func renderCSV(report *dto.CashFlowReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"cash flow report", report.From, report.To},
		{},
		{"date", "inflow", "outflow", "net"},
	}
	for _, day := range report.DailyFlow {
		rows = append(rows, []string{
			day.Date,
			day.InflowTotal.StringFixed(2),
			day.OutflowTotal.StringFixed(2),
			day.NetBalance.StringFixed(2),
		})
	}

	rows = append(rows, nil, []string{"inflow by category", "total"})
	for _, cat := range report.InflowByCategory {
		rows = append(rows, []string{cat.Category, cat.Total.StringFixed(2)})
	}
	rows = append(rows, nil, []string{"outflow by category", "total"})
	for _, cat := range report.OutflowByCategory {
		rows = append(rows, []string{cat.Category, cat.Total.StringFixed(2)})
	}

	rows = append(rows, nil,
		[]string{"total inflow", report.Summary.TotalInflow.StringFixed(2)},
		[]string{"total outflow", report.Summary.TotalOutflow.StringFixed(2)},
		[]string{"net balance", report.Summary.NetBalance.StringFixed(2)},
		[]string{"movement count", strconv.Itoa(report.Summary.MovementCount)},
		[]string{"average ticket", report.Summary.AverageTicket.StringFixed(2)},
	)

	for _, row := range rows {
		if row == nil {
			row = []string{}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ── HTML ─────────────────────────────────────────────────────────────────────

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Cash flow {{.From}} — {{.To}}</title></head>
<body>
<h1>Cash flow report</h1>
<p>{{.From}} to {{.To}}</p>
<h2>Daily flow</h2>
<table border="1" cellspacing="0" cellpadding="4">
<tr><th>Date</th><th>Inflow</th><th>Outflow</th><th>Net</th></tr>
{{range .DailyFlow}}<tr><td>{{.Date}}</td><td>{{.InflowTotal}}</td><td>{{.OutflowTotal}}</td><td>{{.NetBalance}}</td></tr>
{{end}}</table>
<h2>Inflow by category</h2>
<table border="1" cellspacing="0" cellpadding="4">
<tr><th>Category</th><th>Total</th></tr>
{{range .InflowByCategory}}<tr><td style="color:{{.Color}}">{{.Category}}</td><td>{{.Total}}</td></tr>
{{end}}</table>
<h2>Outflow by category</h2>
<table border="1" cellspacing="0" cellpadding="4">
<tr><th>Category</th><th>Total</th></tr>
{{range .OutflowByCategory}}<tr><td style="color:{{.Color}}">{{.Category}}</td><td>{{.Total}}</td></tr>
{{end}}</table>
<h2>Summary</h2>
<ul>
<li>Total inflow: {{.Summary.TotalInflow}}</li>
<li>Total outflow: {{.Summary.TotalOutflow}}</li>
<li>Net balance: {{.Summary.NetBalance}}</li>
<li>Movements: {{.Summary.MovementCount}}</li>
<li>Average ticket: {{.Summary.AverageTicket}}</li>
</ul>
</body>
</html>
`))

func renderHTML(report *dto.CashFlowReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
