package service

import (
	"context"
	"time"

	"garagepos/internal/dto"
	"garagepos/internal/model"
	"garagepos/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"

	// defaultReportDays is the trailing window applied when the caller omits
	// the range.
	defaultReportDays = 30

	// Report reads are the only operations with a bounded retry: they are
	// idempotent and a transient storage failure is worth one more round-trip.
	// Writes are never retried.
	reportReadAttempts = 3
	reportReadBackoff  = 100 * time.Millisecond
)

// palette holds the display colors cycled over the category enum. The color
// of a category is a pure function of its position in model.Categories, so
// report output never depends on row traversal order.
var palette = []string{
	"#4E79A7", "#F28E2B", "#E15759", "#76B7B2",
	"#59A14F", "#EDC948", "#B07AA1",
}

// CategoryColor returns the deterministic display color for a category.
func CategoryColor(category string) string {
	for i, c := range model.Categories {
		if c == category {
			return palette[i%len(palette)]
		}
	}
	return palette[len(palette)-1]
}

type ReportService interface {
	// ResolveRange turns the raw from/to query values into an inclusive date
	// range, applying the trailing-30-days default for omitted bounds.
	ResolveRange(fromRaw, toRaw string) (time.Time, time.Time, error)
	BuildCashFlowReport(ctx context.Context, from, to time.Time) (*dto.CashFlowReport, error)
}

type reportService struct {
	movements repository.MovementRepository
}

func NewReportService(movements repository.MovementRepository) ReportService {
	return &reportService{movements: movements}
}

func (s *reportService) ResolveRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	to := time.Now().UTC().Truncate(24 * time.Hour)
	if toRaw != "" {
		parsed, err := time.Parse(dateLayout, toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, validationf("malformed 'to' date %q, want YYYY-MM-DD", toRaw)
		}
		to = parsed
	}

	from := to.AddDate(0, 0, -defaultReportDays)
	if fromRaw != "" {
		parsed, err := time.Parse(dateLayout, fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, validationf("malformed 'from' date %q, want YYYY-MM-DD", fromRaw)
		}
		from = parsed
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, validationf("'from' date is after 'to' date")
	}
	return from, to, nil
}

// ── BuildCashFlowReport ──────────────────────────────────────────────────────
// Read-only, point-in-time aggregation over [from, to] inclusive, independent
// of session boundaries. All sums use decimal arithmetic; for a fixed
// movement set the output is bit-identical across calls.

func (s *reportService) BuildCashFlowReport(ctx context.Context, from, to time.Time) (*dto.CashFlowReport, error) {
	movs, err := s.listWithRetry(ctx, from, to.AddDate(0, 0, 1)) // inclusive upper bound
	if err != nil {
		return nil, err
	}

	report := &dto.CashFlowReport{
		From:              from.Format(dateLayout),
		To:                to.Format(dateLayout),
		DailyFlow:         []dto.DailyFlowEntry{},
		InflowByCategory:  []dto.CategoryTotal{},
		OutflowByCategory: []dto.CategoryTotal{},
	}

	type dayTotals struct {
		inflow  decimal.Decimal
		outflow decimal.Decimal
	}
	days := make(map[string]*dayTotals)
	var dayOrder []string // movements arrive ordered by occurred_at, so first-seen is ascending

	inflowByCat := make(map[string]decimal.Decimal)
	outflowByCat := make(map[string]decimal.Decimal)
	totalIn, totalOut := decimal.Zero, decimal.Zero

	for i := range movs {
		m := &movs[i]
		date := m.OccurredAt.UTC().Format(dateLayout)
		day, ok := days[date]
		if !ok {
			day = &dayTotals{inflow: decimal.Zero, outflow: decimal.Zero}
			days[date] = day
			dayOrder = append(dayOrder, date)
		}

		switch m.Kind {
		case model.KindInflow:
			day.inflow = day.inflow.Add(m.Amount)
			inflowByCat[m.Category] = inflowByCat[m.Category].Add(m.Amount)
			totalIn = totalIn.Add(m.Amount)
		case model.KindOutflow:
			day.outflow = day.outflow.Add(m.Amount)
			outflowByCat[m.Category] = outflowByCat[m.Category].Add(m.Amount)
			totalOut = totalOut.Add(m.Amount)
		}
	}

	for _, date := range dayOrder {
		day := days[date]
		report.DailyFlow = append(report.DailyFlow, dto.DailyFlowEntry{
			Date:         date,
			InflowTotal:  day.inflow,
			OutflowTotal: day.outflow,
			NetBalance:   day.inflow.Sub(day.outflow),
		})
	}

	// Category breakdowns follow the canonical enum order; only categories
	// with at least one movement of the matching kind appear.
	for _, cat := range model.Categories {
		if total, ok := inflowByCat[cat]; ok {
			report.InflowByCategory = append(report.InflowByCategory, dto.CategoryTotal{
				Category: cat, Total: total, Color: CategoryColor(cat),
			})
		}
	}
	for _, cat := range model.Categories {
		if total, ok := outflowByCat[cat]; ok {
			report.OutflowByCategory = append(report.OutflowByCategory, dto.CategoryTotal{
				Category: cat, Total: total, Color: CategoryColor(cat),
			})
		}
	}

	count := len(movs)
	avgTicket := decimal.Zero
	if count > 0 {
		avgTicket = totalIn.Add(totalOut).Div(decimal.NewFromInt(int64(count))).Round(2)
	}
	report.Summary = dto.ReportSummary{
		TotalInflow:   totalIn,
		TotalOutflow:  totalOut,
		NetBalance:    totalIn.Sub(totalOut),
		MovementCount: count,
		AverageTicket: avgTicket,
	}
	return report, nil
}

func (s *reportService) listWithRetry(ctx context.Context, from, end time.Time) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	var err error
	for attempt := 1; attempt <= reportReadAttempts; attempt++ {
		movs, err = s.movements.ListByOccurredRange(ctx, from, end)
		if err == nil {
			return movs, nil
		}
		if ctx.Err() != nil || attempt == reportReadAttempts {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("report read failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(reportReadBackoff * time.Duration(attempt)):
		}
	}
	return nil, err
}
