package worker

// close_report_worker.go
// Processes close-report jobs: when a cash session is closed, a compact PDF
// summary (expected vs declared cash) is rendered and emailed to the
// configured supervisor address. SMTP sends go through the circuit breaker so
// a downed relay fast-fails into the retry/DLQ path instead of blocking the
// pool.

import (
	"context"
	"fmt"

	"garagepos/internal/infra"
	"garagepos/internal/model"
	"garagepos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type CloseReportWorker struct {
	sessions  repository.SessionRepository
	operators repository.OperatorRepository
	mailer    *infra.Mailer
	cb        *infra.CircuitBreaker
	to        string // supervisor address; empty disables sending
}

func NewCloseReportWorker(
	sessions repository.SessionRepository,
	operators repository.OperatorRepository,
	mailer *infra.Mailer,
	cb *infra.CircuitBreaker,
	to string,
) *CloseReportWorker {
	return &CloseReportWorker{sessions: sessions, operators: operators, mailer: mailer, cb: cb, to: to}
}

func (w *CloseReportWorker) Process(ctx context.Context, payload CloseReportPayload) error {
	if w.to == "" {
		log.Debug().Msg("close_report: no recipient configured, skipping")
		return nil
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return fmt.Errorf("close_report: bad session id %q: %w", payload.SessionID, err)
	}

	sess, err := w.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("close_report: load session: %w", err)
	}
	if sess.Status != model.SessionClosed || sess.ClosedAt == nil || sess.ClosingBalance == nil {
		// A re-enqueued job can observe the session only after close; anything
		// else is a bug upstream, not worth retrying.
		log.Warn().Str("session_id", payload.SessionID).Msg("close_report: session not closed, dropping job")
		return nil
	}

	operatorName := sess.OperatorID.String()
	if op, err := w.operators.FindByID(ctx, sess.OperatorID); err == nil {
		operatorName = op.Name
	}

	totalIn, totalOut := decimal.Zero, decimal.Zero
	for _, m := range sess.Movements {
		switch m.Kind {
		case model.KindInflow:
			totalIn = totalIn.Add(m.Amount)
		case model.KindOutflow:
			totalOut = totalOut.Add(m.Amount)
		}
	}
	expected := sess.OpeningBalance.Add(totalIn).Sub(totalOut)

	pdf, err := infra.RenderSessionClosePDF(&infra.SessionCloseSummary{
		SessionID:      sess.ID.String(),
		Operator:       operatorName,
		OpenedAt:       sess.OpenedAt,
		ClosedAt:       *sess.ClosedAt,
		OpeningBalance: sess.OpeningBalance,
		ClosingBalance: *sess.ClosingBalance,
		TotalInflow:    totalIn,
		TotalOutflow:   totalOut,
		Expected:       expected,
		Deviation:      sess.ClosingBalance.Sub(expected),
		MovementCount:  len(sess.Movements),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Cash session closed — %s", sess.ClosedAt.Format("02/01/2006"))
	body := fmt.Sprintf("Session %s was closed by %s. Summary attached.", sess.ID, operatorName)
	filename := fmt.Sprintf("session_%s.pdf", sess.ID)

	return w.cb.Execute(func() error {
		return w.mailer.SendWithPDF(w.to, subject, body, filename, pdf)
	})
}
