package service

import (
	"context"
	"errors"
	"time"

	"garagepos/internal/dto"
	"garagepos/internal/model"
	"garagepos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CloseReportDispatcher enqueues the end-of-session summary job after a
// successful close. Implemented by worker.Dispatcher; nil disables it.
type CloseReportDispatcher interface {
	EnqueueCloseReport(ctx context.Context, sessionID uuid.UUID) error
}

type SessionService interface {
	Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Close(ctx context.Context, sessionID, requesterID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	// GetOpen returns (nil, nil) when no session is open.
	GetOpen(ctx context.Context) (*dto.SessionResponse, error)
	GetReport(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error)
	History(ctx context.Context, page, limit int) ([]dto.SessionResponse, int64, error)
}

type sessionService struct {
	sessions   repository.SessionRepository
	dispatcher CloseReportDispatcher
}

// NewSessionService builds the session manager. dispatcher may be nil, which
// disables close-report jobs (unit tests, CLI tools).
func NewSessionService(sessions repository.SessionRepository, dispatcher CloseReportDispatcher) SessionService {
	return &sessionService{sessions: sessions, dispatcher: dispatcher}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Open ─────────────────────────────────────────────────────────────────────

func (s *sessionService) Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	if req.OpeningBalance.IsNegative() {
		return nil, validationf("opening_balance must not be negative")
	}

	// Friendly pre-check. The real guard is the partial unique index
	// uniq_cash_sessions_open: two concurrent opens can both pass this read,
	// but only one insert commits.
	if existing, err := s.sessions.FindOpen(ctx); err == nil && existing != nil {
		return nil, ErrSessionConflict
	}

	sess := &model.CashSession{
		OperatorID:     operatorID,
		OpeningBalance: req.OpeningBalance,
		Status:         model.SessionOpen,
		Notes:          req.Notes,
		OpenedAt:       time.Now().UTC(),
	}
	err := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		return s.sessions.Create(ctx, tx, sess)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSessionConflict
		}
		return nil, err
	}
	return sessionToResponse(sess), nil
}

// ── Close ────────────────────────────────────────────────────────────────────
// One-way transition; there is no reopen. Status and ownership are checked on
// a FOR UPDATE read inside the same transaction as the update, so a close
// racing another close (or a ledger write) serializes on the session row.

func (s *sessionService) Close(ctx context.Context, sessionID, requesterID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	if req.ClosingBalance.IsNegative() {
		return nil, validationf("closing_balance must not be negative")
	}

	var closed *model.CashSession
	err := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		sess, err := s.sessions.FindByIDForUpdate(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if sess.Status == model.SessionClosed {
			return ErrAlreadyClosed
		}
		if sess.OperatorID != requesterID {
			return ErrForbidden
		}

		now := time.Now().UTC()
		closing := req.ClosingBalance
		sess.Status = model.SessionClosed
		sess.ClosedAt = &now
		sess.ClosingBalance = &closing
		if req.Notes != nil {
			sess.Notes = req.Notes
		}
		closed = sess
		return s.sessions.Update(ctx, tx, sess)
	})
	if err != nil {
		return nil, err
	}

	// Best effort: a lost job never rolls back a committed close.
	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueCloseReport(ctx, closed.ID); err != nil {
			log.Error().Err(err).Str("session_id", closed.ID.String()).Msg("failed to enqueue close report")
		}
	}
	return sessionToResponse(closed), nil
}

// ── GetOpen ──────────────────────────────────────────────────────────────────
// Read-only lookup used by the ledger endpoints and the frontend to decide
// write eligibility. Always re-reads from the store — no process-local cache.

func (s *sessionService) GetOpen(ctx context.Context) (*dto.SessionResponse, error) {
	sess, err := s.sessions.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	return sessionToResponse(sess), nil
}

// ── GetReport ────────────────────────────────────────────────────────────────

func (s *sessionService) GetReport(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	totalIn, totalOut := decimal.Zero, decimal.Zero
	movements := make([]dto.MovementResponse, 0, len(sess.Movements))
	for _, m := range sess.Movements {
		switch m.Kind {
		case model.KindInflow:
			totalIn = totalIn.Add(m.Amount)
		case model.KindOutflow:
			totalOut = totalOut.Add(m.Amount)
		}
		movements = append(movements, movementToResponse(&m))
	}

	expected := sess.OpeningBalance.Add(totalIn).Sub(totalOut)
	report := &dto.SessionReportResponse{
		Session:         *sessionToResponse(sess),
		TotalInflow:     totalIn,
		TotalOutflow:    totalOut,
		ExpectedBalance: expected,
		MovementCount:   len(sess.Movements),
		Movements:       movements,
	}
	if sess.Status == model.SessionClosed && sess.ClosingBalance != nil {
		deviation := sess.ClosingBalance.Sub(expected)
		report.Deviation = &deviation
	}
	return report, nil
}

// ── History ──────────────────────────────────────────────────────────────────

func (s *sessionService) History(ctx context.Context, page, limit int) ([]dto.SessionResponse, int64, error) {
	sessions, total, err := s.sessions.ListClosed(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, *sessionToResponse(&sessions[i]))
	}
	return out, total, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func sessionToResponse(s *model.CashSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:             s.ID.String(),
		OperatorID:     s.OperatorID.String(),
		Status:         s.Status,
		OpeningBalance: s.OpeningBalance,
		ClosingBalance: s.ClosingBalance,
		Notes:          s.Notes,
		OpenedAt:       s.OpenedAt.UTC().Format(time.RFC3339),
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.UTC().Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	return resp
}

func movementToResponse(m *model.CashMovement) dto.MovementResponse {
	resp := dto.MovementResponse{
		ID:          m.ID.String(),
		SessionID:   m.SessionID.String(),
		Kind:        m.Kind,
		Amount:      m.Amount,
		Description: m.Description,
		Category:    m.Category,
		OccurredAt:  m.OccurredAt.UTC().Format(time.RFC3339),
		Notes:       m.Notes,
	}
	if m.LinkedOrderID != nil {
		id := m.LinkedOrderID.String()
		resp.LinkedOrderID = &id
	}
	return resp
}
