package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"garagepos/internal/dto"
	"garagepos/internal/model"
	"garagepos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerService interface {
	AddMovement(ctx context.Context, sessionID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error)
	UpdateMovement(ctx context.Context, sessionID, movementID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error)
	DeleteMovement(ctx context.Context, sessionID, movementID uuid.UUID) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]dto.MovementResponse, error)
}

type ledgerService struct {
	sessions  repository.SessionRepository
	movements repository.MovementRepository
}

func NewLedgerService(sessions repository.SessionRepository, movements repository.MovementRepository) LedgerService {
	return &ledgerService{sessions: sessions, movements: movements}
}

// lockOpenSession loads the session FOR UPDATE inside tx and verifies it is
// still open. Every ledger mutation goes through this at the same transaction
// boundary as the write, so a concurrent close cannot slip in between the
// status check and the mutation.
func (s *ledgerService) lockOpenSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	sess, err := s.sessions.FindByIDForUpdate(ctx, tx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if sess.Status != model.SessionOpen {
		return ErrSessionClosed
	}
	return nil
}

func validateMovement(req *dto.MovementRequest) error {
	if !req.Amount.IsPositive() {
		return validationf("amount must be greater than zero")
	}
	if strings.TrimSpace(req.Description) == "" {
		return validationf("description must not be empty")
	}
	if !model.ValidKind(req.Kind) {
		return validationf("unknown movement kind %q", req.Kind)
	}
	if req.Category == "" {
		req.Category = model.CategoryOther
	}
	if !model.ValidCategory(req.Category) {
		return validationf("unknown movement category %q", req.Category)
	}
	return nil
}

func parseLinkedOrder(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	// The referenced order is never looked up — loose coupling by design.
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, validationf("linked_order_id is not a valid id")
	}
	return &id, nil
}

// ── AddMovement ──────────────────────────────────────────────────────────────

func (s *ledgerService) AddMovement(ctx context.Context, sessionID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error) {
	if err := validateMovement(&req); err != nil {
		return nil, err
	}
	linkedOrder, err := parseLinkedOrder(req.LinkedOrderID)
	if err != nil {
		return nil, err
	}

	mov := &model.CashMovement{
		SessionID:     sessionID,
		Kind:          req.Kind,
		Amount:        req.Amount,
		Description:   strings.TrimSpace(req.Description),
		Category:      req.Category,
		OccurredAt:    time.Now().UTC(),
		Notes:         req.Notes,
		LinkedOrderID: linkedOrder,
	}
	err = runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		if err := s.lockOpenSession(ctx, tx, sessionID); err != nil {
			return err
		}
		return s.movements.Create(ctx, tx, mov)
	})
	if err != nil {
		return nil, err
	}
	resp := movementToResponse(mov)
	return &resp, nil
}

// ── UpdateMovement ───────────────────────────────────────────────────────────
// Replaces the mutable fields (kind, amount, description, category, notes,
// linked order) atomically. OccurredAt is fixed at creation and never moves.

func (s *ledgerService) UpdateMovement(ctx context.Context, sessionID, movementID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error) {
	if err := validateMovement(&req); err != nil {
		return nil, err
	}
	linkedOrder, err := parseLinkedOrder(req.LinkedOrderID)
	if err != nil {
		return nil, err
	}

	var updated *model.CashMovement
	err = runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		if err := s.lockOpenSession(ctx, tx, sessionID); err != nil {
			return err
		}
		mov, err := s.movements.FindByID(ctx, tx, sessionID, movementID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMovementNotFound
			}
			return err
		}
		mov.Kind = req.Kind
		mov.Amount = req.Amount
		mov.Description = strings.TrimSpace(req.Description)
		mov.Category = req.Category
		mov.Notes = req.Notes
		mov.LinkedOrderID = linkedOrder
		updated = mov
		return s.movements.Update(ctx, tx, mov)
	})
	if err != nil {
		return nil, err
	}
	resp := movementToResponse(updated)
	return &resp, nil
}

// ── DeleteMovement ───────────────────────────────────────────────────────────

func (s *ledgerService) DeleteMovement(ctx context.Context, sessionID, movementID uuid.UUID) error {
	return runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		if err := s.lockOpenSession(ctx, tx, sessionID); err != nil {
			return err
		}
		if err := s.movements.Delete(ctx, tx, sessionID, movementID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMovementNotFound
			}
			return err
		}
		return nil
	})
}

// ── ListMovements ────────────────────────────────────────────────────────────

func (s *ledgerService) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]dto.MovementResponse, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	movs, err := s.movements.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for i := range movs {
		out = append(out, movementToResponse(&movs[i]))
	}
	return out, nil
}
