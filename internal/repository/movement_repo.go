package repository

import (
	"context"
	"time"

	"garagepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementRepository interface {
	Create(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error
	// FindByID is scoped to a session: a movement that exists but belongs to a
	// different session is reported as not found.
	FindByID(ctx context.Context, tx *gorm.DB, sessionID, id uuid.UUID) (*model.CashMovement, error)
	Update(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error
	Delete(ctx context.Context, tx *gorm.DB, sessionID, id uuid.UUID) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
	// ListByOccurredRange returns movements with occurredAt in [from, to),
	// ordered by occurred_at with insertion order as a stable tie-break.
	ListByOccurredRange(ctx context.Context, from, to time.Time) ([]model.CashMovement, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository { return &movementRepo{db: db} }

func (r *movementRepo) Create(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error {
	return tx.WithContext(ctx).Create(m).Error
}

func (r *movementRepo) FindByID(ctx context.Context, tx *gorm.DB, sessionID, id uuid.UUID) (*model.CashMovement, error) {
	var m model.CashMovement
	err := tx.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *movementRepo) Update(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error {
	return tx.WithContext(ctx).Save(m).Error
}

func (r *movementRepo) Delete(ctx context.Context, tx *gorm.DB, sessionID, id uuid.UUID) error {
	// Hard delete — no tombstone. Cancellations are the caller's concern.
	res := tx.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.CashMovement{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *movementRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("occurred_at ASC, created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *movementRepo) ListByOccurredRange(ctx context.Context, from, to time.Time) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Order("occurred_at ASC, created_at ASC").
		Find(&movs).Error
	return movs, err
}
