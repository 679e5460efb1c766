package repository

import (
	"context"

	"garagepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	// Create inserts the session inside tx. The partial unique index
	// uniq_cash_sessions_open rejects a second open row; gorm translates the
	// SQLSTATE 23505 failure into gorm.ErrDuplicatedKey.
	Create(ctx context.Context, tx *gorm.DB, s *model.CashSession) error
	FindOpen(ctx context.Context) (*model.CashSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	// FindByIDForUpdate loads the session row with a FOR UPDATE lock so that
	// status checks and the subsequent mutation share one transaction boundary.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashSession, error)
	Update(ctx context.Context, tx *gorm.DB, s *model.CashSession) error
	ListClosed(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in the service layer
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, s *model.CashSession) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindOpen(ctx context.Context) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Where("status = ?", model.SessionOpen).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Preload("Movements", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC, created_at ASC")
		}).
		First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Update(ctx context.Context, tx *gorm.DB, s *model.CashSession) error {
	return tx.WithContext(ctx).Save(s).Error
}

func (r *sessionRepo) ListClosed(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashSession{}).Where("status = ?", model.SessionClosed)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("closed_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}
