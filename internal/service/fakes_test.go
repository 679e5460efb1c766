package service_test

import (
	"context"
	"sort"
	"time"

	"garagepos/internal/model"
	"garagepos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory store implementing both ledger repositories ────────────────────
// Mirrors the real repositories' contracts: gorm.ErrRecordNotFound for
// missing rows and gorm.ErrDuplicatedKey when a second open session would
// violate the partial unique index.

type fakeStore struct {
	sessions  map[uuid.UUID]*model.CashSession
	movements []model.CashMovement
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[uuid.UUID]*model.CashSession)}
}

func (r *fakeStore) DB() *gorm.DB { return nil }

func (r *fakeStore) Create(_ context.Context, _ *gorm.DB, s *model.CashSession) error {
	if s.Status == model.SessionOpen {
		for _, existing := range r.sessions {
			if existing.Status == model.SessionOpen {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeStore) FindOpen(_ context.Context) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.Status == model.SessionOpen {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStore) FindByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.Movements = nil
	for _, m := range r.sortedMovements() {
		if m.SessionID == id {
			s.Movements = append(s.Movements, m)
		}
	}
	return s, nil
}

func (r *fakeStore) FindByIDForUpdate(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeStore) Update(_ context.Context, _ *gorm.DB, s *model.CashSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeStore) ListClosed(_ context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var closed []model.CashSession
	for _, s := range r.sessions {
		if s.Status == model.SessionClosed {
			closed = append(closed, *s)
		}
	}
	sort.Slice(closed, func(i, j int) bool {
		return closed[i].ClosedAt.After(*closed[j].ClosedAt)
	})
	total := int64(len(closed))
	start := (page - 1) * limit
	if start >= len(closed) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(closed) {
		end = len(closed)
	}
	return closed[start:end], total, nil
}

func (r *fakeStore) CreateMovement(_ context.Context, _ *gorm.DB, m *model.CashMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeStore) FindMovementByID(_ context.Context, _ *gorm.DB, sessionID, id uuid.UUID) (*model.CashMovement, error) {
	for _, m := range r.movements {
		if m.ID == id && m.SessionID == sessionID {
			found := m
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStore) UpdateMovement(_ context.Context, _ *gorm.DB, m *model.CashMovement) error {
	for i := range r.movements {
		if r.movements[i].ID == m.ID {
			r.movements[i] = *m
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeStore) DeleteMovement(_ context.Context, _ *gorm.DB, sessionID, id uuid.UUID) error {
	for i := range r.movements {
		if r.movements[i].ID == id && r.movements[i].SessionID == sessionID {
			r.movements = append(r.movements[:i], r.movements[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var result []model.CashMovement
	for _, m := range r.sortedMovements() {
		if m.SessionID == sessionID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *fakeStore) ListByOccurredRange(_ context.Context, from, to time.Time) ([]model.CashMovement, error) {
	var result []model.CashMovement
	for _, m := range r.sortedMovements() {
		if !m.OccurredAt.Before(from) && m.OccurredAt.Before(to) {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *fakeStore) sortedMovements() []model.CashMovement {
	sorted := make([]model.CashMovement, len(r.movements))
	copy(sorted, r.movements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})
	return sorted
}

// movementStore adapts fakeStore to the MovementRepository method names.
type movementStore struct{ *fakeStore }

func (r movementStore) Create(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error {
	return r.CreateMovement(ctx, tx, m)
}

func (r movementStore) FindByID(ctx context.Context, tx *gorm.DB, sessionID, id uuid.UUID) (*model.CashMovement, error) {
	return r.FindMovementByID(ctx, tx, sessionID, id)
}

func (r movementStore) Update(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error {
	return r.UpdateMovement(ctx, tx, m)
}

func (r movementStore) Delete(ctx context.Context, tx *gorm.DB, sessionID, id uuid.UUID) error {
	return r.DeleteMovement(ctx, tx, sessionID, id)
}

var (
	_ repository.SessionRepository  = (*fakeStore)(nil)
	_ repository.MovementRepository = movementStore{}
)

// ── Dispatcher fake ──────────────────────────────────────────────────────────

type recordingDispatcher struct {
	enqueued []uuid.UUID
}

func (d *recordingDispatcher) EnqueueCloseReport(_ context.Context, sessionID uuid.UUID) error {
	d.enqueued = append(d.enqueued, sessionID)
	return nil
}
