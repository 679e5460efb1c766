package service_test

import (
	"context"
	"testing"
	"time"

	"garagepos/internal/dto"
	"garagepos/internal/model"
	"garagepos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpenSession(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(store, nil)

	resp, err := svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(1000),
	})

	require.NoError(t, err)
	assert.Equal(t, model.SessionOpen, resp.Status)
	assert.Equal(t, "1000", resp.OpeningBalance.String())
	assert.NotEmpty(t, resp.OpenedAt)
	assert.Nil(t, resp.ClosedAt)
}

func TestOpenSessionZeroBalance(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(store, nil)

	resp, err := svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{
		OpeningBalance: decimal.Zero,
	})

	require.NoError(t, err)
	assert.True(t, resp.OpeningBalance.IsZero())
}

func TestOpenSessionNegativeBalance(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(store, nil)

	_, err := svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(-50),
	})

	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestOpenSessionConflict(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(store, nil)

	_, err := svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(1000),
	})
	require.NoError(t, err)

	// Second open while the first is still running must be rejected.
	_, err = svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(500),
	})
	assert.ErrorIs(t, err, service.ErrSessionConflict)
}

// blindStore never sees the open row on the pre-check read, so the conflict
// surfaces as a duplicate-key failure on insert, the way two concurrent opens
// race against the partial unique index.
type blindStore struct{ *fakeStore }

func (r blindStore) FindOpen(context.Context) (*model.CashSession, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestOpenSessionConflictOnInsert(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(blindStore{store}, nil)

	_, err := svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(1000),
	})
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(500),
	})
	assert.ErrorIs(t, err, service.ErrSessionConflict)
}

func TestCloseSession(t *testing.T) {
	store := newFakeStore()
	dispatcher := &recordingDispatcher{}
	svc := service.NewSessionService(store, dispatcher)
	operatorID := uuid.New()

	opened, err := svc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(1000),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(opened.ID)

	closed, err := svc.Close(context.Background(), sessionID, operatorID, dto.CloseSessionRequest{
		ClosingBalance: decimal.NewFromFloat(1380),
	})

	require.NoError(t, err)
	assert.Equal(t, model.SessionClosed, closed.Status)
	require.NotNil(t, closed.ClosingBalance)
	assert.Equal(t, "1380", closed.ClosingBalance.String())
	assert.NotNil(t, closed.ClosedAt)

	// The close-report job is enqueued exactly once, after the commit.
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, sessionID, dispatcher.enqueued[0])
}

func TestCloseSessionByDifferentOperator(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(store, nil)

	opened, err := svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(1000),
	})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), uuid.MustParse(opened.ID), uuid.New(), dto.CloseSessionRequest{
		ClosingBalance: decimal.NewFromFloat(1000),
	})
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestCloseSessionTwice(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(store, nil)
	operatorID := uuid.New()

	opened, err := svc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(1000),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(opened.ID)

	_, err = svc.Close(context.Background(), sessionID, operatorID, dto.CloseSessionRequest{
		ClosingBalance: decimal.NewFromFloat(1000),
	})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), sessionID, operatorID, dto.CloseSessionRequest{
		ClosingBalance: decimal.NewFromFloat(900),
	})
	assert.ErrorIs(t, err, service.ErrAlreadyClosed)
}

func TestCloseSessionNotFound(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(store, nil)

	_, err := svc.Close(context.Background(), uuid.New(), uuid.New(), dto.CloseSessionRequest{
		ClosingBalance: decimal.NewFromFloat(100),
	})
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestGetOpenNone(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(store, nil)

	resp, err := svc.GetOpen(context.Background())

	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestGetOpenAfterClose(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(store, nil)
	operatorID := uuid.New()

	opened, err := svc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(1000),
	})
	require.NoError(t, err)

	resp, err := svc.GetOpen(context.Background())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, opened.ID, resp.ID)

	_, err = svc.Close(context.Background(), uuid.MustParse(opened.ID), operatorID, dto.CloseSessionRequest{
		ClosingBalance: decimal.NewFromFloat(1000),
	})
	require.NoError(t, err)

	resp, err = svc.GetOpen(context.Background())
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestSessionReport(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(store, nil)
	operatorID := uuid.New()

	opened, err := svc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(1000),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(opened.ID)

	now := time.Now().UTC()
	store.movements = append(store.movements,
		model.CashMovement{ID: uuid.New(), SessionID: sessionID, Kind: model.KindInflow,
			Amount: decimal.NewFromFloat(500), Description: "Brake service",
			Category: model.CategoryServices, OccurredAt: now},
		model.CashMovement{ID: uuid.New(), SessionID: sessionID, Kind: model.KindOutflow,
			Amount: decimal.NewFromFloat(120), Description: "Oil filters",
			Category: model.CategoryExpenses, OccurredAt: now.Add(time.Minute)},
	)

	report, err := svc.GetReport(context.Background(), sessionID)

	require.NoError(t, err)
	assert.Equal(t, "500", report.TotalInflow.String())
	assert.Equal(t, "120", report.TotalOutflow.String())
	// expected = 1000 + 500 - 120
	assert.Equal(t, "1380", report.ExpectedBalance.String())
	assert.Equal(t, 2, report.MovementCount)
	assert.Len(t, report.Movements, 2)
	assert.Nil(t, report.Deviation) // still open, no declared balance yet
}

func TestSessionReportDeviation(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(store, nil)
	operatorID := uuid.New()

	opened, err := svc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(1000),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(opened.ID)

	store.movements = append(store.movements, model.CashMovement{
		ID: uuid.New(), SessionID: sessionID, Kind: model.KindInflow,
		Amount: decimal.NewFromFloat(500), Description: "Tire change",
		Category: model.CategoryServices, OccurredAt: time.Now().UTC(),
	})

	// Operator counts 1470 against an expected 1500: short by 30.
	_, err = svc.Close(context.Background(), sessionID, operatorID, dto.CloseSessionRequest{
		ClosingBalance: decimal.NewFromFloat(1470),
	})
	require.NoError(t, err)

	report, err := svc.GetReport(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "1500", report.ExpectedBalance.String())
	require.NotNil(t, report.Deviation)
	assert.Equal(t, "-30", report.Deviation.String())
}

func TestSessionHistory(t *testing.T) {
	store := newFakeStore()
	svc := service.NewSessionService(store, nil)

	first := time.Date(2026, 8, 20, 18, 0, 0, 0, time.UTC)
	second := time.Date(2026, 8, 21, 18, 0, 0, 0, time.UTC)
	closing := decimal.NewFromFloat(1000)
	firstID, secondID, openID := uuid.New(), uuid.New(), uuid.New()
	store.sessions[firstID] = &model.CashSession{
		ID: firstID, OperatorID: uuid.New(), Status: model.SessionClosed,
		OpeningBalance: decimal.NewFromFloat(1000), ClosingBalance: &closing,
		OpenedAt: first.Add(-8 * time.Hour), ClosedAt: &first,
	}
	store.sessions[secondID] = &model.CashSession{
		ID: secondID, OperatorID: uuid.New(), Status: model.SessionClosed,
		OpeningBalance: decimal.NewFromFloat(2000), ClosingBalance: &closing,
		OpenedAt: second.Add(-8 * time.Hour), ClosedAt: &second,
	}
	store.sessions[openID] = &model.CashSession{
		ID: openID, OperatorID: uuid.New(), Status: model.SessionOpen,
		OpeningBalance: decimal.NewFromFloat(500), OpenedAt: time.Now(),
	}

	sessions, total, err := svc.History(context.Background(), 1, 10)

	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, sessions, 2)
	// Most recently closed first.
	assert.Equal(t, "2000", sessions[0].OpeningBalance.String())
	assert.Equal(t, "1000", sessions[1].OpeningBalance.String())
	for _, s := range sessions {
		assert.Equal(t, model.SessionClosed, s.Status)
	}
}
