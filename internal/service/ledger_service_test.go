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
)

func openTestSession(t *testing.T, store *fakeStore) (service.LedgerService, uuid.UUID, uuid.UUID) {
	t.Helper()
	sessionSvc := service.NewSessionService(store, nil)
	operatorID := uuid.New()
	opened, err := sessionSvc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(1000),
	})
	require.NoError(t, err)
	ledger := service.NewLedgerService(store, movementStore{store})
	return ledger, uuid.MustParse(opened.ID), operatorID
}

func TestAddMovement(t *testing.T) {
	store := newFakeStore()
	ledger, sessionID, _ := openTestSession(t, store)

	resp, err := ledger.AddMovement(context.Background(), sessionID, dto.MovementRequest{
		Kind:        model.KindInflow,
		Amount:      decimal.NewFromFloat(500),
		Description: "  Brake service  ",
		Category:    model.CategoryServices,
	})

	require.NoError(t, err)
	assert.Equal(t, model.KindInflow, resp.Kind)
	assert.Equal(t, "500", resp.Amount.String())
	assert.Equal(t, "Brake service", resp.Description)
	assert.Equal(t, model.CategoryServices, resp.Category)
	assert.NotEmpty(t, resp.OccurredAt)
	assert.Len(t, store.movements, 1)
}

func TestAddMovementDefaultCategory(t *testing.T) {
	store := newFakeStore()
	ledger, sessionID, _ := openTestSession(t, store)

	resp, err := ledger.AddMovement(context.Background(), sessionID, dto.MovementRequest{
		Kind:        model.KindOutflow,
		Amount:      decimal.NewFromFloat(40),
		Description: "Coffee for the shop",
	})

	require.NoError(t, err)
	assert.Equal(t, model.CategoryOther, resp.Category)
}

func TestAddMovementValidation(t *testing.T) {
	store := newFakeStore()
	ledger, sessionID, _ := openTestSession(t, store)

	cases := []struct {
		name string
		req  dto.MovementRequest
	}{
		{"zero amount", dto.MovementRequest{
			Kind: model.KindInflow, Amount: decimal.Zero, Description: "x"}},
		{"negative amount", dto.MovementRequest{
			Kind: model.KindInflow, Amount: decimal.NewFromFloat(-10), Description: "x"}},
		{"blank description", dto.MovementRequest{
			Kind: model.KindInflow, Amount: decimal.NewFromFloat(10), Description: "   "}},
		{"unknown kind", dto.MovementRequest{
			Kind: "transfer", Amount: decimal.NewFromFloat(10), Description: "x"}},
		{"unknown category", dto.MovementRequest{
			Kind: model.KindInflow, Amount: decimal.NewFromFloat(10), Description: "x",
			Category: "snacks"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.AddMovement(context.Background(), sessionID, tc.req)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}
	assert.Empty(t, store.movements)
}

func TestAddMovementBadLinkedOrder(t *testing.T) {
	store := newFakeStore()
	ledger, sessionID, _ := openTestSession(t, store)

	bad := "not-a-uuid"
	_, err := ledger.AddMovement(context.Background(), sessionID, dto.MovementRequest{
		Kind:          model.KindInflow,
		Amount:        decimal.NewFromFloat(10),
		Description:   "Order payment",
		LinkedOrderID: &bad,
	})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestAddMovementLinkedOrder(t *testing.T) {
	store := newFakeStore()
	ledger, sessionID, _ := openTestSession(t, store)

	orderID := uuid.New().String()
	resp, err := ledger.AddMovement(context.Background(), sessionID, dto.MovementRequest{
		Kind:          model.KindInflow,
		Amount:        decimal.NewFromFloat(250),
		Description:   "Order #1042 cash payment",
		Category:      model.CategorySales,
		LinkedOrderID: &orderID,
	})

	require.NoError(t, err)
	require.NotNil(t, resp.LinkedOrderID)
	assert.Equal(t, orderID, *resp.LinkedOrderID)
}

func TestAddMovementUnknownSession(t *testing.T) {
	store := newFakeStore()
	ledger := service.NewLedgerService(store, movementStore{store})

	_, err := ledger.AddMovement(context.Background(), uuid.New(), dto.MovementRequest{
		Kind: model.KindInflow, Amount: decimal.NewFromFloat(10), Description: "x",
	})
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestAddMovementClosedSession(t *testing.T) {
	store := newFakeStore()
	ledger, sessionID, operatorID := openTestSession(t, store)

	sessionSvc := service.NewSessionService(store, nil)
	_, err := sessionSvc.Close(context.Background(), sessionID, operatorID, dto.CloseSessionRequest{
		ClosingBalance: decimal.NewFromFloat(1000),
	})
	require.NoError(t, err)

	_, err = ledger.AddMovement(context.Background(), sessionID, dto.MovementRequest{
		Kind: model.KindInflow, Amount: decimal.NewFromFloat(10), Description: "late entry",
	})
	assert.ErrorIs(t, err, service.ErrSessionClosed)
}

func TestUpdateMovement(t *testing.T) {
	store := newFakeStore()
	ledger, sessionID, _ := openTestSession(t, store)

	created, err := ledger.AddMovement(context.Background(), sessionID, dto.MovementRequest{
		Kind:        model.KindInflow,
		Amount:      decimal.NewFromFloat(100),
		Description: "Typo amount",
		Category:    model.CategorySales,
	})
	require.NoError(t, err)
	movementID := uuid.MustParse(created.ID)

	updated, err := ledger.UpdateMovement(context.Background(), sessionID, movementID, dto.MovementRequest{
		Kind:        model.KindInflow,
		Amount:      decimal.NewFromFloat(150),
		Description: "Corrected amount",
		Category:    model.CategorySales,
	})

	require.NoError(t, err)
	assert.Equal(t, "150", updated.Amount.String())
	assert.Equal(t, "Corrected amount", updated.Description)
	// The original timestamp is the aggregation key and never moves.
	assert.Equal(t, created.OccurredAt, updated.OccurredAt)
}

func TestUpdateMovementWrongSession(t *testing.T) {
	store := newFakeStore()
	ledger, sessionID, operatorID := openTestSession(t, store)

	created, err := ledger.AddMovement(context.Background(), sessionID, dto.MovementRequest{
		Kind: model.KindInflow, Amount: decimal.NewFromFloat(100), Description: "x",
	})
	require.NoError(t, err)

	// Close this session and open another: the movement must not be reachable
	// through the new session's id.
	sessionSvc := service.NewSessionService(store, nil)
	_, err = sessionSvc.Close(context.Background(), sessionID, operatorID, dto.CloseSessionRequest{
		ClosingBalance: decimal.NewFromFloat(1100),
	})
	require.NoError(t, err)
	other, err := sessionSvc.Open(context.Background(), operatorID, dto.OpenSessionRequest{
		OpeningBalance: decimal.NewFromFloat(500),
	})
	require.NoError(t, err)

	_, err = ledger.UpdateMovement(context.Background(), uuid.MustParse(other.ID),
		uuid.MustParse(created.ID), dto.MovementRequest{
			Kind: model.KindInflow, Amount: decimal.NewFromFloat(200), Description: "y",
		})
	assert.ErrorIs(t, err, service.ErrMovementNotFound)
}

func TestUpdateMovementClosedSession(t *testing.T) {
	store := newFakeStore()
	ledger, sessionID, operatorID := openTestSession(t, store)

	created, err := ledger.AddMovement(context.Background(), sessionID, dto.MovementRequest{
		Kind: model.KindInflow, Amount: decimal.NewFromFloat(100), Description: "x",
	})
	require.NoError(t, err)

	sessionSvc := service.NewSessionService(store, nil)
	_, err = sessionSvc.Close(context.Background(), sessionID, operatorID, dto.CloseSessionRequest{
		ClosingBalance: decimal.NewFromFloat(1100),
	})
	require.NoError(t, err)

	_, err = ledger.UpdateMovement(context.Background(), sessionID, uuid.MustParse(created.ID),
		dto.MovementRequest{
			Kind: model.KindInflow, Amount: decimal.NewFromFloat(200), Description: "y",
		})
	assert.ErrorIs(t, err, service.ErrSessionClosed)
}

func TestDeleteMovement(t *testing.T) {
	store := newFakeStore()
	ledger, sessionID, _ := openTestSession(t, store)

	created, err := ledger.AddMovement(context.Background(), sessionID, dto.MovementRequest{
		Kind: model.KindOutflow, Amount: decimal.NewFromFloat(50), Description: "wrong entry",
	})
	require.NoError(t, err)
	movementID := uuid.MustParse(created.ID)

	require.NoError(t, ledger.DeleteMovement(context.Background(), sessionID, movementID))
	assert.Empty(t, store.movements)

	err = ledger.DeleteMovement(context.Background(), sessionID, movementID)
	assert.ErrorIs(t, err, service.ErrMovementNotFound)
}

func TestDeleteMovementClosedSession(t *testing.T) {
	store := newFakeStore()
	ledger, sessionID, operatorID := openTestSession(t, store)

	created, err := ledger.AddMovement(context.Background(), sessionID, dto.MovementRequest{
		Kind: model.KindOutflow, Amount: decimal.NewFromFloat(50), Description: "x",
	})
	require.NoError(t, err)

	sessionSvc := service.NewSessionService(store, nil)
	_, err = sessionSvc.Close(context.Background(), sessionID, operatorID, dto.CloseSessionRequest{
		ClosingBalance: decimal.NewFromFloat(950),
	})
	require.NoError(t, err)

	err = ledger.DeleteMovement(context.Background(), sessionID, uuid.MustParse(created.ID))
	assert.ErrorIs(t, err, service.ErrSessionClosed)
	assert.Len(t, store.movements, 1) // still there, kept for reporting
}

func TestListMovementsOrder(t *testing.T) {
	store := newFakeStore()
	ledger, sessionID, _ := openTestSession(t, store)

	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	store.movements = append(store.movements,
		model.CashMovement{ID: uuid.New(), SessionID: sessionID, Kind: model.KindInflow,
			Amount: decimal.NewFromFloat(200), Description: "second",
			Category: model.CategorySales, OccurredAt: base.Add(2 * time.Hour)},
		model.CashMovement{ID: uuid.New(), SessionID: sessionID, Kind: model.KindInflow,
			Amount: decimal.NewFromFloat(100), Description: "first",
			Category: model.CategorySales, OccurredAt: base},
	)

	movements, err := ledger.ListMovements(context.Background(), sessionID)

	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, "first", movements[0].Description)
	assert.Equal(t, "second", movements[1].Description)
}
