package handler

import (
	"net/http"
	"strconv"

	"garagepos/internal/apierror"
	"garagepos/internal/dto"
	"garagepos/internal/middleware"
	"garagepos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CashboxHandler struct {
	sessions service.SessionService
	ledger   service.LedgerService
}

func NewCashboxHandler(sessions service.SessionService, ledger service.LedgerService) *CashboxHandler {
	return &CashboxHandler{sessions: sessions, ledger: ledger}
}

// Open godoc
// @Summary Opens a new cash session
// @Tags cashbox
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest true "Opening data"
// @Success 201 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cashbox/open [post]
func (h *CashboxHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	operatorID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid operator id"))
		return
	}

	resp, err := h.sessions.Open(c.Request.Context(), operatorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Closes a cash session with the operator-declared balance
// @Tags cashbox
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session id"
// @Param body body dto.CloseSessionRequest true "Declared closing balance"
// @Success 200 {object} dto.SessionResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cashbox/{id}/close [post]
func (h *CashboxHandler) Close(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	requesterID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid operator id"))
		return
	}

	resp, err := h.sessions.Close(c.Request.Context(), sessionID, requesterID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Current returns the currently open cash session, if any.
func (h *CashboxHandler) Current(c *gin.Context) {
	resp, err := h.sessions.GetOpen(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusNotFound, apierror.New("no open session"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary Per-session summary with expected vs declared cash
// @Tags cashbox
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session id"
// @Success 200 {object} dto.SessionReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cashbox/{id}/report [get]
func (h *CashboxHandler) Report(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.sessions.GetReport(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History returns a paginated list of closed cash sessions.
func (h *CashboxHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	resp, total, err := h.sessions.History(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "total": total, "page": page, "limit": limit})
}

// AddMovement godoc
// @Summary Records a movement against an open session
// @Tags cashbox
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session id"
// @Param body body dto.MovementRequest true "Movement data"
// @Success 201 {object} dto.MovementResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/cashbox/{id}/movements [post]
func (h *CashboxHandler) AddMovement(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.AddMovement(c.Request.Context(), sessionID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateMovement replaces the mutable fields of a movement while its session
// is still open.
func (h *CashboxHandler) UpdateMovement(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	movementID, ok := pathID(c, "movementId")
	if !ok {
		return
	}
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.UpdateMovement(c.Request.Context(), sessionID, movementID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteMovement removes a movement permanently while its session is open.
func (h *CashboxHandler) DeleteMovement(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	movementID, ok := pathID(c, "movementId")
	if !ok {
		return
	}
	if err := h.ledger.DeleteMovement(c.Request.Context(), sessionID, movementID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMovements returns all movements of a session in reporting order.
func (h *CashboxHandler) ListMovements(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.ledger.ListMovements(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
