package roster

import (
	"errors"
	"net/http"

	"gymgate/internal/api"
	"gymgate/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	roster      *Roster
	waitlist    *Waitlist
	coordinator *Coordinator
}

func NewHandler(roster *Roster, waitlist *Waitlist, coordinator *Coordinator) *Handler {
	return &Handler{roster: roster, waitlist: waitlist, coordinator: coordinator}
}

func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Session not found"})
	case errors.Is(err, ErrWaitlistEmpty):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Waitlist is empty"})
	case errors.Is(err, ErrInvalidCapacity), errors.Is(err, ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrCapacityBelowBookings):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}

// sameBranch aborts with 403 when the session belongs to another branch.
func (h *Handler) sameBranch(c *gin.Context, principal auth.Principal) (string, bool) {
	avail, ok := h.branchSession(c, principal)
	if !ok {
		return "", false
	}
	return avail.ID, true
}

func (h *Handler) branchSession(c *gin.Context, principal auth.Principal) (*SessionAvailability, bool) {
	avail, err := h.roster.GetSession(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		respondError(c, err, "Failed to fetch session")
		return nil, false
	}
	if avail.BranchID != principal.BranchID {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Session belongs to another branch"})
		return nil, false
	}
	return avail, true
}

// GetSession godoc
// @Summary      Get session
// @Description  Returns a class session with booked count, free slots and waitlist length.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  SessionAvailability
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionID} [get]
func (h *Handler) GetSession(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	avail, ok := h.branchSession(c, principal)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, avail)
}

// Book godoc
// @Summary      Book session
// @Description  Books the caller into the session. Outcome is booked, already_booked or full.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      201        {object}  BookResult
// @Success      200        {object}  BookResult
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      500        {object}  api.ErrorResponse
// @Router       /sessions/{sessionID}/book [post]
func (h *Handler) Book(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	sessionID, ok := h.sameBranch(c, principal)
	if !ok {
		return
	}

	res, err := h.roster.Book(c.Request.Context(), sessionID, principal.AccountID)
	if err != nil {
		respondError(c, err, "Failed to create booking")
		return
	}

	status := http.StatusOK
	if res.Outcome == BookOutcomeBooked {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

// Cancel godoc
// @Summary      Cancel booking
// @Description  Cancels the caller's booking and promotes from the waitlist.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  CancelResult
// @Failure      404        {object}  api.ErrorResponse
// @Failure      500        {object}  api.ErrorResponse
// @Router       /sessions/{sessionID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	res, err := h.roster.Cancel(c.Request.Context(), c.Param("sessionID"), principal.AccountID)
	if err != nil {
		respondError(c, err, "Failed to cancel booking")
		return
	}
	c.JSON(http.StatusOK, res)
}

// JoinWaitlist godoc
// @Summary      Join waitlist
// @Tags         waitlist
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      201        {object}  JoinResult
// @Success      200        {object}  JoinResult
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionID}/waitlist [post]
func (h *Handler) JoinWaitlist(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	sessionID, ok := h.sameBranch(c, principal)
	if !ok {
		return
	}

	res, err := h.waitlist.Join(c.Request.Context(), sessionID, principal.AccountID)
	if err != nil {
		respondError(c, err, "Failed to join waitlist")
		return
	}

	status := http.StatusOK
	if res.Outcome == JoinOutcomeJoined {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

// LeaveWaitlist godoc
// @Summary      Leave waitlist
// @Tags         waitlist
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  RemoveResult
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionID}/waitlist [delete]
func (h *Handler) LeaveWaitlist(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	res, err := h.waitlist.Remove(c.Request.Context(), c.Param("sessionID"), principal.AccountID)
	if err != nil {
		respondError(c, err, "Failed to leave waitlist")
		return
	}
	c.JSON(http.StatusOK, res)
}

// PeekWaitlistHead godoc
// @Summary      Waitlist head
// @Tags         waitlist
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  WaitlistEntry
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionID}/waitlist/head [get]
func (h *Handler) PeekWaitlistHead(c *gin.Context) {
	head, err := h.waitlist.PeekHead(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		respondError(c, err, "Failed to fetch waitlist")
		return
	}
	c.JSON(http.StatusOK, head)
}

// CreateSession godoc
// @Summary      Create session
// @Description  Creates a class session at the admin's branch. Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateSessionRequest  true  "Session"
// @Success      201      {object}  Session
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := api.ValidateStruct(req); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	session, err := h.roster.CreateSession(c.Request.Context(), principal.BranchID, req.Capacity, req.StartTime)
	if err != nil {
		respondError(c, err, "Failed to create session")
		return
	}
	c.JSON(http.StatusCreated, session)
}

// SetCapacity godoc
// @Summary      Change session capacity
// @Description  Changes capacity and promotes waitlisted accounts into freed slots. Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string              true  "Session ID"
// @Param        request    body      SetCapacityRequest  true  "Capacity"
// @Success      200        {object}  map[string]interface{}
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /admin/sessions/{sessionID}/capacity [put]
func (h *Handler) SetCapacity(c *gin.Context) {
	var req SetCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := api.ValidateStruct(req); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	sessionID := c.Param("sessionID")
	promoted, err := h.roster.SetCapacity(c.Request.Context(), sessionID, req.Capacity)
	if err != nil {
		respondError(c, err, "Failed to change capacity")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "capacity": req.Capacity, "promoted": promoted})
}

// Promote godoc
// @Summary      Run promotion pass
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  map[string]interface{}
// @Failure      404        {object}  api.ErrorResponse
// @Router       /admin/sessions/{sessionID}/promote [post]
func (h *Handler) Promote(c *gin.Context) {
	sessionID := c.Param("sessionID")
	promoted, err := h.coordinator.Promote(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err, "Failed to promote")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "promoted": promoted, "state": h.coordinator.State(sessionID)})
}

// ListBookings godoc
// @Summary      List bookings by session
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {array}   Booking
// @Failure      404        {object}  api.ErrorResponse
// @Router       /admin/sessions/{sessionID}/bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.roster.ListBookings(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		respondError(c, err, "Failed to fetch bookings")
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// ListWaitlist godoc
// @Summary      List waitlist by session
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {array}   WaitlistEntry
// @Failure      404        {object}  api.ErrorResponse
// @Router       /admin/sessions/{sessionID}/waitlist [get]
func (h *Handler) ListWaitlist(c *gin.Context) {
	entries, err := h.waitlist.List(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		respondError(c, err, "Failed to fetch waitlist")
		return
	}
	c.JSON(http.StatusOK, entries)
}
