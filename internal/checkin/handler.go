package checkin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gymgate/internal/api"
	"gymgate/internal/auth"

	"github.com/gin-gonic/gin"
)

const defaultHistoryWindow = 30 * 24 * time.Hour

type Handler struct {
	gate *Gate
}

func NewHandler(gate *Gate) *Handler {
	return &Handler{gate: gate}
}

// Admit godoc
// @Summary      Check in
// @Description  Admits a scan, manual or code check-in at the caller's branch. Manual check-ins are staff only.
// @Tags         checkins
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      AdmitCheckInRequest  true  "Check-in"
// @Success      201      {object}  Decision
// @Success      200      {object}  Decision
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      429      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /checkins [post]
func (h *Handler) Admit(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var body AdmitCheckInRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := api.ValidateStruct(body); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	req := AdmitRequest{BranchID: principal.BranchID, Method: body.Method, Code: body.Code}
	switch body.Method {
	case MethodScan:
		req.AccountID = principal.AccountID
	case MethodManual:
		if !principal.IsStaff() {
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Manual check-in requires staff"})
			return
		}
		req.AccountID = body.AccountID
	case MethodCode:
		req.AccountID = body.AccountID
	}

	decision, err := h.gate.Admit(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to process check-in"})
		return
	}

	switch decision.Outcome {
	case OutcomeAccepted:
		c.JSON(http.StatusCreated, decision)
	case OutcomeDuplicateWithinWindow:
		c.Header("Retry-After", strconv.FormatInt(decision.RetryAfterSeconds, 10))
		c.JSON(http.StatusOK, decision)
	default:
		c.JSON(http.StatusOK, decision)
	}
}

// ListHistory godoc
// @Summary      Check-in history
// @Description  Lists accepted check-ins in [from, to). Defaults to the last 30 days. Staff may pass account_id.
// @Tags         checkins
// @Security     BearerAuth
// @Produce      json
// @Param        from        query     string  false  "Start datetime (RFC3339)"
// @Param        to          query     string  false  "End datetime (RFC3339)"
// @Param        account_id  query     string  false  "Account (staff only)"
// @Success      200         {array}   Event
// @Failure      400         {object}  api.ErrorResponse
// @Failure      500         {object}  api.ErrorResponse
// @Router       /checkins [get]
func (h *Handler) ListHistory(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	accountID := principal.AccountID
	if other := c.Query("account_id"); other != "" && other != accountID {
		if !principal.IsStaff() {
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Insufficient permissions"})
			return
		}
		accountID = other
	}

	to := h.gate.Now()
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid to format, use RFC3339"})
			return
		}
		to = t
	}

	from := to.Add(-defaultHistoryWindow)
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid from format, use RFC3339"})
			return
		}
		from = t
	}

	events, err := h.gate.History(c.Request.Context(), accountID, from, to)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch check-ins"})
		return
	}

	c.JSON(http.StatusOK, events)
}

// LastCheckIn godoc
// @Summary      Last check-in
// @Description  Returns the caller's most recent accepted check-in at their branch.
// @Tags         checkins
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Event
// @Failure      404  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /checkins/last [get]
func (h *Handler) LastCheckIn(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	last, err := h.gate.LastCheckIn(c.Request.Context(), principal.AccountID, principal.BranchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch check-in"})
		return
	}
	if last == nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "No check-ins yet"})
		return
	}
	c.JSON(http.StatusOK, last)
}
