package membership

import (
	"net/http"
	"time"

	"gymgate/internal/api"
	"gymgate/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo      Repository
	validator *Validator
	now       func() time.Time
}

func NewHandler(repo Repository, validator *Validator) *Handler {
	return &Handler{repo: repo, validator: validator, now: time.Now}
}

// GetEligibility godoc
// @Summary      Membership eligibility
// @Description  Reports whether the caller may check in right now and why not.
// @Tags         accounts
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Eligibility
// @Failure      500  {object}  api.ErrorResponse
// @Router       /accounts/me/eligibility [get]
func (h *Handler) GetEligibility(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	eligibility, err := h.validator.IsEligible(c.Request.Context(), principal.AccountID, h.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to check membership"})
		return
	}

	c.JSON(http.StatusOK, eligibility)
}

// UpsertAccount godoc
// @Summary      Create or update account
// @Description  Mirrors a tenant-owned account into the admission core. Admin only.
// @Tags         accounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        accountID  path      string                true  "Account ID"
// @Param        request    body      UpsertAccountRequest  true  "Account"
// @Success      200        {object}  Account
// @Failure      400        {object}  api.ErrorResponse
// @Failure      500        {object}  api.ErrorResponse
// @Router       /admin/accounts/{accountID} [put]
func (h *Handler) UpsertAccount(c *gin.Context) {
	var req UpsertAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := api.ValidateStruct(req); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}
	if req.StartDate != nil && req.EndDate != nil && !req.StartDate.Before(*req.EndDate) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "start_date must be before end_date"})
		return
	}

	account := &Account{
		ID:        c.Param("accountID"),
		BranchID:  req.BranchID,
		Role:      req.Role,
		Status:    req.Status,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := h.repo.UpsertAccount(c.Request.Context(), account); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to save account"})
		return
	}

	c.JSON(http.StatusOK, account)
}
