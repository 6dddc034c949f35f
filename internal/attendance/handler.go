package attendance

import (
	"errors"
	"net/http"
	"time"

	"gymgate/internal/api"
	"gymgate/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// IssueCode godoc
// @Summary      Issue attendance code
// @Description  Issues a single-use numeric code for the caller at their branch.
// @Tags         codes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      IssueRequest  false  "Optional TTL override"
// @Success      201      {object}  Code
// @Failure      400      {object}  api.ErrorResponse
// @Failure      503      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /codes [post]
func (h *Handler) IssueCode(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req IssueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
			return
		}
	}
	if errs := api.ValidateStruct(req); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	code, err := h.service.Issue(c.Request.Context(), principal.AccountID, principal.BranchID, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrCodeSpaceExhausted):
			c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "No free code available, try again shortly"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to issue code"})
		}
		return
	}

	c.JSON(http.StatusCreated, code)
}
