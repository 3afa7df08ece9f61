package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orgstack/org-management-service/internal/models"
	"github.com/orgstack/org-management-service/internal/services/tenancy"
)

type AuthHandler struct {
	manager OrgManagerInterface
	logger  *zap.Logger
}

func NewAuthHandler(manager OrgManagerInterface, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		manager: manager,
		logger:  logger,
	}
}

// Login godoc
// @Summary Authenticate an organization admin
// @Description Verify admin credentials and return a signed access token bound to the admin's organization
// @Tags auth
// @Accept json
// @Produce json
// @Param login body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	response, err := h.manager.Login(c.Request.Context(), &req)
	if err != nil {
		if !errors.Is(err, tenancy.ErrInvalidCredentials) {
			h.logger.Error("Login failed", zap.Error(err))
		}
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
