package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orgstack/org-management-service/internal/auth"
	"github.com/orgstack/org-management-service/internal/middleware"
	"github.com/orgstack/org-management-service/internal/models"
	"github.com/orgstack/org-management-service/internal/repository"
	"github.com/orgstack/org-management-service/internal/services/tenancy"
)

// OrgManagerInterface defines the methods required by the handlers
type OrgManagerInterface interface {
	CreateOrganization(ctx context.Context, req *models.CreateOrganizationRequest) (*models.Organization, error)
	GetOrganization(ctx context.Context, name string) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, name string, req *models.UpdateOrganizationRequest) (*models.Organization, error)
	DeleteOrganization(ctx context.Context, name string, claims *auth.Claims) error
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error)
}

type OrgHandler struct {
	manager OrgManagerInterface
	logger  *zap.Logger
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

func NewOrgHandler(manager OrgManagerInterface, logger *zap.Logger) *OrgHandler {
	return &OrgHandler{
		manager: manager,
		logger:  logger,
	}
}

// CreateOrganization godoc
// @Summary Create a new organization
// @Description Create an organization with its own isolated storage unit and admin identity
// @Tags organizations
// @Accept json
// @Produce json
// @Param organization body models.CreateOrganizationRequest true "Organization creation request"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /orgs [post]
func (h *OrgHandler) CreateOrganization(c *gin.Context) {
	var req models.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	org, err := h.manager.CreateOrganization(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create organization", zap.Error(err), zap.String("name", req.Name))
		renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Organization created",
		Data:    org,
	})
}

// GetOrganization godoc
// @Summary Get an organization by name
// @Description Get organization details including storage connection details
// @Tags organizations
// @Accept json
// @Produce json
// @Param name path string true "Organization name"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /orgs/{name} [get]
func (h *OrgHandler) GetOrganization(c *gin.Context) {
	name := c.Param("name")

	org, err := h.manager.GetOrganization(c.Request.Context(), name)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    org,
	})
}

// UpdateOrganization godoc
// @Summary Update or rename an organization
// @Description Rename an organization (migrating its storage unit) and/or update admin credentials
// @Tags organizations
// @Accept json
// @Produce json
// @Param name path string true "Organization name"
// @Param update body models.UpdateOrganizationRequest true "Update request"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /orgs/{name} [put]
func (h *OrgHandler) UpdateOrganization(c *gin.Context) {
	name := c.Param("name")

	var req models.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	org, err := h.manager.UpdateOrganization(c.Request.Context(), name, &req)
	if err != nil {
		h.logger.Error("Failed to update organization", zap.Error(err), zap.String("name", name))
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Organization updated",
		Data:    org,
	})
}

// DeleteOrganization godoc
// @Summary Delete an organization
// @Description Delete an organization, its storage unit and its admin identity. Requires the organization admin's token.
// @Tags organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name path string true "Organization name"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /orgs/{name} [delete]
func (h *OrgHandler) DeleteOrganization(c *gin.Context) {
	name := c.Param("name")
	claims := middleware.ClaimsFromContext(c)

	if err := h.manager.DeleteOrganization(c.Request.Context(), name, claims); err != nil {
		h.logger.Error("Failed to delete organization", zap.Error(err), zap.String("name", name))
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Organization deleted",
		Data:    gin.H{"organization_name": name},
	})
}

func renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNameTaken),
		errors.Is(err, repository.ErrEmailTaken),
		errors.Is(err, repository.ErrUnitExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, repository.ErrOrgNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "organization not found"})
	case errors.Is(err, tenancy.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not authorized for this organization"})
	case errors.Is(err, tenancy.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
