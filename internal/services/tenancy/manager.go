package tenancy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orgstack/org-management-service/internal/auth"
	"github.com/orgstack/org-management-service/internal/events"
	"github.com/orgstack/org-management-service/internal/metrics"
	"github.com/orgstack/org-management-service/internal/models"
	"github.com/orgstack/org-management-service/internal/repository"
)

var (
	// ErrInvalidCredentials is deliberately the same for an unknown email
	// and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden means the presented token is valid but belongs to a
	// different organization's admin.
	ErrForbidden = errors.New("not authorized for this organization")
)

// Registry is the master record store of organizations.
type Registry interface {
	Insert(ctx context.Context, org *models.Organization) error
	FindByName(ctx context.Context, name string) (*models.Organization, error)
	FindByEmail(ctx context.Context, email string) (*models.Organization, error)
	FindByAdminID(ctx context.Context, adminID uuid.UUID) (*models.Organization, error)
	UpdateName(ctx context.Context, id uuid.UUID, name, storageTable string) error
	UpdateAdminEmail(ctx context.Context, id uuid.UUID, email string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdminStore holds admin identities, one per organization.
type AdminStore interface {
	Insert(ctx context.Context, admin *models.Admin) error
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	UpdateCredentials(ctx context.Context, id uuid.UUID, email, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Provisioner manages per-organization storage units.
type Provisioner interface {
	DatabaseName() string
	CreateUnit(ctx context.Context, unit string) error
	CopyAll(ctx context.Context, from, to string) (int64, error)
	DropUnit(ctx context.Context, unit string) error
}

// TokenIssuer signs access tokens for admins.
type TokenIssuer interface {
	Issue(adminID, orgID uuid.UUID, orgName string) (string, error)
	Expiry() time.Duration
}

// EventPublisher announces lifecycle transitions. Publishing is best effort;
// failures never fail the operation that triggered them.
type EventPublisher interface {
	Publish(ctx context.Context, event events.LifecycleEvent) error
}

// Manager orchestrates the organization lifecycle: it composes the registry,
// admin store, provisioner and token service into the multi-step create,
// rename and delete sequences.
type Manager struct {
	registry  Registry
	admins    AdminStore
	storage   Provisioner
	tokens    TokenIssuer
	publisher EventPublisher
	logger    *zap.Logger
}

func NewManager(
	registry Registry,
	admins AdminStore,
	storage Provisioner,
	tokens TokenIssuer,
	publisher EventPublisher,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		registry:  registry,
		admins:    admins,
		storage:   storage,
		tokens:    tokens,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateOrganization provisions a new organization: an isolated storage unit
// and an admin identity, linked by a registry record. If any step after
// provisioning fails, the unit (and admin row, if created) is torn down
// before the error returns, so a failed create leaves no residue.
func (m *Manager) CreateOrganization(ctx context.Context, req *models.CreateOrganizationRequest) (*models.Organization, error) {
	start := time.Now()

	if _, err := m.registry.FindByName(ctx, req.Name); err == nil {
		m.observe("create", "failed", start)
		return nil, repository.ErrNameTaken
	} else if !errors.Is(err, repository.ErrOrgNotFound) {
		m.observe("create", "failed", start)
		return nil, err
	}

	if _, err := m.registry.FindByEmail(ctx, req.Email); err == nil {
		m.observe("create", "failed", start)
		return nil, repository.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrOrgNotFound) {
		m.observe("create", "failed", start)
		return nil, err
	}

	unit := repository.UnitName(req.Name)
	if err := m.storage.CreateUnit(ctx, unit); err != nil {
		m.observe("create", "failed", start)
		return nil, fmt.Errorf("failed to provision storage unit: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		m.dropUnitQuietly(ctx, unit)
		m.observe("create", "failed", start)
		return nil, err
	}

	admin := &models.Admin{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := m.admins.Insert(ctx, admin); err != nil {
		m.dropUnitQuietly(ctx, unit)
		m.observe("create", "failed", start)
		return nil, err
	}

	org := &models.Organization{
		ID:           uuid.New(),
		Name:         req.Name,
		StorageTable: unit,
		AdminID:      admin.ID,
		AdminEmail:   admin.Email,
	}
	if err := m.registry.Insert(ctx, org); err != nil {
		// Unwind: the admin identity and storage unit must not outlive
		// a failed registry insert.
		if delErr := m.admins.Delete(ctx, admin.ID); delErr != nil {
			m.logger.Error("Failed to remove admin after registry insert failure",
				zap.Error(delErr), zap.String("admin_id", admin.ID.String()))
		}
		m.dropUnitQuietly(ctx, unit)
		m.observe("create", "failed", start)
		return nil, err
	}

	org.Connection = m.connectionDetails(unit)
	metrics.IncrementActiveOrganizations()

	m.logger.Info("Organization created",
		zap.String("organization_id", org.ID.String()),
		zap.String("name", org.Name),
		zap.String("storage_table", unit))

	m.publish(ctx, events.LifecycleEvent{
		Type:             events.TypeOrgCreated,
		OrganizationID:   org.ID.String(),
		OrganizationName: org.Name,
		StorageTable:     unit,
		OccurredAt:       time.Now().UTC(),
	})

	m.observe("create", "success", start)
	return org, nil
}

// GetOrganization is a pure lookup with no side effects.
func (m *Manager) GetOrganization(ctx context.Context, name string) (*models.Organization, error) {
	org, err := m.registry.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	org.Connection = m.connectionDetails(org.StorageTable)
	return org, nil
}

// UpdateOrganization renames an organization and/or updates its admin
// credentials. A rename migrates the storage unit: copy everything into the
// new unit, repoint the registry, then drop the old unit. The ordering bounds
// the failure modes: a crash between copy and drop leaves an orphaned old
// unit at worst, never lost data.
func (m *Manager) UpdateOrganization(ctx context.Context, name string, req *models.UpdateOrganizationRequest) (*models.Organization, error) {
	start := time.Now()

	org, err := m.registry.FindByName(ctx, name)
	if err != nil {
		m.observe("update", "failed", start)
		return nil, err
	}

	previousName := org.Name

	if req.NewName != "" && req.NewName != org.Name {
		if err := m.renameStorage(ctx, org, req.NewName); err != nil {
			m.observe("update", "failed", start)
			return nil, err
		}
	}

	if req.Email != "" || req.Password != "" {
		if err := m.updateCredentials(ctx, org, req.Email, req.Password); err != nil {
			m.observe("update", "failed", start)
			return nil, err
		}
	}

	org.Connection = m.connectionDetails(org.StorageTable)

	if org.Name != previousName {
		m.publish(ctx, events.LifecycleEvent{
			Type:             events.TypeOrgRenamed,
			OrganizationID:   org.ID.String(),
			OrganizationName: org.Name,
			PreviousName:     previousName,
			StorageTable:     org.StorageTable,
			OccurredAt:       time.Now().UTC(),
		})
	}

	m.observe("update", "success", start)
	return org, nil
}

func (m *Manager) renameStorage(ctx context.Context, org *models.Organization, newName string) error {
	if _, err := m.registry.FindByName(ctx, newName); err == nil {
		return repository.ErrNameTaken
	} else if !errors.Is(err, repository.ErrOrgNotFound) {
		return err
	}

	oldUnit := org.StorageTable
	newUnit := repository.UnitName(newName)

	copied, err := m.storage.CopyAll(ctx, oldUnit, newUnit)
	if err != nil {
		return fmt.Errorf("failed to migrate storage unit: %w", err)
	}
	metrics.AddRecordsMigrated(float64(copied))

	if err := m.registry.UpdateName(ctx, org.ID, newName, newUnit); err != nil {
		// The registry still points at the old unit; discard the copy.
		m.dropUnitQuietly(ctx, newUnit)
		return err
	}

	// The registry now points at the new unit. A failed drop leaves an
	// orphaned old unit for an operator; the rename itself has succeeded.
	if err := m.storage.DropUnit(ctx, oldUnit); err != nil {
		m.logger.Error("Failed to drop old storage unit after rename",
			zap.Error(err), zap.String("unit", oldUnit))
	}

	m.logger.Info("Organization renamed",
		zap.String("organization_id", org.ID.String()),
		zap.String("from", org.Name),
		zap.String("to", newName),
		zap.Int64("records_migrated", copied))

	org.Name = newName
	org.StorageTable = newUnit
	return nil
}

func (m *Manager) updateCredentials(ctx context.Context, org *models.Organization, email, password string) error {
	if email != "" && email != org.AdminEmail {
		if existing, err := m.admins.FindByEmail(ctx, email); err == nil && existing.ID != org.AdminID {
			return repository.ErrEmailTaken
		} else if err != nil && !errors.Is(err, repository.ErrAdminNotFound) {
			return err
		}
	}

	var hash string
	if password != "" {
		var err error
		if hash, err = auth.HashPassword(password); err != nil {
			return err
		}
	}

	if err := m.admins.UpdateCredentials(ctx, org.AdminID, email, hash); err != nil {
		return err
	}

	if email != "" && email != org.AdminEmail {
		// Keep the denormalized copy in lockstep with the admin identity.
		if err := m.registry.UpdateAdminEmail(ctx, org.ID, email); err != nil {
			return err
		}
		org.AdminEmail = email
	}

	return nil
}

// DeleteOrganization destroys an organization. Only the organization's own
// admin may delete it. Cleanup order is drop unit, delete admin, delete
// registry row; the idempotent drop makes the whole sequence retry-safe.
func (m *Manager) DeleteOrganization(ctx context.Context, name string, claims *auth.Claims) error {
	start := time.Now()

	org, err := m.registry.FindByName(ctx, name)
	if err != nil {
		m.observe("delete", "failed", start)
		return err
	}

	if claims == nil || claims.AdminID != org.AdminID.String() || claims.OrganizationID != org.ID.String() {
		m.observe("delete", "failed", start)
		return ErrForbidden
	}

	if err := m.storage.DropUnit(ctx, org.StorageTable); err != nil {
		m.observe("delete", "failed", start)
		return fmt.Errorf("failed to drop storage unit: %w", err)
	}

	if err := m.admins.Delete(ctx, org.AdminID); err != nil {
		m.logger.Error("Failed to delete admin identity",
			zap.Error(err), zap.String("admin_id", org.AdminID.String()))
	}

	if err := m.registry.Delete(ctx, org.ID); err != nil {
		m.observe("delete", "failed", start)
		return err
	}

	metrics.DecrementActiveOrganizations()

	m.logger.Info("Organization deleted",
		zap.String("organization_id", org.ID.String()),
		zap.String("name", org.Name))

	m.publish(ctx, events.LifecycleEvent{
		Type:             events.TypeOrgDeleted,
		OrganizationID:   org.ID.String(),
		OrganizationName: org.Name,
		StorageTable:     org.StorageTable,
		OccurredAt:       time.Now().UTC(),
	})

	m.observe("delete", "success", start)
	return nil
}

// Login verifies admin credentials and issues a token bound to the admin's
// organization. Unknown email and wrong password are indistinguishable.
func (m *Manager) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	admin, err := m.admins.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(req.Password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	org, err := m.registry.FindByAdminID(ctx, admin.ID)
	if err != nil {
		return nil, err
	}

	token, err := m.tokens.Issue(admin.ID, org.ID, org.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	m.logger.Info("Admin logged in",
		zap.String("admin_id", admin.ID.String()),
		zap.String("organization", org.Name))

	return &models.TokenResponse{
		AccessToken:      token,
		TokenType:        "bearer",
		ExpiresIn:        int(m.tokens.Expiry().Seconds()),
		AdminID:          admin.ID,
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
	}, nil
}

func (m *Manager) connectionDetails(unit string) *models.ConnectionDetails {
	return &models.ConnectionDetails{
		Database: m.storage.DatabaseName(),
		Table:    unit,
	}
}

func (m *Manager) dropUnitQuietly(ctx context.Context, unit string) {
	if err := m.storage.DropUnit(ctx, unit); err != nil {
		m.logger.Error("Failed to drop storage unit during compensation",
			zap.Error(err), zap.String("unit", unit))
	}
}

func (m *Manager) publish(ctx context.Context, event events.LifecycleEvent) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.Warn("Failed to publish lifecycle event",
			zap.Error(err), zap.String("type", event.Type))
	}
}

func (m *Manager) observe(operation, status string, start time.Time) {
	metrics.ObserveLifecycleOperation(operation, status, time.Since(start).Seconds())
}
