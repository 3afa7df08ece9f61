package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/orgstack/org-management-service/internal/models"
)

// uniqueViolation is the Postgres error code raised when an insert loses a
// race against the registry's unique indexes.
const uniqueViolation = "23505"

// OrganizationRegistry is the master record store: one row per organization.
type OrganizationRegistry struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewOrganizationRegistry(db *pgxpool.Pool, logger *zap.Logger) *OrganizationRegistry {
	return &OrganizationRegistry{
		db:     db,
		logger: logger,
	}
}

func (r *OrganizationRegistry) Insert(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (id, name, storage_table, admin_id, admin_email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	row := r.db.QueryRow(ctx, query, org.ID, org.Name, org.StorageTable, org.AdminID, org.AdminEmail)

	if err := row.Scan(&org.CreatedAt, &org.UpdatedAt); err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return conflict
		}
		r.logger.Error("Failed to insert organization", zap.Error(err), zap.String("name", org.Name))
		return fmt.Errorf("failed to insert organization: %w", err)
	}

	return nil
}

func (r *OrganizationRegistry) FindByName(ctx context.Context, name string) (*models.Organization, error) {
	query := `
		SELECT id, name, storage_table, admin_id, admin_email, created_at, updated_at
		FROM organizations WHERE name = $1`

	return r.findOne(ctx, query, name)
}

// FindByEmail resolves the organization linked to an admin email, via the
// denormalized admin_email column.
func (r *OrganizationRegistry) FindByEmail(ctx context.Context, email string) (*models.Organization, error) {
	query := `
		SELECT id, name, storage_table, admin_id, admin_email, created_at, updated_at
		FROM organizations WHERE admin_email = $1`

	return r.findOne(ctx, query, email)
}

func (r *OrganizationRegistry) FindByAdminID(ctx context.Context, adminID uuid.UUID) (*models.Organization, error) {
	query := `
		SELECT id, name, storage_table, admin_id, admin_email, created_at, updated_at
		FROM organizations WHERE admin_id = $1`

	return r.findOne(ctx, query, adminID)
}

func (r *OrganizationRegistry) findOne(ctx context.Context, query string, arg any) (*models.Organization, error) {
	var org models.Organization
	row := r.db.QueryRow(ctx, query, arg)

	err := row.Scan(&org.ID, &org.Name, &org.StorageTable, &org.AdminID, &org.AdminEmail, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return &org, nil
}

// UpdateName repoints an organization to a new name and storage table. Both
// fields move in a single statement so no torn name/table pair can persist.
func (r *OrganizationRegistry) UpdateName(ctx context.Context, id uuid.UUID, name, storageTable string) error {
	query := `UPDATE organizations SET name = $1, storage_table = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.db.Exec(ctx, query, name, storageTable, id)
	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to update organization name: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOrgNotFound
	}

	r.logger.Info("Organization repointed",
		zap.String("id", id.String()),
		zap.String("name", name),
		zap.String("storage_table", storageTable))
	return nil
}

// UpdateAdminEmail syncs the denormalized admin email copy.
func (r *OrganizationRegistry) UpdateAdminEmail(ctx context.Context, id uuid.UUID, email string) error {
	query := `UPDATE organizations SET admin_email = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.Exec(ctx, query, email, id)
	if err != nil {
		return fmt.Errorf("failed to update organization admin email: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOrgNotFound
	}

	return nil
}

// Delete removes the registry row only; the admin identity and the storage
// unit are the orchestrator's responsibility.
func (r *OrganizationRegistry) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM organizations WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOrgNotFound
	}

	r.logger.Info("Organization record deleted", zap.String("id", id.String()))
	return nil
}

// mapUniqueViolation translates a unique-index violation into the conflict
// taxonomy, keyed by the constraint that fired. Returns nil for other errors.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}

	if strings.Contains(pgErr.ConstraintName, "email") {
		return ErrEmailTaken
	}
	return ErrNameTaken
}
