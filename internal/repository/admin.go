package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/orgstack/org-management-service/internal/models"
)

// AdminRepository stores admin identities. Every admin belongs to exactly
// one organization; rows are created and deleted only via the orchestrator.
type AdminRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAdminRepository(db *pgxpool.Pool, logger *zap.Logger) *AdminRepository {
	return &AdminRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AdminRepository) Insert(ctx context.Context, admin *models.Admin) error {
	query := `
		INSERT INTO admins (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	row := r.db.QueryRow(ctx, query, admin.ID, admin.Email, admin.PasswordHash)

	if err := row.Scan(&admin.CreatedAt); err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return conflict
		}
		r.logger.Error("Failed to insert admin", zap.Error(err), zap.String("email", admin.Email))
		return fmt.Errorf("failed to insert admin: %w", err)
	}

	return nil
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := `SELECT id, email, password_hash, created_at FROM admins WHERE email = $1`

	var admin models.Admin
	row := r.db.QueryRow(ctx, query, email)

	err := row.Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return &admin, nil
}

// UpdateCredentials patches email and/or password hash; empty strings leave
// the stored value untouched.
func (r *AdminRepository) UpdateCredentials(ctx context.Context, id uuid.UUID, email, passwordHash string) error {
	query := `
		UPDATE admins
		SET email = COALESCE(NULLIF($1, ''), email),
		    password_hash = COALESCE(NULLIF($2, ''), password_hash)
		WHERE id = $3`

	result, err := r.db.Exec(ctx, query, email, passwordHash, id)
	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to update admin credentials: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAdminNotFound
	}

	return nil
}

func (r *AdminRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM admins WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAdminNotFound
	}

	r.logger.Info("Admin identity deleted", zap.String("id", id.String()))
	return nil
}
