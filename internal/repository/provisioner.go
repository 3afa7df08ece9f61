package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// duplicateTable is the Postgres error code for CREATE TABLE collisions.
const duplicateTable = "42P07"

const unitPrefix = "org_"

var unsafeUnitChars = regexp.MustCompile(`[^a-z0-9_]`)

// validUnit guards every dynamic identifier interpolated into DDL below.
var validUnit = regexp.MustCompile(`^org_[a-z0-9_]+$`)

// UnitName derives the storage unit name from an organization name. It is
// the only way unit names come into existence; clients never supply one.
func UnitName(orgName string) string {
	cleaned := unsafeUnitChars.ReplaceAllString(strings.ToLower(orgName), "_")
	return unitPrefix + cleaned
}

// StorageProvisioner creates, copies and drops per-organization storage
// units, each a dedicated table holding the organization's records.
type StorageProvisioner struct {
	db     *pgxpool.Pool
	dbName string
	logger *zap.Logger
}

func NewStorageProvisioner(db *pgxpool.Pool, logger *zap.Logger) *StorageProvisioner {
	return &StorageProvisioner{
		db:     db,
		dbName: db.Config().ConnConfig.Database,
		logger: logger,
	}
}

// DatabaseName reports which database units live in, for connection details
// returned to clients.
func (p *StorageProvisioner) DatabaseName() string {
	return p.dbName
}

// CreateUnit creates an empty unit and seeds it with the bootstrap marker
// record. Registry uniqueness should make collisions impossible, but the
// duplicate-table error is still surfaced as ErrUnitExists.
func (p *StorageProvisioner) CreateUnit(ctx context.Context, unit string) error {
	if err := p.createTable(ctx, unit); err != nil {
		return err
	}

	marker := `INSERT INTO ` + unit + ` (doc) VALUES ('{"initialized": true, "note": "Organization data goes here"}'::jsonb)`
	if _, err := p.db.Exec(ctx, marker); err != nil {
		// An unseeded unit is useless; drop it before reporting failure.
		if dropErr := p.DropUnit(ctx, unit); dropErr != nil {
			p.logger.Error("Failed to drop unit after seeding failure",
				zap.Error(dropErr), zap.String("unit", unit))
		}
		return fmt.Errorf("failed to seed unit %s: %w", unit, err)
	}

	p.logger.Info("Storage unit created", zap.String("unit", unit))
	return nil
}

// CopyAll creates the destination unit and streams every record from the
// source into it, preserving identifiers. If copying fails partway, the
// partially written destination is dropped before the error is returned.
func (p *StorageProvisioner) CopyAll(ctx context.Context, from, to string) (int64, error) {
	if err := checkUnitName(from); err != nil {
		return 0, err
	}

	if err := p.createTable(ctx, to); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, doc, created_at) SELECT id, doc, created_at FROM %s`, to, from)
	result, err := p.db.Exec(ctx, query)
	if err != nil {
		if dropErr := p.DropUnit(ctx, to); dropErr != nil {
			p.logger.Error("Failed to drop destination after copy failure",
				zap.Error(dropErr), zap.String("unit", to))
		}
		return 0, fmt.Errorf("failed to copy records from %s to %s: %w", from, to, err)
	}

	copied := result.RowsAffected()
	p.logger.Info("Storage unit copied",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int64("records", copied))
	return copied, nil
}

// DropUnit is irreversible and idempotent: dropping a missing unit succeeds
// so delete and cleanup paths can always be retried.
func (p *StorageProvisioner) DropUnit(ctx context.Context, unit string) error {
	if err := checkUnitName(unit); err != nil {
		return err
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", unit)
	if _, err := p.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to drop unit %s: %w", unit, err)
	}

	p.logger.Info("Storage unit dropped", zap.String("unit", unit))
	return nil
}

func (p *StorageProvisioner) createTable(ctx context.Context, unit string) error {
	if err := checkUnitName(unit); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		CREATE TABLE %s (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			doc jsonb NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, unit)

	if _, err := p.db.Exec(ctx, query); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == duplicateTable {
			return ErrUnitExists
		}
		return fmt.Errorf("failed to create unit %s: %w", unit, err)
	}

	return nil
}

func checkUnitName(unit string) error {
	if !validUnit.MatchString(unit) {
		return fmt.Errorf("invalid storage unit name: %q", unit)
	}
	return nil
}
