package models

import (
	"time"

	"github.com/google/uuid"
)

type Organization struct {
	ID           uuid.UUID          `json:"organization_id" db:"id"`
	Name         string             `json:"organization_name" db:"name"`
	StorageTable string             `json:"storage_table" db:"storage_table"`
	AdminID      uuid.UUID          `json:"admin_id" db:"admin_id"`
	AdminEmail   string             `json:"admin_email" db:"admin_email"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"`
	Connection   *ConnectionDetails `json:"connection_details,omitempty"`
}

// ConnectionDetails tells API clients where their isolated data lives.
type ConnectionDetails struct {
	Database string `json:"database"`
	Table    string `json:"table"`
}

type Admin struct {
	ID           uuid.UUID `json:"admin_id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type CreateOrganizationRequest struct {
	Name     string `json:"organization_name" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type UpdateOrganizationRequest struct {
	NewName  string `json:"new_organization_name,omitempty" binding:"omitempty,min=3,max=50"`
	Email    string `json:"email,omitempty" binding:"omitempty,email"`
	Password string `json:"password,omitempty" binding:"omitempty,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken      string    `json:"access_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int       `json:"expires_in"`
	AdminID          uuid.UUID `json:"admin_id"`
	OrganizationID   uuid.UUID `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
}
