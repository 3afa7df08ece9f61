package repository

import "errors"

var (
	ErrOrgNotFound   = errors.New("organization not found")
	ErrAdminNotFound = errors.New("admin not found")
	ErrNameTaken     = errors.New("organization name taken")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUnitExists    = errors.New("storage unit already exists")
)
