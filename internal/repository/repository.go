package repository

import "github.com/google/uuid"

// Repository persists the terminal outcome of range requests.
type Repository interface {
	Save(rec *Record) error
	Find(id uuid.UUID) (*Record, error)
	FindAll() ([]*Record, error)
	Delete(id uuid.UUID) error
	Close() error
}

var _ Repository = (*BboltRepository)(nil)
