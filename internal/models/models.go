package models

import "time"

// Model is a database-backed record.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Store persists records of one type, keyed by ID and rewritten in place.
type Store[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
}
