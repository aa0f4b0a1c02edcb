// internal/session/store.go
package session

import (
	"context"
	"errors"

	"returns-insights/internal/models"
)

var (
	// ErrNotFound is returned when no session exists for the id.
	ErrNotFound = errors.New("session not found")

	// ErrVersionConflict is returned by CompareAndSwap when the stored
	// session changed since it was read. Callers re-read and retry.
	ErrVersionConflict = errors.New("session version conflict")
)

// Store persists conversation sessions. Implementations must return
// detached copies from Get so callers can mutate freely, and must make
// CompareAndSwap atomic with respect to concurrent writers of the same
// session.
type Store interface {
	// Get returns the session for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Session, error)

	// Put writes the session unconditionally, overwriting any stored
	// version.
	Put(ctx context.Context, s *models.Session) error

	// CompareAndSwap writes s only if the stored version still equals
	// s.Version, bumping s.Version on success. A session with Version 0
	// is created only if no session exists yet for the id.
	CompareAndSwap(ctx context.Context, s *models.Session) error

	// Delete removes the session. Deleting a missing session is not an
	// error.
	Delete(ctx context.Context, id string) error
}
