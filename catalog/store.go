/*
store.go - Persistence interface for the fee schedule

PURPOSE:
  Defines the interface between the catalog and its storage. The fee
  schedule and its alternates are configuration: they are edited by an
  operator and read by every estimate. Estimates themselves are never
  stored.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, used by the server
  - catalog/store/memory.go: In-memory, for tests and the CLI

EXAMPLE:
  st := store.NewMemory()
  if err := catalog.Seed(ctx, st); err != nil {
      return err
  }
  entries, err := st.ListItems(ctx)
*/
package catalog

import (
	"context"
	"errors"
	"fmt"
)

// Store persists fee schedule entries and their alternates.
type Store interface {
	// ListItems returns all entries ordered by Position.
	ListItems(ctx context.Context) ([]Entry, error)

	// GetItem returns the entry for code, or ErrItemNotFound.
	GetItem(ctx context.Context, code string) (*Entry, error)

	// SaveItem inserts or replaces the entry with the same code.
	SaveItem(ctx context.Context, e Entry) error

	// DeleteItem removes an entry and its alternates.
	DeleteItem(ctx context.Context, code string) error

	// ListAlternates returns the alternates registered for slot, ordered by Position.
	ListAlternates(ctx context.Context, slot string) ([]Alternate, error)

	// SaveAlternate inserts or replaces an alternate for its slot.
	SaveAlternate(ctx context.Context, a Alternate) error

	// Reset clears the catalog.
	Reset(ctx context.Context) error
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrItemNotFound is returned when a code is not in the fee schedule.
	ErrItemNotFound = errors.New("item not found")

	// ErrNoSuchAlternate is returned when a substitution is not registered for a slot.
	ErrNoSuchAlternate = errors.New("no such alternate")
)

// ItemNotFoundError names the missing code.
type ItemNotFoundError struct {
	Code string
}

func (e *ItemNotFoundError) Error() string { return fmt.Sprintf("item not found: %s", e.Code) }
func (e *ItemNotFoundError) Unwrap() error { return ErrItemNotFound }

// AlternateError names the slot and the rejected code.
type AlternateError struct {
	Slot string
	Code string
}

func (e *AlternateError) Error() string {
	return fmt.Sprintf("%s is not an alternate for %s", e.Code, e.Slot)
}
func (e *AlternateError) Unwrap() error { return ErrNoSuchAlternate }

// IsNotFound returns true if the error indicates a missing item or alternate.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrNoSuchAlternate)
}
