/*
Package sqlite provides a SQLite-backed implementation of catalog.Store.

PURPOSE:
  Persists the CPAP fee schedule and its alternates so operators can edit
  prices and codes without a redeploy. Only configuration lives here: no
  estimate, plan or patient data is ever written.

KEY TABLES:
  fee_schedule_items: One row per HCPCS code with its allowed amount
  item_alternates:    Substitutions offered for a fee schedule slot

MONEY:
  Allowed amounts are stored as decimal TEXT (e.g. "142.03") and parsed
  back into decimal values. They never pass through float64.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to
  a single connection so every query sees the same database.

USAGE:
  st, err := sqlite.New("./data/catalog.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

  if err := catalog.Seed(ctx, st); err != nil {
      log.Fatal(err)
  }

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - catalog/store.go: Interface definition
  - catalog/store/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/cpap-estimator/catalog"
	"github.com/warp/cpap-estimator/costshare"
)

// Store implements catalog.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Fee schedule
	CREATE TABLE IF NOT EXISTS fee_schedule_items (
		code TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		allowed_value TEXT NOT NULL,
		kind TEXT NOT NULL,
		repeat_count INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fee_schedule_position
		ON fee_schedule_items(position);

	-- Substitutions per slot (e.g. nasal mask for full face mask)
	CREATE TABLE IF NOT EXISTS item_alternates (
		slot_code TEXT NOT NULL REFERENCES fee_schedule_items(code) ON DELETE CASCADE,
		code TEXT NOT NULL,
		description TEXT NOT NULL,
		allowed_value TEXT NOT NULL,
		kind TEXT NOT NULL,
		repeat_count INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL,
		PRIMARY KEY (slot_code, code)
	);

	CREATE INDEX IF NOT EXISTS idx_alternates_slot_position
		ON item_alternates(slot_code, position);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// FEE SCHEDULE (catalog.Store interface)
// =============================================================================

// ListItems returns all fee schedule entries in statement order.
func (s *Store) ListItems(ctx context.Context) ([]catalog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, description, allowed_value, kind, repeat_count, position
		FROM fee_schedule_items
		ORDER BY position, code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []catalog.Entry
	for rows.Next() {
		var e catalog.Entry
		var allowed, kind string
		if err := rows.Scan(&e.Item.Code, &e.Item.Description, &allowed, &kind, &e.Item.RepeatCount, &e.Position); err != nil {
			return nil, err
		}
		if e.Item.Allowed, err = parseAllowed(e.Item.Code, allowed); err != nil {
			return nil, err
		}
		e.Item.Kind = costshare.ItemKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetItem retrieves one entry by HCPCS code.
func (s *Store) GetItem(ctx context.Context, code string) (*catalog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e catalog.Entry
	var allowed, kind string

	err := s.db.QueryRowContext(ctx,
		"SELECT code, description, allowed_value, kind, repeat_count, position FROM fee_schedule_items WHERE code = ?",
		code,
	).Scan(&e.Item.Code, &e.Item.Description, &allowed, &kind, &e.Item.RepeatCount, &e.Position)

	if err == sql.ErrNoRows {
		return nil, &catalog.ItemNotFoundError{Code: code}
	}
	if err != nil {
		return nil, err
	}

	if e.Item.Allowed, err = parseAllowed(code, allowed); err != nil {
		return nil, err
	}
	e.Item.Kind = costshare.ItemKind(kind)
	return &e, nil
}

// SaveItem inserts or replaces an entry. A zero Position appends the entry
// at the end of the schedule, or keeps the existing position on update.
func (s *Store) SaveItem(ctx context.Context, e catalog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Position == 0 {
		err := s.db.QueryRowContext(ctx, `
			SELECT COALESCE(
				(SELECT position FROM fee_schedule_items WHERE code = ?),
				(SELECT COALESCE(MAX(position), 0) + 1 FROM fee_schedule_items)
			)`, e.Item.Code,
		).Scan(&e.Position)
		if err != nil {
			return fmt.Errorf("failed to assign position: %w", err)
		}
	}

	query := `
		INSERT INTO fee_schedule_items (code, description, allowed_value, kind, repeat_count, position, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			description = excluded.description,
			allowed_value = excluded.allowed_value,
			kind = excluded.kind,
			repeat_count = excluded.repeat_count,
			position = excluded.position,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		e.Item.Code,
		e.Item.Description,
		e.Item.Allowed.Value.String(),
		string(e.Item.Kind),
		e.Item.RepeatCount,
		e.Position,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save item %s: %w", e.Item.Code, err)
	}
	return nil
}

// DeleteItem removes an entry. Its alternates go with it (ON DELETE CASCADE).
func (s *Store) DeleteItem(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM fee_schedule_items WHERE code = ?", code)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &catalog.ItemNotFoundError{Code: code}
	}
	return nil
}

// =============================================================================
// ALTERNATES
// =============================================================================

// ListAlternates returns the substitutions for a slot.
func (s *Store) ListAlternates(ctx context.Context, slot string) ([]catalog.Alternate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT slot_code, code, description, allowed_value, kind, repeat_count, position
		FROM item_alternates
		WHERE slot_code = ?
		ORDER BY position, code
	`, slot)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alts []catalog.Alternate
	for rows.Next() {
		var a catalog.Alternate
		var allowed, kind string
		if err := rows.Scan(&a.Slot, &a.Item.Code, &a.Item.Description, &allowed, &kind, &a.Item.RepeatCount, &a.Position); err != nil {
			return nil, err
		}
		if a.Item.Allowed, err = parseAllowed(a.Item.Code, allowed); err != nil {
			return nil, err
		}
		a.Item.Kind = costshare.ItemKind(kind)
		alts = append(alts, a)
	}
	return alts, rows.Err()
}

// SaveAlternate inserts or replaces a substitution. The slot must exist.
func (s *Store) SaveAlternate(ctx context.Context, a catalog.Alternate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.Position == 0 {
		err := s.db.QueryRowContext(ctx, `
			SELECT COALESCE(
				(SELECT position FROM item_alternates WHERE slot_code = ? AND code = ?),
				(SELECT COALESCE(MAX(position), 0) + 1 FROM item_alternates WHERE slot_code = ?)
			)`, a.Slot, a.Item.Code, a.Slot,
		).Scan(&a.Position)
		if err != nil {
			return fmt.Errorf("failed to assign position: %w", err)
		}
	}

	query := `
		INSERT INTO item_alternates (slot_code, code, description, allowed_value, kind, repeat_count, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot_code, code) DO UPDATE SET
			description = excluded.description,
			allowed_value = excluded.allowed_value,
			kind = excluded.kind,
			repeat_count = excluded.repeat_count,
			position = excluded.position
	`

	_, err := s.db.ExecContext(ctx, query,
		a.Slot,
		a.Item.Code,
		a.Item.Description,
		a.Item.Allowed.Value.String(),
		string(a.Item.Kind),
		a.Item.RepeatCount,
		a.Position,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return &catalog.ItemNotFoundError{Code: a.Slot}
		}
		return fmt.Errorf("failed to save alternate %s/%s: %w", a.Slot, a.Item.Code, err)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears the catalog.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"item_alternates", "fee_schedule_items"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// Compile-time check
var _ catalog.Store = (*Store)(nil)

// parseAllowed reads a stored allowed_value column.
func parseAllowed(code, allowed string) (costshare.Money, error) {
	m, err := costshare.ParseMoney(allowed)
	if err != nil {
		return costshare.Money{}, fmt.Errorf("invalid allowed_value %q for %s: %w", allowed, code, err)
	}
	return m, nil
}
