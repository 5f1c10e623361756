// Package store provides catalog.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/cpap-estimator/catalog"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/CLI)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	items      map[string]catalog.Entry
	alternates map[string][]catalog.Alternate
}

func NewMemory() *Memory {
	return &Memory{
		items:      make(map[string]catalog.Entry),
		alternates: make(map[string][]catalog.Alternate),
	}
}

func (m *Memory) ListItems(_ context.Context) ([]catalog.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]catalog.Entry, 0, len(m.items))
	for _, e := range m.items {
		result = append(result, e)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].Item.Code < result[j].Item.Code
	})
	return result, nil
}

func (m *Memory) GetItem(_ context.Context, code string) (*catalog.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.items[code]
	if !ok {
		return nil, &catalog.ItemNotFoundError{Code: code}
	}
	return &e, nil
}

func (m *Memory) SaveItem(_ context.Context, e catalog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.Position == 0 {
		if existing, ok := m.items[e.Item.Code]; ok {
			e.Position = existing.Position
		} else {
			e.Position = m.nextPositionLocked()
		}
	}
	m.items[e.Item.Code] = e
	return nil
}

func (m *Memory) nextPositionLocked() int {
	max := 0
	for _, e := range m.items {
		if e.Position > max {
			max = e.Position
		}
	}
	return max + 1
}

func (m *Memory) DeleteItem(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[code]; !ok {
		return &catalog.ItemNotFoundError{Code: code}
	}
	delete(m.items, code)
	delete(m.alternates, code)
	return nil
}

func (m *Memory) ListAlternates(_ context.Context, slot string) ([]catalog.Alternate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]catalog.Alternate, len(m.alternates[slot]))
	copy(result, m.alternates[slot])
	return result, nil
}

func (m *Memory) SaveAlternate(_ context.Context, a catalog.Alternate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[a.Slot]; !ok {
		return &catalog.ItemNotFoundError{Code: a.Slot}
	}

	alts := m.alternates[a.Slot]
	for i, existing := range alts {
		if existing.Item.Code == a.Item.Code {
			if a.Position == 0 {
				a.Position = existing.Position
			}
			alts[i] = a
			m.sortAlternatesLocked(a.Slot)
			return nil
		}
	}
	if a.Position == 0 {
		a.Position = len(alts) + 1
	}
	m.alternates[a.Slot] = append(alts, a)
	m.sortAlternatesLocked(a.Slot)
	return nil
}

func (m *Memory) sortAlternatesLocked(slot string) {
	alts := m.alternates[slot]
	sort.SliceStable(alts, func(i, j int) bool { return alts[i].Position < alts[j].Position })
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]catalog.Entry)
	m.alternates = make(map[string][]catalog.Alternate)
	return nil
}

// Compile-time check
var _ catalog.Store = (*Memory)(nil)
