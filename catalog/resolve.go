package catalog

import (
	"context"
	"fmt"

	"github.com/warp/cpap-estimator/costshare"
)

// Seed loads the default schedule and alternates into st, replacing
// whatever it held.
func Seed(ctx context.Context, st Store) error {
	if err := st.Reset(ctx); err != nil {
		return fmt.Errorf("reset catalog: %w", err)
	}
	for _, e := range DefaultSchedule() {
		if err := st.SaveItem(ctx, e); err != nil {
			return fmt.Errorf("seed item %s: %w", e.Item.Code, err)
		}
	}
	for _, a := range DefaultAlternates() {
		if err := st.SaveAlternate(ctx, a); err != nil {
			return fmt.Errorf("seed alternate %s/%s: %w", a.Slot, a.Item.Code, err)
		}
	}
	return nil
}

// Substitute returns a copy of items with the item in slot replaced by the
// alternate whose code is code. Only the first item with the slot's code is
// replaced.
func Substitute(items []costshare.BillableItem, alternates []Alternate, slot, code string) ([]costshare.BillableItem, error) {
	idx := -1
	for i, it := range items {
		if it.Code == slot {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &ItemNotFoundError{Code: slot}
	}

	for _, a := range alternates {
		if a.Slot == slot && a.Item.Code == code {
			out := make([]costshare.BillableItem, len(items))
			copy(out, items)
			out[idx] = a.Item
			return out, nil
		}
	}
	return nil, &AlternateError{Slot: slot, Code: code}
}

// Override holds operator edits to a single item. Nil fields keep the
// catalog value.
type Override struct {
	Description *string
	Allowed     *costshare.Money
	Months      *int
}

// Apply returns item with the override's fields applied.
func (o Override) Apply(item costshare.BillableItem) costshare.BillableItem {
	if o.Description != nil {
		item.Description = *o.Description
	}
	if o.Allowed != nil {
		item.Allowed = *o.Allowed
	}
	if o.Months != nil && item.IsRecurring() {
		item.RepeatCount = *o.Months
	}
	return item
}

// Selection picks an item for an estimate: a catalog code, an optional
// alternate for that slot, and optional overrides.
type Selection struct {
	Code      string
	Alternate string
	Override  Override
}

// Resolve turns selections into billable items using st. An empty selection
// list resolves to the full stored schedule.
func Resolve(ctx context.Context, st Store, selections []Selection) ([]costshare.BillableItem, error) {
	if len(selections) == 0 {
		entries, err := st.ListItems(ctx)
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		return Items(entries), nil
	}

	items := make([]costshare.BillableItem, 0, len(selections))
	for _, sel := range selections {
		entry, err := st.GetItem(ctx, sel.Code)
		if err != nil {
			return nil, err
		}
		item := entry.Item

		if sel.Alternate != "" && sel.Alternate != sel.Code {
			alts, err := st.ListAlternates(ctx, sel.Code)
			if err != nil {
				return nil, fmt.Errorf("list alternates for %s: %w", sel.Code, err)
			}
			swapped, err := Substitute([]costshare.BillableItem{item}, alts, sel.Code, sel.Alternate)
			if err != nil {
				return nil, err
			}
			item = swapped[0]
		}

		items = append(items, sel.Override.Apply(item))
	}
	return items, nil
}
