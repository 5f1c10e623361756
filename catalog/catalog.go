// Package catalog holds the CPAP fee schedule: the default billable items,
// the alternates an operator may swap in for some of them, and the storage
// interface the API and CLI load them through.
package catalog

import (
	"github.com/warp/cpap-estimator/costshare"
)

// =============================================================================
// HCPCS CODES
// =============================================================================

const (
	CodeFullFaceMask     = "A7030"
	CodeNasalMask        = "A7034"
	CodeFullFaceCushion  = "A7031"
	CodeNasalCushion     = "A7032"
	CodeNasalPillows     = "A7033"
	CodeHeadgear         = "A7035"
	CodeChinstrap        = "A7036"
	CodeHeatedTubing     = "A4604"
	CodeTubing           = "A7037"
	CodeFilter           = "A7038"
	CodeCPAPRental       = "E0601"
	CodeBiPAP            = "E0470"
	CodeHumidifierRental = "E0562"
	DefaultRentalMonths  = 10
)

// Entry is a fee schedule row. Position keeps the statement order stable.
type Entry struct {
	Item     costshare.BillableItem
	Position int
}

// Alternate is an item that may replace the item in Slot.
type Alternate struct {
	Slot     string
	Item     costshare.BillableItem
	Position int
}

func supply(code, desc, allowed string) costshare.BillableItem {
	return costshare.BillableItem{
		Code:        code,
		Description: desc,
		Allowed:     costshare.MustParseMoney(allowed),
		Kind:        costshare.KindOneTime,
	}
}

func rental(code, desc, allowed string, months int) costshare.BillableItem {
	return costshare.BillableItem{
		Code:        code,
		Description: desc,
		Allowed:     costshare.MustParseMoney(allowed),
		Kind:        costshare.KindRecurring,
		RepeatCount: months,
	}
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultSchedule returns the standard CPAP setup: six supplies billed once
// and the device and humidifier rented for ten months.
func DefaultSchedule() []Entry {
	items := []costshare.BillableItem{
		supply(CodeFullFaceMask, "Full Face Mask", "142.03"),
		supply(CodeFullFaceCushion, "Full Face Cushion", "53.03"),
		supply(CodeHeadgear, "Headgear", "27.22"),
		supply(CodeChinstrap, "Chinstrap", "7.80"),
		supply(CodeHeatedTubing, "Heated Tubing", "31.87"),
		supply(CodeFilter, "CPAP Filter (2 Included)", "7.38"),
		rental(CodeCPAPRental, "CPAP Device Rental", "73.18", DefaultRentalMonths),
		rental(CodeHumidifierRental, "Humidifier Rental", "22.38", DefaultRentalMonths),
	}

	entries := make([]Entry, len(items))
	for i, it := range items {
		entries[i] = Entry{Item: it, Position: i + 1}
	}
	return entries
}

// DefaultAlternates returns the substitutions offered for each slot. The
// slot's own item is listed first so a selection can always be undone.
func DefaultAlternates() []Alternate {
	table := map[string][]costshare.BillableItem{
		CodeFullFaceMask: {
			supply(CodeFullFaceMask, "Full Face Mask", "142.03"),
			supply(CodeNasalMask, "Nasal Mask", "88.66"),
		},
		CodeFullFaceCushion: {
			supply(CodeFullFaceCushion, "Full Face Cushion", "53.03"),
			supply(CodeNasalCushion, "Nasal Cushion", "30.40"),
			supply(CodeNasalPillows, "Nasal Pillow Cushion", "22.53"),
		},
		CodeHeatedTubing: {
			supply(CodeHeatedTubing, "Heated Tubing", "31.87"),
			supply(CodeTubing, "Tubing", "25.52"),
		},
		CodeCPAPRental: {
			rental(CodeCPAPRental, "CPAP Device Rental", "73.18", DefaultRentalMonths),
			supply(CodeBiPAP, "BiPAP", "185.52"),
		},
	}

	var out []Alternate
	for _, slot := range []string{CodeFullFaceMask, CodeFullFaceCushion, CodeHeatedTubing, CodeCPAPRental} {
		for i, it := range table[slot] {
			out = append(out, Alternate{Slot: slot, Item: it, Position: i + 1})
		}
	}
	return out
}

// Items strips positions from entries.
func Items(entries []Entry) []costshare.BillableItem {
	items := make([]costshare.BillableItem, len(entries))
	for i, e := range entries {
		items[i] = e.Item
	}
	return items
}
