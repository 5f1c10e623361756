package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cpap-estimator/catalog"
	"github.com/warp/cpap-estimator/catalog/store"
	"github.com/warp/cpap-estimator/costshare"
)

func seededStore(t *testing.T) *store.Memory {
	st := store.NewMemory()
	require.NoError(t, catalog.Seed(context.Background(), st))
	return st
}

func TestDefaultSchedule(t *testing.T) {
	entries := catalog.DefaultSchedule()
	require.Len(t, entries, 8)

	recurring := 0
	for i, e := range entries {
		assert.Equal(t, i+1, e.Position)
		require.NoError(t, e.Item.Validate())
		if e.Item.IsRecurring() {
			recurring++
			assert.Equal(t, catalog.DefaultRentalMonths, e.Item.RepeatCount)
		}
	}
	assert.Equal(t, 2, recurring)
	assert.Equal(t, catalog.CodeFullFaceMask, entries[0].Item.Code)
	assert.Equal(t, "142.03", entries[0].Item.Allowed.String())
}

func TestDefaultAlternates_SlotItemListedFirst(t *testing.T) {
	bySlot := map[string][]catalog.Alternate{}
	for _, a := range catalog.DefaultAlternates() {
		bySlot[a.Slot] = append(bySlot[a.Slot], a)
	}

	require.Len(t, bySlot, 4)
	for slot, alts := range bySlot {
		assert.Equal(t, slot, alts[0].Item.Code, "slot %s", slot)
	}
	assert.Len(t, bySlot[catalog.CodeFullFaceCushion], 3)
}

func TestSubstitute_SwapsMaskForNasal(t *testing.T) {
	items := catalog.Items(catalog.DefaultSchedule())

	out, err := catalog.Substitute(items, catalog.DefaultAlternates(), catalog.CodeFullFaceMask, catalog.CodeNasalMask)
	require.NoError(t, err)

	assert.Equal(t, catalog.CodeNasalMask, out[0].Code)
	assert.Equal(t, "88.66", out[0].Allowed.String())
	assert.Equal(t, catalog.CodeFullFaceMask, items[0].Code, "input is not modified")
}

func TestSubstitute_BiPAPIsBilledOnce(t *testing.T) {
	items := catalog.Items(catalog.DefaultSchedule())

	out, err := catalog.Substitute(items, catalog.DefaultAlternates(), catalog.CodeCPAPRental, catalog.CodeBiPAP)
	require.NoError(t, err)

	assert.Equal(t, costshare.KindOneTime, out[6].Kind)
	assert.Equal(t, 10, costshare.MaxRepeatCount(out), "humidifier rental remains")
}

func TestSubstitute_Errors(t *testing.T) {
	items := catalog.Items(catalog.DefaultSchedule())
	alts := catalog.DefaultAlternates()

	_, err := catalog.Substitute(items, alts, "Z9999", catalog.CodeNasalMask)
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)

	_, err = catalog.Substitute(items, alts, catalog.CodeFullFaceMask, catalog.CodeTubing)
	assert.ErrorIs(t, err, catalog.ErrNoSuchAlternate)
	assert.True(t, catalog.IsNotFound(err))
}

func TestOverride_Apply(t *testing.T) {
	desc := "CPAP Device Rental (1st Month)"
	price := costshare.MustParseMoney("70.00")
	months := 13

	item := catalog.DefaultSchedule()[6].Item
	got := catalog.Override{Description: &desc, Allowed: &price, Months: &months}.Apply(item)

	assert.Equal(t, desc, got.Description)
	assert.Equal(t, "70.00", got.Allowed.String())
	assert.Equal(t, 13, got.RepeatCount)

	mask := catalog.DefaultSchedule()[0].Item
	assert.Equal(t, 0, catalog.Override{Months: &months}.Apply(mask).RepeatCount, "months only apply to rentals")
}

func TestResolve_EmptySelectionUsesWholeSchedule(t *testing.T) {
	st := seededStore(t)

	items, err := catalog.Resolve(context.Background(), st, nil)
	require.NoError(t, err)

	assert.Equal(t, catalog.Items(catalog.DefaultSchedule()), items)
}

func TestResolve_AlternateAndOverride(t *testing.T) {
	st := seededStore(t)
	price := costshare.MustParseMoney("20.00")

	items, err := catalog.Resolve(context.Background(), st, []catalog.Selection{
		{Code: catalog.CodeFullFaceCushion, Alternate: catalog.CodeNasalPillows},
		{Code: catalog.CodeHumidifierRental, Override: catalog.Override{Allowed: &price}},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, catalog.CodeNasalPillows, items[0].Code)
	assert.Equal(t, "22.53", items[0].Allowed.String())
	assert.Equal(t, "20.00", items[1].Allowed.String())
	assert.True(t, items[1].IsRecurring())
}

func TestResolve_UnknownCode(t *testing.T) {
	st := seededStore(t)

	_, err := catalog.Resolve(context.Background(), st, []catalog.Selection{{Code: "Z9999"}})
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)
}

// =============================================================================
// MEMORY STORE
// =============================================================================

func TestMemory_SaveAssignsPositionAndKeepsOrder(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	extra := costshare.BillableItem{Code: "A7039", Description: "Filter, non-disposable", Allowed: costshare.MustParseMoney("9.10"), Kind: costshare.KindOneTime}
	require.NoError(t, st.SaveItem(ctx, catalog.Entry{Item: extra}))

	entries, err := st.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 9)
	assert.Equal(t, "A7039", entries[8].Item.Code)
	assert.Equal(t, 9, entries[8].Position)

	// Re-saving keeps the first position.
	extra.Allowed = costshare.MustParseMoney("9.50")
	require.NoError(t, st.SaveItem(ctx, catalog.Entry{Item: extra}))
	got, err := st.GetItem(ctx, "A7039")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Position)
	assert.Equal(t, "9.50", got.Item.Allowed.String())
}

func TestMemory_DeleteRemovesAlternates(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	require.NoError(t, st.DeleteItem(ctx, catalog.CodeFullFaceMask))

	_, err := st.GetItem(ctx, catalog.CodeFullFaceMask)
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)

	alts, err := st.ListAlternates(ctx, catalog.CodeFullFaceMask)
	require.NoError(t, err)
	assert.Empty(t, alts)

	assert.ErrorIs(t, st.DeleteItem(ctx, catalog.CodeFullFaceMask), catalog.ErrItemNotFound)
}
