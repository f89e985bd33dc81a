package reconcile

import (
	"testing"
	"time"

	"pedidos-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(quantity, unitsPerCase int, name string) models.LineItem {
	return models.LineItem{
		Quantity:     quantity,
		UnitsPerCase: unitsPerCase,
		Name:         name,
		PriceB:       decimal.RequireFromString("100"),
	}
}

func shortage(id, name string, quantity, unitsPerCase int, registeredAt time.Time) models.ShortageRecord {
	return models.ShortageRecord{
		ID:           id,
		Name:         name,
		Quantity:     quantity,
		UnitsPerCase: unitsPerCase,
		Supplier:     "Norton (Europa)",
		RegisteredAt: registeredAt,
		UpdatedAt:    registeredAt,
	}
}

func TestFindDuplicatesCaseInsensitive(t *testing.T) {
	existing := models.Order{
		ID:       "o1",
		Supplier: "Las Perdices (Europa)",
		Items:    []models.LineItem{item(2, 6, "MALBEC")},
	}

	dups := FindDuplicates([]models.LineItem{item(1, 6, "Malbec")}, []models.Order{existing})

	require.Len(t, dups, 1)
	assert.Equal(t, "MALBEC", dups[0].Item.Name)
	assert.Equal(t, "o1", dups[0].Order.ID)
}

func TestFindDuplicatesExactMatchOnly(t *testing.T) {
	// Not a fuzzy match: extra words or plural forms miss.
	existing := models.Order{
		ID:    "o1",
		Items: []models.LineItem{item(2, 6, "MALBEC 750CC")},
	}

	dups := FindDuplicates([]models.LineItem{item(1, 6, "MALBEC")}, []models.Order{existing})

	assert.Empty(t, dups)
}

func TestFindDuplicatesReportsEveryPair(t *testing.T) {
	orders := []models.Order{
		{ID: "o1", Items: []models.LineItem{item(1, 6, "MALBEC")}},
		{ID: "o2", Items: []models.LineItem{item(2, 6, "MALBEC"), item(1, 12, "FERNET")}},
	}

	dups := FindDuplicates([]models.LineItem{item(3, 6, "malbec")}, orders)

	assert.Len(t, dups, 2)
}

func TestAllocateItemExactCover(t *testing.T) {
	now := time.Now()
	candidates := []models.ShortageRecord{
		shortage("s1", "MALBEC", 2, 6, now),
	}

	actions := AllocateItem(item(2, 6, "MALBEC"), candidates)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionResolved, actions[0].Action)
	assert.Equal(t, "s1", actions[0].Shortage.ID)
}

func TestAllocateItemPartialCoverRoundsUp(t *testing.T) {
	// Shortage of 18 units (3 cases of 6), order covers only 12: the
	// shortage is reduced to ceil((18-12)/6) = 1 case, not left at a
	// fractional remainder.
	now := time.Now()
	candidates := []models.ShortageRecord{
		shortage("s1", "MALBEC", 3, 6, now),
	}

	actions := AllocateItem(item(2, 6, "MALBEC"), candidates)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionReduced, actions[0].Action)
	assert.Equal(t, 1, actions[0].NewQuantity)
}

func TestAllocateItemPartialCoverCeilExceedsLeftover(t *testing.T) {
	// 4 cases of 6 = 24 units outstanding, order covers 13. Leftover is
	// 11 units but the record is recomputed to 2 whole cases (12 units).
	now := time.Now()
	candidates := []models.ShortageRecord{
		shortage("s1", "FERNET", 4, 6, now),
	}

	actions := AllocateItem(item(13, 1, "FERNET"), candidates)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionReduced, actions[0].Action)
	assert.Equal(t, 2, actions[0].NewQuantity)
}

func TestAllocateItemFIFOByRegistration(t *testing.T) {
	now := time.Now()
	// Passed newest-first on purpose; allocation must still satisfy the
	// oldest registration first.
	candidates := []models.ShortageRecord{
		shortage("newer", "MALBEC", 2, 6, now),
		shortage("older", "MALBEC", 2, 6, now.Add(-24*time.Hour)),
	}

	actions := AllocateItem(item(3, 6, "MALBEC"), candidates)

	require.Len(t, actions, 2)
	assert.Equal(t, "older", actions[0].Shortage.ID)
	assert.Equal(t, ActionResolved, actions[0].Action)
	assert.Equal(t, "newer", actions[1].Shortage.ID)
	assert.Equal(t, ActionReduced, actions[1].Action)
	assert.Equal(t, 1, actions[1].NewQuantity)
}

func TestAllocateItemStopsWhenUnitsExhausted(t *testing.T) {
	now := time.Now()
	candidates := []models.ShortageRecord{
		shortage("s1", "MALBEC", 2, 6, now.Add(-2*time.Hour)),
		shortage("s2", "MALBEC", 1, 6, now.Add(-time.Hour)),
		shortage("s3", "MALBEC", 5, 6, now),
	}

	actions := AllocateItem(item(2, 6, "MALBEC"), candidates)

	// First shortage consumes everything; later ones stay untouched.
	require.Len(t, actions, 1)
	assert.Equal(t, "s1", actions[0].Shortage.ID)
	assert.Equal(t, ActionResolved, actions[0].Action)
}

func TestAllocateItemIgnoresOtherNamesAndResolved(t *testing.T) {
	now := time.Now()
	resolved := shortage("s1", "MALBEC", 2, 6, now)
	resolved.Resolved = true
	candidates := []models.ShortageRecord{
		resolved,
		shortage("s2", "FERNET", 2, 6, now),
	}

	actions := AllocateItem(item(2, 6, "MALBEC"), candidates)

	assert.Empty(t, actions)
}

func TestReversalSupplierPrefersLatestResolved(t *testing.T) {
	now := time.Now()
	older := shortage("s1", "MALBEC", 2, 6, now.Add(-48*time.Hour))
	older.Resolved = true
	older.Supplier = "Berlin"
	newer := shortage("s2", "malbec", 1, 6, now.Add(-24*time.Hour))
	newer.Resolved = true
	newer.Supplier = "Las Perdices (Europa)"
	newer.UpdatedAt = now

	supplier := ReversalSupplier(item(1, 6, "MALBEC"),
		[]models.ShortageRecord{older, newer}, "Coffico")

	assert.Equal(t, "Las Perdices (Europa)", supplier)
}

func TestReversalSupplierFallsBackToOrderSupplier(t *testing.T) {
	supplier := ReversalSupplier(item(1, 6, "MALBEC"), nil, "Coffico")
	assert.Equal(t, "Coffico", supplier)
}

func TestPlanReversalIncrementsExistingOpenShortage(t *testing.T) {
	open := shortage("s1", "MALBEC", 2, 6, time.Now())

	plan := PlanReversal(item(3, 6, "MALBEC"), "Norton (Europa)", &open)

	assert.Equal(t, ReversalIncrement, plan.Action)
	assert.Equal(t, "s1", plan.Target.ID)
}

func TestPlanReversalInsertsNewShortage(t *testing.T) {
	removed := item(3, 6, "MALBEC")

	plan := PlanReversal(removed, "Berlin", nil)

	assert.Equal(t, ReversalInsert, plan.Action)
	assert.Equal(t, "MALBEC", plan.Insert.Name)
	assert.Equal(t, 3, plan.Insert.Quantity)
	assert.Equal(t, 6, plan.Insert.UnitsPerCase)
	assert.Equal(t, "Berlin", plan.Insert.Supplier)
	assert.False(t, plan.Insert.Resolved)
	require.True(t, plan.Insert.Price.Valid)
	assert.True(t, plan.Insert.Price.Decimal.Equal(removed.PriceB))
}

func TestReversalReAddsFullQuantityAfterPartialReduction(t *testing.T) {
	// Known approximation: cancelling an order that only partially
	// reduced a shortage re-adds the item's full original quantity, not
	// the exact amount that was deducted.
	now := time.Now()
	candidates := []models.ShortageRecord{
		shortage("s1", "MALBEC", 3, 6, now),
	}
	ordered := item(2, 6, "MALBEC")

	actions := AllocateItem(ordered, candidates)
	require.Len(t, actions, 1)
	require.Equal(t, ActionReduced, actions[0].Action)

	reduced := actions[0].Shortage
	reduced.Quantity = actions[0].NewQuantity

	plan := PlanReversal(ordered, reduced.Supplier, &reduced)

	assert.Equal(t, ReversalIncrement, plan.Action)
	// 1 case outstanding + the full 2 cancelled cases = 3, although only
	// 2 were ever deducted from this record.
	assert.Equal(t, 3, reduced.Quantity+ordered.Quantity)
}
