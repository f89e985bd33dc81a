// Package reconcile holds the pure shortage-netting logic: the duplicate
// scan over existing orders, the FIFO allocation of ordered units against
// outstanding shortages, and the compensating plan applied when an order
// is cancelled. All functions operate on already-fetched collections so
// they can be exercised without a live store.
package reconcile

import (
	"sort"
	"strings"

	"pedidos-service/internal/models"
)

// Duplicate pairs an already-ordered item with the order it came from.
type Duplicate struct {
	Item  models.LineItem `json:"item"`
	Order models.Order    `json:"order"`
}

// FindDuplicates cross-references newly parsed items against every item
// of every existing order and returns each (existing item, origin order)
// pair whose name matches case-insensitively. Exact equality after case
// folding only: extra words, plural forms or punctuation cause a miss.
// The result is an advisory warning and never blocks saving.
func FindDuplicates(newItems []models.LineItem, orders []models.Order) []Duplicate {
	var dups []Duplicate
	for _, item := range newItems {
		for _, order := range orders {
			for _, existing := range order.Items {
				if sameName(existing.Name, item.Name) {
					dups = append(dups, Duplicate{Item: existing, Order: order})
				}
			}
		}
	}
	return dups
}

// Allocation actions
const (
	ActionResolved = "resolved"
	ActionReduced  = "reduced"
)

// AllocationAction records what the reconciler decided for one shortage.
type AllocationAction struct {
	Shortage    models.ShortageRecord `json:"shortage"`
	Action      string                `json:"action"`
	NewQuantity int                   `json:"new_quantity,omitempty"`
}

// AllocateItem nets an ordered item against the outstanding shortages
// with the same name, oldest registration first. Shortages fully covered
// are marked resolved; the first shortage the remaining units cannot
// cover is reduced to ceil(leftover/unitsPerCase) cases and allocation
// stops there. Candidates with a different name or already resolved are
// ignored, so callers may pass an unfiltered list.
func AllocateItem(item models.LineItem, candidates []models.ShortageRecord) []AllocationAction {
	matched := make([]models.ShortageRecord, 0, len(candidates))
	for _, s := range candidates {
		if !s.Resolved && sameName(s.Name, item.Name) {
			matched = append(matched, s)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].RegisteredAt.Before(matched[j].RegisteredAt)
	})

	remainingUnits := item.TotalUnits()
	var actions []AllocationAction

	for _, shortage := range matched {
		if remainingUnits <= 0 {
			break
		}

		shortageUnits := shortage.TotalUnits()
		if remainingUnits >= shortageUnits {
			remainingUnits -= shortageUnits
			actions = append(actions, AllocationAction{
				Shortage: shortage,
				Action:   ActionResolved,
			})
			continue
		}

		// Partial cover: recompute the cases still needed for the
		// leftover units, rounding up. The reduced record's total units
		// may therefore exceed the raw leftover.
		leftover := shortageUnits - remainingUnits
		newQuantity := (leftover + shortage.UnitsPerCase - 1) / shortage.UnitsPerCase
		remainingUnits = 0
		actions = append(actions, AllocationAction{
			Shortage:    shortage,
			Action:      ActionReduced,
			NewQuantity: newQuantity,
		})
		break
	}

	return actions
}

// Reversal actions
const (
	ReversalIncrement = "increment"
	ReversalInsert    = "insert"
)

// ReversalAction describes how a cancelled item is re-added to the
// shortage registry: either an existing open shortage is incremented or a
// brand-new record is inserted.
type ReversalAction struct {
	Action   string
	Target   models.ShortageRecord // increment: the record to bump
	Insert   models.ShortageRecord // insert: the record to create
	Supplier string                // supplier the reversal is attributed to
}

// ReversalSupplier picks the supplier a reversed shortage is attributed
// to: the supplier of the most-recently-updated resolved shortage with
// the same name, falling back to the cancelled order's own supplier.
func ReversalSupplier(item models.LineItem, resolved []models.ShortageRecord, fallback string) string {
	var best *models.ShortageRecord
	for i := range resolved {
		s := &resolved[i]
		if !s.Resolved || !sameName(s.Name, item.Name) {
			continue
		}
		if best == nil || s.UpdatedAt.After(best.UpdatedAt) {
			best = s
		}
	}
	if best == nil {
		return fallback
	}
	return best.Supplier
}

// PlanReversal builds the compensating action for one removed item.
// openSameSupplier is the existing unresolved shortage with the item's
// name and the attributed supplier, or nil. This is a best-effort
// compensation, not an exact undo: the full original quantity is re-added
// even when the order only partially reduced a shortage.
func PlanReversal(item models.LineItem, supplier string, openSameSupplier *models.ShortageRecord) ReversalAction {
	if openSameSupplier != nil {
		return ReversalAction{
			Action:   ReversalIncrement,
			Target:   *openSameSupplier,
			Supplier: supplier,
		}
	}

	insert := models.ShortageRecord{
		Name:         item.Name,
		Quantity:     item.Quantity,
		UnitsPerCase: item.UnitsPerCase,
		Supplier:     supplier,
	}
	if !item.PriceB.IsZero() {
		insert.Price.Decimal = item.PriceB
		insert.Price.Valid = true
	}
	return ReversalAction{
		Action:   ReversalInsert,
		Insert:   insert,
		Supplier: supplier,
	}
}

func sameName(a, b string) bool {
	return strings.EqualFold(a, b)
}
