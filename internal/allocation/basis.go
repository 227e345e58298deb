package allocation

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item carries the line-item measures a basis can be resolved from. Monetary
// fields are minor units; physical measures are decimals in the units the
// order declares them (kg, m3).
type Item struct {
	ID          uuid.UUID
	Qty         int64
	Boxes       int64
	UnitWeight  decimal.Decimal
	UnitVolume  decimal.Decimal
	UnitPrice   int64
	FOBSubtotal int64
}

// Weight is one item's share of an expense, as a fraction of the whole.
type Weight struct {
	ItemID uuid.UUID
	Frac   decimal.Decimal
}

// fobTolerance is the allowed gap, in minor units, between a stored FOB
// subtotal and qty x unit price before the stored value is distrusted.
const fobTolerance = 1

// ResolveWeights computes each item's relative weight under the given method.
// Weights are non-negative and sum to 1 over items with positive measure.
// A method whose total measure is zero falls back to by_units; if even the
// unit fallback has zero total, the result is empty and the caller must treat
// the expense as unallocatable.
func ResolveWeights(method Method, items []Item) []Weight {
	if len(items) == 0 {
		return nil
	}
	weights := resolve(method, items)
	if weights == nil && method != MethodByUnits {
		weights = resolve(MethodByUnits, items)
	}
	return weights
}

func resolve(method Method, items []Item) []Weight {
	measures := make([]decimal.Decimal, len(items))
	total := decimal.Zero
	for i, it := range items {
		m := measure(method, it)
		if m.Sign() < 0 {
			m = decimal.Zero
		}
		measures[i] = m
		total = total.Add(m)
	}
	if total.Sign() <= 0 {
		return nil
	}
	weights := make([]Weight, 0, len(items))
	for i, it := range items {
		weights = append(weights, Weight{ItemID: it.ID, Frac: measures[i].Div(total)})
	}
	sortWeights(weights)
	return weights
}

func measure(method Method, it Item) decimal.Decimal {
	switch method {
	case MethodByBoxes:
		return decimal.NewFromInt(it.Boxes)
	case MethodByWeight:
		return decimal.NewFromInt(it.Qty).Mul(it.UnitWeight)
	case MethodByVolume:
		return decimal.NewFromInt(it.Qty).Mul(it.UnitVolume)
	case MethodByFOBValue:
		return decimal.NewFromInt(fobSubtotal(it))
	default:
		return decimal.NewFromInt(it.Qty)
	}
}

// fobSubtotal prefers the stored subtotal but recomputes qty x unit price when
// the stored figure is absent or drifts beyond tolerance, so a stale header
// cannot skew a by-value split.
func fobSubtotal(it Item) int64 {
	computed := it.Qty * it.UnitPrice
	if it.FOBSubtotal <= 0 {
		return computed
	}
	diff := it.FOBSubtotal - computed
	if diff < 0 {
		diff = -diff
	}
	if computed > 0 && diff > fobTolerance {
		return computed
	}
	return it.FOBSubtotal
}

// sortWeights orders weights by item ID so downstream remainder distribution
// breaks ties deterministically.
func sortWeights(weights []Weight) {
	sort.Slice(weights, func(i, j int) bool {
		return bytes.Compare(weights[i].ItemID[:], weights[j].ItemID[:]) < 0
	})
}
