package allocation

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-importa/internal/money"
)

// Allocate distributes an expense amount across line items according to the
// resolved weights. Each raw share is rounded half up; the signed rounding
// remainder is then applied one minor unit at a time using the
// largest-remainder method, with ties broken by item ID. The allocated
// amounts always sum exactly to the input amount.
//
// An empty weight set returns nil: the expense is unallocatable and the caller
// must surface it instead of dropping it.
func Allocate(amount money.Amount, weights []Weight) map[uuid.UUID]money.Amount {
	if len(weights) == 0 {
		return nil
	}

	total := decimal.Zero
	for _, w := range weights {
		total = total.Add(w.Frac)
	}
	if total.Sign() <= 0 {
		return nil
	}

	type share struct {
		id    uuid.UUID
		units int64
		frac  decimal.Decimal
	}

	units := decimal.NewFromInt(amount.Units)
	shares := make([]share, 0, len(weights))
	var allocated int64
	for _, w := range weights {
		raw := units.Mul(w.Frac).Div(total)
		rounded := raw.Round(0).IntPart()
		shares = append(shares, share{id: w.ItemID, units: rounded, frac: raw.Sub(raw.Floor())})
		allocated += rounded
	}

	// Items with the largest fractional remainder absorb the rounding drift.
	// A negative remainder only occurs when shares were rounded up, and those
	// shares sort first, so no allocation ever goes negative.
	remainder := amount.Units - allocated
	if remainder != 0 {
		ordered := make([]*share, len(shares))
		for i := range shares {
			ordered[i] = &shares[i]
		}
		sort.SliceStable(ordered, func(i, j int) bool {
			cmp := ordered[i].frac.Cmp(ordered[j].frac)
			if cmp != 0 {
				return cmp > 0
			}
			return bytes.Compare(ordered[i].id[:], ordered[j].id[:]) < 0
		})
		step := int64(1)
		if remainder < 0 {
			step = -1
			remainder = -remainder
		}
		for i := int64(0); i < remainder; i++ {
			ordered[i%int64(len(ordered))].units += step
		}
	}

	result := make(map[uuid.UUID]money.Amount, len(shares))
	for _, s := range shares {
		result[s.id] = money.FromUnits(s.units, amount.Currency)
	}
	return result
}
