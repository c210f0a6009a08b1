package billing

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MihaiVoinica/AdminBloc/internal/models"
)

// Totals holds the whole-building denominators used by the allocation
// strategies. They are computed once per generation run, so every bill
// of the same type sees the same denominator within one cycle.
type Totals struct {
	PeopleCount int
	RadiantArea float64
	Consumption float64
}

// ComputeTotals aggregates the allocation denominators over the active
// apartments of a building. Apartments with an independent hot-water
// contract contribute nothing to the radiant area. Only active meters
// count towards consumption.
func ComputeTotals(apartments []models.Apartment) Totals {
	var t Totals
	for i := range apartments {
		apt := &apartments[i]
		t.PeopleCount += apt.PeopleCount
		if !apt.ThermalProvider {
			t.RadiantArea += apt.RadiantArea
		}
		t.Consumption += apt.TotalConsumption()
	}
	return t
}

// Allocate returns the share of bill.Value that falls on apt under the
// bill's allocation strategy. A zero denominator yields zero for every
// apartment; the bill's value is dropped for the cycle rather than
// raising an error.
func Allocate(bill models.Bill, apt models.Apartment, totals Totals) float64 {
	switch bill.Type {
	case models.SplitOnShare:
		return bill.Value * apt.Share / 100

	case models.SplitOnPeopleCount:
		if totals.PeopleCount <= 0 {
			return 0
		}
		return bill.Value / float64(totals.PeopleCount) * float64(apt.PeopleCount)

	case models.SplitOnRadiant:
		if apt.ThermalProvider || totals.RadiantArea <= 0 {
			return 0
		}
		return bill.Value / totals.RadiantArea * apt.RadiantArea

	case models.SplitOnConsumption:
		if totals.Consumption <= 0 {
			return 0
		}
		return bill.Value / totals.Consumption * apt.TotalConsumption()
	}
	return 0
}

// ComputeCycle produces the per-apartment cost line items for one
// generation run. Each active building bill is fanned out into at most
// one line item per apartment; zero-valued shares are filtered out.
// The result maps apartment ID to its line items, ordered bill by bill.
func ComputeCycle(bills []models.Bill, apartments []models.Apartment) map[primitive.ObjectID][]models.Bill {
	totals := ComputeTotals(apartments)
	now := time.Now().UTC()

	shares := make(map[primitive.ObjectID][]models.Bill, len(apartments))
	for i := range apartments {
		shares[apartments[i].ID] = nil
	}

	for _, bill := range bills {
		if !bill.Active {
			continue
		}
		for i := range apartments {
			apt := &apartments[i]
			cost := Allocate(bill, *apt, totals)
			if cost == 0 {
				continue
			}
			shares[apt.ID] = append(shares[apt.ID], models.Bill{
				ID:        primitive.NewObjectID(),
				Name:      bill.Name,
				Type:      bill.Type,
				Value:     cost,
				Active:    true,
				CreatedAt: now,
			})
		}
	}
	return shares
}

// SumValues adds up the values of a bill list. Used for an apartment's
// current-cycle total.
func SumValues(bills []models.Bill) float64 {
	var total float64
	for _, b := range bills {
		total += b.Value
	}
	return total
}

// RolloverMeters resets meters for the next cycle: the final reading of
// the closing cycle becomes the new baseline, current reading and
// consumption drop to zero. A meter with no reading this cycle keeps
// its previous baseline.
func RolloverMeters(meters []models.Meter) []models.Meter {
	rolled := make([]models.Meter, len(meters))
	for i, m := range meters {
		if m.Value != 0 {
			m.PrevValue = m.Value
		}
		m.Value = 0
		m.Consumption = 0
		rolled[i] = m
	}
	return rolled
}
