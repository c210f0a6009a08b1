package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Apartment is a billable unit within a building. Its Bills list holds
// the shares allocated in the current cycle; PastBills archives one
// batch per completed cycle. ThermalProvider marks apartments with an
// independent hot-water contract, which excludes them from radiant-area
// cost allocation.
type Apartment struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          *primitive.ObjectID  `bson:"userId,omitempty" json:"userId,omitempty"` // owning resident
	BuildingID      primitive.ObjectID   `bson:"buildingId" json:"buildingId"`
	Name            string               `bson:"name" json:"name"`
	Number          int                  `bson:"number" json:"number"`
	PeopleCount     int                  `bson:"peopleCount" json:"peopleCount"`
	TotalArea       float64              `bson:"totalArea" json:"totalArea"`
	RadiantArea     float64              `bson:"radiantArea" json:"radiantArea"`
	Share           float64              `bson:"share" json:"share"` // percent of the building
	ThermalProvider bool                 `bson:"thermalProvider" json:"thermalProvider"`
	Meters          []Meter              `bson:"meters" json:"meters"`
	Bills           []Bill               `bson:"bills" json:"bills"`
	PastBills       [][]Bill             `bson:"pastBills" json:"pastBills"`
	Payments        []float64            `bson:"payments" json:"payments"`
	RemainingCost   float64              `bson:"remainingCost" json:"remainingCost"`
	CurrentCost     float64              `bson:"currentCost" json:"currentCost"`
	PastUserIDs     []primitive.ObjectID `bson:"pastUserIds" json:"pastUserIds"`
	Active          bool                 `bson:"active" json:"active"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// TotalConsumption sums the consumption of the apartment's active meters.
func (a *Apartment) TotalConsumption() float64 {
	var total float64
	for _, m := range a.Meters {
		if m.Active {
			total += m.Consumption
		}
	}
	return total
}
