package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BillType selects the strategy used to split a building bill across apartments.
type BillType string

const (
	// SplitOnShare allocates value * share/100 per apartment.
	SplitOnShare BillType = "splitOnShare"
	// SplitOnPeopleCount allocates proportionally to occupant count.
	SplitOnPeopleCount BillType = "splitOnPeopleCount"
	// SplitOnRadiant allocates proportionally to radiant heating area,
	// skipping apartments with an independent hot-water contract.
	SplitOnRadiant BillType = "splitOnRadiant"
	// SplitOnConsumption allocates proportionally to metered consumption.
	SplitOnConsumption BillType = "splitOnConsumption"
)

// ValidBillType reports whether t is one of the four allocation strategies.
func ValidBillType(t BillType) bool {
	switch t {
	case SplitOnShare, SplitOnPeopleCount, SplitOnRadiant, SplitOnConsumption:
		return true
	}
	return false
}

// Bill is a named monetary charge embedded in a building (to be split)
// or in an apartment (already allocated). Removal sets Active to false,
// the entry itself is never pulled from the array.
type Bill struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Type      BillType           `bson:"type" json:"type"`
	Value     float64            `bson:"value" json:"value"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Meter tracks consumption for one utility inside an apartment.
// Consumption is always Value - PrevValue.
type Meter struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	PrevValue   float64            `bson:"prevValue" json:"prevValue"`
	Value       float64            `bson:"value" json:"value"`
	Consumption float64            `bson:"consumption" json:"consumption"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
