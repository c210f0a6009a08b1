package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Building is a managed property containing apartments. It owns the
// shared utility bills for the current cycle; PastBills holds one
// archived batch per completed generation cycle.
type Building struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          *primitive.ObjectID  `bson:"userId,omitempty" json:"userId,omitempty"` // managing admin
	Name            string               `bson:"name" json:"name"`
	Address         string               `bson:"address" json:"address"`
	ApartmentsCount int                  `bson:"apartmentsCount" json:"apartmentsCount"`
	Bills           []Bill               `bson:"bills" json:"bills"`
	PastBills       [][]Bill             `bson:"pastBills" json:"pastBills"`
	PastUserIDs     []primitive.ObjectID `bson:"pastUserIds" json:"pastUserIds"`
	Active          bool                 `bson:"active" json:"active"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ActiveBills returns the bills of the current cycle that have not been
// tombstoned.
func (b *Building) ActiveBills() []Bill {
	var active []Bill
	for _, bill := range b.Bills {
		if bill.Active {
			active = append(active, bill)
		}
	}
	return active
}
