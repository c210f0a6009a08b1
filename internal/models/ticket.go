package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TicketStatus tracks the lifecycle of a maintenance ticket.
type TicketStatus string

const (
	TicketOpen      TicketStatus = "open"
	TicketConfirmed TicketStatus = "confirmed"
	TicketResolved  TicketStatus = "resolved"
)

// Ticket is a maintenance request raised by a resident against their
// apartment.
type Ticket struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"` // reporter
	ApartmentID primitive.ObjectID `bson:"apartmentId" json:"apartmentId"`
	BuildingID  primitive.ObjectID `bson:"buildingId" json:"buildingId"`
	Name        string             `bson:"name" json:"name"`
	Comment     string             `bson:"comment" json:"comment"`
	Status      TicketStatus       `bson:"status" json:"status"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TicketListing is a Ticket decorated with display fields for list views.
type TicketListing struct {
	Ticket        `bson:",inline"`
	ApartmentName string `json:"apartmentName"`
	BuildingName  string `json:"buildingName"`
}
