package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MihaiVoinica/AdminBloc/internal/db"
	"github.com/MihaiVoinica/AdminBloc/internal/models"
)

// ITicketService defines the interface for maintenance tickets.
type ITicketService interface {
	ListTickets(ctx context.Context, requesterID primitive.ObjectID, role models.Role) ([]models.TicketListing, error)
	CreateTicket(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, name, comment string) (*models.Ticket, error)
	ConfirmTicket(ctx context.Context, ticketID, requesterID primitive.ObjectID, role models.Role) (*models.Ticket, error)
	ResolveTicket(ctx context.Context, ticketID, requesterID primitive.ObjectID, role models.Role) (*models.Ticket, error)
	RemoveTicket(ctx context.Context, ticketID, requesterID primitive.ObjectID, role models.Role) (*models.Ticket, error)
}

// ticketService implements ITicketService.
type ticketService struct {
	db         *mongo.Database
	buildings  IBuildingService
	apartments IApartmentService
}

// NewTicketService creates a new TicketService.
func NewTicketService(database *mongo.Database, buildings IBuildingService, apartments IApartmentService) ITicketService {
	return &ticketService{db: database, buildings: buildings, apartments: apartments}
}

func (s *ticketService) collection() *mongo.Collection {
	return s.db.Collection(db.TicketsCollection)
}

// ListTickets returns the tickets visible to the requester, decorated
// with apartment and building names. Residents see their own tickets,
// admins the tickets of managed buildings.
func (s *ticketService) ListTickets(ctx context.Context, requesterID primitive.ObjectID, role models.Role) ([]models.TicketListing, error) {
	filter := bson.M{"active": true}
	switch role {
	case models.RoleNormal:
		filter["userId"] = requesterID
	case models.RoleAdmin:
		managed, err := s.buildings.ListBuildings(ctx, requesterID, role)
		if err != nil {
			return nil, err
		}
		ids := make([]primitive.ObjectID, 0, len(managed))
		for _, b := range managed {
			ids = append(ids, b.ID)
		}
		filter["buildingId"] = bson.M{"$in": ids}
	}

	cursor, err := s.collection().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer cursor.Close(ctx)

	var tickets []models.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("failed to decode tickets: %w", err)
	}

	apartmentNames := make(map[primitive.ObjectID]string)
	buildingNames := make(map[primitive.ObjectID]string)
	listings := make([]models.TicketListing, 0, len(tickets))
	for _, t := range tickets {
		aptName, ok := apartmentNames[t.ApartmentID]
		if !ok {
			if apt, err := s.apartments.FindApartmentByID(ctx, t.ApartmentID); err == nil {
				aptName = apt.Name
			}
			apartmentNames[t.ApartmentID] = aptName
		}
		bName, ok := buildingNames[t.BuildingID]
		if !ok {
			if b, err := s.buildings.FindBuildingByID(ctx, t.BuildingID); err == nil {
				bName = b.Name
			}
			buildingNames[t.BuildingID] = bName
		}
		listings = append(listings, models.TicketListing{Ticket: t, ApartmentName: aptName, BuildingName: bName})
	}
	return listings, nil
}

// CreateTicket opens a ticket against an apartment. Residents may only
// report on an apartment they own.
func (s *ticketService) CreateTicket(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, name, comment string) (*models.Ticket, error) {
	apartment, err := s.apartments.FindApartmentByID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleNormal {
		if apartment.UserID == nil || *apartment.UserID != requesterID {
			return nil, ErrForbidden
		}
	} else {
		if _, err := s.buildings.RequireManaged(ctx, apartment.BuildingID, requesterID, role); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	ticket := &models.Ticket{
		ID:          primitive.NewObjectID(),
		UserID:      requesterID,
		ApartmentID: apartmentID,
		BuildingID:  apartment.BuildingID,
		Name:        name,
		Comment:     comment,
		Status:      models.TicketOpen,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.collection().InsertOne(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to insert ticket %q: %w", name, err)
	}
	return ticket, nil
}

// ConfirmTicket moves an open ticket to confirmed. Building admins
// only.
func (s *ticketService) ConfirmTicket(ctx context.Context, ticketID, requesterID primitive.ObjectID, role models.Role) (*models.Ticket, error) {
	return s.transition(ctx, ticketID, requesterID, role, models.TicketOpen, models.TicketConfirmed)
}

// ResolveTicket moves a confirmed ticket to resolved. Building admins
// only.
func (s *ticketService) ResolveTicket(ctx context.Context, ticketID, requesterID primitive.ObjectID, role models.Role) (*models.Ticket, error) {
	return s.transition(ctx, ticketID, requesterID, role, models.TicketConfirmed, models.TicketResolved)
}

func (s *ticketService) transition(ctx context.Context, ticketID, requesterID primitive.ObjectID, role models.Role, from, to models.TicketStatus) (*models.Ticket, error) {
	ticket, err := s.findTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if _, err := s.buildings.RequireManaged(ctx, ticket.BuildingID, requesterID, role); err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}}
	var result models.Ticket
	err = s.collection().
		FindOneAndUpdate(ctx, bson.M{"_id": ticketID, "status": from, "active": true}, update, afterUpdate()).
		Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidTicket
		}
		return nil, fmt.Errorf("failed to update ticket %s: %w", ticketID.Hex(), err)
	}
	return &result, nil
}

// RemoveTicket tombstones a ticket. The reporter may withdraw their
// own ticket; building admins may remove any.
func (s *ticketService) RemoveTicket(ctx context.Context, ticketID, requesterID primitive.ObjectID, role models.Role) (*models.Ticket, error) {
	ticket, err := s.findTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleNormal {
		if ticket.UserID != requesterID {
			return nil, ErrForbidden
		}
	} else {
		if _, err := s.buildings.RequireManaged(ctx, ticket.BuildingID, requesterID, role); err != nil {
			return nil, err
		}
	}

	update := bson.M{"$set": bson.M{"active": false, "updatedAt": time.Now().UTC()}}
	var result models.Ticket
	err = s.collection().
		FindOneAndUpdate(ctx, bson.M{"_id": ticketID, "active": true}, update, afterUpdate()).
		Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidTicket
		}
		return nil, fmt.Errorf("failed to remove ticket %s: %w", ticketID.Hex(), err)
	}
	return &result, nil
}

func (s *ticketService) findTicketByID(ctx context.Context, ticketID primitive.ObjectID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.collection().FindOne(ctx, bson.M{"_id": ticketID, "active": true}).Decode(&ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidTicket
		}
		return nil, fmt.Errorf("failed to find ticket %s: %w", ticketID.Hex(), err)
	}
	return &ticket, nil
}
