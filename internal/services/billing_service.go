package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MihaiVoinica/AdminBloc/internal/billing"
	"github.com/MihaiVoinica/AdminBloc/internal/db"
	"github.com/MihaiVoinica/AdminBloc/internal/models"
)

// BillingRun is the outcome of a bill-generation cycle: the cleared
// building and every apartment with its freshly allocated bills.
type BillingRun struct {
	Building   *models.Building   `json:"building"`
	Apartments []models.Apartment `json:"apartments"`
}

// IBillingService defines the interface for the bill-generation cycle.
type IBillingService interface {
	GenerateBills(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role) (*BillingRun, error)
}

// billingService implements IBillingService.
type billingService struct {
	db        *mongo.Database
	buildings IBuildingService
}

// NewBillingService creates a new BillingService.
func NewBillingService(database *mongo.Database, buildings IBuildingService) IBillingService {
	return &billingService{db: database, buildings: buildings}
}

// GenerateBills allocates every active building bill across the
// building's active apartments, archives the cycle on both sides and
// rolls the meters over.
//
// The per-apartment writes and the building write are dispatched
// concurrently and joined; a failed target is reported but does not
// roll back the targets that succeeded. Re-running the cycle repairs a
// partial failure.
func (s *billingService) GenerateBills(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role) (*BillingRun, error) {
	building, err := s.buildings.RequireManaged(ctx, buildingID, requesterID, role)
	if err != nil {
		return nil, err
	}

	apartments, err := s.loadApartments(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	shares := billing.ComputeCycle(building.ActiveBills(), apartments)

	now := time.Now().UTC()
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []error
		updated  = make([]models.Apartment, len(apartments))
	)

	for i := range apartments {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			apt, err := s.settleApartment(ctx, &apartments[i], shares[apartments[i].ID], now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Errorf("apartment %s: %w", apartments[i].ID.Hex(), err))
				updated[i] = apartments[i]
				return
			}
			updated[i] = *apt
		}(i)
	}

	var updatedBuilding *models.Building
	wg.Add(1)
	go func() {
		defer wg.Done()
		b, err := s.archiveBuildingCycle(ctx, buildingID, building.Bills, now)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failures = append(failures, fmt.Errorf("building %s: %w", buildingID.Hex(), err))
			updatedBuilding = building
			return
		}
		updatedBuilding = b
	}()

	wg.Wait()

	if len(failures) > 0 {
		return nil, fmt.Errorf("bill generation completed partially: %w", errors.Join(failures...))
	}
	return &BillingRun{Building: updatedBuilding, Apartments: updated}, nil
}

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func (s *billingService) loadApartments(ctx context.Context, buildingID primitive.ObjectID) ([]models.Apartment, error) {
	cursor, err := s.db.Collection(db.ApartmentsCollection).Find(ctx, bson.M{"buildingId": buildingID, "active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to query apartments of building %s: %w", buildingID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var apartments []models.Apartment
	if err := cursor.All(ctx, &apartments); err != nil {
		return nil, fmt.Errorf("failed to decode apartments: %w", err)
	}
	return apartments, nil
}

// settleApartment writes one apartment's side of the cycle: the new
// bills replace the old ones, the old currentCost moves into
// remainingCost, the displaced bills go to pastBills and the meters
// roll over.
func (s *billingService) settleApartment(ctx context.Context, apartment *models.Apartment, newBills []models.Bill, now time.Time) (*models.Apartment, error) {
	if newBills == nil {
		newBills = []models.Bill{}
	}

	set := bson.M{
		"bills":         newBills,
		"currentCost":   billing.SumValues(newBills),
		"remainingCost": apartment.RemainingCost + apartment.CurrentCost,
		"meters":        billing.RolloverMeters(apartment.Meters),
		"updatedAt":     now,
	}
	update := bson.M{"$set": set}
	if len(apartment.Bills) > 0 {
		update["$push"] = bson.M{"pastBills": apartment.Bills}
	}

	var result models.Apartment
	err := s.db.Collection(db.ApartmentsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": apartment.ID, "active": true}, update, afterUpdate()).
		Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidApartment
		}
		return nil, err
	}
	return &result, nil
}

// archiveBuildingCycle pushes the full outgoing bill list, tombstoned
// bills included, into the building's history and clears the working
// list. Removed bills allocate nothing but stay auditable.
func (s *billingService) archiveBuildingCycle(ctx context.Context, buildingID primitive.ObjectID, outgoing []models.Bill, now time.Time) (*models.Building, error) {
	update := bson.M{"$set": bson.M{"bills": []models.Bill{}, "updatedAt": now}}
	if len(outgoing) > 0 {
		update["$push"] = bson.M{"pastBills": outgoing}
	}

	var result models.Building
	err := s.db.Collection(db.BuildingsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": buildingID, "active": true}, update, afterUpdate()).
		Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidBuilding
		}
		return nil, err
	}
	return &result, nil
}
