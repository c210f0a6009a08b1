package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MihaiVoinica/AdminBloc/internal/db"
	"github.com/MihaiVoinica/AdminBloc/internal/models"
)

// ApartmentAttributes carries the structural fields set on create and
// update.
type ApartmentAttributes struct {
	Name            string
	Number          int
	PeopleCount     int
	TotalArea       float64
	RadiantArea     float64
	Share           float64
	ThermalProvider bool
}

// IApartmentService defines the interface for apartment registry operations.
type IApartmentService interface {
	CreateApartment(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, attrs ApartmentAttributes) (*models.Apartment, error)
	FindApartmentByID(ctx context.Context, apartmentID primitive.ObjectID) (*models.Apartment, error)
	ListApartments(ctx context.Context, requesterID primitive.ObjectID, role models.Role, buildingID *primitive.ObjectID) ([]models.Apartment, error)
	UpdateApartment(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, attrs ApartmentAttributes) (*models.Apartment, error)
	RemoveApartment(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role) (*models.Apartment, error)
	AssignOwner(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, ownerID primitive.ObjectID) (*models.Apartment, error)
	RemoveOwner(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, ownerID primitive.ObjectID) (*models.Apartment, error)
	CreateMeter(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, name string) (*models.Apartment, error)
	UpdateMeter(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, meterID primitive.ObjectID, name string, value *float64) (*models.Apartment, error)
	RemoveMeter(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, meterID primitive.ObjectID) (*models.Apartment, error)
	AddPayment(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, amount float64) (*models.Apartment, error)
}

// apartmentService implements IApartmentService.
type apartmentService struct {
	db        *mongo.Database
	buildings IBuildingService
}

// NewApartmentService creates a new ApartmentService.
func NewApartmentService(database *mongo.Database, buildings IBuildingService) IApartmentService {
	return &apartmentService{db: database, buildings: buildings}
}

func (s *apartmentService) collection() *mongo.Collection {
	return s.db.Collection(db.ApartmentsCollection)
}

// CreateApartment registers an apartment in a managed building. The
// building's declared capacity is a hard ceiling.
func (s *apartmentService) CreateApartment(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, attrs ApartmentAttributes) (*models.Apartment, error) {
	building, err := s.buildings.RequireManaged(ctx, buildingID, requesterID, role)
	if err != nil {
		return nil, err
	}

	existing, err := s.collection().CountDocuments(ctx, bson.M{"buildingId": buildingID, "active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to count apartments of building %s: %w", buildingID.Hex(), err)
	}
	if existing >= int64(building.ApartmentsCount) {
		return nil, ErrApartmentsLimit
	}

	now := time.Now().UTC()
	apartment := &models.Apartment{
		ID:              primitive.NewObjectID(),
		BuildingID:      buildingID,
		Name:            attrs.Name,
		Number:          attrs.Number,
		PeopleCount:     attrs.PeopleCount,
		TotalArea:       attrs.TotalArea,
		RadiantArea:     attrs.RadiantArea,
		Share:           attrs.Share,
		ThermalProvider: attrs.ThermalProvider,
		Meters:          []models.Meter{},
		Bills:           []models.Bill{},
		PastBills:       [][]models.Bill{},
		Payments:        []float64{},
		PastUserIDs:     []primitive.ObjectID{},
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := s.collection().InsertOne(ctx, apartment); err != nil {
		return nil, fmt.Errorf("failed to insert apartment %q: %w", attrs.Name, err)
	}
	return apartment, nil
}

func (s *apartmentService) FindApartmentByID(ctx context.Context, apartmentID primitive.ObjectID) (*models.Apartment, error) {
	var apartment models.Apartment
	err := s.collection().FindOne(ctx, bson.M{"_id": apartmentID, "active": true}).Decode(&apartment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidApartment
		}
		return nil, fmt.Errorf("failed to find apartment %s: %w", apartmentID.Hex(), err)
	}
	return &apartment, nil
}

// ListApartments returns the apartments visible to the requester,
// optionally narrowed to one building. Residents see owned apartments,
// admins the apartments of managed buildings, super-admins everything.
func (s *apartmentService) ListApartments(ctx context.Context, requesterID primitive.ObjectID, role models.Role, buildingID *primitive.ObjectID) ([]models.Apartment, error) {
	filter := bson.M{"active": true}
	if buildingID != nil {
		filter["buildingId"] = *buildingID
	}

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
		if buildingID == nil {
			filter["buildingId"] = bson.M{"$in": ids}
		} else {
			found := false
			for _, id := range ids {
				if id == *buildingID {
					found = true
					break
				}
			}
			if !found {
				return nil, ErrForbidden
			}
		}
	}

	cursor, err := s.collection().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query apartments: %w", err)
	}
	defer cursor.Close(ctx)

	var apartments []models.Apartment
	if err := cursor.All(ctx, &apartments); err != nil {
		return nil, fmt.Errorf("failed to decode apartments: %w", err)
	}
	return apartments, nil
}

// requireAdministered loads an apartment and verifies the requester
// administers its building.
func (s *apartmentService) requireAdministered(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role) (*models.Apartment, error) {
	apartment, err := s.FindApartmentByID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.buildings.RequireManaged(ctx, apartment.BuildingID, requesterID, role); err != nil {
		return nil, err
	}
	return apartment, nil
}

// UpdateApartment changes the structural attributes used by cost
// allocation.
func (s *apartmentService) UpdateApartment(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, attrs ApartmentAttributes) (*models.Apartment, error) {
	if _, err := s.requireAdministered(ctx, apartmentID, requesterID, role); err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{
		"name":            attrs.Name,
		"number":          attrs.Number,
		"peopleCount":     attrs.PeopleCount,
		"totalArea":       attrs.TotalArea,
		"radiantArea":     attrs.RadiantArea,
		"share":           attrs.Share,
		"thermalProvider": attrs.ThermalProvider,
		"updatedAt":       time.Now().UTC(),
	}}
	return s.findOneAndUpdate(ctx, bson.M{"_id": apartmentID, "active": true}, update, nil)
}

// RemoveApartment tombstones an apartment.
func (s *apartmentService) RemoveApartment(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role) (*models.Apartment, error) {
	if _, err := s.requireAdministered(ctx, apartmentID, requesterID, role); err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{"active": false, "updatedAt": time.Now().UTC()}}
	return s.findOneAndUpdate(ctx, bson.M{"_id": apartmentID, "active": true}, update, nil)
}

// AssignOwner links a resident to an apartment. The owner slot must be
// empty.
func (s *apartmentService) AssignOwner(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, ownerID primitive.ObjectID) (*models.Apartment, error) {
	apartment, err := s.requireAdministered(ctx, apartmentID, requesterID, role)
	if err != nil {
		return nil, err
	}
	if apartment.UserID != nil {
		return nil, ErrOwnerAssigned
	}
	update := bson.M{
		"$set":  bson.M{"userId": ownerID, "updatedAt": time.Now().UTC()},
		"$pull": bson.M{"pastUserIds": ownerID},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": apartmentID, "active": true}, update, nil)
}

// RemoveOwner detaches the current owner and remembers them in
// pastUserIds.
func (s *apartmentService) RemoveOwner(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, ownerID primitive.ObjectID) (*models.Apartment, error) {
	if _, err := s.requireAdministered(ctx, apartmentID, requesterID, role); err != nil {
		return nil, err
	}
	update := bson.M{
		"$unset":    bson.M{"userId": ""},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
		"$addToSet": bson.M{"pastUserIds": ownerID},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": apartmentID, "userId": ownerID, "active": true}, update, nil)
}

// CreateMeter attaches a new zeroed meter to an apartment.
func (s *apartmentService) CreateMeter(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, name string) (*models.Apartment, error) {
	if _, err := s.requireAdministered(ctx, apartmentID, requesterID, role); err != nil {
		return nil, err
	}
	meter := models.Meter{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	update := bson.M{
		"$push": bson.M{"meters": meter},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": apartmentID, "active": true}, update, nil)
}

// UpdateMeter renames a meter and/or submits a new reading. Residents
// may submit readings for their own apartment; a reading below the
// current one is rejected. Consumption is always value - prevValue.
func (s *apartmentService) UpdateMeter(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, meterID primitive.ObjectID, name string, value *float64) (*models.Apartment, error) {
	var apartment *models.Apartment
	var err error
	if role == models.RoleNormal {
		apartment, err = s.FindApartmentByID(ctx, apartmentID)
		if err != nil {
			return nil, err
		}
		if apartment.UserID == nil || *apartment.UserID != requesterID {
			return nil, ErrForbidden
		}
	} else {
		apartment, err = s.requireAdministered(ctx, apartmentID, requesterID, role)
		if err != nil {
			return nil, err
		}
	}

	var meter *models.Meter
	for i := range apartment.Meters {
		if apartment.Meters[i].ID == meterID && apartment.Meters[i].Active {
			meter = &apartment.Meters[i]
			break
		}
	}
	if meter == nil {
		return nil, ErrInvalidMeter
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if name != "" {
		set["meters.$[m].name"] = name
	}
	if value != nil {
		if *value < meter.Value {
			return nil, ErrMeterReadingDecreased
		}
		prevValue := meter.Value
		set["meters.$[m].value"] = *value
		set["meters.$[m].prevValue"] = prevValue
		set["meters.$[m].consumption"] = *value - prevValue
	}

	arrayFilters := &options.ArrayFilters{Filters: []interface{}{bson.M{"m._id": meterID}}}
	return s.findOneAndUpdate(ctx, bson.M{"_id": apartmentID, "active": true}, bson.M{"$set": set}, arrayFilters)
}

// RemoveMeter tombstones a meter by its ID.
func (s *apartmentService) RemoveMeter(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, meterID primitive.ObjectID) (*models.Apartment, error) {
	apartment, err := s.requireAdministered(ctx, apartmentID, requesterID, role)
	if err != nil {
		return nil, err
	}

	found := false
	for _, m := range apartment.Meters {
		if m.ID == meterID && m.Active {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrInvalidMeter
	}

	update := bson.M{"$set": bson.M{
		"meters.$[m].active": false,
		"updatedAt":          time.Now().UTC(),
	}}
	arrayFilters := &options.ArrayFilters{Filters: []interface{}{bson.M{"m._id": meterID}}}
	return s.findOneAndUpdate(ctx, bson.M{"_id": apartmentID, "active": true}, update, arrayFilters)
}

// AddPayment records a payment against the apartment's running
// balance. A bare total, no gateway involved.
func (s *apartmentService) AddPayment(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, amount float64) (*models.Apartment, error) {
	if _, err := s.requireAdministered(ctx, apartmentID, requesterID, role); err != nil {
		return nil, err
	}
	update := bson.M{
		"$push": bson.M{"payments": amount},
		"$inc":  bson.M{"remainingCost": -amount},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": apartmentID, "active": true}, update, nil)
}

func (s *apartmentService) findOneAndUpdate(ctx context.Context, filter, update bson.M, arrayFilters *options.ArrayFilters) (*models.Apartment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if arrayFilters != nil {
		opts = opts.SetArrayFilters(*arrayFilters)
	}
	var apartment models.Apartment
	err := s.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&apartment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidApartment
		}
		return nil, fmt.Errorf("failed to update apartment: %w", err)
	}
	return &apartment, nil
}
