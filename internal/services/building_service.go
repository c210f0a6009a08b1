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

// IBuildingService defines the interface for building registry operations.
type IBuildingService interface {
	CreateBuilding(ctx context.Context, name, address string, apartmentsCount int) (*models.Building, error)
	FindBuildingByID(ctx context.Context, buildingID primitive.ObjectID) (*models.Building, error)
	ListBuildings(ctx context.Context, requesterID primitive.ObjectID, role models.Role) ([]models.Building, error)
	UpdateBuilding(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, name, address string, apartmentsCount int) (*models.Building, error)
	RemoveBuilding(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role) (*models.Building, error)
	AssignManager(ctx context.Context, buildingID primitive.ObjectID, email string) (*models.Building, error)
	RemoveManager(ctx context.Context, buildingID primitive.ObjectID, email string) (*models.Building, error)
	CreateBill(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, name string, billType models.BillType, value float64) (*models.Building, error)
	RemoveBill(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, billID primitive.ObjectID) (*models.Building, error)
	RequireManaged(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role) (*models.Building, error)
}

// buildingService implements IBuildingService.
type buildingService struct {
	db *mongo.Database
}

// NewBuildingService creates a new BuildingService.
func NewBuildingService(database *mongo.Database) IBuildingService {
	return &buildingService{db: database}
}

func (s *buildingService) collection() *mongo.Collection {
	return s.db.Collection(db.BuildingsCollection)
}

// CreateBuilding registers a new building with no manager and an empty
// bill list.
func (s *buildingService) CreateBuilding(ctx context.Context, name, address string, apartmentsCount int) (*models.Building, error) {
	now := time.Now().UTC()
	building := &models.Building{
		ID:              primitive.NewObjectID(),
		Name:            name,
		Address:         address,
		ApartmentsCount: apartmentsCount,
		Bills:           []models.Bill{},
		PastBills:       [][]models.Bill{},
		PastUserIDs:     []primitive.ObjectID{},
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := s.collection().InsertOne(ctx, building); err != nil {
		return nil, fmt.Errorf("failed to insert building %q: %w", name, err)
	}
	return building, nil
}

func (s *buildingService) FindBuildingByID(ctx context.Context, buildingID primitive.ObjectID) (*models.Building, error) {
	var building models.Building
	err := s.collection().FindOne(ctx, bson.M{"_id": buildingID, "active": true}).Decode(&building)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidBuilding
		}
		return nil, fmt.Errorf("failed to find building %s: %w", buildingID.Hex(), err)
	}
	return &building, nil
}

// RequireManaged loads an active building and verifies the requester
// may administer it: admins must be the assigned manager, super-admins
// may touch any building.
func (s *buildingService) RequireManaged(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role) (*models.Building, error) {
	building, err := s.FindBuildingByID(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleSuperAdmin {
		return building, nil
	}
	if building.UserID == nil || *building.UserID != requesterID {
		return nil, ErrForbidden
	}
	return building, nil
}

// ListBuildings returns the buildings visible to the requester:
// everything for super-admins, managed buildings for admins, and the
// buildings of owned apartments for residents.
func (s *buildingService) ListBuildings(ctx context.Context, requesterID primitive.ObjectID, role models.Role) ([]models.Building, error) {
	filter := bson.M{"active": true}
	switch role {
	case models.RoleAdmin:
		filter["userId"] = requesterID
	case models.RoleNormal:
		apartments := s.db.Collection(db.ApartmentsCollection)
		cursor, err := apartments.Find(ctx, bson.M{"userId": requesterID, "active": true})
		if err != nil {
			return nil, fmt.Errorf("failed to query owned apartments: %w", err)
		}
		var owned []models.Apartment
		if err := cursor.All(ctx, &owned); err != nil {
			return nil, fmt.Errorf("failed to decode owned apartments: %w", err)
		}
		ids := make([]primitive.ObjectID, 0, len(owned))
		seen := make(map[primitive.ObjectID]bool, len(owned))
		for _, apt := range owned {
			if !seen[apt.BuildingID] {
				seen[apt.BuildingID] = true
				ids = append(ids, apt.BuildingID)
			}
		}
		filter["_id"] = bson.M{"$in": ids}
	}

	cursor, err := s.collection().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query buildings: %w", err)
	}
	defer cursor.Close(ctx)

	var buildings []models.Building
	if err := cursor.All(ctx, &buildings); err != nil {
		return nil, fmt.Errorf("failed to decode buildings: %w", err)
	}
	return buildings, nil
}

// UpdateBuilding changes name, address and declared apartment count.
// The count may never drop below the number of existing active
// apartments.
func (s *buildingService) UpdateBuilding(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, name, address string, apartmentsCount int) (*models.Building, error) {
	if _, err := s.RequireManaged(ctx, buildingID, requesterID, role); err != nil {
		return nil, err
	}

	existing, err := s.db.Collection(db.ApartmentsCollection).
		CountDocuments(ctx, bson.M{"buildingId": buildingID, "active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to count apartments of building %s: %w", buildingID.Hex(), err)
	}
	if int64(apartmentsCount) < existing {
		return nil, ErrApartmentsCountTooLow
	}

	update := bson.M{"$set": bson.M{
		"name":            name,
		"address":         address,
		"apartmentsCount": apartmentsCount,
		"updatedAt":       time.Now().UTC(),
	}}
	return s.findOneAndUpdate(ctx, bson.M{"_id": buildingID, "active": true}, update)
}

// RemoveBuilding tombstones a building. The record stays in place.
func (s *buildingService) RemoveBuilding(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role) (*models.Building, error) {
	if _, err := s.RequireManaged(ctx, buildingID, requesterID, role); err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{"active": false, "updatedAt": time.Now().UTC()}}
	return s.findOneAndUpdate(ctx, bson.M{"_id": buildingID, "active": true}, update)
}

// AssignManager puts an admin user in charge of a building. The
// manager slot must be empty.
func (s *buildingService) AssignManager(ctx context.Context, buildingID primitive.ObjectID, email string) (*models.Building, error) {
	var user models.User
	err := s.db.Collection(db.UsersCollection).
		FindOne(ctx, bson.M{"email": email, "active": true}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidUser
		}
		return nil, fmt.Errorf("failed to find user %s: %w", email, err)
	}

	building, err := s.FindBuildingByID(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	if building.UserID != nil {
		return nil, ErrManagerAssigned
	}

	update := bson.M{
		"$set":  bson.M{"userId": user.ID, "updatedAt": time.Now().UTC()},
		"$pull": bson.M{"pastUserIds": user.ID},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": buildingID, "active": true}, update)
}

// RemoveManager detaches the current manager and remembers them in
// pastUserIds.
func (s *buildingService) RemoveManager(ctx context.Context, buildingID primitive.ObjectID, email string) (*models.Building, error) {
	var user models.User
	err := s.db.Collection(db.UsersCollection).
		FindOne(ctx, bson.M{"email": email, "active": true}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidUser
		}
		return nil, fmt.Errorf("failed to find user %s: %w", email, err)
	}

	update := bson.M{
		"$unset":    bson.M{"userId": ""},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
		"$addToSet": bson.M{"pastUserIds": user.ID},
	}
	building, err := s.findOneAndUpdate(ctx, bson.M{"_id": buildingID, "userId": user.ID, "active": true}, update)
	if err != nil {
		if errors.Is(err, ErrInvalidBuilding) {
			return nil, ErrInvalidBuilding
		}
		return nil, err
	}
	return building, nil
}

// CreateBill appends a utility bill to the building's current cycle.
func (s *buildingService) CreateBill(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, name string, billType models.BillType, value float64) (*models.Building, error) {
	if !models.ValidBillType(billType) {
		return nil, ErrInvalidBill
	}
	if _, err := s.RequireManaged(ctx, buildingID, requesterID, role); err != nil {
		return nil, err
	}

	bill := models.Bill{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Type:      billType,
		Value:     value,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	update := bson.M{
		"$push": bson.M{"bills": bill},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": buildingID, "active": true}, update)
}

// RemoveBill tombstones a bill of the current cycle by its ID. The
// entry stays in the array so archived cycles keep their references.
func (s *buildingService) RemoveBill(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, billID primitive.ObjectID) (*models.Building, error) {
	building, err := s.RequireManaged(ctx, buildingID, requesterID, role)
	if err != nil {
		return nil, err
	}

	found := false
	for _, bill := range building.Bills {
		if bill.ID == billID && bill.Active {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrInvalidBill
	}

	update := bson.M{"$set": bson.M{
		"bills.$[b].active": false,
		"updatedAt":         time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"b._id": billID}}})

	var updated models.Building
	err = s.collection().
		FindOneAndUpdate(ctx, bson.M{"_id": buildingID, "active": true}, update, opts).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidBuilding
		}
		return nil, fmt.Errorf("failed to remove bill %s: %w", billID.Hex(), err)
	}
	return &updated, nil
}

func (s *buildingService) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Building, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var building models.Building
	err := s.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&building)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidBuilding
		}
		return nil, fmt.Errorf("failed to update building: %w", err)
	}
	return &building, nil
}
