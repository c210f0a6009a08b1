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
	"github.com/MihaiVoinica/AdminBloc/internal/storage"
)

// FileUpload is the outcome of registering a document: the metadata
// record plus the pre-signed URL the client PUTs the content to.
type FileUpload struct {
	File      *models.File `json:"file"`
	UploadURL string       `json:"uploadUrl"`
}

// IFileService defines the interface for building-document operations.
type IFileService interface {
	ListFiles(ctx context.Context, requesterID primitive.ObjectID, role models.Role) ([]models.FileListing, error)
	CreateFile(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, name, originalName, contentType string) (*FileUpload, error)
	DownloadURL(ctx context.Context, fileID, requesterID primitive.ObjectID, role models.Role) (string, error)
	RemoveFile(ctx context.Context, fileID, requesterID primitive.ObjectID, role models.Role) (*models.File, error)
}

// fileService implements IFileService.
type fileService struct {
	db        *mongo.Database
	buildings IBuildingService
	users     IUserService
	storage   storage.IS3Storage
}

// NewFileService creates a new FileService.
func NewFileService(database *mongo.Database, buildings IBuildingService, users IUserService, s3 storage.IS3Storage) IFileService {
	return &fileService{db: database, buildings: buildings, users: users, storage: s3}
}

func (s *fileService) collection() *mongo.Collection {
	return s.db.Collection(db.FilesCollection)
}

// ListFiles returns the documents visible to the requester, decorated
// with the uploader's email and the building name. Residents see the
// documents of buildings where they own an apartment, admins the
// documents of managed buildings.
func (s *fileService) ListFiles(ctx context.Context, requesterID primitive.ObjectID, role models.Role) ([]models.FileListing, error) {
	buildings, err := s.buildings.ListBuildings(ctx, requesterID, role)
	if err != nil {
		return nil, err
	}
	buildingNames := make(map[primitive.ObjectID]string, len(buildings))
	ids := make([]primitive.ObjectID, 0, len(buildings))
	for _, b := range buildings {
		buildingNames[b.ID] = b.Name
		ids = append(ids, b.ID)
	}

	filter := bson.M{"active": true}
	if role != models.RoleSuperAdmin {
		filter["buildingId"] = bson.M{"$in": ids}
	}

	cursor, err := s.collection().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}

	userEmails := make(map[primitive.ObjectID]string)
	listings := make([]models.FileListing, 0, len(files))
	for _, f := range files {
		email, ok := userEmails[f.UserID]
		if !ok {
			if u, err := s.users.FindByID(ctx, f.UserID); err == nil {
				email = u.Email
			}
			userEmails[f.UserID] = email
		}
		name, ok := buildingNames[f.BuildingID]
		if !ok {
			if b, err := s.buildings.FindBuildingByID(ctx, f.BuildingID); err == nil {
				name = b.Name
			}
			buildingNames[f.BuildingID] = name
		}
		listings = append(listings, models.FileListing{File: f, UserEmail: email, BuildingName: name})
	}
	return listings, nil
}

// CreateFile registers a document for a managed building and hands
// back a pre-signed upload URL. The record is inserted before the
// upload happens; a client that never PUTs leaves a dangling key,
// which RemoveFile cleans up.
func (s *fileService) CreateFile(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, name, originalName, contentType string) (*FileUpload, error) {
	if _, err := s.buildings.RequireManaged(ctx, buildingID, requesterID, role); err != nil {
		return nil, err
	}

	uploadURL, objectKey, err := s.storage.GeneratePresignedPutURL(ctx, buildingID.Hex(), originalName, contentType)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	file := &models.File{
		ID:           primitive.NewObjectID(),
		UserID:       requesterID,
		BuildingID:   buildingID,
		Name:         name,
		OriginalName: originalName,
		ObjectKey:    objectKey,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.collection().InsertOne(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to insert file %q: %w", name, err)
	}
	return &FileUpload{File: file, UploadURL: uploadURL}, nil
}

func (s *fileService) findFileByID(ctx context.Context, fileID primitive.ObjectID) (*models.File, error) {
	var file models.File
	err := s.collection().FindOne(ctx, bson.M{"_id": fileID, "active": true}).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidFile
		}
		return nil, fmt.Errorf("failed to find file %s: %w", fileID.Hex(), err)
	}
	return &file, nil
}

// requireVisible checks the requester can see the file's building:
// residents through an owned apartment, admins through management.
func (s *fileService) requireVisible(ctx context.Context, file *models.File, requesterID primitive.ObjectID, role models.Role) error {
	if role == models.RoleSuperAdmin {
		return nil
	}
	buildings, err := s.buildings.ListBuildings(ctx, requesterID, role)
	if err != nil {
		return err
	}
	for _, b := range buildings {
		if b.ID == file.BuildingID {
			return nil
		}
	}
	return ErrForbidden
}

// DownloadURL returns a short-lived pre-signed GET URL for a document
// the requester is allowed to see.
func (s *fileService) DownloadURL(ctx context.Context, fileID, requesterID primitive.ObjectID, role models.Role) (string, error) {
	file, err := s.findFileByID(ctx, fileID)
	if err != nil {
		return "", err
	}
	if err := s.requireVisible(ctx, file, requesterID, role); err != nil {
		return "", err
	}
	return s.storage.GeneratePresignedGetURL(ctx, file.ObjectKey)
}

// RemoveFile tombstones the record and deletes the stored object. A
// failed S3 delete does not resurrect the record.
func (s *fileService) RemoveFile(ctx context.Context, fileID, requesterID primitive.ObjectID, role models.Role) (*models.File, error) {
	file, err := s.findFileByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := s.buildings.RequireManaged(ctx, file.BuildingID, requesterID, role); err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{"active": false, "updatedAt": time.Now().UTC()}}
	var removed models.File
	err = s.collection().
		FindOneAndUpdate(ctx, bson.M{"_id": fileID, "active": true}, update, afterUpdate()).
		Decode(&removed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidFile
		}
		return nil, fmt.Errorf("failed to remove file %s: %w", fileID.Hex(), err)
	}

	if err := s.storage.DeleteObject(ctx, removed.ObjectKey); err != nil {
		return &removed, err
	}
	return &removed, nil
}
