package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MihaiVoinica/AdminBloc/internal/auth"
	"github.com/MihaiVoinica/AdminBloc/internal/config"
	"github.com/MihaiVoinica/AdminBloc/internal/db"
	"github.com/MihaiVoinica/AdminBloc/internal/models"
)

// Registration holds the artifacts of a freshly registered, still
// blocked account. Token and PIN go out by email; they are never
// returned over the API.
type Registration struct {
	User  *models.User
	Token string
	Pin   string
}

// IUserService defines the interface for account operations.
type IUserService interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Register(ctx context.Context, requesterRole models.Role, name, email string, role models.Role) (*Registration, error)
	ValidateActivationToken(ctx context.Context, token string) error
	ActivateUser(ctx context.Context, token, pin, password string) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	EnsureSuperAdmin(ctx context.Context) error
}

// userService implements IUserService.
type userService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewUserService creates a new UserService.
func NewUserService(database *mongo.Database, cfg *config.Config) IUserService {
	return &userService{db: database, cfg: cfg}
}

// Login verifies the credentials of an active, unblocked account.
func (s *userService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Blocked || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Register creates a blocked account with an activation token and PIN.
// The requester may only create the roles its own role allows:
// super-admins create building admins, admins create residents.
func (s *userService) Register(ctx context.Context, requesterRole models.Role, name, email string, role models.Role) (*Registration, error) {
	creatable := models.CanCreateRoles[requesterRole]
	if len(creatable) == 0 {
		return nil, ErrForbidden
	}
	if role == "" {
		role = creatable[0]
	}
	allowed := false
	for _, r := range creatable {
		if r == role {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Role:      role,
		Blocked:   true,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Tokens are random and unique-indexed; a collision regenerates the
	// token and retries the insert.
	collection := s.db.Collection(db.UsersCollection)
	err := db.Try(func() error {
		token, err := auth.NewActivationToken(s.cfg.ActivationTokenLength)
		if err != nil {
			return err
		}
		pin, err := auth.NewActivationPin(s.cfg.ActivationPinLength)
		if err != nil {
			return err
		}
		user.ActivationToken = token
		user.ActivationPin = pin
		_, err = collection.InsertOne(ctx, user)
		return err
	})
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("failed to insert user %s: %w", email, err)
	}

	return &Registration{User: user, Token: user.ActivationToken, Pin: user.ActivationPin}, nil
}

// ValidateActivationToken checks that a token belongs to a pending account.
func (s *userService) ValidateActivationToken(ctx context.Context, token string) error {
	collection := s.db.Collection(db.UsersCollection)
	err := collection.FindOne(ctx, bson.M{"activationToken": token, "blocked": true}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to look up activation token: %w", err)
	}
	return nil
}

// ActivateUser sets the password of a pending account and unblocks it.
// Token and PIN must both match.
func (s *userService) ActivateUser(ctx context.Context, token, pin, password string) (*models.User, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	collection := s.db.Collection(db.UsersCollection)
	filter := bson.M{"activationToken": token, "activationPin": pin, "blocked": true}
	update := bson.M{
		"$set":   bson.M{"password": hash, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"activationToken": "", "activationPin": "", "blocked": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	if err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidUser
		}
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}
	return &user, nil
}

func (s *userService) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.db.Collection(db.UsersCollection).
		FindOne(ctx, bson.M{"_id": userID, "active": true}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.Collection(db.UsersCollection).
		FindOne(ctx, bson.M{"email": email, "active": true}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every active account. Super-admin only; the role
// gate lives in the routing layer.
func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := s.db.Collection(db.UsersCollection).Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// EnsureSuperAdmin bootstraps the first super-admin account when the
// users collection is empty. Credentials come from configuration; the
// call is a no-op when any user exists or no credentials are set.
func (s *userService) EnsureSuperAdmin(ctx context.Context) error {
	collection := s.db.Collection(db.UsersCollection)
	count, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	if s.cfg.SuperAdminEmail == "" || s.cfg.SuperAdminPassword == "" {
		log.Println("Users collection is empty but no super-admin credentials configured, skipping bootstrap")
		return nil
	}

	hash, err := auth.HashPassword(s.cfg.SuperAdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         s.cfg.SuperAdminName,
		Email:        s.cfg.SuperAdminEmail,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := collection.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to create super-admin: %w", err)
	}
	log.Printf("Created bootstrap super-admin {%s}", user.ID.Hex())
	return nil
}
