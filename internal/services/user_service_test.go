package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MihaiVoinica/AdminBloc/internal/config"
	"github.com/MihaiVoinica/AdminBloc/internal/db"
	"github.com/MihaiVoinica/AdminBloc/internal/models"
)

var testMongoURI = os.Getenv("MONGO_URI_TEST")

// setupTestDB connects to the test MongoDB instance and hands back a
// dropped-clean database. Tests are skipped when MONGO_URI_TEST is not
// set. The database is dropped again on cleanup.
func setupTestDB(t *testing.T, dbName string) *mongo.Database {
	t.Helper()
	if testMongoURI == "" {
		t.Skip("MONGO_URI_TEST not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(testMongoURI))
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := client.Database(dbName)
	if err := database.Drop(ctx); err != nil {
		t.Fatalf("Failed to drop test database: %v", err)
	}
	if err := db.EnsureIndexes(ctx, database); err != nil {
		t.Fatalf("Failed to ensure indexes: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return database
}

func testServiceConfig() *config.Config {
	return &config.Config{
		ActivationTokenLength: 20,
		ActivationPinLength:   6,
		SuperAdminName:        "Root",
		SuperAdminEmail:       "root@test.local",
		SuperAdminPassword:    "RootP@ssw0rd",
		AppName:               "AdminBloc",
	}
}

func TestUserService_RegisterAndActivate(t *testing.T) {
	database := setupTestDB(t, "testdb_user_service_activate")
	svc := NewUserService(database, testServiceConfig())
	ctx := context.Background()

	reg, err := svc.Register(ctx, models.RoleSuperAdmin, "Ion Popescu", "ion@test.local", models.RoleAdmin)
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.True(t, reg.User.Blocked)
	assert.Len(t, reg.Token, 20)
	assert.Len(t, reg.Pin, 6)

	// Pending accounts cannot log in.
	_, err = svc.Login(ctx, "ion@test.local", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ValidateActivationToken(ctx, reg.Token))
	assert.ErrorIs(t, svc.ValidateActivationToken(ctx, "bogus-token"), ErrInvalidToken)

	// A wrong PIN leaves the account blocked.
	_, err = svc.ActivateUser(ctx, reg.Token, "000000x", "NewP@ssw0rd1")
	assert.ErrorIs(t, err, ErrInvalidUser)

	_, err = svc.ActivateUser(ctx, reg.Token, reg.Pin, "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	user, err := svc.ActivateUser(ctx, reg.Token, reg.Pin, "NewP@ssw0rd1")
	require.NoError(t, err)
	assert.False(t, user.Blocked)
	assert.Equal(t, models.RoleAdmin, user.Role)

	// The token is single use.
	assert.ErrorIs(t, svc.ValidateActivationToken(ctx, reg.Token), ErrInvalidToken)

	logged, err := svc.Login(ctx, "ion@test.local", "NewP@ssw0rd1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = svc.Login(ctx, "ion@test.local", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_Register_RoleChain(t *testing.T) {
	database := setupTestDB(t, "testdb_user_service_roles")
	svc := NewUserService(database, testServiceConfig())
	ctx := context.Background()

	// Admins only create residents.
	_, err := svc.Register(ctx, models.RoleAdmin, "Peer", "peer@test.local", models.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	// Residents create nobody.
	_, err = svc.Register(ctx, models.RoleNormal, "X", "x@test.local", models.RoleNormal)
	assert.ErrorIs(t, err, ErrForbidden)

	// An empty role defaults to the first creatable one.
	reg, err := svc.Register(ctx, models.RoleAdmin, "Resident", "resident@test.local", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleNormal, reg.User.Role)

	reg, err = svc.Register(ctx, models.RoleSuperAdmin, "New Admin", "newadmin@test.local", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, reg.User.Role)
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	database := setupTestDB(t, "testdb_user_service_dup")
	svc := NewUserService(database, testServiceConfig())
	ctx := context.Background()

	_, err := svc.Register(ctx, models.RoleSuperAdmin, "First", "taken@test.local", models.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Register(ctx, models.RoleSuperAdmin, "Second", "taken@test.local", models.RoleAdmin)
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestUserService_ActivationTokenUnique(t *testing.T) {
	database := setupTestDB(t, "testdb_user_service_token")
	ctx := context.Background()
	users := database.Collection(db.UsersCollection)

	// Two pending accounts can never share an activation token; the
	// register path regenerates and retries on this duplicate-key error.
	_, err := users.InsertOne(ctx, bson.M{"email": "a@test.local", "activationToken": "SAMETOKEN", "blocked": true, "active": true})
	require.NoError(t, err)
	_, err = users.InsertOne(ctx, bson.M{"email": "b@test.local", "activationToken": "SAMETOKEN", "blocked": true, "active": true})
	require.Error(t, err)
	assert.True(t, db.IsMongoDuplicateKeyError(err))

	// Activated accounts have the token unset; the partial index lets
	// any number of them coexist.
	_, err = users.InsertOne(ctx, bson.M{"email": "c@test.local", "active": true})
	require.NoError(t, err)
	_, err = users.InsertOne(ctx, bson.M{"email": "d@test.local", "active": true})
	require.NoError(t, err)
}

func TestUserService_EnsureSuperAdmin(t *testing.T) {
	database := setupTestDB(t, "testdb_user_service_bootstrap")
	cfg := testServiceConfig()
	svc := NewUserService(database, cfg)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSuperAdmin(ctx))

	root, err := svc.Login(ctx, cfg.SuperAdminEmail, cfg.SuperAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, root.Role)

	// A second call is a no-op.
	require.NoError(t, svc.EnsureSuperAdmin(ctx))
	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_EnsureSuperAdmin_NoCredentials(t *testing.T) {
	database := setupTestDB(t, "testdb_user_service_nocreds")
	cfg := testServiceConfig()
	cfg.SuperAdminEmail = ""
	cfg.SuperAdminPassword = ""
	svc := NewUserService(database, cfg)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSuperAdmin(ctx))
	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

// insertActiveUser creates an already activated account directly, used
// as a fixture by the building and apartment tests.
func insertActiveUser(t *testing.T, database *mongo.Database, cfg *config.Config, name, email string, role models.Role) *models.User {
	t.Helper()
	ctx := context.Background()
	svc := NewUserService(database, cfg)

	requesterRole := models.RoleSuperAdmin
	if role == models.RoleNormal {
		requesterRole = models.RoleAdmin
	}
	reg, err := svc.Register(ctx, requesterRole, name, email, role)
	require.NoError(t, err)
	user, err := svc.ActivateUser(ctx, reg.Token, reg.Pin, "FixtureP@ss1")
	require.NoError(t, err)
	return user
}
