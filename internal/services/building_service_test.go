package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MihaiVoinica/AdminBloc/internal/models"
)

func TestBuildingService_ManagerAssignment(t *testing.T) {
	database := setupTestDB(t, "testdb_building_service_manager")
	cfg := testServiceConfig()
	svc := NewBuildingService(database)
	ctx := context.Background()

	admin := insertActiveUser(t, database, cfg, "Admin", "admin@test.local", models.RoleAdmin)
	other := insertActiveUser(t, database, cfg, "Other", "other@test.local", models.RoleAdmin)

	building, err := svc.CreateBuilding(ctx, "Bloc A1", "Strada Lunga 10", 4)
	require.NoError(t, err)
	require.Nil(t, building.UserID)

	building, err = svc.AssignManager(ctx, building.ID, admin.Email)
	require.NoError(t, err)
	require.NotNil(t, building.UserID)
	assert.Equal(t, admin.ID, *building.UserID)

	// The slot must be freed before a new assignment.
	_, err = svc.AssignManager(ctx, building.ID, other.Email)
	assert.ErrorIs(t, err, ErrManagerAssigned)

	_, err = svc.AssignManager(ctx, building.ID, "nobody@test.local")
	assert.ErrorIs(t, err, ErrInvalidUser)

	building, err = svc.RemoveManager(ctx, building.ID, admin.Email)
	require.NoError(t, err)
	assert.Nil(t, building.UserID)
	assert.Contains(t, building.PastUserIDs, admin.ID)

	// Removing someone who is not the manager fails.
	_, err = svc.RemoveManager(ctx, building.ID, other.Email)
	assert.ErrorIs(t, err, ErrInvalidBuilding)

	// Re-assignment clears the history entry.
	building, err = svc.AssignManager(ctx, building.ID, admin.Email)
	require.NoError(t, err)
	assert.NotContains(t, building.PastUserIDs, admin.ID)
}

func TestBuildingService_RequireManaged(t *testing.T) {
	database := setupTestDB(t, "testdb_building_service_managed")
	cfg := testServiceConfig()
	svc := NewBuildingService(database)
	ctx := context.Background()

	admin := insertActiveUser(t, database, cfg, "Admin", "admin@test.local", models.RoleAdmin)
	stranger := insertActiveUser(t, database, cfg, "Stranger", "stranger@test.local", models.RoleAdmin)
	super := insertActiveUser(t, database, cfg, "Root", "super@test.local", models.RoleSuperAdmin)

	building, err := svc.CreateBuilding(ctx, "Bloc B2", "Strada Scurta 2", 2)
	require.NoError(t, err)
	_, err = svc.AssignManager(ctx, building.ID, admin.Email)
	require.NoError(t, err)

	_, err = svc.RequireManaged(ctx, building.ID, admin.ID, models.RoleAdmin)
	assert.NoError(t, err)

	_, err = svc.RequireManaged(ctx, building.ID, stranger.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	// Super-admins administer every building.
	_, err = svc.RequireManaged(ctx, building.ID, super.ID, models.RoleSuperAdmin)
	assert.NoError(t, err)
}

func TestBuildingService_Bills(t *testing.T) {
	database := setupTestDB(t, "testdb_building_service_bills")
	cfg := testServiceConfig()
	svc := NewBuildingService(database)
	ctx := context.Background()

	admin := insertActiveUser(t, database, cfg, "Admin", "admin@test.local", models.RoleAdmin)
	building, err := svc.CreateBuilding(ctx, "Bloc C3", "Strada Noua 3", 2)
	require.NoError(t, err)
	_, err = svc.AssignManager(ctx, building.ID, admin.Email)
	require.NoError(t, err)

	_, err = svc.CreateBill(ctx, building.ID, admin.ID, models.RoleAdmin, "Gunoi", "splitOnMoonPhase", 40)
	assert.ErrorIs(t, err, ErrInvalidBill)

	building, err = svc.CreateBill(ctx, building.ID, admin.ID, models.RoleAdmin, "Gunoi", models.SplitOnPeopleCount, 40)
	require.NoError(t, err)
	require.Len(t, building.Bills, 1)
	bill := building.Bills[0]
	assert.True(t, bill.Active)
	assert.Equal(t, 40.0, bill.Value)

	// Removal tombstones the entry, it stays in the array.
	building, err = svc.RemoveBill(ctx, building.ID, admin.ID, models.RoleAdmin, bill.ID)
	require.NoError(t, err)
	require.Len(t, building.Bills, 1)
	assert.False(t, building.Bills[0].Active)
	assert.Empty(t, building.ActiveBills())

	// A tombstoned bill cannot be removed twice.
	_, err = svc.RemoveBill(ctx, building.ID, admin.ID, models.RoleAdmin, bill.ID)
	assert.ErrorIs(t, err, ErrInvalidBill)
}

func TestBuildingService_UpdateBuilding_CountTooLow(t *testing.T) {
	database := setupTestDB(t, "testdb_building_service_count")
	cfg := testServiceConfig()
	svc := NewBuildingService(database)
	apartments := NewApartmentService(database, svc)
	ctx := context.Background()

	admin := insertActiveUser(t, database, cfg, "Admin", "admin@test.local", models.RoleAdmin)
	building, err := svc.CreateBuilding(ctx, "Bloc D4", "Strada Veche 4", 3)
	require.NoError(t, err)
	_, err = svc.AssignManager(ctx, building.ID, admin.Email)
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		_, err = apartments.CreateApartment(ctx, building.ID, admin.ID, models.RoleAdmin, ApartmentAttributes{Name: "Ap", Number: i})
		require.NoError(t, err)
	}

	_, err = svc.UpdateBuilding(ctx, building.ID, admin.ID, models.RoleAdmin, "Bloc D4", "Strada Veche 4", 1)
	assert.ErrorIs(t, err, ErrApartmentsCountTooLow)

	building, err = svc.UpdateBuilding(ctx, building.ID, admin.ID, models.RoleAdmin, "Bloc D4 renovat", "Strada Veche 4A", 2)
	require.NoError(t, err)
	assert.Equal(t, "Bloc D4 renovat", building.Name)
	assert.Equal(t, 2, building.ApartmentsCount)
}

func TestBuildingService_ListBuildings_Visibility(t *testing.T) {
	database := setupTestDB(t, "testdb_building_service_list")
	cfg := testServiceConfig()
	svc := NewBuildingService(database)
	apartments := NewApartmentService(database, svc)
	ctx := context.Background()

	admin := insertActiveUser(t, database, cfg, "Admin", "admin@test.local", models.RoleAdmin)
	super := insertActiveUser(t, database, cfg, "Root", "super@test.local", models.RoleSuperAdmin)
	resident := insertActiveUser(t, database, cfg, "Resident", "resident@test.local", models.RoleNormal)

	managed, err := svc.CreateBuilding(ctx, "Bloc gestionat", "Strada 1", 2)
	require.NoError(t, err)
	_, err = svc.AssignManager(ctx, managed.ID, admin.Email)
	require.NoError(t, err)

	otherBuilding, err := svc.CreateBuilding(ctx, "Bloc strain", "Strada 2", 2)
	require.NoError(t, err)

	apt, err := apartments.CreateApartment(ctx, managed.ID, admin.ID, models.RoleAdmin, ApartmentAttributes{Name: "Ap. 1", Number: 1})
	require.NoError(t, err)
	_, err = apartments.AssignOwner(ctx, apt.ID, admin.ID, models.RoleAdmin, resident.ID)
	require.NoError(t, err)

	all, err := svc.ListBuildings(ctx, super.ID, models.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListBuildings(ctx, admin.ID, models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, managed.ID, mine[0].ID)

	// Residents see the buildings of their owned apartments.
	visible, err := svc.ListBuildings(ctx, resident.ID, models.RoleNormal)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, managed.ID, visible[0].ID)
	assert.NotEqual(t, otherBuilding.ID, visible[0].ID)
}
