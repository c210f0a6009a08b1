package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MihaiVoinica/AdminBloc/internal/models"
)

func TestBillingService_GenerateBills_FullCycle(t *testing.T) {
	fx := setupApartmentFixture(t, "testdb_billing_service_cycle", 3)
	billing := NewBillingService(fx.database, fx.buildings)
	ctx := context.Background()

	apt1, err := fx.apartments.CreateApartment(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin,
		ApartmentAttributes{Name: "Ap. 1", Number: 1, PeopleCount: 2, TotalArea: 55, RadiantArea: 40, Share: 40})
	require.NoError(t, err)
	apt2, err := fx.apartments.CreateApartment(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin,
		ApartmentAttributes{Name: "Ap. 2", Number: 2, PeopleCount: 3, TotalArea: 65, RadiantArea: 60, Share: 60})
	require.NoError(t, err)

	addMeterWithReading := func(apt *models.Apartment, value float64) {
		updated, err := fx.apartments.CreateMeter(ctx, apt.ID, fx.admin.ID, models.RoleAdmin, "Apa rece")
		require.NoError(t, err)
		meterID := updated.Meters[len(updated.Meters)-1].ID
		_, err = fx.apartments.UpdateMeter(ctx, apt.ID, fx.admin.ID, models.RoleAdmin, meterID, "", &value)
		require.NoError(t, err)
	}
	addMeterWithReading(apt1, 10)
	addMeterWithReading(apt2, 30)

	for _, b := range []struct {
		name  string
		typ   models.BillType
		value float64
	}{
		{"Curatenie", models.SplitOnPeopleCount, 100},
		{"Lift", models.SplitOnShare, 80},
		{"Incalzire", models.SplitOnRadiant, 200},
		{"Apa", models.SplitOnConsumption, 120},
	} {
		_, err := fx.buildings.CreateBill(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin, b.name, b.typ, b.value)
		require.NoError(t, err)
	}

	run, err := billing.GenerateBills(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin)
	require.NoError(t, err)
	require.NotNil(t, run)

	// The consumed bills move into the building's history.
	assert.Empty(t, run.Building.Bills)
	require.Len(t, run.Building.PastBills, 1)
	assert.Len(t, run.Building.PastBills[0], 4)

	byID := map[string]models.Apartment{}
	for _, apt := range run.Apartments {
		byID[apt.ID.Hex()] = apt
	}
	first := byID[apt1.ID.Hex()]
	second := byID[apt2.ID.Hex()]

	// Curatenie 100 split 2:3, Lift 80 split 40:60,
	// Incalzire 200 split 40:60 radiant, Apa 120 split 10:30.
	require.Len(t, first.Bills, 4)
	require.Len(t, second.Bills, 4)
	assert.InDelta(t, 40+32+80+30, first.CurrentCost, 0.001)
	assert.InDelta(t, 60+48+120+90, second.CurrentCost, 0.001)
	assert.Equal(t, 0.0, first.RemainingCost)
	assert.Equal(t, 0.0, second.RemainingCost)

	// Meters rolled over: reading becomes the next baseline.
	require.Len(t, first.Meters, 1)
	assert.Equal(t, 10.0, first.Meters[0].PrevValue)
	assert.Equal(t, 0.0, first.Meters[0].Value)
	assert.Equal(t, 0.0, first.Meters[0].Consumption)

	// Second cycle: the unpaid current cost becomes outstanding debt.
	_, err = fx.buildings.CreateBill(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin, "Lift", models.SplitOnShare, 100)
	require.NoError(t, err)

	run, err = billing.GenerateBills(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin)
	require.NoError(t, err)

	byID = map[string]models.Apartment{}
	for _, apt := range run.Apartments {
		byID[apt.ID.Hex()] = apt
	}
	first = byID[apt1.ID.Hex()]
	second = byID[apt2.ID.Hex()]

	assert.InDelta(t, 182, first.RemainingCost, 0.001)
	assert.InDelta(t, 40, first.CurrentCost, 0.001)
	assert.InDelta(t, 318, second.RemainingCost, 0.001)
	assert.InDelta(t, 60, second.CurrentCost, 0.001)
	require.Len(t, first.PastBills, 1)
	assert.Len(t, first.PastBills[0], 4)
	assert.Len(t, run.Building.PastBills, 2)
}

func TestBillingService_GenerateBills_ThermalProviderSkipsRadiant(t *testing.T) {
	fx := setupApartmentFixture(t, "testdb_billing_service_thermal", 2)
	billing := NewBillingService(fx.database, fx.buildings)
	ctx := context.Background()

	connected, err := fx.apartments.CreateApartment(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin,
		ApartmentAttributes{Name: "Ap. 1", Number: 1, RadiantArea: 40})
	require.NoError(t, err)
	independent, err := fx.apartments.CreateApartment(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin,
		ApartmentAttributes{Name: "Ap. 2", Number: 2, RadiantArea: 50, ThermalProvider: true})
	require.NoError(t, err)

	_, err = fx.buildings.CreateBill(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin, "Incalzire", models.SplitOnRadiant, 100)
	require.NoError(t, err)

	run, err := billing.GenerateBills(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin)
	require.NoError(t, err)

	for _, apt := range run.Apartments {
		switch apt.ID {
		case connected.ID:
			// The whole bill: the independent apartment is out of the denominator.
			require.Len(t, apt.Bills, 1)
			assert.InDelta(t, 100, apt.CurrentCost, 0.001)
		case independent.ID:
			assert.Empty(t, apt.Bills)
			assert.Equal(t, 0.0, apt.CurrentCost)
		}
	}
}

func TestBillingService_GenerateBills_ArchivesRemovedBills(t *testing.T) {
	fx := setupApartmentFixture(t, "testdb_billing_service_removed", 2)
	billing := NewBillingService(fx.database, fx.buildings)
	ctx := context.Background()

	apt, err := fx.apartments.CreateApartment(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin,
		ApartmentAttributes{Name: "Ap. 1", Number: 1, PeopleCount: 2})
	require.NoError(t, err)

	_, err = fx.buildings.CreateBill(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin, "Curatenie", models.SplitOnPeopleCount, 100)
	require.NoError(t, err)
	withMistake, err := fx.buildings.CreateBill(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin, "Gresit", models.SplitOnPeopleCount, 999)
	require.NoError(t, err)

	mistakeID := withMistake.Bills[len(withMistake.Bills)-1].ID
	_, err = fx.buildings.RemoveBill(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin, mistakeID)
	require.NoError(t, err)

	run, err := billing.GenerateBills(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin)
	require.NoError(t, err)

	// The removed bill allocates nothing...
	byID := map[string]models.Apartment{}
	for _, a := range run.Apartments {
		byID[a.ID.Hex()] = a
	}
	settled := byID[apt.ID.Hex()]
	require.Len(t, settled.Bills, 1)
	assert.InDelta(t, 100, settled.CurrentCost, 0.001)

	// ...but stays in the archived batch for auditing.
	assert.Empty(t, run.Building.Bills)
	require.Len(t, run.Building.PastBills, 1)
	require.Len(t, run.Building.PastBills[0], 2)
	var removed *models.Bill
	for i := range run.Building.PastBills[0] {
		if run.Building.PastBills[0][i].ID == mistakeID {
			removed = &run.Building.PastBills[0][i]
		}
	}
	require.NotNil(t, removed)
	assert.False(t, removed.Active)
}

func TestBillingService_GenerateBills_ZeroDenominatorDropsBill(t *testing.T) {
	fx := setupApartmentFixture(t, "testdb_billing_service_zero", 2)
	billing := NewBillingService(fx.database, fx.buildings)
	ctx := context.Background()

	// No meters anywhere: a consumption bill has nothing to split over.
	_, err := fx.apartments.CreateApartment(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin,
		ApartmentAttributes{Name: "Ap. 1", Number: 1, PeopleCount: 2})
	require.NoError(t, err)

	_, err = fx.buildings.CreateBill(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin, "Apa", models.SplitOnConsumption, 120)
	require.NoError(t, err)

	run, err := billing.GenerateBills(ctx, fx.building.ID, fx.admin.ID, models.RoleAdmin)
	require.NoError(t, err)

	require.Len(t, run.Apartments, 1)
	assert.Empty(t, run.Apartments[0].Bills)
	assert.Equal(t, 0.0, run.Apartments[0].CurrentCost)
	// The bill is still consumed and archived.
	assert.Empty(t, run.Building.Bills)
	require.Len(t, run.Building.PastBills, 1)
}

func TestBillingService_GenerateBills_Unmanaged(t *testing.T) {
	fx := setupApartmentFixture(t, "testdb_billing_service_unmanaged", 1)
	billing := NewBillingService(fx.database, fx.buildings)
	ctx := context.Background()

	outsider := insertActiveUser(t, fx.database, fx.cfg, "Outsider", "outsider@test.local", models.RoleAdmin)
	_, err := billing.GenerateBills(ctx, fx.building.ID, outsider.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)
}
