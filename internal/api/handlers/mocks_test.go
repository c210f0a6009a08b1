package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MihaiVoinica/AdminBloc/internal/models"
	"github.com/MihaiVoinica/AdminBloc/internal/services"
)

// --- Mocks ---

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Register(ctx context.Context, requesterRole models.Role, name, email string, role models.Role) (*services.Registration, error) {
	args := m.Called(ctx, requesterRole, name, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Registration), args.Error(1)
}

func (m *MockUserService) ValidateActivationToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockUserService) ActivateUser(ctx context.Context, token, pin, password string) (*models.User, error) {
	args := m.Called(ctx, token, pin, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) EnsureSuperAdmin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockBuildingService
type MockBuildingService struct {
	mock.Mock
}

func (m *MockBuildingService) CreateBuilding(ctx context.Context, name, address string, apartmentsCount int) (*models.Building, error) {
	args := m.Called(ctx, name, address, apartmentsCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Building), args.Error(1)
}

func (m *MockBuildingService) FindBuildingByID(ctx context.Context, buildingID primitive.ObjectID) (*models.Building, error) {
	args := m.Called(ctx, buildingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Building), args.Error(1)
}

func (m *MockBuildingService) ListBuildings(ctx context.Context, requesterID primitive.ObjectID, role models.Role) ([]models.Building, error) {
	args := m.Called(ctx, requesterID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Building), args.Error(1)
}

func (m *MockBuildingService) UpdateBuilding(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, name, address string, apartmentsCount int) (*models.Building, error) {
	args := m.Called(ctx, buildingID, requesterID, role, name, address, apartmentsCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Building), args.Error(1)
}

func (m *MockBuildingService) RemoveBuilding(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role) (*models.Building, error) {
	args := m.Called(ctx, buildingID, requesterID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Building), args.Error(1)
}

func (m *MockBuildingService) AssignManager(ctx context.Context, buildingID primitive.ObjectID, email string) (*models.Building, error) {
	args := m.Called(ctx, buildingID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Building), args.Error(1)
}

func (m *MockBuildingService) RemoveManager(ctx context.Context, buildingID primitive.ObjectID, email string) (*models.Building, error) {
	args := m.Called(ctx, buildingID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Building), args.Error(1)
}

func (m *MockBuildingService) CreateBill(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, name string, billType models.BillType, value float64) (*models.Building, error) {
	args := m.Called(ctx, buildingID, requesterID, role, name, billType, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Building), args.Error(1)
}

func (m *MockBuildingService) RemoveBill(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, billID primitive.ObjectID) (*models.Building, error) {
	args := m.Called(ctx, buildingID, requesterID, role, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Building), args.Error(1)
}

func (m *MockBuildingService) RequireManaged(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role) (*models.Building, error) {
	args := m.Called(ctx, buildingID, requesterID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Building), args.Error(1)
}

// MockBillingService
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) GenerateBills(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role) (*services.BillingRun, error) {
	args := m.Called(ctx, buildingID, requesterID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BillingRun), args.Error(1)
}

// MockApartmentService
type MockApartmentService struct {
	mock.Mock
}

func (m *MockApartmentService) CreateApartment(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, attrs services.ApartmentAttributes) (*models.Apartment, error) {
	args := m.Called(ctx, buildingID, requesterID, role, attrs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Apartment), args.Error(1)
}

func (m *MockApartmentService) FindApartmentByID(ctx context.Context, apartmentID primitive.ObjectID) (*models.Apartment, error) {
	args := m.Called(ctx, apartmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Apartment), args.Error(1)
}

func (m *MockApartmentService) ListApartments(ctx context.Context, requesterID primitive.ObjectID, role models.Role, buildingID *primitive.ObjectID) ([]models.Apartment, error) {
	args := m.Called(ctx, requesterID, role, buildingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Apartment), args.Error(1)
}

func (m *MockApartmentService) UpdateApartment(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, attrs services.ApartmentAttributes) (*models.Apartment, error) {
	args := m.Called(ctx, apartmentID, requesterID, role, attrs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Apartment), args.Error(1)
}

func (m *MockApartmentService) RemoveApartment(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role) (*models.Apartment, error) {
	args := m.Called(ctx, apartmentID, requesterID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Apartment), args.Error(1)
}

func (m *MockApartmentService) AssignOwner(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, ownerID primitive.ObjectID) (*models.Apartment, error) {
	args := m.Called(ctx, apartmentID, requesterID, role, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Apartment), args.Error(1)
}

func (m *MockApartmentService) RemoveOwner(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, ownerID primitive.ObjectID) (*models.Apartment, error) {
	args := m.Called(ctx, apartmentID, requesterID, role, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Apartment), args.Error(1)
}

func (m *MockApartmentService) CreateMeter(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, name string) (*models.Apartment, error) {
	args := m.Called(ctx, apartmentID, requesterID, role, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Apartment), args.Error(1)
}

func (m *MockApartmentService) UpdateMeter(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, meterID primitive.ObjectID, name string, value *float64) (*models.Apartment, error) {
	args := m.Called(ctx, apartmentID, requesterID, role, meterID, name, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Apartment), args.Error(1)
}

func (m *MockApartmentService) RemoveMeter(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, meterID primitive.ObjectID) (*models.Apartment, error) {
	args := m.Called(ctx, apartmentID, requesterID, role, meterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Apartment), args.Error(1)
}

func (m *MockApartmentService) AddPayment(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, amount float64) (*models.Apartment, error) {
	args := m.Called(ctx, apartmentID, requesterID, role, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Apartment), args.Error(1)
}

// MockFileService
type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) ListFiles(ctx context.Context, requesterID primitive.ObjectID, role models.Role) ([]models.FileListing, error) {
	args := m.Called(ctx, requesterID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FileListing), args.Error(1)
}

func (m *MockFileService) CreateFile(ctx context.Context, buildingID, requesterID primitive.ObjectID, role models.Role, name, originalName, contentType string) (*services.FileUpload, error) {
	args := m.Called(ctx, buildingID, requesterID, role, name, originalName, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FileUpload), args.Error(1)
}

func (m *MockFileService) DownloadURL(ctx context.Context, fileID, requesterID primitive.ObjectID, role models.Role) (string, error) {
	args := m.Called(ctx, fileID, requesterID, role)
	return args.String(0), args.Error(1)
}

func (m *MockFileService) RemoveFile(ctx context.Context, fileID, requesterID primitive.ObjectID, role models.Role) (*models.File, error) {
	args := m.Called(ctx, fileID, requesterID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.File), args.Error(1)
}

// MockTicketService
type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) ListTickets(ctx context.Context, requesterID primitive.ObjectID, role models.Role) ([]models.TicketListing, error) {
	args := m.Called(ctx, requesterID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TicketListing), args.Error(1)
}

func (m *MockTicketService) CreateTicket(ctx context.Context, apartmentID, requesterID primitive.ObjectID, role models.Role, name, comment string) (*models.Ticket, error) {
	args := m.Called(ctx, apartmentID, requesterID, role, name, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketService) ConfirmTicket(ctx context.Context, ticketID, requesterID primitive.ObjectID, role models.Role) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID, requesterID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketService) ResolveTicket(ctx context.Context, ticketID, requesterID primitive.ObjectID, role models.Role) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID, requesterID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketService) RemoveTicket(ctx context.Context, ticketID, requesterID primitive.ObjectID, role models.Role) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID, requesterID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

// MockEnqueuer
type MockEnqueuer struct {
	mock.Mock
}

// asynqTaskInfo is a shared zero TaskInfo for mock returns.
var asynqTaskInfo asynq.TaskInfo

func (m *MockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
