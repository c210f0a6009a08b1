package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MihaiVoinica/AdminBloc/internal/models"
	"github.com/MihaiVoinica/AdminBloc/internal/services"
)

// BuildingHandler handles the building registry and the billing cycle.
type BuildingHandler struct {
	buildingService services.IBuildingService
	billingService  services.IBillingService
}

// NewBuildingHandler creates a new BuildingHandler.
func NewBuildingHandler(buildingService services.IBuildingService, billingService services.IBillingService) *BuildingHandler {
	return &BuildingHandler{
		buildingService: buildingService,
		billingService:  billingService,
	}
}

type buildingRequest struct {
	Name            string `json:"name" binding:"required"`
	Address         string `json:"address" binding:"required"`
	ApartmentsCount int    `json:"apartmentsCount" binding:"required,min=1"`
}

// Create handles POST /buildings/create.
func (h *BuildingHandler) Create(c *gin.Context) {
	var req buildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	building, err := h.buildingService.CreateBuilding(c.Request.Context(), req.Name, req.Address, req.ApartmentsCount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"building": building})
}

// List handles GET /buildings/list.
func (h *BuildingHandler) List(c *gin.Context) {
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	buildings, err := h.buildingService.ListBuildings(c.Request.Context(), requesterID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buildings": buildings})
}

// Update handles POST /buildings/update/:buildingId.
func (h *BuildingHandler) Update(c *gin.Context) {
	buildingID, ok := objectIDParam(c, "buildingId")
	if !ok {
		return
	}
	var req buildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	building, err := h.buildingService.UpdateBuilding(c.Request.Context(), buildingID, requesterID, role, req.Name, req.Address, req.ApartmentsCount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"building": building})
}

// Remove handles PATCH /buildings/remove/:buildingId.
func (h *BuildingHandler) Remove(c *gin.Context) {
	buildingID, ok := objectIDParam(c, "buildingId")
	if !ok {
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	building, err := h.buildingService.RemoveBuilding(c.Request.Context(), buildingID, requesterID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"building": building})
}

type managerRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// AssignManager handles PATCH /buildings/assign-manager/:buildingId.
func (h *BuildingHandler) AssignManager(c *gin.Context) {
	buildingID, ok := objectIDParam(c, "buildingId")
	if !ok {
		return
	}
	var req managerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	building, err := h.buildingService.AssignManager(c.Request.Context(), buildingID, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"building": building})
}

// RemoveManager handles PATCH /buildings/remove-manager/:buildingId.
func (h *BuildingHandler) RemoveManager(c *gin.Context) {
	buildingID, ok := objectIDParam(c, "buildingId")
	if !ok {
		return
	}
	var req managerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	building, err := h.buildingService.RemoveManager(c.Request.Context(), buildingID, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"building": building})
}

type billRequest struct {
	Name  string          `json:"name" binding:"required"`
	Type  models.BillType `json:"type" binding:"required"`
	Value float64         `json:"value" binding:"required,gt=0"`
}

// CreateBill handles PATCH /buildings/create-bill/:buildingId.
func (h *BuildingHandler) CreateBill(c *gin.Context) {
	buildingID, ok := objectIDParam(c, "buildingId")
	if !ok {
		return
	}
	var req billRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if !models.ValidBillType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bill type"})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	building, err := h.buildingService.CreateBill(c.Request.Context(), buildingID, requesterID, role, req.Name, req.Type, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"building": building})
}

type removeBillRequest struct {
	BillID string `json:"billId" binding:"required"`
}

// RemoveBill handles PATCH /buildings/remove-bill/:buildingId.
func (h *BuildingHandler) RemoveBill(c *gin.Context) {
	buildingID, ok := objectIDParam(c, "buildingId")
	if !ok {
		return
	}
	var req removeBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	billID, err := parseObjectID(req.BillID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid billId format"})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	building, err := h.buildingService.RemoveBill(c.Request.Context(), buildingID, requesterID, role, billID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"building": building})
}

// GenerateBills handles POST /buildings/generate-bills/:buildingId.
// Runs the allocation cycle for the building.
func (h *BuildingHandler) GenerateBills(c *gin.Context) {
	buildingID, ok := objectIDParam(c, "buildingId")
	if !ok {
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	run, err := h.billingService.GenerateBills(c.Request.Context(), buildingID, requesterID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
