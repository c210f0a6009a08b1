package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MihaiVoinica/AdminBloc/internal/services"
)

// ApartmentHandler handles the apartment registry, meters and
// payments.
type ApartmentHandler struct {
	apartmentService services.IApartmentService
}

// NewApartmentHandler creates a new ApartmentHandler.
func NewApartmentHandler(apartmentService services.IApartmentService) *ApartmentHandler {
	return &ApartmentHandler{apartmentService: apartmentService}
}

type apartmentRequest struct {
	BuildingID      string  `json:"buildingId,omitempty"`
	Name            string  `json:"name" binding:"required"`
	Number          int     `json:"number" binding:"required,min=1"`
	PeopleCount     int     `json:"peopleCount" binding:"min=0"`
	TotalArea       float64 `json:"totalArea" binding:"min=0"`
	RadiantArea     float64 `json:"radiantArea" binding:"min=0"`
	Share           float64 `json:"share" binding:"min=0"`
	ThermalProvider bool    `json:"thermalProvider"`
}

func (r *apartmentRequest) attributes() services.ApartmentAttributes {
	return services.ApartmentAttributes{
		Name:            r.Name,
		Number:          r.Number,
		PeopleCount:     r.PeopleCount,
		TotalArea:       r.TotalArea,
		RadiantArea:     r.RadiantArea,
		Share:           r.Share,
		ThermalProvider: r.ThermalProvider,
	}
}

// Create handles POST /apartments/create.
func (h *ApartmentHandler) Create(c *gin.Context) {
	var req apartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	buildingID, err := parseObjectID(req.BuildingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid buildingId format"})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	apartment, err := h.apartmentService.CreateApartment(c.Request.Context(), buildingID, requesterID, role, req.attributes())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"apartment": apartment})
}

// List handles GET /apartments/list. An optional buildingId query
// narrows the result.
func (h *ApartmentHandler) List(c *gin.Context) {
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	var buildingID *primitive.ObjectID
	if hex := c.Query("buildingId"); hex != "" {
		id, err := parseObjectID(hex)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid buildingId format"})
			return
		}
		buildingID = &id
	}

	apartments, err := h.apartmentService.ListApartments(c.Request.Context(), requesterID, role, buildingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartments": apartments})
}

// Update handles POST /apartments/update/:apartmentId.
func (h *ApartmentHandler) Update(c *gin.Context) {
	apartmentID, ok := objectIDParam(c, "apartmentId")
	if !ok {
		return
	}
	var req apartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	apartment, err := h.apartmentService.UpdateApartment(c.Request.Context(), apartmentID, requesterID, role, req.attributes())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartment": apartment})
}

// Remove handles PATCH /apartments/remove/:apartmentId.
func (h *ApartmentHandler) Remove(c *gin.Context) {
	apartmentID, ok := objectIDParam(c, "apartmentId")
	if !ok {
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	apartment, err := h.apartmentService.RemoveApartment(c.Request.Context(), apartmentID, requesterID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartment": apartment})
}

type ownerRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// AssignOwner handles PATCH /apartments/assign-owner/:apartmentId.
func (h *ApartmentHandler) AssignOwner(c *gin.Context) {
	apartmentID, ok := objectIDParam(c, "apartmentId")
	if !ok {
		return
	}
	var req ownerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	ownerID, err := parseObjectID(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid userId format"})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	apartment, err := h.apartmentService.AssignOwner(c.Request.Context(), apartmentID, requesterID, role, ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartment": apartment})
}

// RemoveOwner handles PATCH /apartments/remove-owner/:apartmentId.
func (h *ApartmentHandler) RemoveOwner(c *gin.Context) {
	apartmentID, ok := objectIDParam(c, "apartmentId")
	if !ok {
		return
	}
	var req ownerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	ownerID, err := parseObjectID(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid userId format"})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	apartment, err := h.apartmentService.RemoveOwner(c.Request.Context(), apartmentID, requesterID, role, ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartment": apartment})
}

type createMeterRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateMeter handles PATCH /apartments/create-meter/:apartmentId.
func (h *ApartmentHandler) CreateMeter(c *gin.Context) {
	apartmentID, ok := objectIDParam(c, "apartmentId")
	if !ok {
		return
	}
	var req createMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	apartment, err := h.apartmentService.CreateMeter(c.Request.Context(), apartmentID, requesterID, role, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartment": apartment})
}

type updateMeterRequest struct {
	MeterID string   `json:"meterId" binding:"required"`
	Name    string   `json:"name,omitempty"`
	Value   *float64 `json:"value,omitempty"`
}

// UpdateMeter handles PATCH /apartments/update-meter/:apartmentId.
// Residents may submit readings for their own apartment.
func (h *ApartmentHandler) UpdateMeter(c *gin.Context) {
	apartmentID, ok := objectIDParam(c, "apartmentId")
	if !ok {
		return
	}
	var req updateMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	meterID, err := parseObjectID(req.MeterID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid meterId format"})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	apartment, err := h.apartmentService.UpdateMeter(c.Request.Context(), apartmentID, requesterID, role, meterID, req.Name, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartment": apartment})
}

type removeMeterRequest struct {
	MeterID string `json:"meterId" binding:"required"`
}

// RemoveMeter handles PATCH /apartments/remove-meter/:apartmentId.
func (h *ApartmentHandler) RemoveMeter(c *gin.Context) {
	apartmentID, ok := objectIDParam(c, "apartmentId")
	if !ok {
		return
	}
	var req removeMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	meterID, err := parseObjectID(req.MeterID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid meterId format"})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	apartment, err := h.apartmentService.RemoveMeter(c.Request.Context(), apartmentID, requesterID, role, meterID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartment": apartment})
}

type paymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// AddPayment handles PATCH /apartments/add-payment/:apartmentId.
func (h *ApartmentHandler) AddPayment(c *gin.Context) {
	apartmentID, ok := objectIDParam(c, "apartmentId")
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	apartment, err := h.apartmentService.AddPayment(c.Request.Context(), apartmentID, requesterID, role, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartment": apartment})
}
