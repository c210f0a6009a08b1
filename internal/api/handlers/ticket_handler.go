package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MihaiVoinica/AdminBloc/internal/services"
)

// TicketHandler handles maintenance tickets.
type TicketHandler struct {
	ticketService services.ITicketService
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(ticketService services.ITicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// List handles GET /tickets/list.
func (h *TicketHandler) List(c *gin.Context) {
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	tickets, err := h.ticketService.ListTickets(c.Request.Context(), requesterID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

type createTicketRequest struct {
	ApartmentID string `json:"apartmentId" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Comment     string `json:"comment" binding:"required"`
}

// Create handles POST /tickets/create.
func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	apartmentID, err := parseObjectID(req.ApartmentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid apartmentId format"})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	ticket, err := h.ticketService.CreateTicket(c.Request.Context(), apartmentID, requesterID, role, req.Name, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ticket": ticket})
}

// Confirm handles PATCH /tickets/confirm/:ticketId.
func (h *TicketHandler) Confirm(c *gin.Context) {
	ticketID, ok := objectIDParam(c, "ticketId")
	if !ok {
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	ticket, err := h.ticketService.ConfirmTicket(c.Request.Context(), ticketID, requesterID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// Resolve handles PATCH /tickets/resolve/:ticketId.
func (h *TicketHandler) Resolve(c *gin.Context) {
	ticketID, ok := objectIDParam(c, "ticketId")
	if !ok {
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	ticket, err := h.ticketService.ResolveTicket(c.Request.Context(), ticketID, requesterID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// Remove handles PATCH /tickets/remove/:ticketId.
func (h *TicketHandler) Remove(c *gin.Context) {
	ticketID, ok := objectIDParam(c, "ticketId")
	if !ok {
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	ticket, err := h.ticketService.RemoveTicket(c.Request.Context(), ticketID, requesterID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}
