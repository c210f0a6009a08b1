package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MihaiVoinica/AdminBloc/internal/auth"
	"github.com/MihaiVoinica/AdminBloc/internal/config"
	"github.com/MihaiVoinica/AdminBloc/internal/models"
	"github.com/MihaiVoinica/AdminBloc/internal/services"
	"github.com/MihaiVoinica/AdminBloc/internal/tasks"
)

// AuthHandler handles login, registration and account activation.
type AuthHandler struct {
	cfg         *config.Config
	userService services.IUserService
	taskClient  tasks.Enqueuer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config, userService services.IUserService, taskClient tasks.Enqueuer) *AuthHandler {
	return &AuthHandler{
		cfg:         cfg,
		userService: userService,
		taskClient:  taskClient,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Role, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

type registerRequest struct {
	Name  string      `json:"name" binding:"required"`
	Email string      `json:"email" binding:"required,email"`
	Role  models.Role `json:"role" binding:"required"`
}

// Register handles POST /auth/register. The new account starts
// blocked; the activation email carries the token and PIN.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	_, role, ok := requester(c)
	if !ok {
		return
	}

	registration, err := h.userService.Register(c.Request.Context(), role, req.Name, req.Email, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	err = tasks.EnqueueActivationEmail(c.Request.Context(), h.taskClient, h.cfg,
		registration.User.Name, registration.User.Email, registration.Token, registration.Pin)
	if err != nil {
		// The account exists; losing the email is recoverable through
		// a re-register after removal, so log and report.
		log.Printf("Failed to enqueue activation email for %s: %v", registration.User.Email, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": registration.User})
}

// ValidateUser handles GET /auth/validate-user/:token. A preflight so
// the activation page can reject dead links before asking for a PIN.
func (h *AuthHandler) ValidateUser(c *gin.Context) {
	token := c.Param("token")
	if err := h.userService.ValidateActivationToken(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

type activateRequest struct {
	Pin      string `json:"pin" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// ActivateUser handles POST /auth/activate-user/:token. On success the
// account is unblocked and a session token is issued right away.
func (h *AuthHandler) ActivateUser(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, err := h.userService.ActivateUser(c.Request.Context(), c.Param("token"), req.Pin, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Role, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// ListUsers handles GET /auth/users.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
