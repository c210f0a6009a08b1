package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MihaiVoinica/AdminBloc/internal/api/middleware"
	"github.com/MihaiVoinica/AdminBloc/internal/models"
	"github.com/MihaiVoinica/AdminBloc/internal/services"
)

// respondError maps service errors to HTTP responses. Sentinel errors
// surface as 4xx, everything else as a generic 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case services.IsClientError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// requester pulls the authenticated user's ID and role out of the Gin
// context, aborting with 401 when the context is malformed.
func requester(c *gin.Context) (primitive.ObjectID, models.Role, bool) {
	id, role, err := middleware.RequesterFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
		return primitive.NilObjectID, "", false
	}
	return id, role, true
}

// objectIDParam parses an ObjectID path parameter, responding with 400
// on bad input.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseObjectID(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}
