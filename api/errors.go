package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nyikasafaris/safaribooking/internal/domain"
)

// writeError maps the domain error taxonomy onto HTTP statuses. Gateway
// failures get their own status so clients can tell "booking exists but
// payment could not be checked" apart from a booking failure.
func writeError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case domain.IsTransition(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case domain.IsGateway(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
