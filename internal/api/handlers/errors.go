package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/api/middleware"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/eligibility"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/services"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

// currentUserID returns the authenticated user's ID from the Gin context.
// AuthMiddleware stores it as a string.
func currentUserID(c *gin.Context) (utils.SixID, bool) {
	raw, exists := c.Get(middleware.ContextKeyUserID)
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return utils.SixID{}, false
	}
	userID, err := utils.ParseSixID(raw.(string))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
		return utils.SixID{}, false
	}
	return userID, true
}

// pathSixID parses a SixID path parameter, responding 400 when malformed.
func pathSixID(c *gin.Context, name string) (utils.SixID, bool) {
	id, err := utils.ParseSixID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return utils.SixID{}, false
	}
	return id, true
}

// respondServiceError translates service-layer errors into HTTP responses.
// Validation failures carry a stable reason code clients can branch on;
// authorization failures stay deliberately vague.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, eligibility.ErrFamilyOnly),
		errors.Is(err, eligibility.ErrBachelorsOnly),
		errors.Is(err, eligibility.ErrCompositionMismatch),
		errors.Is(err, eligibility.ErrNoFemalesAllowed),
		errors.Is(err, eligibility.ErrNoMalesAllowed),
		errors.Is(err, eligibility.ErrMissingField),
		errors.Is(err, eligibility.ErrInvalidDateRange):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  err.Error(),
			"reason": eligibility.Code(err),
		})
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrNotRoomOwner),
		errors.Is(err, services.ErrUserSuspended):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to perform this action"})
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrNotEditable),
		errors.Is(err, services.ErrAlreadyReviewed),
		errors.Is(err, services.ErrNotReviewable),
		errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, mongo.ErrNoDocuments), errors.Is(err, services.ErrRoomNotAvailable):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
