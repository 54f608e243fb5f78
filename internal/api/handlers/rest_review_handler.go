package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/services"
)

// RestReviewHandler handles REST requests for room reviews.
type RestReviewHandler struct {
	reviewService services.IReviewService
}

// NewRestReviewHandler creates a new RestReviewHandler.
func NewRestReviewHandler(reviewService services.IReviewService) *RestReviewHandler {
	return &RestReviewHandler{reviewService: reviewService}
}

// CreateReviewRequest is the body of POST /v1/application/:id/review.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// CreateReview handles POST /v1/application/:id/review
func (h *RestReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), userID, appID, req.Rating, req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// ListRoomReviews handles GET /v1/room/:id/reviews
func (h *RestReviewHandler) ListRoomReviews(c *gin.Context) {
	roomID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	reviews, err := h.reviewService.ListForRoom(c.Request.Context(), roomID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reviews})
}

// DeleteReview handles DELETE /v1/admin/review/:id
func (h *RestReviewHandler) DeleteReview(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	reviewID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	if err := h.reviewService.DeleteReview(c.Request.Context(), reviewID, adminID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
