package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/services"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

// RestApplicationHandler handles REST requests for booking applications.
type RestApplicationHandler struct {
	applicationService services.IApplicationService
}

// NewRestApplicationHandler creates a new RestApplicationHandler.
func NewRestApplicationHandler(applicationService services.IApplicationService) *RestApplicationHandler {
	return &RestApplicationHandler{applicationService: applicationService}
}

// CreateRequestBody is the body of POST /v1/application.
type CreateRequestBody struct {
	RoomID    string                     `json:"room_id" binding:"required"`
	FullName  string                     `json:"full_name"`
	Mobile    string                     `json:"mobile"`
	CheckIn   time.Time                  `json:"check_in"`
	CheckOut  time.Time                  `json:"check_out"`
	Occupants models.OccupantComposition `json:"occupants"`
	Message   string                     `json:"message"`
}

// CreateRequest handles POST /v1/application
func (h *RestApplicationHandler) CreateRequest(c *gin.Context) {
	applicantID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	roomID, err := utils.ParseSixID(req.RoomID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room_id format"})
		return
	}

	draft := models.ApplicationDraft{
		RoomID:    roomID,
		FullName:  req.FullName,
		Mobile:    req.Mobile,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Occupants: req.Occupants,
		Message:   req.Message,
	}
	app, err := h.applicationService.CreateRequest(c.Request.Context(), applicantID, draft)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// CreateInquiryBody is the body of POST /v1/inquiry.
type CreateInquiryBody struct {
	RoomID  string `json:"room_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// CreateInquiry handles POST /v1/inquiry
func (h *RestApplicationHandler) CreateInquiry(c *gin.Context) {
	applicantID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateInquiryBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	roomID, err := utils.ParseSixID(req.RoomID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room_id format"})
		return
	}

	inquiry, err := h.applicationService.CreateInquiry(c.Request.Context(), applicantID, roomID, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inquiry)
}

// GetApplication handles GET /v1/application/:id
func (h *RestApplicationHandler) GetApplication(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	app, err := h.applicationService.FindByID(c.Request.Context(), appID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ListApplications handles GET /v1/application?role=applicant|landlord
func (h *RestApplicationHandler) ListApplications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit := 50
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && v > 0 {
		limit = v
	}

	var apps []models.Application
	var err error
	if c.DefaultQuery("role", "applicant") == "landlord" {
		apps, err = h.applicationService.ListForLandlord(c.Request.Context(), userID, limit)
	} else {
		apps, err = h.applicationService.ListForApplicant(c.Request.Context(), userID, limit)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": apps})
}

// Approve handles POST /v1/application/:id/approve
func (h *RestApplicationHandler) Approve(c *gin.Context) {
	h.transition(c, h.applicationService.Approve)
}

// Reject handles POST /v1/application/:id/reject
func (h *RestApplicationHandler) Reject(c *gin.Context) {
	h.transition(c, h.applicationService.Reject)
}

// Cancel handles POST /v1/application/:id/cancel
func (h *RestApplicationHandler) Cancel(c *gin.Context) {
	h.transition(c, h.applicationService.Cancel)
}

// ConfirmPayment handles POST /v1/application/:id/confirm-payment
func (h *RestApplicationHandler) ConfirmPayment(c *gin.Context) {
	h.transition(c, h.applicationService.ConfirmPayment)
}

func (h *RestApplicationHandler) transition(c *gin.Context, fn func(ctx context.Context, applicationID, actorID utils.SixID) (*models.Application, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	app, err := fn(c.Request.Context(), appID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// EditRequest handles PATCH /v1/application/:id
func (h *RestApplicationHandler) EditRequest(c *gin.Context) {
	applicantID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	var patch services.ApplicationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.applicationService.EditRequest(c.Request.Context(), appID, applicantID, patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}
