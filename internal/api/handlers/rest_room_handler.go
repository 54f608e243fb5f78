package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/services"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/storage"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/tasks"
)

// IAsynqClient defines the asynq client methods the handlers use.
// An interface keeps the handlers mockable in tests.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RestRoomHandler handles REST requests for room listings.
type RestRoomHandler struct {
	roomService services.IRoomService
	storage     storage.IS3Storage
	taskClient  IAsynqClient
}

// NewRestRoomHandler creates a new RestRoomHandler.
func NewRestRoomHandler(roomService services.IRoomService, storageService storage.IS3Storage, taskClient IAsynqClient) *RestRoomHandler {
	return &RestRoomHandler{roomService: roomService, storage: storageService, taskClient: taskClient}
}

// SearchRooms handles GET /v1/room/search and GET /v1/room/search/:country_code
func (h *RestRoomHandler) SearchRooms(c *gin.Context) {
	params := services.RoomSearchParams{
		City:   c.Query("city"),
		Cursor: c.Query("cursor"),
	}

	if cc := c.Param("country_code"); cc != "" {
		params.CountryCode = strings.ToUpper(cc)
	} else if cc := c.Query("country_code"); cc != "" {
		params.CountryCode = strings.ToUpper(cc)
	}

	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		params.Limit = limit
	}
	if minStr := c.Query("min_rent"); minStr != "" {
		if v, err := strconv.ParseFloat(minStr, 64); err == nil {
			params.MinRent = &v
		}
	}
	if maxStr := c.Query("max_rent"); maxStr != "" {
		if v, err := strconv.ParseFloat(maxStr, 64); err == nil {
			params.MaxRent = &v
		}
	}
	if fs := c.Query("family_status"); fs != "" {
		status := models.FamilyStatus(fs)
		params.FamilyStatus = &status
	}

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" && lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr == nil && lonErr == nil {
			params.NearLocation = &models.GeoJSON{Type: "Point", Coordinates: []float64{lon, lat}}
			if distKm, err := strconv.Atoi(c.Query("dist_km")); err == nil && distKm > 0 {
				params.MaxDistanceKM = &distKm
			}
		}
	}

	rooms, nextCursor, err := h.roomService.SearchRooms(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms, "next_cursor": nextCursor})
}

// GetRoomByID handles GET /v1/room/:id
func (h *RestRoomHandler) GetRoomByID(c *gin.Context) {
	roomID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	room, err := h.roomService.FindRoomByID(c.Request.Context(), roomID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// CreateRoomRequest is the body of POST /v1/room.
type CreateRoomRequest struct {
	Title       string                   `json:"title" binding:"required"`
	Description string                   `json:"description"`
	City        string                   `json:"city" binding:"required"`
	CountryCode string                   `json:"country_code" binding:"required"`
	Location    *models.GeoJSON          `json:"location"`
	MonthlyRent models.Money             `json:"monthly_rent" binding:"required"`
	MinimumStay int                      `json:"minimum_stay_months"`
	Preferences models.TenantPreferences `json:"preferences"`
}

// CreateRoom handles POST /v1/room. The room starts as a draft.
func (h *RestRoomHandler) CreateRoom(c *gin.Context) {
	landlordID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room := &models.Room{
		Title:       req.Title,
		Description: req.Description,
		City:        req.City,
		CountryCode: strings.ToUpper(req.CountryCode),
		Location:    req.Location,
		MonthlyRent: req.MonthlyRent,
		MinimumStay: req.MinimumStay,
		Preferences: req.Preferences,
	}
	created, err := h.roomService.CreateRoom(c.Request.Context(), landlordID, room)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateRoom handles PATCH /v1/room/:id
func (h *RestRoomHandler) UpdateRoom(c *gin.Context) {
	landlordID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.roomService.UpdateRoom(c.Request.Context(), roomID, landlordID, updates)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// PublishRoom handles POST /v1/room/:id/publish
func (h *RestRoomHandler) PublishRoom(c *gin.Context) {
	landlordID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	if err := h.roomService.PublishRoom(c.Request.Context(), roomID, landlordID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "published"})
}

// HideRoom handles POST /v1/room/:id/hide
func (h *RestRoomHandler) HideRoom(c *gin.Context) {
	landlordID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	if err := h.roomService.HideRoom(c.Request.Context(), roomID, landlordID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "hidden"})
}

// UnhideRoom handles POST /v1/room/:id/unhide
func (h *RestRoomHandler) UnhideRoom(c *gin.Context) {
	landlordID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	if err := h.roomService.UnhideRoom(c.Request.Context(), roomID, landlordID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "visible"})
}

// DeleteRoom handles DELETE /v1/room/:id
func (h *RestRoomHandler) DeleteRoom(c *gin.Context) {
	landlordID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	if err := h.roomService.DeleteRoom(c.Request.Context(), roomID, landlordID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// MyRooms handles GET /v1/my/rooms
func (h *RestRoomHandler) MyRooms(c *gin.Context) {
	landlordID, ok := currentUserID(c)
	if !ok {
		return
	}
	rooms, err := h.roomService.RoomsByLandlord(c.Request.Context(), landlordID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

// PhotoUploadRequest is the body of POST /v1/room/:id/photo-upload.
type PhotoUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// RequestPhotoUpload handles POST /v1/room/:id/photo-upload. It returns a
// presigned S3 PUT URL; the client uploads directly and then confirms.
func (h *RestRoomHandler) RequestPhotoUpload(c *gin.Context) {
	landlordID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	var req PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Ownership check before handing out an upload slot.
	if _, err := h.roomService.FindOwnRoomByID(c.Request.Context(), roomID, landlordID); err != nil {
		respondServiceError(c, err)
		return
	}

	url, key, err := h.storage.GeneratePresignedPutURL(c.Request.Context(), landlordID.String(), roomID.String(), req.Filename, req.ContentType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload_url": url, "key": key})
}

// PhotoConfirmRequest is the body of POST /v1/room/:id/photo.
type PhotoConfirmRequest struct {
	Key string `json:"key" binding:"required"`
}

// ConfirmPhotoUpload handles POST /v1/room/:id/photo. It enqueues the photo
// for processing; the worker attaches it to the room once normalized.
func (h *RestRoomHandler) ConfirmPhotoUpload(c *gin.Context) {
	landlordID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	var req PhotoConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.roomService.FindOwnRoomByID(c.Request.Context(), roomID, landlordID); err != nil {
		respondServiceError(c, err)
		return
	}
	// Only keys issued by RequestPhotoUpload for this landlord and room may
	// be confirmed; anything else could attach arbitrary bucket objects.
	expectedPrefix := fmt.Sprintf("photos/%s/%s/", landlordID.String(), roomID.String())
	if !strings.HasPrefix(req.Key, expectedPrefix) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Key does not belong to this room"})
		return
	}

	payload, err := json.Marshal(tasks.ImageTaskPayload{S3Key: req.Key, RoomID: roomID.String()})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	task := asynq.NewTask(tasks.TypeImageProcess, payload)
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task, asynq.Queue("images"), asynq.MaxRetry(3)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "processing"})
}
