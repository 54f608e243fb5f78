package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/services"
)

// RestUserHandler handles REST requests related to users.
type RestUserHandler struct {
	userService services.IUserService
}

// NewRestUserHandler creates a new RestUserHandler.
func NewRestUserHandler(userService services.IUserService) *RestUserHandler {
	return &RestUserHandler{userService: userService}
}

// RegisterRequest is the body of POST /v1/user.
type RegisterRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Mobile   string      `json:"mobile"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     models.Role `json:"role" binding:"required"`
}

// Register handles POST /v1/user
func (h *RestUserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be student or landlord"})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Mobile, req.Password, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// LoginRequest is the body of POST /v1/user/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/user/login
func (h *RestUserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// PublicUser is the data returned for a public user profile.
type PublicUser struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Role       models.Role `json:"role"`
	DateJoined string      `json:"date_joined"`
}

// GetUserByID handles GET /v1/user/:id
func (h *RestUserHandler) GetUserByID(c *gin.Context) {
	userID, ok := pathSixID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.FindByID(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PublicUser{
		ID:         user.ID.String(),
		Name:       user.Name,
		Role:       user.Role,
		DateJoined: user.CreatedAt.Format("2006-01-02"),
	})
}

// Me handles GET /v1/me
func (h *RestUserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.FindByID(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateNotifications handles PUT /v1/me/notifications
func (h *RestUserHandler) UpdateNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var prefs models.NotificationPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.userService.SetNotificationPreferences(c.Request.Context(), userID, prefs); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SuspendUser handles POST /v1/admin/user/:id/suspend
func (h *RestUserHandler) SuspendUser(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	if err := h.userService.SuspendUser(c.Request.Context(), userID, adminID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "suspended"})
}

// UnsuspendUser handles POST /v1/admin/user/:id/unsuspend
func (h *RestUserHandler) UnsuspendUser(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	userID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	if err := h.userService.UnsuspendUser(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "active"})
}
