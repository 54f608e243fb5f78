package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/api/handlers"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/api/middleware"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/captcha"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/config"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/realtime"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/services"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/storage"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, taskClient handlers.IAsynqClient, notifier services.IApplicationNotifier, hub *realtime.Hub) *gin.Engine {
	userService := services.NewUserService(db, cfg)
	roomService := services.NewRoomService(db, cfg)
	chatService := services.NewChatService(db, cfg)
	applicationService := services.NewApplicationService(db, cfg, roomService, chatService, notifier)
	reviewService := services.NewReviewService(db, roomService)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}

	// Real-time fan-out: stored chat messages and persisted transitions go
	// out over the hub as hints; clients refetch authoritative state.
	if hub != nil {
		chatService.AddMessageListener(func(msg *models.Message, recipientID utils.SixID) {
			hub.SendToUser(recipientID, &realtime.Event{Type: realtime.EventNewMessage, Payload: msg})
		})
		applicationService.AddTransitionListener(func(app *models.Application, from, to models.ApplicationStatus) {
			event := &realtime.Event{Type: realtime.EventApplicationTransition, Payload: gin.H{
				"application_id": app.ID.String(),
				"from":           from,
				"to":             to,
			}}
			hub.SendToUser(app.ApplicantID, event)
			hub.SendToUser(app.LandlordID, event)
		})
	}

	captchaVerifier := captcha.NewTurnstileVerifier(cfg)
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.CaptchaMiddleware(cfg, captchaVerifier))
	r.Use(rateLimiter.Limit())

	userHandler := handlers.NewRestUserHandler(userService)
	roomHandler := handlers.NewRestRoomHandler(roomService, s3StorageService, taskClient)
	applicationHandler := handlers.NewRestApplicationHandler(applicationService)
	chatHandler := handlers.NewRestChatHandler(chatService)
	reviewHandler := handlers.NewRestReviewHandler(reviewService)
	wsHandler := handlers.NewWSHandler(hub, cfg.JwtSecret)

	v1 := r.Group("/v1")
	{
		// Public routes
		v1.POST("/user", userHandler.Register)
		v1.POST("/user/login", userHandler.Login)
		v1.GET("/user/:id", userHandler.GetUserByID)

		v1.GET("/room/search", roomHandler.SearchRooms)
		v1.GET("/room/search/:country_code", roomHandler.SearchRooms)
		v1.GET("/room/:id", roomHandler.GetRoomByID)
		v1.GET("/room/:id/reviews", reviewHandler.ListRoomReviews)

		v1.GET("/ws", wsHandler.HandleWebSocket)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.GET("/me", userHandler.Me)
			authRequired.PUT("/me/notifications", userHandler.UpdateNotifications)

			authRequired.POST("/room", roomHandler.CreateRoom)
			authRequired.PATCH("/room/:id", roomHandler.UpdateRoom)
			authRequired.POST("/room/:id/publish", roomHandler.PublishRoom)
			authRequired.POST("/room/:id/hide", roomHandler.HideRoom)
			authRequired.POST("/room/:id/unhide", roomHandler.UnhideRoom)
			authRequired.DELETE("/room/:id", roomHandler.DeleteRoom)
			authRequired.GET("/my/rooms", roomHandler.MyRooms)
			authRequired.POST("/room/:id/photo-upload", roomHandler.RequestPhotoUpload)
			authRequired.POST("/room/:id/photo", roomHandler.ConfirmPhotoUpload)

			authRequired.POST("/application", applicationHandler.CreateRequest)
			authRequired.POST("/inquiry", applicationHandler.CreateInquiry)
			authRequired.GET("/application", applicationHandler.ListApplications)
			authRequired.GET("/application/:id", applicationHandler.GetApplication)
			authRequired.PATCH("/application/:id", applicationHandler.EditRequest)
			authRequired.POST("/application/:id/approve", applicationHandler.Approve)
			authRequired.POST("/application/:id/reject", applicationHandler.Reject)
			authRequired.POST("/application/:id/cancel", applicationHandler.Cancel)
			authRequired.POST("/application/:id/confirm-payment", applicationHandler.ConfirmPayment)
			authRequired.POST("/application/:id/review", reviewHandler.CreateReview)

			authRequired.GET("/conversation", chatHandler.ListConversations)
			authRequired.GET("/conversation/unread-count", chatHandler.UnreadCount)
			authRequired.GET("/conversation/:id/messages", chatHandler.ListMessages)
			authRequired.POST("/conversation/:id/messages", chatHandler.SendMessage)
			authRequired.POST("/conversation/:id/read", chatHandler.MarkRead)
		}

		// Admin routes
		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.POST("/user/:id/suspend", userHandler.SuspendUser)
			adminRequired.POST("/user/:id/unsuspend", userHandler.UnsuspendUser)
			adminRequired.POST("/room/:id/suspend", func(c *gin.Context) {
				suspendRoom(c, roomService)
			})
			adminRequired.POST("/room/:id/unsuspend", func(c *gin.Context) {
				unsuspendRoom(c, roomService)
			})
			adminRequired.DELETE("/review/:id", reviewHandler.DeleteReview)
		}
	}

	return r
}

// suspendRoom handles POST /v1/admin/room/:id/suspend.
func suspendRoom(c *gin.Context, roomService services.IRoomService) {
	adminRaw, _ := c.Get(middleware.ContextKeyUserID)
	adminID, err := utils.ParseSixID(adminRaw.(string))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
		return
	}
	roomID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id format"})
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	if err := roomService.SuspendRoom(c.Request.Context(), roomID, adminID, body.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to suspend room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "suspended"})
}

// unsuspendRoom handles POST /v1/admin/room/:id/unsuspend.
func unsuspendRoom(c *gin.Context, roomService services.IRoomService) {
	roomID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id format"})
		return
	}
	if err := roomService.UnsuspendRoom(c.Request.Context(), roomID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unsuspend room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "active"})
}
