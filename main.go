package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/api"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/cache"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/config"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/db"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/email"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/realtime"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/services"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/storage"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background workers), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.EnsureIndexes(ctx, mongoDb); err != nil {
			cancel()
			log.Fatalf("Failed to ensure database indexes: %v", err)
		}
		cancel()
	}

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}()

	// Email sender. MOCK_SERVICES diverts email to Redis so test harnesses can
	// read it back; LOG_EMAILS additionally appends every message to a file.
	var primaryEmailSender email.Sender
	if os.Getenv("MOCK_SERVICES") == "true" {
		log.Println("MOCK_SERVICES enabled: Using Redis email sender.")
		primaryEmailSender = email.NewRedisSender(redisClient, cfg)
	} else {
		primaryEmailSender = email.NewSMTPSender(cfg)
	}
	compositeSender := email.NewCompositeEmailSender(primaryEmailSender)
	if logEmailsPath := os.Getenv("LOG_EMAILS"); logEmailsPath != "" {
		fileSender, err := email.NewFileEmailSender(logEmailsPath)
		if err != nil {
			log.Printf("WARNING: Failed to initialize file email sender (LOG_EMAILS=%q): %v. Proceeding without file logging.", logEmailsPath, err)
		} else {
			compositeSender.AddSender(fileSender)
		}
	}
	emailSender := email.Sender(compositeSender)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize S3 storage: %v", err)
	}

	taskClient := tasks.NewClient(redisClient)
	notifier := tasks.NewNotifier(taskClient)

	// The task processor reads applications and users straight from Mongo, so
	// it only needs the room service for attaching processed photos.
	roomService := services.NewRoomService(mongoDb, cfg)
	taskProcessor := tasks.NewTaskProcessor(cfg, mongoDb, emailSender, s3StorageService, roomService, taskClient)

	var wg sync.WaitGroup
	var apiSrv *http.Server
	var taskSrv *asynq.Server

	fmt.Printf("Starting RoomRadar in '%s' mode...\n", cfg.RunMode)

	apiMode := func() {
		hub := realtime.NewHub()
		router := api.SetupRouter(cfg, mongoDb, taskClient, notifier, hub)
		apiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Printf("API listening on :%s\n", cfg.ApiPort)
			if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("API ListenAndServe error: %v", err)
			}
			fmt.Println("API server stopped.")
		}()
	}

	bgMode := func() {
		srv, mux := tasks.SetupServer(redisClient, taskProcessor, true, true)
		if srv == nil {
			return
		}
		taskSrv = srv
		if err := taskSrv.Start(mux); err != nil {
			log.Fatalf("Could not start task server: %v", err)
		}
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatalf("Invalid run mode: %s", cfg.RunMode)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if apiSrv != nil {
		if err := apiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}
	if taskSrv != nil {
		taskSrv.Shutdown()
	}

	wg.Wait()
	fmt.Println("Server gracefully stopped")
}
