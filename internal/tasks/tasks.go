package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/config"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/email"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/services"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/storage"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

// Task types.
const (
	TypeEmailDelivery     = "email:deliver"
	TypeApplicationNotify = "application:notify"
	TypeImageProcess      = "image:process"
)

// NewClient creates an asynq client on the given Redis connection.
func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	})
}

// Notifier enqueues application event notifications. It implements
// services.IApplicationNotifier so the service layer stays decoupled from
// asynq.
type Notifier struct {
	client *asynq.Client
}

// NewNotifier creates a Notifier.
func NewNotifier(client *asynq.Client) *Notifier {
	return &Notifier{client: client}
}

// ApplicationNotifyPayload is the payload of an application:notify task.
type ApplicationNotifyPayload struct {
	ApplicationID string `json:"application_id"`
	Event         string `json:"event"`
}

// NotifyApplicationEvent enqueues an application:notify task.
func (n *Notifier) NotifyApplicationEvent(ctx context.Context, applicationID utils.SixID, event string) error {
	payload, err := json.Marshal(ApplicationNotifyPayload{
		ApplicationID: applicationID.String(),
		Event:         event,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notify payload: %w", err)
	}
	_, err = n.client.EnqueueContext(ctx, asynq.NewTask(TypeApplicationNotify, payload), asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("failed to enqueue %s task: %w", TypeApplicationNotify, err)
	}
	return nil
}

// EnqueueImageProcess enqueues an image:process task on the images queue.
func EnqueueImageProcess(ctx context.Context, client *asynq.Client, s3Key string, roomID utils.SixID) error {
	payload, err := json.Marshal(ImageTaskPayload{S3Key: s3Key, RoomID: roomID.String()})
	if err != nil {
		return fmt.Errorf("failed to marshal image payload: %w", err)
	}
	_, err = client.EnqueueContext(ctx, asynq.NewTask(TypeImageProcess, payload), asynq.Queue("images"), asynq.MaxRetry(3))
	if err != nil {
		return fmt.Errorf("failed to enqueue %s task: %w", TypeImageProcess, err)
	}
	return nil
}

// TaskProcessor handles the processing of tasks. It holds the dependencies
// needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	db             *mongo.Database
	emailSender    email.Sender
	storageService storage.IS3Storage
	roomService    services.IRoomService
	taskClient     *asynq.Client
}

// NewTaskProcessor creates a new TaskProcessor.
func NewTaskProcessor(
	cfg *config.Config,
	db *mongo.Database,
	emailSender email.Sender,
	storageService storage.IS3Storage,
	roomService services.IRoomService,
	taskClient *asynq.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		db:             db,
		emailSender:    emailSender,
		storageService: storageService,
		roomService:    roomService,
		taskClient:     taskClient,
	}
}

// SetupServer configures an asynq server and the mux for the requested worker
// roles. Returns nil when neither role is enabled (pure API mode). The caller
// owns the server lifecycle: Start it and Shutdown it on exit.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isBgWorker, isImageWorker bool) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     rdb.Options().Addr,
			Password: rdb.Options().Password,
			DB:       rdb.Options().DB,
		},
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
				"images":   5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	if isBgWorker {
		mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
		mux.HandleFunc(TypeApplicationNotify, processor.HandleApplicationNotifyTask)
		log.Println("Registered background task handlers.")
	}
	if isImageWorker {
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		log.Println("Registered image processing task handlers.")
	}
	if !isBgWorker && !isImageWorker {
		log.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	return srv, mux
}

// EmailTaskPayload is the payload of an email:deliver task.
type EmailTaskPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// HandleEmailDeliveryTask formats and sends one email.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}

	fromAddress := p.cfg.SmtpFromAddress
	if fromAddress == "" {
		fromAddress = "noreply@roomradar.example.com"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", payload.To))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", fromAddress))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", payload.Subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(payload.Body)
	sb.WriteString("\r\n")

	if err := p.emailSender.Send(ctx, []string{payload.To}, payload.Subject, []byte(sb.String())); err != nil {
		return fmt.Errorf("email sending failed: %w", err)
	}
	return nil
}

// applicationEventText maps a lifecycle event to subject and body lines from
// the recipient's point of view.
func applicationEventText(event string, app *models.Application, forApplicant bool) (string, string) {
	switch event {
	case "created":
		return "New booking request",
			fmt.Sprintf("You received a new booking request from %s.", app.FullName)
	case "edited":
		return "Booking request updated",
			fmt.Sprintf("%s updated their booking request.", app.FullName)
	case "inquiry":
		return "New inquiry about your room",
			"You received a new inquiry. Open the conversation to reply."
	case string(models.ActionApprove):
		return "Your booking request was approved",
			"Good news: the landlord approved your request. Confirm the payment to finalize the booking."
	case string(models.ActionReject):
		return "Your booking request was declined",
			"Unfortunately the landlord declined your request."
	case string(models.ActionCancel):
		return "Booking request cancelled",
			fmt.Sprintf("%s cancelled their booking request.", app.FullName)
	case string(models.ActionConfirmPayment):
		if forApplicant {
			return "Booking confirmed", "Your booking is confirmed. Enjoy your stay!"
		}
		return "Booking confirmed", "The booking has been confirmed."
	default:
		return "Booking request update", "There is an update on a booking request."
	}
}

// applicationEventRecipients decides who gets notified about an event.
func applicationEventRecipients(event string, app *models.Application) []utils.SixID {
	switch event {
	case "created", "edited", "inquiry", string(models.ActionCancel):
		return []utils.SixID{app.LandlordID}
	case string(models.ActionApprove), string(models.ActionReject):
		return []utils.SixID{app.ApplicantID}
	case string(models.ActionConfirmPayment):
		return []utils.SixID{app.ApplicantID, app.LandlordID}
	default:
		return nil
	}
}

// HandleApplicationNotifyTask fans an application event out to the parties
// that opted into application update emails.
func (p *TaskProcessor) HandleApplicationNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload ApplicationNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notify payload: %v: %w", err, asynq.SkipRetry)
	}
	appID, err := utils.ParseSixID(payload.ApplicationID)
	if err != nil {
		return fmt.Errorf("invalid application ID in payload: %w", asynq.SkipRetry)
	}

	var app models.Application
	err = p.db.Collection("applications").FindOne(ctx, bson.M{"_id": appID}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("application %s not found: %w", payload.ApplicationID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load application %s: %w", payload.ApplicationID, err)
	}

	for _, recipientID := range applicationEventRecipients(payload.Event, &app) {
		var user models.User
		err := p.db.Collection("users").
			FindOne(ctx, bson.M{"_id": recipientID, "deleted": false}).Decode(&user)
		if err != nil {
			log.Printf("Skipping notification for missing user %s: %v", recipientID.String(), err)
			continue
		}
		if !user.Notifications.ApplicationUpdates {
			continue
		}

		subject, body := applicationEventText(payload.Event, &app, recipientID == app.ApplicantID)
		emailPayload, err := json.Marshal(EmailTaskPayload{To: user.Email, Subject: subject, Body: body})
		if err != nil {
			return fmt.Errorf("failed to marshal email payload: %w", err)
		}
		_, err = p.taskClient.EnqueueContext(ctx, asynq.NewTask(TypeEmailDelivery, emailPayload), asynq.Queue("critical"))
		if err != nil {
			return fmt.Errorf("failed to enqueue email for %s: %w", user.Email, err)
		}
	}
	return nil
}

// ImageTaskPayload is the payload of an image:process task.
type ImageTaskPayload struct {
	S3Key  string `json:"s3_key"`
	RoomID string `json:"room_id"`
}

// HandleImageProcessTask normalizes an uploaded room photo: decodes it,
// shrinks it to the configured maximum dimension, re-encodes as JPEG, and
// attaches the key to the room.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}
	roomID, err := utils.ParseSixID(payload.RoomID)
	if err != nil {
		return fmt.Errorf("invalid room ID in payload: %w", asynq.SkipRetry)
	}

	body, err := p.storageService.GetObject(ctx, payload.S3Key)
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return fmt.Errorf("s3 object %s not found: %w", payload.S3Key, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download photo: %w", err)
	}
	defer body.Close()

	imgData, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read photo data: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		// The upload will never become a photo; clean it out of the bucket.
		if delErr := p.storageService.DeleteObject(ctx, payload.S3Key); delErr != nil {
			log.Printf("Failed to delete undecodable upload %s: %v", payload.S3Key, delErr)
		}
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}

	maxDim := uint(p.cfg.PhotoMaxDimension)
	if maxDim == 0 {
		maxDim = 1600
	}
	if uint(img.Bounds().Dx()) > maxDim || uint(img.Bounds().Dy()) > maxDim {
		resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized photo: %w", err)
		}
		if err := p.storageService.PutObject(ctx, payload.S3Key, "image/jpeg", buf.Bytes()); err != nil {
			return fmt.Errorf("failed to upload processed photo: %w", err)
		}
	}

	if err := p.roomService.AddPhotoToRoom(ctx, roomID, payload.S3Key); err != nil {
		return fmt.Errorf("failed to attach photo to room %s: %w", payload.RoomID, err)
	}
	return nil
}
