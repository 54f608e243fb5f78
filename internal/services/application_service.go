package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/config"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/db"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/eligibility"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

var (
	// ErrForbidden deliberately carries no detail: callers must not be able
	// to distinguish "not found" from "not yours".
	ErrForbidden = errors.New("you are not allowed to perform this action")

	ErrInvalidTransition = errors.New("this request is no longer in a state that allows this action")
	ErrNotEditable       = errors.New("only pending requests can be edited")
)

// TransitionListener is notified after a request's status change has been
// persisted. Delivery is best-effort, possibly duplicated; consumers must
// treat events as hints and refetch authoritative state.
type TransitionListener func(app *models.Application, from, to models.ApplicationStatus)

// IApplicationNotifier enqueues out-of-band notifications (email) about
// application events. Implemented by the background task client.
type IApplicationNotifier interface {
	NotifyApplicationEvent(ctx context.Context, applicationID utils.SixID, event string) error
}

// ApplicationPatch replaces the editable fields of a pending request.
type ApplicationPatch struct {
	FullName  string                     `json:"full_name"`
	Mobile    string                     `json:"mobile"`
	CheckIn   time.Time                  `json:"check_in"`
	CheckOut  time.Time                  `json:"check_out"`
	Occupants models.OccupantComposition `json:"occupants"`
}

// IApplicationService governs the booking-application lifecycle: creation of
// requests and inquiries, status transitions, and edits of pending requests.
type IApplicationService interface {
	CreateRequest(ctx context.Context, applicantID utils.SixID, draft models.ApplicationDraft) (*models.Application, error)
	CreateInquiry(ctx context.Context, applicantID, roomID utils.SixID, message string) (*models.Application, error)
	Approve(ctx context.Context, applicationID, landlordID utils.SixID) (*models.Application, error)
	Reject(ctx context.Context, applicationID, landlordID utils.SixID) (*models.Application, error)
	Cancel(ctx context.Context, applicationID, applicantID utils.SixID) (*models.Application, error)
	ConfirmPayment(ctx context.Context, applicationID, actorID utils.SixID) (*models.Application, error)
	EditRequest(ctx context.Context, applicationID, applicantID utils.SixID, patch ApplicationPatch) (*models.Application, error)
	FindByID(ctx context.Context, applicationID, userID utils.SixID) (*models.Application, error)
	ListForApplicant(ctx context.Context, applicantID utils.SixID, limit int) ([]models.Application, error)
	ListForLandlord(ctx context.Context, landlordID utils.SixID, limit int) ([]models.Application, error)
	AddTransitionListener(l TransitionListener)
}

const applicationsCollection = "applications"

// applicationService implements IApplicationService.
type applicationService struct {
	db        *mongo.Database
	cfg       *config.Config
	rooms     IRoomService
	chat      IChatService
	notifier  IApplicationNotifier // optional
	listeners []TransitionListener
}

// NewApplicationService creates a new ApplicationService. notifier may be nil.
func NewApplicationService(db *mongo.Database, cfg *config.Config, rooms IRoomService, chat IChatService, notifier IApplicationNotifier) IApplicationService {
	return &applicationService{db: db, cfg: cfg, rooms: rooms, chat: chat, notifier: notifier}
}

// AddTransitionListener registers a fan-out hook for persisted transitions.
// Not safe for concurrent use; call during wiring, before serving traffic.
func (s *applicationService) AddTransitionListener(l TransitionListener) {
	s.listeners = append(s.listeners, l)
}

// CreateRequest validates a draft against the room's tenant preferences and,
// if submittable, creates a pending application linked to a conversation
// carrying its booking card.
func (s *applicationService) CreateRequest(ctx context.Context, applicantID utils.SixID, draft models.ApplicationDraft) (*models.Application, error) {
	room, err := s.rooms.FindRoomByID(ctx, draft.RoomID)
	if err != nil {
		return nil, err
	}
	if room.LandlordID == applicantID {
		return nil, ErrForbidden
	}

	// Preconditions and eligibility are both local checks; nothing is
	// written until they pass.
	if err := eligibility.ValidateSubmission(draft); err != nil {
		return nil, err
	}
	if err := eligibility.Validate(room.Preferences, draft.Occupants); err != nil {
		return nil, err
	}

	conv, err := s.chat.FindOrCreateConversation(ctx, room.ID, applicantID, room.LandlordID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	checkIn, checkOut := draft.CheckIn, draft.CheckOut
	occupants := draft.Occupants
	rent := room.MonthlyRent

	var app *models.Application
	operation := func() error {
		app = &models.Application{
			ID:             utils.NewSixID(),
			Kind:           models.KindRequest,
			Status:         models.StatusPending,
			RoomID:         room.ID,
			ApplicantID:    applicantID,
			LandlordID:     room.LandlordID,
			ConversationID: conv.ID,
			FullName:       draft.FullName,
			Mobile:         draft.Mobile,
			CheckIn:        &checkIn,
			CheckOut:       &checkOut,
			Occupants:      &occupants,
			Message:        draft.Message,
			MonthlyRent:    &rent,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		_, insertErr := s.db.Collection(applicationsCollection).InsertOne(ctx, app)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert application: %w", err)
	}

	if _, err := s.chat.PostBookingCardMessage(ctx, conv.ID, app); err != nil {
		// The application exists; the card is re-derivable from it.
		log.Printf("Failed to post booking card for application %s: %v", app.ID.String(), err)
	}
	s.notifyEvent(ctx, app.ID, "created")

	return app, nil
}

// CreateInquiry creates a statusless message-only contact for a room. It
// creates (or reuses) the conversation and posts the message as plain text.
func (s *applicationService) CreateInquiry(ctx context.Context, applicantID, roomID utils.SixID, message string) (*models.Application, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	room, err := s.rooms.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.LandlordID == applicantID {
		return nil, ErrForbidden
	}

	conv, err := s.chat.FindOrCreateConversation(ctx, room.ID, applicantID, room.LandlordID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var app *models.Application
	operation := func() error {
		app = &models.Application{
			ID:             utils.NewSixID(),
			Kind:           models.KindInquiry,
			RoomID:         room.ID,
			ApplicantID:    applicantID,
			LandlordID:     room.LandlordID,
			ConversationID: conv.ID,
			Message:        message,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		_, insertErr := s.db.Collection(applicationsCollection).InsertOne(ctx, app)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert inquiry: %w", err)
	}

	if _, err := s.chat.SendMessage(ctx, conv.ID, applicantID, message); err != nil {
		log.Printf("Failed to post inquiry message for %s: %v", app.ID.String(), err)
	}
	s.notifyEvent(ctx, app.ID, "inquiry")

	return app, nil
}

// Approve moves a pending request to approved. Landlord only.
func (s *applicationService) Approve(ctx context.Context, applicationID, landlordID utils.SixID) (*models.Application, error) {
	return s.transition(ctx, applicationID, landlordID, models.ActionApprove)
}

// Reject moves a pending request to rejected. Landlord only.
func (s *applicationService) Reject(ctx context.Context, applicationID, landlordID utils.SixID) (*models.Application, error) {
	return s.transition(ctx, applicationID, landlordID, models.ActionReject)
}

// Cancel moves a pending or approved request to cancelled. Applicant only.
func (s *applicationService) Cancel(ctx context.Context, applicationID, applicantID utils.SixID) (*models.Application, error) {
	return s.transition(ctx, applicationID, applicantID, models.ActionCancel)
}

// ConfirmPayment moves an approved request to confirmed. Either party.
func (s *applicationService) ConfirmPayment(ctx context.Context, applicationID, actorID utils.SixID) (*models.Application, error) {
	return s.transition(ctx, applicationID, actorID, models.ActionConfirmPayment)
}

// transition runs one lifecycle action. Local state is only changed by the
// store's check-and-set: the update filter pins the status we observed, so a
// concurrent transition makes the update match nothing and the caller gets
// ErrInvalidTransition instead of a partial update.
func (s *applicationService) transition(ctx context.Context, applicationID, actorID utils.SixID, action models.ApplicationAction) (*models.Application, error) {
	rule, ok := models.RuleFor(action)
	if !ok {
		return nil, fmt.Errorf("unknown application action %q", action)
	}

	app, err := s.loadRequest(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	// A third party must not learn the application exists: they get the
	// same not-found as a random ID. Participants acting out of role get
	// ErrForbidden; they can see the application anyway.
	if app.LandlordID != actorID && app.ApplicantID != actorID {
		return nil, mongo.ErrNoDocuments
	}
	switch rule.Actor {
	case models.ActorLandlord:
		if app.LandlordID != actorID {
			return nil, ErrForbidden
		}
	case models.ActorApplicant:
		if app.ApplicantID != actorID {
			return nil, ErrForbidden
		}
	}

	if !rule.AllowsFrom(app.Status) {
		return nil, ErrInvalidTransition
	}

	filter := bson.M{
		"_id":    applicationID,
		"kind":   models.KindRequest,
		"status": app.Status, // check-and-set on the observed status
	}
	update := bson.M{"$set": bson.M{
		"status":     rule.To,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Application
	err = s.db.Collection(applicationsCollection).
		FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Someone else transitioned first; the caller must refetch.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("failed to transition application %s: %w", applicationID.String(), err)
	}

	if err := s.chat.UpdateBookingCardStatus(ctx, updated.ConversationID, updated.ID, updated.Status); err != nil {
		log.Printf("Failed to update booking card for application %s: %v", updated.ID.String(), err)
	}
	for _, l := range s.listeners {
		l(&updated, app.Status, updated.Status)
	}
	s.notifyEvent(ctx, updated.ID, string(action))

	return &updated, nil
}

// EditRequest replaces the occupant and date fields of the applicant's own
// pending request and flags it as updated. The new values must pass the same
// validation as a fresh submission.
func (s *applicationService) EditRequest(ctx context.Context, applicationID, applicantID utils.SixID, patch ApplicationPatch) (*models.Application, error) {
	app, err := s.loadRequest(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != applicantID {
		if app.LandlordID == applicantID {
			return nil, ErrForbidden
		}
		return nil, mongo.ErrNoDocuments
	}
	if app.Status != models.StatusPending {
		return nil, ErrNotEditable
	}

	draft := models.ApplicationDraft{
		RoomID:    app.RoomID,
		FullName:  patch.FullName,
		Mobile:    patch.Mobile,
		CheckIn:   patch.CheckIn,
		CheckOut:  patch.CheckOut,
		Occupants: patch.Occupants,
	}
	if err := eligibility.ValidateSubmission(draft); err != nil {
		return nil, err
	}

	// Preferences come straight from the room doc: the room may have been
	// hidden since the request was made, yet the pending request stays editable.
	var room models.Room
	err = s.db.Collection(roomsCollection).
		FindOne(ctx, bson.M{"_id": app.RoomID, "deleted": false}).Decode(&room)
	if err != nil {
		return nil, fmt.Errorf("failed to load room %s for edit: %w", app.RoomID.String(), err)
	}
	if err := eligibility.Validate(room.Preferences, patch.Occupants); err != nil {
		return nil, err
	}

	filter := bson.M{
		"_id":          applicationID,
		"applicant_id": applicantID,
		"kind":         models.KindRequest,
		"status":       models.StatusPending,
	}
	update := bson.M{"$set": bson.M{
		"full_name":  patch.FullName,
		"mobile":     patch.Mobile,
		"check_in":   patch.CheckIn,
		"check_out":  patch.CheckOut,
		"occupants":  patch.Occupants,
		"is_updated": true,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Application
	err = s.db.Collection(applicationsCollection).
		FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Status moved on between our read and the guarded write.
			return nil, ErrNotEditable
		}
		return nil, fmt.Errorf("failed to edit application %s: %w", applicationID.String(), err)
	}

	s.notifyEvent(ctx, updated.ID, "edited")
	return &updated, nil
}

// FindByID loads an application visible to one of its two parties. Anyone
// else gets mongo.ErrNoDocuments, indistinguishable from an ID that was
// never assigned.
func (s *applicationService) FindByID(ctx context.Context, applicationID, userID utils.SixID) (*models.Application, error) {
	var app models.Application
	err := s.db.Collection(applicationsCollection).
		FindOne(ctx, bson.M{"_id": applicationID}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding application %s: %w", applicationID.String(), err)
	}
	if app.ApplicantID != userID && app.LandlordID != userID {
		return nil, mongo.ErrNoDocuments
	}
	return &app, nil
}

// ListForApplicant returns the applicant's applications, newest first.
func (s *applicationService) ListForApplicant(ctx context.Context, applicantID utils.SixID, limit int) ([]models.Application, error) {
	return s.list(ctx, bson.M{"applicant_id": applicantID}, limit)
}

// ListForLandlord returns applications received by the landlord, newest first.
func (s *applicationService) ListForLandlord(ctx context.Context, landlordID utils.SixID, limit int) ([]models.Application, error) {
	return s.list(ctx, bson.M{"landlord_id": landlordID}, limit)
}

func (s *applicationService) list(ctx context.Context, filter bson.M, limit int) ([]models.Application, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.db.Collection(applicationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer cursor.Close(ctx)

	var apps []models.Application
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("failed to decode applications: %w", err)
	}
	return apps, nil
}

// loadRequest loads a request-kind application by ID.
func (s *applicationService) loadRequest(ctx context.Context, applicationID utils.SixID) (*models.Application, error) {
	var app models.Application
	err := s.db.Collection(applicationsCollection).
		FindOne(ctx, bson.M{"_id": applicationID, "kind": models.KindRequest}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error loading application %s: %w", applicationID.String(), err)
	}
	return &app, nil
}

func (s *applicationService) notifyEvent(ctx context.Context, applicationID utils.SixID, event string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyApplicationEvent(ctx, applicationID, event); err != nil {
		log.Printf("Failed to enqueue %s notification for application %s: %v", event, applicationID.String(), err)
	}
}
