package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/config"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/db"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

var (
	ErrNotParticipant = errors.New("you are not a participant of this conversation")
	ErrEmptyMessage   = errors.New("message content cannot be empty")
)

// MessageListener is notified after a message is stored. recipientID is the
// participant who did not send the message. Delivery is best-effort; listeners
// must tolerate duplicate notifications.
type MessageListener func(msg *models.Message, recipientID utils.SixID)

// IChatService defines the interface for conversations and messages.
type IChatService interface {
	FindOrCreateConversation(ctx context.Context, roomID, applicantID, landlordID utils.SixID) (*models.Conversation, error)
	GetConversation(ctx context.Context, conversationID, userID utils.SixID) (*models.Conversation, error)
	SendMessage(ctx context.Context, conversationID, senderID utils.SixID, body string) (*models.Message, error)
	PostBookingCardMessage(ctx context.Context, conversationID utils.SixID, app *models.Application) (*models.Message, error)
	UpdateBookingCardStatus(ctx context.Context, conversationID, applicationID utils.SixID, status models.ApplicationStatus) error
	ListConversations(ctx context.Context, userID utils.SixID, limit int) ([]models.Conversation, error)
	ListMessages(ctx context.Context, conversationID, userID utils.SixID, limit int) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, userID utils.SixID) error
	UnreadCount(ctx context.Context, userID utils.SixID) (int64, error)
	AddMessageListener(l MessageListener)
}

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

// chatService implements IChatService.
type chatService struct {
	db        *mongo.Database
	cfg       *config.Config
	listeners []MessageListener
}

// NewChatService creates a new ChatService.
func NewChatService(db *mongo.Database, cfg *config.Config) IChatService {
	return &chatService{db: db, cfg: cfg}
}

// AddMessageListener registers a fan-out hook for stored messages.
// Not safe for concurrent use; call during wiring, before serving traffic.
func (s *chatService) AddMessageListener(l MessageListener) {
	s.listeners = append(s.listeners, l)
}

// FindOrCreateConversation returns the conversation for the (room, applicant,
// landlord) triple, creating it when absent. The unique index on the triple
// makes concurrent creation safe: the loser re-finds the winner's document.
func (s *chatService) FindOrCreateConversation(ctx context.Context, roomID, applicantID, landlordID utils.SixID) (*models.Conversation, error) {
	if applicantID == landlordID {
		return nil, fmt.Errorf("applicant and landlord cannot be the same user")
	}

	collection := s.db.Collection(conversationsCollection)
	tripleFilter := bson.M{
		"room_id":      roomID,
		"applicant_id": applicantID,
		"landlord_id":  landlordID,
		"deleted":      false,
	}

	var conv models.Conversation
	err := collection.FindOne(ctx, tripleFilter).Decode(&conv)
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	now := time.Now().UTC()
	newConv := &models.Conversation{
		ID:            utils.NewSixID(),
		RoomID:        roomID,
		ApplicantID:   applicantID,
		LandlordID:    landlordID,
		LastMessageAt: now,
		CreatedAt:     now,
	}
	_, err = collection.InsertOne(ctx, newConv)
	if err == nil {
		return newConv, nil
	}
	if db.IsMongoDuplicateKeyError(err) {
		// Lost the creation race; the existing document wins.
		if ferr := collection.FindOne(ctx, tripleFilter).Decode(&conv); ferr == nil {
			return &conv, nil
		}
	}
	return nil, fmt.Errorf("failed to create conversation: %w", err)
}

// GetConversation loads a conversation the user participates in.
func (s *chatService) GetConversation(ctx context.Context, conversationID, userID utils.SixID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.Collection(conversationsCollection).
		FindOne(ctx, bson.M{"_id": conversationID, "deleted": false}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to load conversation %s: %w", conversationID.String(), err)
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return &conv, nil
}

// SendMessage stores a plain text message from a participant.
func (s *chatService) SendMessage(ctx context.Context, conversationID, senderID utils.SixID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	conv, err := s.GetConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:             utils.NewSixID(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Kind:           models.MessageText,
		Body:           body,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.insertMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.notify(msg, conv.OtherParticipant(senderID))
	return msg, nil
}

// PostBookingCardMessage stores the booking-card message for an application.
// The card's status mirrors the application's status from then on.
func (s *chatService) PostBookingCardMessage(ctx context.Context, conversationID utils.SixID, app *models.Application) (*models.Message, error) {
	conv, err := s.GetConversation(ctx, conversationID, app.ApplicantID)
	if err != nil {
		return nil, err
	}

	appID := app.ID
	msg := &models.Message{
		ID:             utils.NewSixID(),
		ConversationID: conversationID,
		SenderID:       app.ApplicantID,
		Kind:           models.MessageBookingCard,
		ApplicationID:  &appID,
		CardStatus:     app.Status,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.insertMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.notify(msg, conv.OtherParticipant(app.ApplicantID))
	return msg, nil
}

// UpdateBookingCardStatus re-points every booking card of the application at
// the new status so chat views render the live state.
func (s *chatService) UpdateBookingCardStatus(ctx context.Context, conversationID, applicationID utils.SixID, status models.ApplicationStatus) error {
	_, err := s.db.Collection(messagesCollection).UpdateMany(ctx,
		bson.M{
			"conversation_id": conversationID,
			"application_id":  applicationID,
			"kind":            models.MessageBookingCard,
		},
		bson.M{"$set": bson.M{"card_status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update booking card for application %s: %w", applicationID.String(), err)
	}
	return nil
}

// ListConversations returns the user's conversations, most recent activity first.
func (s *chatService) ListConversations(ctx context.Context, userID utils.SixID, limit int) ([]models.Conversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	filter := bson.M{
		"deleted": false,
		"$or": []bson.M{
			{"applicant_id": userID},
			{"landlord_id": userID},
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "last_message_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.db.Collection(conversationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var convs []models.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return convs, nil
}

// ListMessages returns the newest messages of a conversation the user
// participates in, newest first.
func (s *chatService) ListMessages(ctx context.Context, conversationID, userID utils.SixID, limit int) ([]models.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.db.Collection(messagesCollection).
		Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return msgs, nil
}

// MarkConversationRead marks every message sent by the counterpart as read.
func (s *chatService) MarkConversationRead(ctx context.Context, conversationID, userID utils.SixID) error {
	if _, err := s.GetConversation(ctx, conversationID, userID); err != nil {
		return err
	}
	_, err := s.db.Collection(messagesCollection).UpdateMany(ctx,
		bson.M{
			"conversation_id": conversationID,
			"sender_id":       bson.M{"$ne": userID},
			"is_read":         false,
		},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}

// UnreadCount counts unread messages addressed to the user across all their
// conversations.
func (s *chatService) UnreadCount(ctx context.Context, userID utils.SixID) (int64, error) {
	convs, err := s.ListConversations(ctx, userID, 100)
	if err != nil {
		return 0, err
	}
	if len(convs) == 0 {
		return 0, nil
	}
	ids := make([]utils.SixID, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
	}

	n, err := s.db.Collection(messagesCollection).CountDocuments(ctx, bson.M{
		"conversation_id": bson.M{"$in": ids},
		"sender_id":       bson.M{"$ne": userID},
		"is_read":         false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}

func (s *chatService) insertMessage(ctx context.Context, msg *models.Message) error {
	operation := func() error {
		_, err := s.db.Collection(messagesCollection).InsertOne(ctx, msg)
		return err
	}
	if err := db.Try(operation); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	_, err := s.db.Collection(conversationsCollection).UpdateOne(ctx,
		bson.M{"_id": msg.ConversationID},
		bson.M{"$set": bson.M{"last_message_at": msg.CreatedAt}},
	)
	if err != nil {
		return fmt.Errorf("failed to bump conversation activity: %w", err)
	}
	return nil
}

func (s *chatService) notify(msg *models.Message, recipientID utils.SixID) {
	for _, l := range s.listeners {
		l(msg, recipientID)
	}
}
