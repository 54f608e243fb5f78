package models

import (
	"time"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

// Conversation is a chat thread between an applicant and a landlord about a
// room. At most one conversation exists per (room, applicant, landlord)
// triple, enforced by a unique index.
type Conversation struct {
	ID            utils.SixID `bson:"_id,omitempty" json:"id,omitempty"`
	RoomID        utils.SixID `bson:"room_id" json:"room_id"`
	ApplicantID   utils.SixID `bson:"applicant_id" json:"applicant_id"`
	LandlordID    utils.SixID `bson:"landlord_id" json:"landlord_id"`
	LastMessageAt time.Time   `bson:"last_message_at" json:"last_message_at"`
	CreatedAt     time.Time   `bson:"created_at" json:"created_at"`
	Deleted       bool        `bson:"deleted" json:"-"`
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID utils.SixID) bool {
	return c.ApplicantID == userID || c.LandlordID == userID
}

// OtherParticipant returns the counterpart of userID in the conversation.
func (c *Conversation) OtherParticipant(userID utils.SixID) utils.SixID {
	if c.ApplicantID == userID {
		return c.LandlordID
	}
	return c.ApplicantID
}

// MessageKind is the type of a chat message.
type MessageKind string

const (
	MessageText MessageKind = "text"
	// MessageBookingCard is the chat-embedded summary of a booking request.
	// Its CardStatus always mirrors the application's live status.
	MessageBookingCard MessageKind = "booking_card"
)

// Message is a single message inside a conversation.
type Message struct {
	ID             utils.SixID       `bson:"_id,omitempty" json:"id,omitempty"`
	ConversationID utils.SixID       `bson:"conversation_id" json:"conversation_id"`
	SenderID       utils.SixID       `bson:"sender_id" json:"sender_id"`
	Kind           MessageKind       `bson:"kind" json:"kind"`
	Body           string            `bson:"body,omitempty" json:"body,omitempty"`
	ApplicationID  *utils.SixID      `bson:"application_id,omitempty" json:"application_id,omitempty"`
	CardStatus     ApplicationStatus `bson:"card_status,omitempty" json:"card_status,omitempty"`
	IsRead         bool              `bson:"is_read" json:"is_read"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
}
