package models

import (
	"fmt"
	"time"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

// ApplicationKind distinguishes a full booking request from a plain inquiry.
// Inquiries carry only a message and have no status machine.
type ApplicationKind string

const (
	KindRequest ApplicationKind = "request"
	KindInquiry ApplicationKind = "inquiry"
)

// ApplicationStatus is the lifecycle state of a booking request.
//
// Valid status graph:
//
//	pending ──► approved ──► confirmed
//	   │            │
//	   ├────────────┴──► cancelled
//	   └──► rejected
//
// confirmed, rejected and cancelled are terminal.
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusApproved  ApplicationStatus = "approved"
	StatusRejected  ApplicationStatus = "rejected"
	StatusConfirmed ApplicationStatus = "confirmed"
	StatusCancelled ApplicationStatus = "cancelled"
)

// ParseApplicationStatus converts a raw string to an ApplicationStatus.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case StatusPending, StatusApproved, StatusRejected, StatusConfirmed, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// validTransitions lists every allowed (from -> to) pair.
var validTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusConfirmed, StatusCancelled},
	// confirmed, rejected and cancelled are terminal - no outgoing transitions
}

// CanTransition reports whether moving from -> to is permitted.
func CanTransition(from, to ApplicationStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func IsTerminal(s ApplicationStatus) bool {
	return len(validTransitions[s]) == 0
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s ApplicationStatus) []ApplicationStatus {
	out := make([]ApplicationStatus, len(validTransitions[s]))
	copy(out, validTransitions[s])
	return out
}

// ApplicationAction is a user-triggered lifecycle action on a request.
type ApplicationAction string

const (
	ActionApprove        ApplicationAction = "approve"
	ActionReject         ApplicationAction = "reject"
	ActionCancel         ApplicationAction = "cancel"
	ActionConfirmPayment ApplicationAction = "confirm-payment"
)

// TransitionActor identifies which side of the application may run an action.
type TransitionActor string

const (
	ActorLandlord  TransitionActor = "landlord"
	ActorApplicant TransitionActor = "applicant"
	ActorEither    TransitionActor = "either"
)

// TransitionRule describes one action of the lifecycle: the statuses it may
// be applied from, the status it leads to, and who may trigger it.
type TransitionRule struct {
	From  []ApplicationStatus
	To    ApplicationStatus
	Actor TransitionActor
}

var transitionRules = map[ApplicationAction]TransitionRule{
	ActionApprove: {From: []ApplicationStatus{StatusPending}, To: StatusApproved, Actor: ActorLandlord},
	ActionReject:  {From: []ApplicationStatus{StatusPending}, To: StatusRejected, Actor: ActorLandlord},
	ActionCancel:  {From: []ApplicationStatus{StatusPending, StatusApproved}, To: StatusCancelled, Actor: ActorApplicant},
	// Either party may confirm payment once the landlord has approved.
	ActionConfirmPayment: {From: []ApplicationStatus{StatusApproved}, To: StatusConfirmed, Actor: ActorEither},
}

// RuleFor returns the transition rule for an action.
func RuleFor(action ApplicationAction) (TransitionRule, bool) {
	r, ok := transitionRules[action]
	return r, ok
}

// AllowsFrom reports whether the rule may be applied from status s.
func (r TransitionRule) AllowsFrom(s ApplicationStatus) bool {
	for _, f := range r.From {
		if f == s {
			return true
		}
	}
	return false
}

// ProfileType describes who would occupy the room.
type ProfileType string

const (
	ProfileStudent             ProfileType = "student"
	ProfileWorkingProfessional ProfileType = "working_professional"
	ProfileFamily              ProfileType = "family"
)

// OccupantComposition describes the people a request would move in.
// For non-family profiles Males+Females must equal Adults before submission.
type OccupantComposition struct {
	ProfileType ProfileType `bson:"profile_type" json:"profile_type"`
	Adults      int         `bson:"adults" json:"adults"`
	Children    int         `bson:"children" json:"children"`
	Males       int         `bson:"males" json:"males"`
	Females     int         `bson:"females" json:"females"`
}

// ApplicationDraft is the unsubmitted form data for a booking request.
type ApplicationDraft struct {
	RoomID    utils.SixID         `json:"room_id"`
	FullName  string              `json:"full_name"`
	Mobile    string              `json:"mobile"`
	CheckIn   time.Time           `json:"check_in"`
	CheckOut  time.Time           `json:"check_out"`
	Occupants OccupantComposition `json:"occupants"`
	Message   string              `json:"message,omitempty"`
}

// Application is a booking request or inquiry made by an applicant for a room.
// Requests move through the status machine above; inquiries have no status.
// Applications are never deleted, only transitioned.
type Application struct {
	ID             utils.SixID          `bson:"_id,omitempty" json:"id,omitempty"`
	Kind           ApplicationKind      `bson:"kind" json:"kind"`
	Status         ApplicationStatus    `bson:"status,omitempty" json:"status,omitempty"`
	RoomID         utils.SixID          `bson:"room_id" json:"room_id"`
	ApplicantID    utils.SixID          `bson:"applicant_id" json:"applicant_id"`
	LandlordID     utils.SixID          `bson:"landlord_id" json:"landlord_id"`
	ConversationID utils.SixID          `bson:"conversation_id" json:"conversation_id"`
	FullName       string               `bson:"full_name,omitempty" json:"full_name,omitempty"`
	Mobile         string               `bson:"mobile,omitempty" json:"mobile,omitempty"`
	CheckIn        *time.Time           `bson:"check_in,omitempty" json:"check_in,omitempty"`
	CheckOut       *time.Time           `bson:"check_out,omitempty" json:"check_out,omitempty"`
	Occupants      *OccupantComposition `bson:"occupants,omitempty" json:"occupants,omitempty"`
	Message        string               `bson:"message,omitempty" json:"message,omitempty"`
	MonthlyRent    *Money               `bson:"monthly_rent,omitempty" json:"monthly_rent,omitempty"` // snapshot for display
	IsUpdated      bool                 `bson:"is_updated" json:"is_updated"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}
