package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/config"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/eligibility"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

func setupTestDBApplication(t *testing.T, dbName string) *mongo.Database {
	return utils.SetupTestDB(t, dbName, "applications", "rooms", "users", "conversations", "messages")
}

func newApplicationServices(db *mongo.Database) (IApplicationService, IChatService) {
	cfg := &config.Config{}
	rooms := NewRoomService(db, cfg)
	chat := NewChatService(db, cfg)
	return NewApplicationService(db, cfg, rooms, chat, nil), chat
}

func seedUser(t *testing.T, db *mongo.Database, role models.Role) utils.SixID {
	t.Helper()
	id := utils.NewSixID()
	user := models.User{
		Base:      models.Base{ID: id},
		Name:      "Test " + string(role),
		Email:     id.String() + "@example.com",
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	_, err := db.Collection("users").InsertOne(context.Background(), user)
	assert.NoError(t, err)
	return id
}

func seedRoom(t *testing.T, db *mongo.Database, landlordID utils.SixID, prefs models.TenantPreferences) utils.SixID {
	t.Helper()
	now := time.Now()
	room := models.Room{
		ID:          utils.NewSixID(),
		LandlordID:  landlordID,
		Title:       "Sunny room near campus",
		City:        "Pune",
		CountryCode: "IN",
		MonthlyRent: models.Money{Value: 9500, CurrencyCode: "INR"},
		Preferences: prefs,
		PublishedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := db.Collection("rooms").InsertOne(context.Background(), room)
	assert.NoError(t, err)
	return room.ID
}

func studentDraft(roomID utils.SixID) models.ApplicationDraft {
	return models.ApplicationDraft{
		RoomID:   roomID,
		FullName: "Asha Verma",
		Mobile:   "+91 98765 43210",
		CheckIn:  time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2027, 3, 31, 0, 0, 0, 0, time.UTC),
		Occupants: models.OccupantComposition{
			ProfileType: models.ProfileStudent,
			Adults:      1,
			Females:     1,
		},
	}
}

func TestApplicationService_CreateRequest(t *testing.T) {
	db := setupTestDBApplication(t, "testdb_application_create")
	svc, chat := newApplicationServices(db)
	ctx := context.Background()

	landlordID := seedUser(t, db, models.RoleLandlord)
	applicantID := seedUser(t, db, models.RoleStudent)
	roomID := seedRoom(t, db, landlordID, models.TenantPreferences{
		FamilyStatus:  models.FamilyStatusAny,
		AllowedGender: models.GenderAny,
	})

	app, err := svc.CreateRequest(ctx, applicantID, studentDraft(roomID))
	assert.NoError(t, err)
	assert.NotNil(t, app)
	assert.Equal(t, models.KindRequest, app.Kind)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Equal(t, landlordID, app.LandlordID)
	assert.False(t, app.IsUpdated)
	assert.NotNil(t, app.MonthlyRent)
	assert.Equal(t, 9500.0, app.MonthlyRent.Value)

	// A conversation exists and carries the booking card.
	conv, err := chat.GetConversation(ctx, app.ConversationID, applicantID)
	assert.NoError(t, err)
	assert.Equal(t, roomID, conv.RoomID)

	msgs, err := chat.ListMessages(ctx, conv.ID, landlordID, 10)
	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, models.MessageBookingCard, msgs[0].Kind)
	assert.Equal(t, models.StatusPending, msgs[0].CardStatus)

	// A second request for the same room reuses the conversation.
	app2, err := svc.CreateRequest(ctx, applicantID, studentDraft(roomID))
	assert.NoError(t, err)
	assert.Equal(t, app.ConversationID, app2.ConversationID)

	// Applying to your own room is forbidden.
	_, err = svc.CreateRequest(ctx, landlordID, studentDraft(roomID))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestApplicationService_CreateRequestValidation(t *testing.T) {
	db := setupTestDBApplication(t, "testdb_application_create_validation")
	svc, _ := newApplicationServices(db)
	ctx := context.Background()

	landlordID := seedUser(t, db, models.RoleLandlord)
	applicantID := seedUser(t, db, models.RoleStudent)
	roomID := seedRoom(t, db, landlordID, models.TenantPreferences{
		FamilyStatus:  models.FamilyStatusBachelors,
		AllowedGender: models.GenderFemale,
	})

	// Family profile against a bachelors-only room.
	draft := studentDraft(roomID)
	draft.Occupants = models.OccupantComposition{
		ProfileType: models.ProfileFamily,
		Adults:      2,
		Children:    1,
	}
	_, err := svc.CreateRequest(ctx, applicantID, draft)
	assert.ErrorIs(t, err, eligibility.ErrBachelorsOnly)

	// Mixed group against a female-only room.
	draft = studentDraft(roomID)
	draft.Occupants = models.OccupantComposition{
		ProfileType: models.ProfileStudent,
		Adults:      2,
		Males:       1,
		Females:     1,
	}
	_, err = svc.CreateRequest(ctx, applicantID, draft)
	assert.ErrorIs(t, err, eligibility.ErrNoMalesAllowed)

	// Missing mobile blocks submission before eligibility even runs.
	draft = studentDraft(roomID)
	draft.Mobile = ""
	_, err = svc.CreateRequest(ctx, applicantID, draft)
	assert.ErrorIs(t, err, eligibility.ErrMissingField)

	// Check-out must be after check-in.
	draft = studentDraft(roomID)
	draft.CheckOut = draft.CheckIn
	_, err = svc.CreateRequest(ctx, applicantID, draft)
	assert.ErrorIs(t, err, eligibility.ErrInvalidDateRange)

	// Nothing was written for any rejected draft.
	count, err := db.Collection("applications").CountDocuments(ctx, bson.M{})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestApplicationService_Lifecycle(t *testing.T) {
	db := setupTestDBApplication(t, "testdb_application_lifecycle")
	svc, chat := newApplicationServices(db)
	ctx := context.Background()

	landlordID := seedUser(t, db, models.RoleLandlord)
	applicantID := seedUser(t, db, models.RoleStudent)
	strangerID := seedUser(t, db, models.RoleStudent)
	roomID := seedRoom(t, db, landlordID, models.TenantPreferences{
		FamilyStatus:  models.FamilyStatusAny,
		AllowedGender: models.GenderAny,
	})

	app, err := svc.CreateRequest(ctx, applicantID, studentDraft(roomID))
	assert.NoError(t, err)

	// Only the landlord can approve. A third party gets not-found, not
	// forbidden, so they cannot tell the application exists.
	_, err = svc.Approve(ctx, app.ID, applicantID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Approve(ctx, app.ID, strangerID)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	approved, err := svc.Approve(ctx, app.ID, landlordID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	// The booking card mirrors the new status.
	msgs, err := chat.ListMessages(ctx, app.ConversationID, applicantID, 10)
	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, models.StatusApproved, msgs[0].CardStatus)

	// Approving twice is a conflict, not a no-op.
	_, err = svc.Approve(ctx, app.ID, landlordID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Rejecting an approved request is invalid.
	_, err = svc.Reject(ctx, app.ID, landlordID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Either party can confirm payment; the landlord does here.
	confirmed, err := svc.ConfirmPayment(ctx, app.ID, landlordID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	// Confirmed is terminal.
	_, err = svc.Cancel(ctx, app.ID, applicantID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApplicationService_CancelPaths(t *testing.T) {
	db := setupTestDBApplication(t, "testdb_application_cancel")
	svc, _ := newApplicationServices(db)
	ctx := context.Background()

	landlordID := seedUser(t, db, models.RoleLandlord)
	applicantID := seedUser(t, db, models.RoleStudent)
	roomID := seedRoom(t, db, landlordID, models.TenantPreferences{
		FamilyStatus:  models.FamilyStatusAny,
		AllowedGender: models.GenderAny,
	})

	// Cancel while pending.
	app, err := svc.CreateRequest(ctx, applicantID, studentDraft(roomID))
	assert.NoError(t, err)

	// The landlord cannot cancel on the applicant's behalf.
	_, err = svc.Cancel(ctx, app.ID, landlordID)
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := svc.Cancel(ctx, app.ID, applicantID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	// Cancel after approval.
	app2, err := svc.CreateRequest(ctx, applicantID, studentDraft(roomID))
	assert.NoError(t, err)
	_, err = svc.Approve(ctx, app2.ID, landlordID)
	assert.NoError(t, err)

	cancelled2, err := svc.Cancel(ctx, app2.ID, applicantID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled2.Status)

	// Cancelled is terminal.
	_, err = svc.Approve(ctx, app2.ID, landlordID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApplicationService_ConcurrentDecision(t *testing.T) {
	db := setupTestDBApplication(t, "testdb_application_race")
	svc, chat := newApplicationServices(db)
	ctx := context.Background()

	landlordID := seedUser(t, db, models.RoleLandlord)
	applicantID := seedUser(t, db, models.RoleStudent)
	roomID := seedRoom(t, db, landlordID, models.TenantPreferences{
		FamilyStatus:  models.FamilyStatusAny,
		AllowedGender: models.GenderAny,
	})

	app, err := svc.CreateRequest(ctx, applicantID, studentDraft(roomID))
	assert.NoError(t, err)

	// Landlord approves while the applicant cancels. Exactly one write can
	// win; the loser must see a transition conflict, never a partial update.
	var wg sync.WaitGroup
	var approveErr, cancelErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, approveErr = svc.Approve(ctx, app.ID, landlordID)
	}()
	go func() {
		defer wg.Done()
		_, cancelErr = svc.Cancel(ctx, app.ID, applicantID)
	}()
	wg.Wait()

	var final models.Application
	err = db.Collection("applications").FindOne(ctx, bson.M{"_id": app.ID}).Decode(&final)
	assert.NoError(t, err)

	switch {
	case approveErr == nil && cancelErr == nil:
		// Approve then cancel is a legal sequence if cancel observed the
		// approved state; the request must then end up cancelled.
		assert.Equal(t, models.StatusCancelled, final.Status)
	case approveErr == nil:
		assert.ErrorIs(t, cancelErr, ErrInvalidTransition)
		assert.Equal(t, models.StatusApproved, final.Status)

		// With a single winner the booking card must agree with the store.
		msgs, err := chat.ListMessages(ctx, app.ConversationID, applicantID, 10)
		assert.NoError(t, err)
		assert.Len(t, msgs, 1)
		assert.Equal(t, models.StatusApproved, msgs[0].CardStatus)
	default:
		assert.NoError(t, cancelErr)
		assert.ErrorIs(t, approveErr, ErrInvalidTransition)
		assert.Equal(t, models.StatusCancelled, final.Status)

		msgs, err := chat.ListMessages(ctx, app.ConversationID, applicantID, 10)
		assert.NoError(t, err)
		assert.Len(t, msgs, 1)
		assert.Equal(t, models.StatusCancelled, msgs[0].CardStatus)
	}
}

func TestApplicationService_EditRequest(t *testing.T) {
	db := setupTestDBApplication(t, "testdb_application_edit")
	svc, _ := newApplicationServices(db)
	ctx := context.Background()

	landlordID := seedUser(t, db, models.RoleLandlord)
	applicantID := seedUser(t, db, models.RoleStudent)
	roomID := seedRoom(t, db, landlordID, models.TenantPreferences{
		FamilyStatus:  models.FamilyStatusAny,
		AllowedGender: models.GenderFemale,
	})

	app, err := svc.CreateRequest(ctx, applicantID, studentDraft(roomID))
	assert.NoError(t, err)
	assert.False(t, app.IsUpdated)

	patch := ApplicationPatch{
		FullName: "Asha K. Verma",
		Mobile:   "+91 98765 43210",
		CheckIn:  time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2027, 4, 30, 0, 0, 0, 0, time.UTC),
		Occupants: models.OccupantComposition{
			ProfileType: models.ProfileStudent,
			Adults:      2,
			Females:     2,
		},
	}

	// Only the applicant can edit.
	_, err = svc.EditRequest(ctx, app.ID, landlordID, patch)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.EditRequest(ctx, app.ID, applicantID, patch)
	assert.NoError(t, err)
	assert.True(t, updated.IsUpdated)
	assert.Equal(t, "Asha K. Verma", updated.FullName)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Equal(t, 2, updated.Occupants.Adults)

	// Edits re-run eligibility against the room.
	bad := patch
	bad.Occupants.Males = 1
	_, err = svc.EditRequest(ctx, app.ID, applicantID, bad)
	assert.ErrorIs(t, err, eligibility.ErrNoMalesAllowed)

	// Once decided, the request is frozen.
	_, err = svc.Approve(ctx, app.ID, landlordID)
	assert.NoError(t, err)
	_, err = svc.EditRequest(ctx, app.ID, applicantID, patch)
	assert.ErrorIs(t, err, ErrNotEditable)
}

func TestApplicationService_Inquiry(t *testing.T) {
	db := setupTestDBApplication(t, "testdb_application_inquiry")
	svc, chat := newApplicationServices(db)
	ctx := context.Background()

	landlordID := seedUser(t, db, models.RoleLandlord)
	applicantID := seedUser(t, db, models.RoleStudent)
	roomID := seedRoom(t, db, landlordID, models.TenantPreferences{
		FamilyStatus:  models.FamilyStatusAny,
		AllowedGender: models.GenderAny,
	})

	_, err := svc.CreateInquiry(ctx, applicantID, roomID, "  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	inq, err := svc.CreateInquiry(ctx, applicantID, roomID, "Is the room still available from October?")
	assert.NoError(t, err)
	assert.Equal(t, models.KindInquiry, inq.Kind)
	assert.Empty(t, inq.Status)

	// Inquiries have no lifecycle.
	_, err = svc.Approve(ctx, inq.ID, landlordID)
	assert.Error(t, err)

	msgs, err := chat.ListMessages(ctx, inq.ConversationID, landlordID, 10)
	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, models.MessageText, msgs[0].Kind)
}

func TestApplicationService_ListingAndVisibility(t *testing.T) {
	db := setupTestDBApplication(t, "testdb_application_listing")
	svc, _ := newApplicationServices(db)
	ctx := context.Background()

	landlordID := seedUser(t, db, models.RoleLandlord)
	applicantID := seedUser(t, db, models.RoleStudent)
	strangerID := seedUser(t, db, models.RoleStudent)
	roomID := seedRoom(t, db, landlordID, models.TenantPreferences{
		FamilyStatus:  models.FamilyStatusAny,
		AllowedGender: models.GenderAny,
	})

	app, err := svc.CreateRequest(ctx, applicantID, studentDraft(roomID))
	assert.NoError(t, err)

	// Both parties can read it; a third party cannot.
	_, err = svc.FindByID(ctx, app.ID, applicantID)
	assert.NoError(t, err)
	_, err = svc.FindByID(ctx, app.ID, landlordID)
	assert.NoError(t, err)
	_, err = svc.FindByID(ctx, app.ID, strangerID)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	mine, err := svc.ListForApplicant(ctx, applicantID, 10)
	assert.NoError(t, err)
	assert.Len(t, mine, 1)

	received, err := svc.ListForLandlord(ctx, landlordID, 10)
	assert.NoError(t, err)
	assert.Len(t, received, 1)

	none, err := svc.ListForApplicant(ctx, strangerID, 10)
	assert.NoError(t, err)
	assert.Len(t, none, 0)
}

func TestApplicationService_ForeignLooksLikeMissing(t *testing.T) {
	db := setupTestDBApplication(t, "testdb_application_visibility")
	svc, _ := newApplicationServices(db)
	ctx := context.Background()

	landlordID := seedUser(t, db, models.RoleLandlord)
	applicantID := seedUser(t, db, models.RoleStudent)
	strangerID := seedUser(t, db, models.RoleStudent)
	roomID := seedRoom(t, db, landlordID, models.TenantPreferences{
		FamilyStatus:  models.FamilyStatusAny,
		AllowedGender: models.GenderAny,
	})

	app, err := svc.CreateRequest(ctx, applicantID, studentDraft(roomID))
	assert.NoError(t, err)
	missingID := utils.NewSixID()

	// A third party hitting a real ID must see exactly what a never-assigned
	// ID produces, for reads, transitions and edits alike.
	_, foreignErr := svc.FindByID(ctx, app.ID, strangerID)
	_, missingErr := svc.FindByID(ctx, missingID, strangerID)
	assert.ErrorIs(t, foreignErr, mongo.ErrNoDocuments)
	assert.Equal(t, missingErr, foreignErr)

	_, foreignErr = svc.Cancel(ctx, app.ID, strangerID)
	_, missingErr = svc.Cancel(ctx, missingID, strangerID)
	assert.ErrorIs(t, foreignErr, mongo.ErrNoDocuments)
	assert.Equal(t, missingErr, foreignErr)

	_, foreignErr = svc.EditRequest(ctx, app.ID, strangerID, ApplicationPatch{})
	assert.ErrorIs(t, foreignErr, mongo.ErrNoDocuments)

	// The failed attempts must not have touched the application.
	got, err := svc.FindByID(ctx, app.ID, applicantID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.False(t, got.IsUpdated)
}

func TestApplicationService_TransitionListeners(t *testing.T) {
	db := setupTestDBApplication(t, "testdb_application_listeners")
	svc, _ := newApplicationServices(db)
	ctx := context.Background()

	landlordID := seedUser(t, db, models.RoleLandlord)
	applicantID := seedUser(t, db, models.RoleStudent)
	roomID := seedRoom(t, db, landlordID, models.TenantPreferences{
		FamilyStatus:  models.FamilyStatusAny,
		AllowedGender: models.GenderAny,
	})

	type event struct{ from, to models.ApplicationStatus }
	var mu sync.Mutex
	var events []event
	svc.AddTransitionListener(func(app *models.Application, from, to models.ApplicationStatus) {
		mu.Lock()
		events = append(events, event{from, to})
		mu.Unlock()
	})

	app, err := svc.CreateRequest(ctx, applicantID, studentDraft(roomID))
	assert.NoError(t, err)
	_, err = svc.Approve(ctx, app.ID, landlordID)
	assert.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, app.ID, applicantID)
	assert.NoError(t, err)

	// A failed transition must not fire a listener.
	_, err = svc.Approve(ctx, app.ID, landlordID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []event{
		{models.StatusPending, models.StatusApproved},
		{models.StatusApproved, models.StatusConfirmed},
	}, events)
}
