package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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
	ErrRoomNotAvailable = errors.New("room is not available")
	ErrNotRoomOwner     = errors.New("room does not belong to this landlord")
)

// RoomSearchParams are the optional filters for SearchRooms.
type RoomSearchParams struct {
	City          string
	CountryCode   string
	MinRent       *float64
	MaxRent       *float64
	FamilyStatus  *models.FamilyStatus
	NearLocation  *models.GeoJSON
	MaxDistanceKM *int
	Limit         int
	Cursor        string // unix-nano timestamp of the last seen room
}

// IRoomService defines the interface for room listing operations.
type IRoomService interface {
	CreateRoom(ctx context.Context, landlordID utils.SixID, room *models.Room) (*models.Room, error)
	FindRoomByID(ctx context.Context, roomID utils.SixID) (*models.Room, error)
	FindOwnRoomByID(ctx context.Context, roomID, landlordID utils.SixID) (*models.Room, error)
	UpdateRoom(ctx context.Context, roomID, landlordID utils.SixID, updates map[string]interface{}) (*models.Room, error)
	PublishRoom(ctx context.Context, roomID, landlordID utils.SixID) error
	HideRoom(ctx context.Context, roomID, landlordID utils.SixID) error
	UnhideRoom(ctx context.Context, roomID, landlordID utils.SixID) error
	DeleteRoom(ctx context.Context, roomID, landlordID utils.SixID) error
	SearchRooms(ctx context.Context, params RoomSearchParams) ([]models.Room, string, error)
	RoomsByLandlord(ctx context.Context, landlordID utils.SixID) ([]models.Room, error)
	AddPhotoToRoom(ctx context.Context, roomID utils.SixID, photoKey string) error
	ApplyReview(ctx context.Context, roomID utils.SixID, rating int) error
	SuspendRoom(ctx context.Context, roomID, adminUserID utils.SixID, reason string) error
	UnsuspendRoom(ctx context.Context, roomID utils.SixID) error
}

const (
	roomsCollection           = "rooms"
	roomSuspensionsCollection = "room_suspensions"
)

// roomService implements IRoomService.
type roomService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewRoomService creates a new RoomService.
func NewRoomService(db *mongo.Database, cfg *config.Config) IRoomService {
	return &roomService{db: db, cfg: cfg}
}

// CreateRoom inserts a new room in draft state, owned by landlordID.
func (s *roomService) CreateRoom(ctx context.Context, landlordID utils.SixID, room *models.Room) (*models.Room, error) {
	collection := s.db.Collection(roomsCollection)
	now := time.Now().UTC()

	if room.Preferences.FamilyStatus == "" {
		room.Preferences.FamilyStatus = models.FamilyStatusAny
	}
	if room.Preferences.AllowedGender == "" {
		room.Preferences.AllowedGender = models.GenderAny
	}

	operation := func() error {
		room.ID = utils.NewSixID()
		room.LandlordID = landlordID
		room.Photos = []string{}
		room.IsDraft = true
		room.Hidden = false
		room.Deleted = false
		room.PublishedAt = nil
		room.CreatedAt = now
		room.UpdatedAt = now
		_, insertErr := collection.InsertOne(ctx, room)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert room for landlord %s: %w", landlordID.String(), err)
	}
	return room, nil
}

// FindRoomByID finds a published, visible room by its ID. A room whose
// landlord is suspended is treated as not found.
func (s *roomService) FindRoomByID(ctx context.Context, roomID utils.SixID) (*models.Room, error) {
	var room models.Room
	filter := bson.M{
		"_id":        roomID,
		"deleted":    false,
		"is_draft":   false,
		"hidden":     false,
		"suspension": bson.M{"$exists": false},
	}
	err := s.db.Collection(roomsCollection).FindOne(ctx, filter).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding room %s: %w", roomID.String(), err)
	}

	// Implicit suspension: hide rooms of suspended landlords.
	var landlord models.User
	err = s.db.Collection(usersCollection).
		FindOne(ctx, bson.M{"_id": room.LandlordID, "deleted": false}).Decode(&landlord)
	if err != nil || landlord.Suspended {
		return nil, mongo.ErrNoDocuments
	}
	return &room, nil
}

// FindOwnRoomByID finds any non-deleted room owned by landlordID, drafts and
// hidden rooms included.
func (s *roomService) FindOwnRoomByID(ctx context.Context, roomID, landlordID utils.SixID) (*models.Room, error) {
	var room models.Room
	err := s.db.Collection(roomsCollection).
		FindOne(ctx, bson.M{"_id": roomID, "landlord_id": landlordID, "deleted": false}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding own room %s: %w", roomID.String(), err)
	}
	return &room, nil
}

// roomUpdateAllowed lists the bson fields a landlord may change directly.
var roomUpdateAllowed = map[string]bool{
	"title":               true,
	"description":         true,
	"city":                true,
	"country_code":        true,
	"location":            true,
	"monthly_rent":        true,
	"minimum_stay_months": true,
	"preferences":         true,
}

// UpdateRoom updates mutable fields of a room owned by landlordID.
// Status flags (is_draft, hidden) have dedicated methods.
func (s *roomService) UpdateRoom(ctx context.Context, roomID, landlordID utils.SixID, updates map[string]interface{}) (*models.Room, error) {
	allowed := bson.M{}
	for k, v := range updates {
		if roomUpdateAllowed[k] {
			allowed[k] = v
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("no updatable fields provided")
	}
	allowed["updated_at"] = time.Now().UTC()

	filter := bson.M{
		"_id":         roomID,
		"landlord_id": landlordID,
		"deleted":     false,
		"suspension":  bson.M{"$exists": false},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Room
	err := s.db.Collection(roomsCollection).
		FindOneAndUpdate(ctx, filter, bson.M{"$set": allowed}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, s.explainWriteMiss(ctx, roomID, landlordID)
		}
		return nil, fmt.Errorf("failed to update room %s: %w", roomID.String(), err)
	}
	return &updated, nil
}

// PublishRoom makes a draft room publicly visible.
func (s *roomService) PublishRoom(ctx context.Context, roomID, landlordID utils.SixID) error {
	now := time.Now().UTC()
	return s.flagUpdate(ctx, roomID, landlordID,
		bson.M{"is_draft": false, "published_at": now, "updated_at": now})
}

// HideRoom temporarily removes a room from search and detail views.
func (s *roomService) HideRoom(ctx context.Context, roomID, landlordID utils.SixID) error {
	return s.flagUpdate(ctx, roomID, landlordID,
		bson.M{"hidden": true, "updated_at": time.Now().UTC()})
}

// UnhideRoom makes a hidden room visible again.
func (s *roomService) UnhideRoom(ctx context.Context, roomID, landlordID utils.SixID) error {
	return s.flagUpdate(ctx, roomID, landlordID,
		bson.M{"hidden": false, "updated_at": time.Now().UTC()})
}

// DeleteRoom soft-deletes a room.
func (s *roomService) DeleteRoom(ctx context.Context, roomID, landlordID utils.SixID) error {
	return s.flagUpdate(ctx, roomID, landlordID,
		bson.M{"deleted": true, "updated_at": time.Now().UTC()})
}

func (s *roomService) flagUpdate(ctx context.Context, roomID, landlordID utils.SixID, set bson.M) error {
	filter := bson.M{
		"_id":         roomID,
		"landlord_id": landlordID,
		"deleted":     false,
		"suspension":  bson.M{"$exists": false},
	}
	res, err := s.db.Collection(roomsCollection).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update room %s: %w", roomID.String(), err)
	}
	if res.MatchedCount == 0 {
		return s.explainWriteMiss(ctx, roomID, landlordID)
	}
	return nil
}

// explainWriteMiss distinguishes "not yours" from "gone" after a guarded
// write matched nothing.
func (s *roomService) explainWriteMiss(ctx context.Context, roomID, landlordID utils.SixID) error {
	var room models.Room
	err := s.db.Collection(roomsCollection).
		FindOne(ctx, bson.M{"_id": roomID, "deleted": false}).Decode(&room)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	if room.LandlordID != landlordID {
		return ErrNotRoomOwner
	}
	return ErrRoomNotAvailable
}

// SearchRooms returns published, visible rooms matching the filters, newest
// first, with a created-at cursor for the next page.
func (s *roomService) SearchRooms(ctx context.Context, params RoomSearchParams) ([]models.Room, string, error) {
	filter := bson.M{
		"deleted":    false,
		"is_draft":   false,
		"hidden":     false,
		"suspension": bson.M{"$exists": false},
	}
	if params.City != "" {
		filter["city"] = params.City
	}
	if params.CountryCode != "" {
		filter["country_code"] = params.CountryCode
	}
	if params.MinRent != nil || params.MaxRent != nil {
		rent := bson.M{}
		if params.MinRent != nil {
			rent["$gte"] = *params.MinRent
		}
		if params.MaxRent != nil {
			rent["$lte"] = *params.MaxRent
		}
		filter["monthly_rent.value"] = rent
	}
	if params.FamilyStatus != nil {
		// A room open to "any" matches every family-status filter.
		filter["preferences.family_status"] = bson.M{"$in": []models.FamilyStatus{*params.FamilyStatus, models.FamilyStatusAny}}
	}
	if params.NearLocation != nil {
		near := bson.M{"$geometry": params.NearLocation}
		if params.MaxDistanceKM != nil {
			near["$maxDistance"] = *params.MaxDistanceKM * 1000
		}
		filter["location"] = bson.M{"$near": near}
	}
	if params.Cursor != "" {
		nanos, err := strconv.ParseInt(params.Cursor, 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("invalid search cursor: %w", err)
		}
		filter["created_at"] = bson.M{"$lt": time.Unix(0, nanos).UTC()}
	}

	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = s.cfg.SearchPageSize
	}

	opts := options.Find().SetLimit(int64(limit))
	if params.NearLocation == nil {
		// $near results come back ordered by distance; otherwise newest first.
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}

	cursor, err := s.db.Collection(roomsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to search rooms: %w", err)
	}
	defer cursor.Close(ctx)

	var rooms []models.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, "", fmt.Errorf("failed to decode rooms: %w", err)
	}

	nextCursor := ""
	if len(rooms) == limit && params.NearLocation == nil {
		nextCursor = strconv.FormatInt(rooms[len(rooms)-1].CreatedAt.UnixNano(), 10)
	}
	return rooms, nextCursor, nil
}

// RoomsByLandlord returns all non-deleted rooms of a landlord, drafts included.
func (s *roomService) RoomsByLandlord(ctx context.Context, landlordID utils.SixID) ([]models.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(roomsCollection).
		Find(ctx, bson.M{"landlord_id": landlordID, "deleted": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms for landlord %s: %w", landlordID.String(), err)
	}
	defer cursor.Close(ctx)

	var rooms []models.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return rooms, nil
}

// AddPhotoToRoom appends a processed photo key to the room. Called by the
// image task after resizing, so no ownership check here.
func (s *roomService) AddPhotoToRoom(ctx context.Context, roomID utils.SixID, photoKey string) error {
	res, err := s.db.Collection(roomsCollection).UpdateOne(ctx,
		bson.M{"_id": roomID, "deleted": false},
		bson.M{"$addToSet": bson.M{"photos": photoKey}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to add photo to room %s: %w", roomID.String(), err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ApplyReview folds one new rating into the room's aggregate.
func (s *roomService) ApplyReview(ctx context.Context, roomID utils.SixID, rating int) error {
	var room models.Room
	err := s.db.Collection(roomsCollection).
		FindOne(ctx, bson.M{"_id": roomID, "deleted": false}).Decode(&room)
	if err != nil {
		return fmt.Errorf("failed to load room %s for rating: %w", roomID.String(), err)
	}

	count := room.ReviewCount + 1
	avg := (room.AverageRating*float64(room.ReviewCount) + float64(rating)) / float64(count)

	_, err = s.db.Collection(roomsCollection).UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$set": bson.M{"review_count": count, "average_rating": avg, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update rating for room %s: %w", roomID.String(), err)
	}
	return nil
}

// SuspendRoom records an admin suspension and flags the room.
func (s *roomService) SuspendRoom(ctx context.Context, roomID, adminUserID utils.SixID, reason string) error {
	suspension := &models.RoomSuspension{
		ID:          utils.NewSixID(),
		RoomID:      roomID,
		AdminUserID: adminUserID,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.db.Collection(roomSuspensionsCollection).InsertOne(ctx, suspension); err != nil {
		return fmt.Errorf("failed to record suspension for room %s: %w", roomID.String(), err)
	}

	res, err := s.db.Collection(roomsCollection).UpdateOne(ctx,
		bson.M{"_id": roomID, "deleted": false},
		bson.M{"$set": bson.M{"suspension": suspension.ID, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to suspend room %s: %w", roomID.String(), err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UnsuspendRoom lifts a room suspension.
func (s *roomService) UnsuspendRoom(ctx context.Context, roomID utils.SixID) error {
	now := time.Now().UTC()
	_, err := s.db.Collection(roomSuspensionsCollection).UpdateMany(ctx,
		bson.M{"room_id": roomID, "lifted_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"lifted_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to close suspension records for room %s: %w", roomID.String(), err)
	}

	res, err := s.db.Collection(roomsCollection).UpdateOne(ctx,
		bson.M{"_id": roomID, "deleted": false},
		bson.M{"$unset": bson.M{"suspension": ""}, "$set": bson.M{"updated_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to unsuspend room %s: %w", roomID.String(), err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
