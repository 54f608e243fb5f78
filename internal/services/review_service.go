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

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/db"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

var (
	ErrAlreadyReviewed = errors.New("this stay has already been reviewed")
	ErrNotReviewable   = errors.New("only confirmed stays can be reviewed")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
)

// IReviewService lets applicants review rooms after a confirmed stay.
type IReviewService interface {
	CreateReview(ctx context.Context, authorID, applicationID utils.SixID, rating int, comment string) (*models.Review, error)
	ListForRoom(ctx context.Context, roomID utils.SixID, limit int) ([]models.Review, error)
	DeleteReview(ctx context.Context, reviewID, adminUserID utils.SixID) error
}

const reviewsCollection = "reviews"

type reviewService struct {
	db    *mongo.Database
	rooms IRoomService
}

// NewReviewService creates a new ReviewService.
func NewReviewService(db *mongo.Database, rooms IRoomService) IReviewService {
	return &reviewService{db: db, rooms: rooms}
}

// CreateReview records one review per confirmed application. The unique index
// on application_id enforces the one-per-stay rule against concurrent writers.
func (s *reviewService) CreateReview(ctx context.Context, authorID, applicationID utils.SixID, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var app models.Application
	err := s.db.Collection(applicationsCollection).
		FindOne(ctx, bson.M{"_id": applicationID, "kind": models.KindRequest}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error loading application %s: %w", applicationID.String(), err)
	}
	if app.ApplicantID != authorID {
		return nil, ErrForbidden
	}
	if app.Status != models.StatusConfirmed {
		return nil, ErrNotReviewable
	}

	// A duplicate key here is the application_id index, not an _id
	// collision, so retrying with a fresh ID would never succeed.
	review := &models.Review{
		ID:            utils.NewSixID(),
		RoomID:        app.RoomID,
		ApplicationID: applicationID,
		AuthorID:      authorID,
		Rating:        rating,
		Comment:       strings.TrimSpace(comment),
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := s.db.Collection(reviewsCollection).InsertOne(ctx, review); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}

	if err := s.rooms.ApplyReview(ctx, app.RoomID, rating); err != nil {
		// The review stands; the aggregate catches up on the next one.
		log.Printf("Failed to fold review %s into room aggregate: %v", review.ID.String(), err)
	}

	return review, nil
}

// ListForRoom returns visible reviews for a room, newest first.
func (s *reviewService) ListForRoom(ctx context.Context, roomID utils.SixID, limit int) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.db.Collection(reviewsCollection).
		Find(ctx, bson.M{"room_id": roomID, "deleted": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

// DeleteReview soft-deletes a review. Admin only.
func (s *reviewService) DeleteReview(ctx context.Context, reviewID, adminUserID utils.SixID) error {
	var admin models.User
	err := s.db.Collection(usersCollection).
		FindOne(ctx, bson.M{"_id": adminUserID, "deleted": false}).Decode(&admin)
	if err != nil {
		return fmt.Errorf("error loading user %s: %w", adminUserID.String(), err)
	}
	if !admin.IsAdmin() {
		return ErrForbidden
	}

	res, err := s.db.Collection(reviewsCollection).
		UpdateOne(ctx, bson.M{"_id": reviewID}, bson.M{"$set": bson.M{"deleted": true}})
	if err != nil {
		return fmt.Errorf("failed to delete review %s: %w", reviewID.String(), err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
