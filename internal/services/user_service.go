package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/auth"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/config"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/db"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

var (
	ErrEmailTaken         = errors.New("email address already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserSuspended      = errors.New("account suspended")
)

// IUserService defines the interface for user account operations.
type IUserService interface {
	Register(ctx context.Context, name, email, mobile, password string, role models.Role) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, string, error)
	FindByID(ctx context.Context, userID utils.SixID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SuspendUser(ctx context.Context, userID, adminUserID utils.SixID) error
	UnsuspendUser(ctx context.Context, userID utils.SixID) error
	SetNotificationPreferences(ctx context.Context, userID utils.SixID, prefs models.NotificationPreferences) error
}

const usersCollection = "users"

// userService implements IUserService.
type userService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database, cfg *config.Config) IUserService {
	return &userService{db: db, cfg: cfg}
}

// Register creates a new student or landlord account.
func (s *userService) Register(ctx context.Context, name, email, mobile, password string, role models.Role) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("cannot register with role %q", role)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("name, email and password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	collection := s.db.Collection(usersCollection)
	now := time.Now().UTC()

	user := &models.User{
		Base:   models.NewBase(),
		Name:   name,
		Email:  email,
		Mobile: mobile,
		Role:   role,
		Notifications: models.NotificationPreferences{
			ApplicationUpdates: true,
			NewMessages:        true,
		},
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = collection.InsertOne(ctx, user)
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			// The unique index is on email; an _id collision is far less
			// likely than an email conflict, so report the email.
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

// Authenticate verifies credentials and returns the user plus a signed JWT.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}
	if user.Suspended {
		return nil, "", ErrUserSuspended
	}

	token, err := auth.GenerateJWT(user.ID, user.Role, s.cfg.JwtSecret, s.cfg.JwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// FindByID finds a non-deleted user by ID.
func (s *userService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).
		FindOne(ctx, bson.M{"_id": userID, "deleted": false}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user %s: %w", userID.String(), err)
	}
	return &user, nil
}

// FindByEmail finds a non-deleted user by email (case-insensitive).
func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	err := s.db.Collection(usersCollection).
		FindOne(ctx, bson.M{"email": email, "deleted": false}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	return &user, nil
}

// SuspendUser marks a user account as suspended. Admin only; the caller's
// admin role is checked at the API layer, ownership here.
func (s *userService) SuspendUser(ctx context.Context, userID, adminUserID utils.SixID) error {
	if userID == adminUserID {
		return fmt.Errorf("admins cannot suspend themselves")
	}
	return s.setSuspended(ctx, userID, true)
}

// UnsuspendUser lifts a suspension.
func (s *userService) UnsuspendUser(ctx context.Context, userID utils.SixID) error {
	return s.setSuspended(ctx, userID, false)
}

func (s *userService) setSuspended(ctx context.Context, userID utils.SixID, suspended bool) error {
	res, err := s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"_id": userID, "deleted": false},
		bson.M{"$set": bson.M{"suspended": suspended, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update suspension for user %s: %w", userID.String(), err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetNotificationPreferences replaces the user's notification settings.
func (s *userService) SetNotificationPreferences(ctx context.Context, userID utils.SixID, prefs models.NotificationPreferences) error {
	res, err := s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"_id": userID, "deleted": false},
		bson.M{"$set": bson.M{"notifications": prefs, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update notification preferences: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
