package handlers_test

import (
	"context"
	"io"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/services"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

// --- Mocks ---

// MockUserService implements services.IUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, name, email, mobile, password string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, name, email, mobile, password, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

func (m *MockUserService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) SuspendUser(ctx context.Context, userID, adminUserID utils.SixID) error {
	args := m.Called(ctx, userID, adminUserID)
	return args.Error(0)
}

func (m *MockUserService) UnsuspendUser(ctx context.Context, userID utils.SixID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserService) SetNotificationPreferences(ctx context.Context, userID utils.SixID, prefs models.NotificationPreferences) error {
	args := m.Called(ctx, userID, prefs)
	return args.Error(0)
}

// MockApplicationService implements services.IApplicationService
type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) CreateRequest(ctx context.Context, applicantID utils.SixID, draft models.ApplicationDraft) (*models.Application, error) {
	args := m.Called(ctx, applicantID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockApplicationService) CreateInquiry(ctx context.Context, applicantID, roomID utils.SixID, message string) (*models.Application, error) {
	args := m.Called(ctx, applicantID, roomID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockApplicationService) Approve(ctx context.Context, applicationID, landlordID utils.SixID) (*models.Application, error) {
	args := m.Called(ctx, applicationID, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockApplicationService) Reject(ctx context.Context, applicationID, landlordID utils.SixID) (*models.Application, error) {
	args := m.Called(ctx, applicationID, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockApplicationService) Cancel(ctx context.Context, applicationID, applicantID utils.SixID) (*models.Application, error) {
	args := m.Called(ctx, applicationID, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockApplicationService) ConfirmPayment(ctx context.Context, applicationID, actorID utils.SixID) (*models.Application, error) {
	args := m.Called(ctx, applicationID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockApplicationService) EditRequest(ctx context.Context, applicationID, applicantID utils.SixID, patch services.ApplicationPatch) (*models.Application, error) {
	args := m.Called(ctx, applicationID, applicantID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockApplicationService) FindByID(ctx context.Context, applicationID, userID utils.SixID) (*models.Application, error) {
	args := m.Called(ctx, applicationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockApplicationService) ListForApplicant(ctx context.Context, applicantID utils.SixID, limit int) ([]models.Application, error) {
	args := m.Called(ctx, applicantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Application), args.Error(1)
}

func (m *MockApplicationService) ListForLandlord(ctx context.Context, landlordID utils.SixID, limit int) ([]models.Application, error) {
	args := m.Called(ctx, landlordID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Application), args.Error(1)
}

func (m *MockApplicationService) AddTransitionListener(l services.TransitionListener) {
	m.Called(l)
}

// MockRoomService implements services.IRoomService
type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) CreateRoom(ctx context.Context, landlordID utils.SixID, room *models.Room) (*models.Room, error) {
	args := m.Called(ctx, landlordID, room)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomService) FindRoomByID(ctx context.Context, roomID utils.SixID) (*models.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomService) FindOwnRoomByID(ctx context.Context, roomID, landlordID utils.SixID) (*models.Room, error) {
	args := m.Called(ctx, roomID, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomService) UpdateRoom(ctx context.Context, roomID, landlordID utils.SixID, updates map[string]interface{}) (*models.Room, error) {
	args := m.Called(ctx, roomID, landlordID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomService) PublishRoom(ctx context.Context, roomID, landlordID utils.SixID) error {
	args := m.Called(ctx, roomID, landlordID)
	return args.Error(0)
}

func (m *MockRoomService) HideRoom(ctx context.Context, roomID, landlordID utils.SixID) error {
	args := m.Called(ctx, roomID, landlordID)
	return args.Error(0)
}

func (m *MockRoomService) UnhideRoom(ctx context.Context, roomID, landlordID utils.SixID) error {
	args := m.Called(ctx, roomID, landlordID)
	return args.Error(0)
}

func (m *MockRoomService) DeleteRoom(ctx context.Context, roomID, landlordID utils.SixID) error {
	args := m.Called(ctx, roomID, landlordID)
	return args.Error(0)
}

func (m *MockRoomService) SearchRooms(ctx context.Context, params services.RoomSearchParams) ([]models.Room, string, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]models.Room), args.String(1), args.Error(2)
}

func (m *MockRoomService) RoomsByLandlord(ctx context.Context, landlordID utils.SixID) ([]models.Room, error) {
	args := m.Called(ctx, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Room), args.Error(1)
}

func (m *MockRoomService) AddPhotoToRoom(ctx context.Context, roomID utils.SixID, photoKey string) error {
	args := m.Called(ctx, roomID, photoKey)
	return args.Error(0)
}

func (m *MockRoomService) ApplyReview(ctx context.Context, roomID utils.SixID, rating int) error {
	args := m.Called(ctx, roomID, rating)
	return args.Error(0)
}

func (m *MockRoomService) SuspendRoom(ctx context.Context, roomID, adminUserID utils.SixID, reason string) error {
	args := m.Called(ctx, roomID, adminUserID, reason)
	return args.Error(0)
}

func (m *MockRoomService) UnsuspendRoom(ctx context.Context, roomID utils.SixID) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// MockS3Storage implements storage.IS3Storage
type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) GeneratePresignedPutURL(ctx context.Context, landlordID, roomID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, landlordID, roomID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockS3Storage) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockS3Storage) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	args := m.Called(ctx, key, contentType, body)
	return args.Error(0)
}

func (m *MockS3Storage) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockAsynqClient implements handlers.IAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

// MockReviewService implements services.IReviewService
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) CreateReview(ctx context.Context, authorID, applicationID utils.SixID, rating int, comment string) (*models.Review, error) {
	args := m.Called(ctx, authorID, applicationID, rating, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) ListForRoom(ctx context.Context, roomID utils.SixID, limit int) ([]models.Review, error) {
	args := m.Called(ctx, roomID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *MockReviewService) DeleteReview(ctx context.Context, reviewID, adminUserID utils.SixID) error {
	args := m.Called(ctx, reviewID, adminUserID)
	return args.Error(0)
}
