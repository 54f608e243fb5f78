package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/api/handlers"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/tasks"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

func newRoomRouter(roomSvc *MockRoomService, storageSvc *MockS3Storage, taskClient *MockAsynqClient, landlordID utils.SixID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewRestRoomHandler(roomSvc, storageSvc, taskClient)
	r := gin.New()
	r.Use(authAs(landlordID))
	r.POST("/v1/room/:id/photo-upload", handler.RequestPhotoUpload)
	r.POST("/v1/room/:id/photo", handler.ConfirmPhotoUpload)
	return r
}

func TestRestRoomHandler_RequestPhotoUpload_Success(t *testing.T) {
	mockRoomSvc := new(MockRoomService)
	mockStorage := new(MockS3Storage)
	mockClient := new(MockAsynqClient)
	landlordID := utils.NewSixID()
	roomID := utils.NewSixID()
	r := newRoomRouter(mockRoomSvc, mockStorage, mockClient, landlordID)

	room := &models.Room{ID: roomID, LandlordID: landlordID}
	mockRoomSvc.On("FindOwnRoomByID", mock.Anything, roomID, landlordID).Return(room, nil)

	issuedKey := fmt.Sprintf("photos/%s/%s/abc_kitchen.jpg", landlordID.String(), roomID.String())
	mockStorage.On("GeneratePresignedPutURL", mock.Anything, landlordID.String(), roomID.String(), "kitchen.jpg", "image/jpeg").
		Return("https://bucket.example/presigned", issuedKey, nil)

	body, _ := json.Marshal(gin.H{"filename": "kitchen.jpg", "content_type": "image/jpeg"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/room/"+roomID.String()+"/photo-upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, issuedKey, respBody["key"])
	mockRoomSvc.AssertExpectations(t)
	mockStorage.AssertExpectations(t)
}

func TestRestRoomHandler_ConfirmPhotoUpload_Success(t *testing.T) {
	mockRoomSvc := new(MockRoomService)
	mockStorage := new(MockS3Storage)
	mockClient := new(MockAsynqClient)
	landlordID := utils.NewSixID()
	roomID := utils.NewSixID()
	r := newRoomRouter(mockRoomSvc, mockStorage, mockClient, landlordID)

	room := &models.Room{ID: roomID, LandlordID: landlordID}
	mockRoomSvc.On("FindOwnRoomByID", mock.Anything, roomID, landlordID).Return(room, nil)

	key := fmt.Sprintf("photos/%s/%s/abc_kitchen.jpg", landlordID.String(), roomID.String())
	mockClient.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		if task.Type() != tasks.TypeImageProcess {
			return false
		}
		var payload tasks.ImageTaskPayload
		return json.Unmarshal(task.Payload(), &payload) == nil && payload.S3Key == key
	}), mock.Anything).Return(&asynq.TaskInfo{}, nil)

	body, _ := json.Marshal(gin.H{"key": key})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/room/"+roomID.String()+"/photo", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	mockClient.AssertExpectations(t)
}

func TestRestRoomHandler_ConfirmPhotoUpload_ForeignKeyRejected(t *testing.T) {
	mockRoomSvc := new(MockRoomService)
	mockStorage := new(MockS3Storage)
	mockClient := new(MockAsynqClient)
	landlordID := utils.NewSixID()
	roomID := utils.NewSixID()
	r := newRoomRouter(mockRoomSvc, mockStorage, mockClient, landlordID)

	room := &models.Room{ID: roomID, LandlordID: landlordID}
	mockRoomSvc.On("FindOwnRoomByID", mock.Anything, roomID, landlordID).Return(room, nil)

	// Keys outside the landlord/room prefix must never reach the queue.
	foreignKeys := []string{
		fmt.Sprintf("photos/%s/%s/abc.jpg", utils.NewSixID().String(), roomID.String()),
		fmt.Sprintf("photos/%s/%s/abc.jpg", landlordID.String(), utils.NewSixID().String()),
		"backups/db-dump.bson",
	}
	for _, key := range foreignKeys {
		body, _ := json.Marshal(gin.H{"key": key})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/v1/room/"+roomID.String()+"/photo", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "key %q should be rejected", key)
	}
	mockClient.AssertNotCalled(t, "EnqueueContext")
}
