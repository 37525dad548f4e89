package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/roomforge/api/internal/middleware"
	"github.com/roomforge/api/internal/modules/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// gin's Stream needs a CloseNotifier, which httptest.ResponseRecorder is not.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newCloseNotifyingRecorder() *closeNotifyingRecorder {
	return &closeNotifyingRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool { return r.closed }

func partialResult() *service.BatchResult {
	url := "https://cdn.test/designs/user-1/reference/a.png"
	key := "designs/user-1/reference/a.png"
	msg := "invalid payload"
	return &service.BatchResult{
		Success:       false,
		URLs:          []*string{&url, nil},
		Keys:          []*string{&key, nil},
		Errors:        []*string{nil, &msg},
		FailedIndices: []int{1},
	}
}

func TestUploadHandler_UploadImages(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]any
		setup          func(*MockDesignService)
		expectedStatus int
	}{
		{
			name: "partial batch",
			body: map[string]any{"images": []string{testPNGDataURI, "garbage"}},
			setup: func(svc *MockDesignService) {
				svc.On("UploadReferences", mock.Anything, "user-1", []string{testPNGDataURI, "garbage"}, mock.Anything).
					Return(partialResult())
			},
			expectedStatus: http.StatusOK,
		},
		{name: "no images", body: map[string]any{"images": []string{}}, setup: func(svc *MockDesignService) {}, expectedStatus: http.StatusBadRequest},
		{name: "missing images", body: map[string]any{}, setup: func(svc *MockDesignService) {}, expectedStatus: http.StatusBadRequest},
		{name: "empty item", body: map[string]any{"images": []string{""}}, setup: func(svc *MockDesignService) {}, expectedStatus: http.StatusBadRequest},
		{
			name:           "oversized item",
			body:           map[string]any{"images": []string{"data:image/png;base64," + strings.Repeat("A", 10485760)}},
			setup:          func(svc *MockDesignService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDesignService{}
			tt.setup(svc)
			r := setupDesignRouter(t, svc)

			w := doRequest(r, http.MethodPost, "/uploads", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
			if w.Code != http.StatusOK {
				return
			}
			data := decode(t, w)["data"].(map[string]interface{})
			assert.Equal(t, false, data["success"])
			urls := data["urls"].([]interface{})
			require.Len(t, urls, 2)
			assert.Nil(t, urls[1])
			assert.Equal(t, []interface{}{float64(1)}, data["failed_indices"])
		})
	}
}

func TestUploadHandler_UploadImagesStream(t *testing.T) {
	svc := &MockDesignService{}
	svc.On("UploadReferences", mock.Anything, "user-1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			progress := args.Get(3).(service.ProgressFunc)
			require.NotNil(t, progress)
			progress(service.BatchProgress{Completed: 1, Total: 2, Percent: 50})
			progress(service.BatchProgress{Completed: 1, Failed: 1, Total: 2, Percent: 100})
		}).
		Return(partialResult())
	r := setupDesignRouter(t, svc)

	b, _ := sonic.Marshal(map[string]any{"images": []string{testPNGDataURI, "garbage"}})
	req := httptest.NewRequest(http.MethodPost, "/uploads/stream", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, "user-1")
	w := newCloseNotifyingRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event:progress"))
	assert.Equal(t, 1, strings.Count(body, "event:result"))
	assert.Greater(t, strings.Index(body, "event:result"), strings.LastIndex(body, "event:progress"))
	assert.Contains(t, body, `"percent":50`)
	assert.Contains(t, body, `"failed_indices":[1]`)
	svc.AssertExpectations(t)
}

func TestUploadHandler_UploadImagesStream_BadRequest(t *testing.T) {
	svc := &MockDesignService{}
	r := setupDesignRouter(t, svc)

	w := doRequest(r, http.MethodPost, "/uploads/stream", map[string]any{"images": []string{}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "UploadReferences", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadHandler_BodyCapped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &MockDesignService{}
	r := gin.New()
	r.Use(middleware.RequireUser(), middleware.MaxBodyBytes(64))
	r.POST("/uploads", NewUploadHandler(svc, zap.NewNop()).UploadImages)

	b, _ := sonic.Marshal(map[string]any{"images": []string{testPNGDataURI}})
	req := httptest.NewRequest(http.MethodPost, "/uploads", bytes.NewReader(b))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decode(t, w)["error"])
	svc.AssertNotCalled(t, "UploadReferences", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
