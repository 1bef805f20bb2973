package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard/internal/domain/errors"
	"taskboard/internal/domain/models"
	storage "taskboard/repository/inmemory"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskRepository) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateTask(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*models.Task, error) {
	args := m.Called(ctx, id, ownerID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskRepository) DeleteTask(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
}

const (
	ownerID    = "user123"
	strangerID = "user456"
)

var (
	taskID  = uuid.NewString()
	dueDate = time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
)

func generateTestToken(userID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, _ := token.SignedString([]byte("shouldbeinVaultsecret"))
	return tokenString
}

// newMockedAPI serves tasks from a mock and users from memory with the two
// test principals already registered.
func newMockedAPI(t testing.TB) (*TaskAPI, *MockTaskRepository) {
	gin.SetMode(gin.TestMode)
	users := storage.NewStorage()
	for _, id := range []string{ownerID, strangerID} {
		require.NoError(t, users.CreateUser(context.Background(), &models.User{ID: id, Username: id, Email: id + "@example.com"}))
	}
	taskRepo := &MockTaskRepository{}
	return NewTaskAPI(users, taskRepo, &Config{}), taskRepo
}

func newMemoryAPI(t testing.TB) *TaskAPI {
	gin.SetMode(gin.TestMode)
	store := storage.NewStorage()
	return NewTaskAPI(store, store, &Config{})
}

func doRequest(api *TaskAPI, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func storedTask(owner string, status models.Status) *models.Task {
	now := time.Now().UTC()
	return &models.Task{
		ID:          taskID,
		Title:       "Test Task",
		Description: "Test Description",
		Status:      status,
		DueDate:     dueDate,
		OwnerID:     owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func register(t *testing.T, api *TaskAPI, username string) string {
	t.Helper()
	w := doRequest(api, http.MethodPost, "/auth/register", models.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var payload models.AuthPayload
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &payload))
	require.NotEmpty(t, payload.Token)
	return payload.Token
}

func createViaAPI(t *testing.T, api *TaskAPI, token string, status models.Status) models.Task {
	t.Helper()
	body := map[string]any{"title": "Task " + string(status), "description": "desc", "due_date": dueDate.Format(time.RFC3339)}
	if status != "" {
		body["status"] = status
	}
	w := doRequest(api, http.MethodPost, "/tasks", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task models.Task
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &task))
	return task
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		request any
		want    struct {
			statusCode int
			success    bool
		}
	}{
		{
			name:    "successful registration",
			request: models.RegisterRequest{Username: "testuser", Email: "test@example.com", Password: "password123"},
			want: struct {
				statusCode int
				success    bool
			}{statusCode: http.StatusCreated, success: true},
		},
		{
			name:    "user already exists",
			request: models.RegisterRequest{Username: "existing", Email: "other@example.com", Password: "password123"},
			want: struct {
				statusCode int
				success    bool
			}{statusCode: http.StatusConflict},
		},
		{
			name:    "invalid input data",
			request: models.RegisterRequest{Username: "", Email: "invalid-email", Password: "123"},
			want: struct {
				statusCode int
				success    bool
			}{statusCode: http.StatusBadRequest},
		},
		{
			name:    "invalid JSON in request",
			request: "invalid json",
			want: struct {
				statusCode int
				success    bool
			}{statusCode: http.StatusBadRequest},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newMemoryAPI(t)
			register(t, api, "existing")

			w := doRequest(api, http.MethodPost, "/auth/register", tt.request, "")

			assert.Equal(t, tt.want.statusCode, w.Code)
			env := decode(t, w)
			assert.Equal(t, tt.want.success, env.Success)
			if tt.want.success {
				var payload models.AuthPayload
				require.NoError(t, json.Unmarshal(env.Data, &payload))
				assert.Equal(t, "testuser", payload.Username)
				assert.NotEmpty(t, payload.Token)
				assert.NotContains(t, w.Body.String(), "password")
			} else {
				assert.NotEmpty(t, env.Message)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name    string
		request models.LoginRequest
		want    struct {
			statusCode int
		}
	}{
		{name: "successful login", request: models.LoginRequest{Username: "testuser", Password: "password123"}, want: struct {
			statusCode int
		}{http.StatusOK}},
		{name: "user not found", request: models.LoginRequest{Username: "nonexistent", Password: "password123"}, want: struct {
			statusCode int
		}{http.StatusUnauthorized}},
		{name: "invalid password", request: models.LoginRequest{Username: "testuser", Password: "wrongpassword"}, want: struct {
			statusCode int
		}{http.StatusUnauthorized}},
	}

	api := newMemoryAPI(t)
	register(t, api, "testuser")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(api, http.MethodPost, "/auth/login", tt.request, "")
			assert.Equal(t, tt.want.statusCode, w.Code)
			if w.Code == http.StatusOK {
				assert.NotEmpty(t, w.Result().Cookies())
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	api, _ := newMockedAPI(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": ownerID,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	expiredToken, _ := expired.SignedString([]byte("shouldbeinVaultsecret"))

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": ownerID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	foreignToken, _ := foreign.SignedString([]byte("another-secret"))

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "not-a-jwt"},
		{name: "expired token", token: expiredToken},
		{name: "wrong signing key", token: foreignToken},
		{name: "unknown user", token: generateTestToken("ghost")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(api, http.MethodGet, "/tasks", nil, tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, decode(t, w).Success)
		})
	}
}

func TestTokenCookie(t *testing.T) {
	api, taskRepo := newMockedAPI(t)
	taskRepo.On("ListTasks", mock.Anything, models.TaskFilter{OwnerID: ownerID}).Return([]models.Task{}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/tasks", nil)
	req.AddCookie(&http.Cookie{Name: "jwt_token", Value: generateTestToken(ownerID)})
	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	taskRepo.AssertExpectations(t)
}

func TestCreateTask(t *testing.T) {
	inProgress := models.StatusInProgress
	archived := models.Status("archived")
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name    string
		request any
		want    struct {
			statusCode int
			status     models.Status
			message    string
		}
		mockSetup func(*MockTaskRepository)
	}{
		{
			name:    "status defaults to pending",
			request: models.CreateTaskRequest{Title: "Test Task", Description: "Test Description", DueDate: &dueDate},
			want: struct {
				statusCode int
				status     models.Status
				message    string
			}{statusCode: http.StatusCreated, status: models.StatusPending},
			mockSetup: func(m *MockTaskRepository) {
				m.On("CreateTask", mock.Anything, mock.MatchedBy(func(task *models.Task) bool {
					return task.OwnerID == ownerID && task.Status == models.StatusPending
				})).Return(nil)
			},
		},
		{
			name:    "explicit status kept",
			request: models.CreateTaskRequest{Title: "Test Task", Description: "Test Description", DueDate: &dueDate, Status: &inProgress},
			want: struct {
				statusCode int
				status     models.Status
				message    string
			}{statusCode: http.StatusCreated, status: models.StatusInProgress},
			mockSetup: func(m *MockTaskRepository) {
				m.On("CreateTask", mock.Anything, mock.AnythingOfType("*models.Task")).Return(nil)
			},
		},
		{
			name:    "missing due date",
			request: map[string]any{"title": "Test Task", "description": "Test Description"},
			want: struct {
				statusCode int
				status     models.Status
				message    string
			}{statusCode: http.StatusBadRequest, message: errors.ErrMissingTaskFields.Error()},
			mockSetup: func(m *MockTaskRepository) {},
		},
		{
			name:    "missing title",
			request: models.CreateTaskRequest{Description: "Test Description", DueDate: &dueDate},
			want: struct {
				statusCode int
				status     models.Status
				message    string
			}{statusCode: http.StatusBadRequest, message: errors.ErrMissingTaskFields.Error()},
			mockSetup: func(m *MockTaskRepository) {},
		},
		{
			name:    "status outside enum",
			request: models.CreateTaskRequest{Title: "Test Task", Description: "Test Description", DueDate: &dueDate, Status: &archived},
			want: struct {
				statusCode int
				status     models.Status
				message    string
			}{statusCode: http.StatusBadRequest, message: errors.ErrInvalidStatus.Error()},
			mockSetup: func(m *MockTaskRepository) {},
		},
		{
			name:    "due date in the past",
			request: models.CreateTaskRequest{Title: "Test Task", Description: "Test Description", DueDate: &past},
			want: struct {
				statusCode int
				status     models.Status
				message    string
			}{statusCode: http.StatusBadRequest, message: errors.ErrDueDateInPast.Error()},
			mockSetup: func(m *MockTaskRepository) {},
		},
		{
			name:    "title too short",
			request: models.CreateTaskRequest{Title: "ab", Description: "Test Description", DueDate: &dueDate},
			want: struct {
				statusCode int
				status     models.Status
				message    string
			}{statusCode: http.StatusBadRequest, message: errors.ErrInvalidTitle.Error()},
			mockSetup: func(m *MockTaskRepository) {},
		},
		{
			name:    "database error is not leaked",
			request: models.CreateTaskRequest{Title: "Test Task", Description: "Test Description", DueDate: &dueDate},
			want: struct {
				statusCode int
				status     models.Status
				message    string
			}{statusCode: http.StatusInternalServerError, message: errors.ErrInternalServer.Error()},
			mockSetup: func(m *MockTaskRepository) {
				m.On("CreateTask", mock.Anything, mock.AnythingOfType("*models.Task")).Return(errors.ErrConfigParseFailed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, taskRepo := newMockedAPI(t)
			tt.mockSetup(taskRepo)

			w := doRequest(api, http.MethodPost, "/tasks", tt.request, generateTestToken(ownerID))

			assert.Equal(t, tt.want.statusCode, w.Code)
			env := decode(t, w)
			if tt.want.statusCode == http.StatusCreated {
				assert.True(t, env.Success)
				var task models.Task
				require.NoError(t, json.Unmarshal(env.Data, &task))
				assert.Equal(t, tt.want.status, task.Status)
				assert.Equal(t, ownerID, task.OwnerID)
				assert.NotEmpty(t, task.ID)
				assert.False(t, task.CreatedAt.IsZero())
			} else {
				assert.False(t, env.Success)
				assert.Equal(t, tt.want.message, env.Message)
			}
			taskRepo.AssertExpectations(t)
		})
	}
}

func TestGetTask(t *testing.T) {
	tests := []struct {
		name   string
		taskID string
		userID string
		want   struct {
			statusCode int
		}
		mockSetup func(*MockTaskRepository)
	}{
		{
			name:   "owner reads task",
			taskID: taskID,
			userID: ownerID,
			want: struct {
				statusCode int
			}{http.StatusOK},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(storedTask(ownerID, models.StatusPending), nil)
			},
		},
		{
			name:   "task of another owner is forbidden",
			taskID: taskID,
			userID: strangerID,
			want: struct {
				statusCode int
			}{http.StatusForbidden},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(storedTask(ownerID, models.StatusPending), nil)
			},
		},
		{
			name:   "unknown task",
			taskID: taskID,
			userID: ownerID,
			want: struct {
				statusCode int
			}{http.StatusNotFound},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(nil, errors.ErrTaskNotFound)
			},
		},
		{
			name:   "malformed id never reaches the store",
			taskID: "not-a-uuid",
			userID: ownerID,
			want: struct {
				statusCode int
			}{http.StatusNotFound},
			mockSetup: func(m *MockTaskRepository) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, taskRepo := newMockedAPI(t)
			tt.mockSetup(taskRepo)

			w := doRequest(api, http.MethodGet, "/tasks/"+tt.taskID, nil, generateTestToken(tt.userID))

			assert.Equal(t, tt.want.statusCode, w.Code)
			assert.Equal(t, tt.want.statusCode == http.StatusOK, decode(t, w).Success)
			taskRepo.AssertExpectations(t)
		})
	}
}

func TestUpdateTask(t *testing.T) {
	completed := models.StatusCompleted

	tests := []struct {
		name   string
		body   any
		userID string
		want   struct {
			statusCode int
		}
		mockSetup func(*MockTaskRepository)
	}{
		{
			name:   "status change",
			body:   map[string]any{"status": "completed"},
			userID: ownerID,
			want: struct {
				statusCode int
			}{http.StatusOK},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(storedTask(ownerID, models.StatusPending), nil)
				m.On("UpdateTask", mock.Anything, taskID, ownerID, models.TaskPatch{Status: &completed}).
					Return(storedTask(ownerID, models.StatusCompleted), nil)
			},
		},
		{
			name:   "empty patch returns task without writing",
			body:   map[string]any{},
			userID: ownerID,
			want: struct {
				statusCode int
			}{http.StatusOK},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(storedTask(ownerID, models.StatusPending), nil)
			},
		},
		{
			name:   "status outside enum leaves task unchanged",
			body:   map[string]any{"status": "archived"},
			userID: ownerID,
			want: struct {
				statusCode int
			}{http.StatusBadRequest},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(storedTask(ownerID, models.StatusPending), nil)
			},
		},
		{
			name:   "past due date in patch",
			body:   map[string]any{"due_date": "2001-01-01"},
			userID: ownerID,
			want: struct {
				statusCode int
			}{http.StatusBadRequest},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(storedTask(ownerID, models.StatusPending), nil)
			},
		},
		{
			name:   "foreign task",
			body:   map[string]any{"status": "completed"},
			userID: strangerID,
			want: struct {
				statusCode int
			}{http.StatusForbidden},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(storedTask(ownerID, models.StatusPending), nil)
			},
		},
		{
			name:   "missing task",
			body:   map[string]any{"status": "completed"},
			userID: ownerID,
			want: struct {
				statusCode int
			}{http.StatusNotFound},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(nil, errors.ErrTaskNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, taskRepo := newMockedAPI(t)
			tt.mockSetup(taskRepo)

			w := doRequest(api, http.MethodPut, "/tasks/"+taskID, tt.body, generateTestToken(tt.userID))

			assert.Equal(t, tt.want.statusCode, w.Code, w.Body.String())
			if tt.want.statusCode != http.StatusOK {
				taskRepo.AssertNotCalled(t, "UpdateTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			taskRepo.AssertExpectations(t)
		})
	}
}

func TestDeleteTask(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		want   struct {
			statusCode int
		}
		mockSetup func(*MockTaskRepository)
	}{
		{
			name:   "owner deletes",
			userID: ownerID,
			want: struct {
				statusCode int
			}{http.StatusOK},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(storedTask(ownerID, models.StatusPending), nil)
				m.On("DeleteTask", mock.Anything, taskID, ownerID).Return(nil)
			},
		},
		{
			name:   "stranger is forbidden",
			userID: strangerID,
			want: struct {
				statusCode int
			}{http.StatusForbidden},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(storedTask(ownerID, models.StatusPending), nil)
			},
		},
		{
			name:   "unknown task",
			userID: ownerID,
			want: struct {
				statusCode int
			}{http.StatusNotFound},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, taskID).Return(nil, errors.ErrTaskNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, taskRepo := newMockedAPI(t)
			tt.mockSetup(taskRepo)

			w := doRequest(api, http.MethodDelete, "/tasks/"+taskID, nil, generateTestToken(tt.userID))

			assert.Equal(t, tt.want.statusCode, w.Code)
			if tt.want.statusCode == http.StatusOK {
				env := decode(t, w)
				assert.True(t, env.Success)
				assert.Equal(t, "task deleted successfully", env.Message)
				assert.JSONEq(t, `{}`, string(env.Data))
			}
			taskRepo.AssertExpectations(t)
		})
	}
}

func TestListTasksStatusFilter(t *testing.T) {
	api := newMemoryAPI(t)
	token := register(t, api, "lister")
	createViaAPI(t, api, token, models.StatusPending)
	createViaAPI(t, api, token, models.StatusInProgress)
	done := createViaAPI(t, api, token, models.StatusCompleted)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "completed only", query: "?status=completed", want: 1},
		{name: "no filter", query: "", want: 3},
		{name: "unknown status is ignored", query: "?status=archived", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(api, http.MethodGet, "/tasks"+tt.query, nil, token)
			require.Equal(t, http.StatusOK, w.Code)
			env := decode(t, w)
			require.NotNil(t, env.Count)
			assert.Equal(t, tt.want, *env.Count)

			var tasks []models.Task
			require.NoError(t, json.Unmarshal(env.Data, &tasks))
			assert.Len(t, tasks, tt.want)
			if tt.want == 1 {
				assert.Equal(t, done.ID, tasks[0].ID)
			}
		})
	}
}

func TestOwnershipAcrossUsers(t *testing.T) {
	api := newMemoryAPI(t)
	alice := register(t, api, "alice")
	bob := register(t, api, "bob")
	task := createViaAPI(t, api, alice, "")

	assert.Equal(t, models.StatusPending, task.Status)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			w := doRequest(api, method, "/tasks/"+task.ID, map[string]any{"status": "completed"}, bob)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}

	w := doRequest(api, http.MethodGet, "/tasks", nil, bob)
	env := decode(t, w)
	assert.Equal(t, 0, *env.Count)

	w = doRequest(api, http.MethodGet, "/tasks/"+task.ID, nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Task
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestProfileLifecycle(t *testing.T) {
	api := newMemoryAPI(t)
	token := register(t, api, "carol")
	createViaAPI(t, api, token, models.StatusPending)

	w := doRequest(api, http.MethodGet, "/auth/profile", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "carol@example.com")

	w = doRequest(api, http.MethodPut, "/auth/profile", models.UpdateUserRequest{Email: "carol@example.org"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "carol@example.org")
	assert.Contains(t, w.Body.String(), "token")

	w = doRequest(api, http.MethodDelete, "/auth/profile", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(api, http.MethodGet, "/tasks", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServerRoutes(t *testing.T) {
	api := newMemoryAPI(t)

	w := doRequest(api, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(api, http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(api, http.MethodPatch, "/tasks", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestNewTaskAPIRequiresStores(t *testing.T) {
	assert.Nil(t, NewTaskAPI(nil, storage.NewStorage(), &Config{}))
	assert.Nil(t, NewTaskAPI(storage.NewStorage(), nil, &Config{}))

	api := NewTaskAPI(storage.NewStorage(), storage.NewStorage(), nil)
	require.NotNil(t, api)
	assert.Equal(t, DefaultConfig().ListenAddr(), api.httpSrv.Addr)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: errors.ErrInvalidStatus, want: http.StatusBadRequest},
		{err: errors.ErrTaskNotFound, want: http.StatusNotFound},
		{err: errors.ErrForbidden, want: http.StatusForbidden},
		{err: errors.ErrUserAlreadyExists, want: http.StatusConflict},
		{err: errors.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{err: context.DeadlineExceeded, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, message := errorStatus(tt.err)
			assert.Equal(t, tt.want, status)
			assert.False(t, strings.Contains(message, "deadline"))
		})
	}
}

func BenchmarkCreateTask(b *testing.B) {
	api, taskRepo := newMockedAPI(b)
	taskRepo.On("CreateTask", mock.Anything, mock.AnythingOfType("*models.Task")).Return(nil)
	token := generateTestToken(ownerID)
	body := models.CreateTaskRequest{Title: "Test Task", Description: "Test Description", DueDate: &dueDate}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doRequest(api, http.MethodPost, "/tasks", body, token)
	}
}

func BenchmarkGetTasks(b *testing.B) {
	api, taskRepo := newMockedAPI(b)
	tasks := []models.Task{*storedTask(ownerID, models.StatusPending), *storedTask(ownerID, models.StatusInProgress)}
	taskRepo.On("ListTasks", mock.Anything, models.TaskFilter{OwnerID: ownerID}).Return(tasks, nil)
	token := generateTestToken(ownerID)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doRequest(api, http.MethodGet, "/tasks", nil, token)
	}
}
