package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"taskflow/internal/handler"
	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTaskTest(userID uuid.UUID) (*gin.Engine, *MockTaskRepository) {
	r := newRouter(userID)
	repo := new(MockTaskRepository)
	h := handler.NewTaskHandler(repo, nopLog)

	r.GET("/tasks", h.List)
	r.POST("/tasks", h.Create)
	r.GET("/tasks/:id", h.Get)
	r.PUT("/tasks/:id", h.Update)
	r.DELETE("/tasks/:id", h.Delete)
	return r, repo
}

func TestTaskList_Filters(t *testing.T) {
	userID := uuid.New()
	router, repo := setupTaskTest(userID)
	categoryID := uuid.New()
	starred := true

	want := repository.TaskFilter{
		Status:     model.StatusInProgress,
		Priority:   model.PriorityHigh,
		CategoryID: &categoryID,
		Starred:    &starred,
		Tag:        "work",
		Search:     "report",
		Limit:      10,
		Offset:     20,
	}
	repo.On("List", mock.Anything, principal(userID), want).Return([]model.Task{{Title: "Quarterly report"}}, nil)

	resp := doJSON(router, http.MethodGet,
		"/tasks?status=in_progress&priority=high&category_id="+categoryID.String()+
			"&starred=true&tag=work&search=report&limit=10&offset=20", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tasks))
	assert.Len(t, tasks, 1)
	repo.AssertExpectations(t)
}

func TestTaskList_EmptyIsArray(t *testing.T) {
	userID := uuid.New()
	router, repo := setupTaskTest(userID)
	repo.On("List", mock.Anything, principal(userID), repository.TaskFilter{}).Return(nil, nil)

	resp := doJSON(router, http.MethodGet, "/tasks", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, "[]", resp.Body.String())
}

func TestTaskList_BadQuery(t *testing.T) {
	router, repo := setupTaskTest(uuid.New())

	tests := []struct {
		query string
		want  string
	}{
		{"status=done", "Invalid status"},
		{"priority=critical", "Invalid priority"},
		{"category_id=nope", "Invalid category ID format"},
		{"starred=maybe", "Invalid starred flag"},
		{"limit=-1", "Invalid limit"},
		{"offset=x", "Invalid offset"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := doJSON(router, http.MethodGet, "/tasks?"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, tt.want, errorOf(resp))
		})
	}
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskCreate(t *testing.T) {
	userID := uuid.New()
	router, repo := setupTaskTest(userID)
	categoryID := uuid.New()

	repo.On("Create", mock.Anything, principal(userID), mock.MatchedBy(func(task *model.Task) bool {
		return task.UserID == userID &&
			task.Title == "Write tests" &&
			task.CategoryID != nil && *task.CategoryID == categoryID &&
			task.Priority == model.PriorityUrgent &&
			len(task.Tags) == 2
	})).Return(nil)

	resp := doJSON(router, http.MethodPost, "/tasks", map[string]interface{}{
		"title":       "Write tests",
		"category_id": categoryID.String(),
		"priority":    "urgent",
		"tags":        []string{"go", "testing"},
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	repo.AssertExpectations(t)
}

func TestTaskCreate_Validation(t *testing.T) {
	router, repo := setupTaskTest(uuid.New())

	tests := map[string]map[string]interface{}{
		"missing title":    {"priority": "low"},
		"unknown status":   {"title": "x", "status": "done"},
		"unknown priority": {"title": "x", "priority": "critical"},
		"bad category":     {"title": "x", "category_id": "abc"},
		"empty tag":        {"title": "x", "tags": []string{""}},
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			resp := doJSON(router, http.MethodPost, "/tasks", body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskCreate_UnknownCategory(t *testing.T) {
	userID := uuid.New()
	router, repo := setupTaskTest(userID)
	repo.On("Create", mock.Anything, principal(userID), mock.Anything).Return(repository.ErrInvalidReference)

	resp := doJSON(router, http.MethodPost, "/tasks", map[string]interface{}{
		"title":       "x",
		"category_id": uuid.NewString(),
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Referenced row does not exist", errorOf(resp))
}

func TestTaskGet_NotVisible(t *testing.T) {
	userID := uuid.New()
	router, repo := setupTaskTest(userID)
	taskID := uuid.New()
	repo.On("Get", mock.Anything, principal(userID), taskID).Return(nil, repository.ErrNotFound)

	resp := doJSON(router, http.MethodGet, "/tasks/"+taskID.String(), nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Task not found", errorOf(resp))
}

func TestTaskGet_BadID(t *testing.T) {
	router, _ := setupTaskTest(uuid.New())

	resp := doJSON(router, http.MethodGet, "/tasks/42", nil)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid task ID format", errorOf(resp))
}

func TestTaskUpdate_StatusAndClears(t *testing.T) {
	userID := uuid.New()
	router, repo := setupTaskTest(userID)
	taskID := uuid.New()
	completed := model.StatusCompleted

	want := repository.TaskChanges{
		Status:        &completed,
		ClearCategory: true,
		ClearDueDate:  true,
	}
	repo.On("Update", mock.Anything, principal(userID), taskID, want).
		Return(&model.Task{ID: taskID, Status: model.StatusCompleted}, nil)

	resp := doJSON(router, http.MethodPut, "/tasks/"+taskID.String(), map[string]interface{}{
		"status":         "completed",
		"category_id":    "",
		"clear_due_date": true,
	})

	require.Equal(t, http.StatusOK, resp.Code)
	var task model.Task
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &task))
	assert.Equal(t, model.StatusCompleted, task.Status)
	repo.AssertExpectations(t)
}

func TestTaskUpdate_MoveCategory(t *testing.T) {
	userID := uuid.New()
	router, repo := setupTaskTest(userID)
	taskID, categoryID := uuid.New(), uuid.New()

	repo.On("Update", mock.Anything, principal(userID), taskID, repository.TaskChanges{CategoryID: &categoryID}).
		Return(&model.Task{ID: taskID, CategoryID: &categoryID}, nil)

	resp := doJSON(router, http.MethodPut, "/tasks/"+taskID.String(), map[string]interface{}{
		"category_id": categoryID.String(),
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	repo.AssertExpectations(t)
}

func TestTaskDelete(t *testing.T) {
	userID, taskID := uuid.New(), uuid.New()

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"not owner", repository.ErrNotFound, http.StatusNotFound},
		{"denied", repository.ErrPermissionDenied, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, repo := setupTaskTest(userID)
			repo.On("Delete", mock.Anything, principal(userID), taskID).Return(tt.err)

			resp := doJSON(router, http.MethodDelete, "/tasks/"+taskID.String(), nil)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}
