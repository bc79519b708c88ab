package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"taskflow/internal/handler"
	"taskflow/internal/middleware"
	"taskflow/internal/model"
	"taskflow/internal/policy"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newRouter returns an engine whose requests carry userID as the
// authenticated principal. uuid.Nil leaves the request anonymous.
func newRouter(userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.UserIDKey, userID)
		}
		c.Next()
	})
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func errorOf(resp *httptest.ResponseRecorder) string {
	var body handler.ErrorResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	return body.Error
}

func principal(id uuid.UUID) policy.Principal {
	return policy.Principal{UserID: id}
}

var nopLog = zap.NewNop()

type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) Register(ctx context.Context, email, password string, meta map[string]interface{}) (*model.Identity, error) {
	args := m.Called(ctx, email, password, meta)
	ident, _ := args.Get(0).(*model.Identity)
	return ident, args.Error(1)
}

func (m *MockIdentityService) Authenticate(ctx context.Context, email, password string) (*model.Identity, error) {
	args := m.Called(ctx, email, password)
	ident, _ := args.Get(0).(*model.Identity)
	return ident, args.Error(1)
}

func (m *MockIdentityService) Get(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	args := m.Called(ctx, id)
	ident, _ := args.Get(0).(*model.Identity)
	return ident, args.Error(1)
}

func (m *MockIdentityService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Profile, error) {
	args := m.Called(ctx, p, id)
	profile, _ := args.Get(0).(*model.Profile)
	return profile, args.Error(1)
}

func (m *MockProfileRepository) List(ctx context.Context, p policy.Principal, limit, offset int) ([]model.Profile, error) {
	args := m.Called(ctx, p, limit, offset)
	profiles, _ := args.Get(0).([]model.Profile)
	return profiles, args.Error(1)
}

func (m *MockProfileRepository) Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes repository.ProfileChanges) (*model.Profile, error) {
	args := m.Called(ctx, p, id, changes)
	profile, _ := args.Get(0).(*model.Profile)
	return profile, args.Error(1)
}

type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) ListForUser(ctx context.Context, p policy.Principal, userID uuid.UUID) ([]model.UserRole, error) {
	args := m.Called(ctx, p, userID)
	roles, _ := args.Get(0).([]model.UserRole)
	return roles, args.Error(1)
}

func (m *MockRoleRepository) Grant(ctx context.Context, p policy.Principal, userID uuid.UUID, role model.AppRole) error {
	return m.Called(ctx, p, userID, role).Error(0)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) List(ctx context.Context, p policy.Principal) ([]model.Category, error) {
	args := m.Called(ctx, p)
	categories, _ := args.Get(0).([]model.Category)
	return categories, args.Error(1)
}

func (m *MockCategoryRepository) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Category, error) {
	args := m.Called(ctx, p, id)
	category, _ := args.Get(0).(*model.Category)
	return category, args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, p policy.Principal, category *model.Category) error {
	return m.Called(ctx, p, category).Error(0)
}

func (m *MockCategoryRepository) Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes repository.CategoryChanges) (*model.Category, error) {
	args := m.Called(ctx, p, id, changes)
	category, _ := args.Get(0).(*model.Category)
	return category, args.Error(1)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) List(ctx context.Context, p policy.Principal, filter repository.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, p, filter)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskRepository) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, p, id)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, p policy.Principal, task *model.Task) error {
	return m.Called(ctx, p, task).Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes repository.TaskChanges) (*model.Task, error) {
	args := m.Called(ctx, p, id, changes)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

type MockSubtaskRepository struct {
	mock.Mock
}

func (m *MockSubtaskRepository) ListByTask(ctx context.Context, p policy.Principal, taskID uuid.UUID) ([]model.Subtask, error) {
	args := m.Called(ctx, p, taskID)
	subtasks, _ := args.Get(0).([]model.Subtask)
	return subtasks, args.Error(1)
}

func (m *MockSubtaskRepository) Create(ctx context.Context, p policy.Principal, subtask *model.Subtask) error {
	return m.Called(ctx, p, subtask).Error(0)
}

func (m *MockSubtaskRepository) Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes repository.SubtaskChanges) (*model.Subtask, error) {
	args := m.Called(ctx, p, id, changes)
	subtask, _ := args.Get(0).(*model.Subtask)
	return subtask, args.Error(1)
}

func (m *MockSubtaskRepository) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) ListByTask(ctx context.Context, p policy.Principal, taskID uuid.UUID) ([]model.Reminder, error) {
	args := m.Called(ctx, p, taskID)
	reminders, _ := args.Get(0).([]model.Reminder)
	return reminders, args.Error(1)
}

func (m *MockReminderRepository) Upcoming(ctx context.Context, p policy.Principal, limit int) ([]model.Reminder, error) {
	args := m.Called(ctx, p, limit)
	reminders, _ := args.Get(0).([]model.Reminder)
	return reminders, args.Error(1)
}

func (m *MockReminderRepository) Create(ctx context.Context, p policy.Principal, reminder *model.Reminder) error {
	return m.Called(ctx, p, reminder).Error(0)
}

func (m *MockReminderRepository) Update(ctx context.Context, p policy.Principal, id uuid.UUID, changes repository.ReminderChanges) (*model.Reminder, error) {
	args := m.Called(ctx, p, id, changes)
	reminder, _ := args.Get(0).(*model.Reminder)
	return reminder, args.Error(1)
}

func (m *MockReminderRepository) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) List(ctx context.Context, p policy.Principal, unreadOnly bool, limit, offset int) ([]model.Notification, error) {
	args := m.Called(ctx, p, unreadOnly, limit, offset)
	notifications, _ := args.Get(0).([]model.Notification)
	return notifications, args.Error(1)
}

func (m *MockNotificationRepository) Create(ctx context.Context, p policy.Principal, n *model.Notification) error {
	return m.Called(ctx, p, n).Error(0)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Notification, error) {
	args := m.Called(ctx, p, id)
	n, _ := args.Get(0).(*model.Notification)
	return n, args.Error(1)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, p policy.Principal) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) List(ctx context.Context, p policy.Principal, from, to time.Time) ([]model.AnalyticsDay, error) {
	args := m.Called(ctx, p, from, to)
	days, _ := args.Get(0).([]model.AnalyticsDay)
	return days, args.Error(1)
}

func (m *MockAnalyticsRepository) Summary(ctx context.Context, p policy.Principal, since time.Time) (*repository.AnalyticsSummary, error) {
	args := m.Called(ctx, p, since)
	summary, _ := args.Get(0).(*repository.AnalyticsSummary)
	return summary, args.Error(1)
}

func (m *MockAnalyticsRepository) CreateDay(ctx context.Context, p policy.Principal, day *model.AnalyticsDay) error {
	return m.Called(ctx, p, day).Error(0)
}

func (m *MockAnalyticsRepository) AddFocus(ctx context.Context, p policy.Principal, at time.Time, minutes int) (*model.AnalyticsDay, error) {
	args := m.Called(ctx, p, at, minutes)
	day, _ := args.Get(0).(*model.AnalyticsDay)
	return day, args.Error(1)
}

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Authorize(ctx context.Context, p policy.Principal) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockStatsRepository) Platform(ctx context.Context, p policy.Principal) (*repository.PlatformStats, error) {
	args := m.Called(ctx, p)
	stats, _ := args.Get(0).(*repository.PlatformStats)
	return stats, args.Error(1)
}
