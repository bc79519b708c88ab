package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"taskflow/internal/handler"
	"taskflow/internal/identity"
	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	router     *gin.Engine
	identities *MockIdentityService
	tokens     *MockTokenIssuer
	profiles   *MockProfileRepository
	roles      *MockRoleRepository
}

func setupUserTest(userID uuid.UUID) *userFixture {
	f := &userFixture{
		router:     newRouter(userID),
		identities: new(MockIdentityService),
		tokens:     new(MockTokenIssuer),
		profiles:   new(MockProfileRepository),
		roles:      new(MockRoleRepository),
	}
	h := handler.NewUserHandler(f.identities, f.tokens, f.profiles, f.roles, nopLog)

	f.router.POST("/auth/register", h.Register)
	f.router.POST("/auth/login", h.Login)
	f.router.GET("/me", h.Me)
	f.router.PUT("/me/profile", h.UpdateProfile)
	f.router.DELETE("/me", h.DeleteMe)
	return f
}

func TestRegister_Success(t *testing.T) {
	f := setupUserTest(uuid.Nil)
	created := &model.Identity{ID: uuid.New(), Email: "test@example.com"}

	f.identities.On("Register", mock.Anything, "test@example.com", "password123",
		map[string]interface{}{"display_name": "Tester"}).Return(created, nil)
	f.tokens.On("GenerateToken", created.ID).Return("signed-token", nil)

	resp := doJSON(f.router, http.MethodPost, "/auth/register", handler.RegisterRequest{
		Email:       "test@example.com",
		Password:    "password123",
		DisplayName: "Tester",
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var body handler.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "signed-token", body.Token)
	assert.Equal(t, created.ID.String(), body.User.ID)
	assert.Equal(t, "test@example.com", body.User.Email)
	f.identities.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
}

func TestRegister_EmailTaken(t *testing.T) {
	f := setupUserTest(uuid.Nil)
	f.identities.On("Register", mock.Anything, "test@example.com", "password123", mock.Anything).
		Return(nil, identity.ErrEmailTaken)

	resp := doJSON(f.router, http.MethodPost, "/auth/register", handler.RegisterRequest{
		Email:    "test@example.com",
		Password: "password123",
	})

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "User with this email already exists", errorOf(resp))
	f.tokens.AssertNotCalled(t, "GenerateToken", mock.Anything)
}

func TestRegister_InvalidInput(t *testing.T) {
	f := setupUserTest(uuid.Nil)

	resp := doJSON(f.router, http.MethodPost, "/auth/register", map[string]string{
		"email":    "not-an-email",
		"password": "123",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	f.identities.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_PasswordLength(t *testing.T) {
	t.Run("over 72 characters", func(t *testing.T) {
		f := setupUserTest(uuid.Nil)

		resp := doJSON(f.router, http.MethodPost, "/auth/register", handler.RegisterRequest{
			Email:    "test@example.com",
			Password: strings.Repeat("a", 80),
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		f.identities.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("over 72 bytes", func(t *testing.T) {
		f := setupUserTest(uuid.Nil)
		password := strings.Repeat("é", 40)
		f.identities.On("Register", mock.Anything, "test@example.com", password, mock.Anything).
			Return(nil, identity.ErrPasswordTooLong)

		resp := doJSON(f.router, http.MethodPost, "/auth/register", handler.RegisterRequest{
			Email:    "test@example.com",
			Password: password,
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "Password must be at most 72 bytes", errorOf(resp))
	})
}

func TestLogin_Success(t *testing.T) {
	f := setupUserTest(uuid.Nil)
	found := &model.Identity{ID: uuid.New(), Email: "test@example.com"}

	f.identities.On("Authenticate", mock.Anything, "test@example.com", "password123").Return(found, nil)
	f.tokens.On("GenerateToken", found.ID).Return("signed-token", nil)

	resp := doJSON(f.router, http.MethodPost, "/auth/login", handler.LoginRequest{
		Email:    "test@example.com",
		Password: "password123",
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	var body handler.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "signed-token", body.Token)
	assert.Equal(t, found.ID.String(), body.User.ID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := setupUserTest(uuid.Nil)
	f.identities.On("Authenticate", mock.Anything, "test@example.com", "wrong_password").
		Return(nil, identity.ErrInvalidCredentials)

	resp := doJSON(f.router, http.MethodPost, "/auth/login", handler.LoginRequest{
		Email:    "test@example.com",
		Password: "wrong_password",
	})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Invalid credentials", errorOf(resp))
}

func TestLogin_TokenFailure(t *testing.T) {
	f := setupUserTest(uuid.Nil)
	found := &model.Identity{ID: uuid.New(), Email: "test@example.com"}
	f.identities.On("Authenticate", mock.Anything, "test@example.com", "password123").Return(found, nil)
	f.tokens.On("GenerateToken", found.ID).Return("", errors.New("signing failed"))

	resp := doJSON(f.router, http.MethodPost, "/auth/login", handler.LoginRequest{
		Email:    "test@example.com",
		Password: "password123",
	})

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "Failed to generate token", errorOf(resp))
}

func TestMe(t *testing.T) {
	userID := uuid.New()
	f := setupUserTest(userID)
	p := principal(userID)
	name := "Tester"

	f.identities.On("Get", mock.Anything, userID).Return(&model.Identity{ID: userID, Email: "me@example.com"}, nil)
	f.profiles.On("Get", mock.Anything, p, userID).Return(&model.Profile{ID: userID, DisplayName: &name}, nil)
	f.roles.On("ListForUser", mock.Anything, p, userID).Return([]model.UserRole{
		{UserID: userID, Role: model.RoleUser},
		{UserID: userID, Role: model.RoleAdmin},
	}, nil)

	resp := doJSON(f.router, http.MethodGet, "/me", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body handler.MeResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "me@example.com", body.Email)
	require.NotNil(t, body.Profile)
	assert.Equal(t, "Tester", *body.Profile.DisplayName)
	assert.Equal(t, []model.AppRole{model.RoleUser, model.RoleAdmin}, body.Roles)
}

func TestMe_MissingProfileStillAnswers(t *testing.T) {
	userID := uuid.New()
	f := setupUserTest(userID)
	p := principal(userID)

	f.identities.On("Get", mock.Anything, userID).Return(&model.Identity{ID: userID, Email: "me@example.com"}, nil)
	f.profiles.On("Get", mock.Anything, p, userID).Return(nil, repository.ErrNotFound)
	f.roles.On("ListForUser", mock.Anything, p, userID).Return(nil, nil)

	resp := doJSON(f.router, http.MethodGet, "/me", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body handler.MeResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Nil(t, body.Profile)
	assert.Empty(t, body.Roles)
}

func TestMe_Unauthenticated(t *testing.T) {
	f := setupUserTest(uuid.Nil)

	resp := doJSON(f.router, http.MethodGet, "/me", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestUpdateProfile(t *testing.T) {
	userID := uuid.New()
	f := setupUserTest(userID)
	bio := "hello"

	f.profiles.On("Update", mock.Anything, principal(userID), userID, repository.ProfileChanges{Bio: &bio}).
		Return(&model.Profile{ID: userID, Bio: &bio}, nil)

	resp := doJSON(f.router, http.MethodPut, "/me/profile", map[string]string{"bio": "hello"})

	assert.Equal(t, http.StatusOK, resp.Code)
	f.profiles.AssertExpectations(t)
}

func TestUpdateProfile_InvalidAvatar(t *testing.T) {
	f := setupUserTest(uuid.New())

	resp := doJSON(f.router, http.MethodPut, "/me/profile", map[string]string{"avatar_url": "not a url"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDeleteMe(t *testing.T) {
	userID := uuid.New()
	f := setupUserTest(userID)
	f.identities.On("Delete", mock.Anything, userID).Return(nil)

	resp := doJSON(f.router, http.MethodDelete, "/me", nil)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	f.identities.AssertExpectations(t)
}
