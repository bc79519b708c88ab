package handler

import (
	"context"
	"errors"
	"net/http"

	"taskflow/internal/identity"
	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type IdentityService interface {
	Register(ctx context.Context, email, password string, meta map[string]interface{}) (*model.Identity, error)
	Authenticate(ctx context.Context, email, password string) (*model.Identity, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Identity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TokenIssuer interface {
	GenerateToken(userID uuid.UUID) (string, error)
}

type UserHandler struct {
	identities IdentityService
	tokens     TokenIssuer
	profiles   repository.ProfileRepositoryInterface
	roles      repository.RoleRepositoryInterface
	log        *zap.Logger
}

func NewUserHandler(
	identities IdentityService,
	tokens TokenIssuer,
	profiles repository.ProfileRepositoryInterface,
	roles repository.RoleRepositoryInterface,
	log *zap.Logger,
) *UserHandler {
	return &UserHandler{identities: identities, tokens: tokens, profiles: profiles, roles: roles, log: log}
}

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6,max=72"`
	DisplayName string `json:"display_name" binding:"omitempty,max=100"`
	FullName    string `json:"full_name" binding:"omitempty,max=200"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type MeResponse struct {
	ID      string          `json:"id"`
	Email   string          `json:"email"`
	Profile *model.Profile  `json:"profile"`
	Roles   []model.AppRole `json:"roles"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=100"`
	AvatarURL   *string `json:"avatar_url" binding:"omitempty,url"`
	Bio         *string `json:"bio" binding:"omitempty,max=500"`
}

// Register godoc
// @Summary      Register a new identity
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Signup data"
// @Success      201 {object} AuthResponse
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid input"})
		return
	}

	meta := map[string]interface{}{}
	if req.DisplayName != "" {
		meta["display_name"] = req.DisplayName
	}
	if req.FullName != "" {
		meta["full_name"] = req.FullName
	}

	created, err := h.identities.Register(c.Request.Context(), req.Email, req.Password, meta)
	if errors.Is(err, identity.ErrEmailTaken) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "User with this email already exists"})
		return
	}
	if errors.Is(err, identity.ErrPasswordTooLong) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Password must be at most 72 bytes"})
		return
	}
	if err != nil {
		fail(c, h.log, err, "User")
		return
	}

	h.respondWithToken(c, http.StatusCreated, created)
}

// Login godoc
// @Summary      Exchange credentials for an access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} AuthResponse
// @Failure      401 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid input"})
		return
	}

	found, err := h.identities.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
		return
	}
	if err != nil {
		fail(c, h.log, err, "User")
		return
	}

	h.respondWithToken(c, http.StatusOK, found)
}

func (h *UserHandler) respondWithToken(c *gin.Context, status int, ident *model.Identity) {
	token, err := h.tokens.GenerateToken(ident.ID)
	if err != nil {
		h.log.Error("token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate token"})
		return
	}

	c.JSON(status, AuthResponse{
		Token: token,
		User:  UserResponse{ID: ident.ID.String(), Email: ident.Email},
	})
}

// Me godoc
// @Summary      Current identity with profile and roles
// @Tags         Profile
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MeResponse
// @Router       /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	ident, err := h.identities.Get(ctx, p.UserID)
	if errors.Is(err, identity.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	}
	if err != nil {
		fail(c, h.log, err, "User")
		return
	}

	profile, err := h.profiles.Get(ctx, p, p.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		fail(c, h.log, err, "Profile")
		return
	}

	userRoles, err := h.roles.ListForUser(ctx, p, p.UserID)
	if err != nil {
		fail(c, h.log, err, "Role")
		return
	}
	roles := make([]model.AppRole, 0, len(userRoles))
	for _, r := range userRoles {
		roles = append(roles, r.Role)
	}

	c.JSON(http.StatusOK, MeResponse{
		ID:      ident.ID.String(),
		Email:   ident.Email,
		Profile: profile,
		Roles:   roles,
	})
}

// UpdateProfile godoc
// @Summary      Edit the requester's profile
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Profile fields"
// @Success      200 {object} model.Profile
// @Router       /me/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), p, p.UserID, repository.ProfileChanges{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		Bio:         req.Bio,
	})
	if err != nil {
		fail(c, h.log, err, "Profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// DeleteMe godoc
// @Summary      Delete the requester and everything they own
// @Tags         Profile
// @Security     BearerAuth
// @Success      204
// @Router       /me [delete]
func (h *UserHandler) DeleteMe(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	err := h.identities.Delete(c.Request.Context(), p.UserID)
	if errors.Is(err, identity.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	}
	if err != nil {
		fail(c, h.log, err, "User")
		return
	}
	c.Status(http.StatusNoContent)
}
