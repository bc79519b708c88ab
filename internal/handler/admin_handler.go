package handler

import (
	"net/http"
	"strconv"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AdminHandler serves routes mounted behind RequireRole(admin). The
// repositories enforce the same rule again.
type AdminHandler struct {
	stats    repository.StatsRepositoryInterface
	profiles repository.ProfileRepositoryInterface
	roles    repository.RoleRepositoryInterface
	log      *zap.Logger
}

func NewAdminHandler(
	stats repository.StatsRepositoryInterface,
	profiles repository.ProfileRepositoryInterface,
	roles repository.RoleRepositoryInterface,
	log *zap.Logger,
) *AdminHandler {
	return &AdminHandler{stats: stats, profiles: profiles, roles: roles, log: log}
}

type PromoteRequest struct {
	Role string `json:"role" binding:"omitempty,oneof=admin user"`
}

type RolesResponse struct {
	UserID string          `json:"user_id"`
	Roles  []model.AppRole `json:"roles"`
}

// Stats godoc
// @Summary      Platform-wide counters
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} repository.PlatformStats
// @Failure      403 {object} ErrorResponse
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	stats, err := h.stats.Platform(c.Request.Context(), p)
	if err != nil {
		fail(c, h.log, err, "Stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) Users(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	limit, offset := defaultPageSize, 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid limit"})
			return
		}
		limit = min(n, maxPageSize)
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid offset"})
			return
		}
		offset = n
	}

	profiles, err := h.profiles.List(c.Request.Context(), p, limit, offset)
	if err != nil {
		fail(c, h.log, err, "Profile")
		return
	}
	if profiles == nil {
		profiles = []model.Profile{}
	}
	c.JSON(http.StatusOK, profiles)
}

// Promote godoc
// @Summary      Grant a role (admin by default)
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string         true  "User ID"
// @Param        request body PromoteRequest false "Role"
// @Success      200 {object} RolesResponse
// @Failure      403 {object} ErrorResponse
// @Router       /admin/users/{id}/promote [post]
func (h *AdminHandler) Promote(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "id", "user")
	if !ok {
		return
	}

	var req PromoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
			return
		}
	}
	role := model.RoleAdmin
	if req.Role != "" {
		role = model.AppRole(req.Role)
	}

	ctx := c.Request.Context()
	if err := h.roles.Grant(ctx, p, userID, role); err != nil {
		fail(c, h.log, err, "User")
		return
	}

	granted, err := h.roles.ListForUser(ctx, p, userID)
	if err != nil {
		fail(c, h.log, err, "User")
		return
	}
	resp := RolesResponse{UserID: userID.String(), Roles: []model.AppRole{}}
	for _, r := range granted {
		resp.Roles = append(resp.Roles, r.Role)
	}

	h.log.Info("role granted",
		zap.String("by", p.UserID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", string(role)),
	)
	c.JSON(http.StatusOK, resp)
}
