package handler

import (
	"net/http"
	"strconv"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	repo repository.NotificationRepositoryInterface
	log  *zap.Logger
}

func NewNotificationHandler(repo repository.NotificationRepositoryInterface, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{repo: repo, log: log}
}

type CreateNotificationRequest struct {
	Title   string  `json:"title" binding:"required,max=255"`
	Message string  `json:"message" binding:"required"`
	Type    string  `json:"type" binding:"omitempty,max=50"`
	TaskID  *string `json:"task_id" binding:"omitempty,uuid"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// List godoc
// @Summary      List notifications, newest first
// @Tags         Notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread query bool false "Only unread"
// @Param        limit  query int  false "Page size"
// @Param        offset query int  false "Offset"
// @Success      200 {array} model.Notification
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	var (
		unread        bool
		limit, offset int
		err           error
	)
	if v := c.Query("unread"); v != "" {
		if unread, err = strconv.ParseBool(v); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid unread flag"})
			return
		}
	}
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid limit"})
			return
		}
	}
	if v := c.Query("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid offset"})
			return
		}
	}

	notifications, err := h.repo.List(c.Request.Context(), p, unread, limit, offset)
	if err != nil {
		fail(c, h.log, err, "Notification")
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	c.JSON(http.StatusOK, notifications)
}

// Create adds a notification addressed to the requester.
func (h *NotificationHandler) Create(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	n := &model.Notification{
		UserID:  p.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
	}
	if req.TaskID != nil {
		taskID := uuid.MustParse(*req.TaskID)
		n.TaskID = &taskID
	}

	if err := h.repo.Create(c.Request.Context(), p, n); err != nil {
		fail(c, h.log, err, "Notification")
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "notification")
	if !ok {
		return
	}

	n, err := h.repo.MarkRead(c.Request.Context(), p, id)
	if err != nil {
		fail(c, h.log, err, "Notification")
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	updated, err := h.repo.MarkAllRead(c.Request.Context(), p)
	if err != nil {
		fail(c, h.log, err, "Notification")
		return
	}
	c.JSON(http.StatusOK, MarkAllReadResponse{Updated: updated})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), p, id); err != nil {
		fail(c, h.log, err, "Notification")
		return
	}
	c.Status(http.StatusNoContent)
}
