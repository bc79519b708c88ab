package handler

import (
	"net/http"
	"strconv"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReminderHandler struct {
	repo repository.ReminderRepositoryInterface
	log  *zap.Logger
}

func NewReminderHandler(repo repository.ReminderRepositoryInterface, log *zap.Logger) *ReminderHandler {
	return &ReminderHandler{repo: repo, log: log}
}

type CreateReminderRequest struct {
	RemindAt time.Time `json:"remind_at" binding:"required"`
	Message  *string   `json:"message" binding:"omitempty,max=500"`
}

// UpdateReminderRequest: is_sent can only move from false to true.
type UpdateReminderRequest struct {
	RemindAt *time.Time `json:"remind_at"`
	IsSent   *bool      `json:"is_sent"`
	Message  *string    `json:"message" binding:"omitempty,max=500"`
}

func (h *ReminderHandler) ListByTask(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	reminders, err := h.repo.ListByTask(c.Request.Context(), p, taskID)
	if err != nil {
		fail(c, h.log, err, "Task")
		return
	}
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	c.JSON(http.StatusOK, reminders)
}

// Upcoming godoc
// @Summary      List unsent reminders, soonest first
// @Tags         Reminders
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Maximum rows (default 50)"
// @Success      200 {array} model.Reminder
// @Router       /reminders [get]
func (h *ReminderHandler) Upcoming(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid limit"})
			return
		}
		limit = n
	}

	reminders, err := h.repo.Upcoming(c.Request.Context(), p, limit)
	if err != nil {
		fail(c, h.log, err, "Reminder")
		return
	}
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	c.JSON(http.StatusOK, reminders)
}

func (h *ReminderHandler) Create(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	var req CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	reminder := &model.Reminder{
		TaskID:   taskID,
		UserID:   p.UserID,
		RemindAt: req.RemindAt,
		Message:  req.Message,
	}
	if err := h.repo.Create(c.Request.Context(), p, reminder); err != nil {
		fail(c, h.log, err, "Task")
		return
	}
	c.JSON(http.StatusCreated, reminder)
}

func (h *ReminderHandler) Update(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "reminder")
	if !ok {
		return
	}

	var req UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	reminder, err := h.repo.Update(c.Request.Context(), p, id, repository.ReminderChanges{
		RemindAt: req.RemindAt,
		IsSent:   req.IsSent,
		Message:  req.Message,
	})
	if err != nil {
		fail(c, h.log, err, "Reminder")
		return
	}
	c.JSON(http.StatusOK, reminder)
}

func (h *ReminderHandler) Delete(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "reminder")
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), p, id); err != nil {
		fail(c, h.log, err, "Reminder")
		return
	}
	c.Status(http.StatusNoContent)
}
