package handler

import (
	"net/http"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubtaskHandler struct {
	repo repository.SubtaskRepositoryInterface
	log  *zap.Logger
}

func NewSubtaskHandler(repo repository.SubtaskRepositoryInterface, log *zap.Logger) *SubtaskHandler {
	return &SubtaskHandler{repo: repo, log: log}
}

type CreateSubtaskRequest struct {
	Title     string `json:"title" binding:"required,max=255"`
	SortOrder int    `json:"sort_order"`
}

type UpdateSubtaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	IsCompleted *bool   `json:"is_completed"`
	SortOrder   *int    `json:"sort_order"`
}

// ListByTask godoc
// @Summary      List a task's subtasks
// @Tags         Subtasks
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Success      200 {array} model.Subtask
// @Failure      404 {object} ErrorResponse
// @Router       /tasks/{id}/subtasks [get]
func (h *SubtaskHandler) ListByTask(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	subtasks, err := h.repo.ListByTask(c.Request.Context(), p, taskID)
	if err != nil {
		fail(c, h.log, err, "Task")
		return
	}
	if subtasks == nil {
		subtasks = []model.Subtask{}
	}
	c.JSON(http.StatusOK, subtasks)
}

func (h *SubtaskHandler) Create(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	var req CreateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	subtask := &model.Subtask{
		TaskID:    taskID,
		UserID:    p.UserID,
		Title:     req.Title,
		SortOrder: req.SortOrder,
	}
	if err := h.repo.Create(c.Request.Context(), p, subtask); err != nil {
		fail(c, h.log, err, "Task")
		return
	}
	c.JSON(http.StatusCreated, subtask)
}

func (h *SubtaskHandler) Update(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "subtask")
	if !ok {
		return
	}

	var req UpdateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	subtask, err := h.repo.Update(c.Request.Context(), p, id, repository.SubtaskChanges{
		Title:       req.Title,
		IsCompleted: req.IsCompleted,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		fail(c, h.log, err, "Subtask")
		return
	}
	c.JSON(http.StatusOK, subtask)
}

func (h *SubtaskHandler) Delete(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "subtask")
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), p, id); err != nil {
		fail(c, h.log, err, "Subtask")
		return
	}
	c.Status(http.StatusNoContent)
}
