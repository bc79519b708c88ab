package handler

import (
	"net/http"
	"strconv"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type TaskHandler struct {
	repo repository.TaskRepositoryInterface
	log  *zap.Logger
}

func NewTaskHandler(repo repository.TaskRepositoryInterface, log *zap.Logger) *TaskHandler {
	return &TaskHandler{repo: repo, log: log}
}

// CreateTaskRequest представляет запрос на создание задачи
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description *string    `json:"description"`
	CategoryID  *string    `json:"category_id" binding:"omitempty,uuid"`
	Status      string     `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags" binding:"omitempty,dive,min=1,max=50"`
	IsStarred   bool       `json:"is_starred"`
	SortOrder   int        `json:"sort_order"`
}

// UpdateTaskRequest: omitted fields stay unchanged. An empty category_id
// detaches the task from its category.
type UpdateTaskRequest struct {
	Title        *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description  *string    `json:"description"`
	CategoryID   *string    `json:"category_id" binding:"omitempty,uuid|len=0"`
	Status       *string    `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority     *string    `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
	Tags         []string   `json:"tags" binding:"omitempty,dive,min=1,max=50"`
	IsStarred    *bool      `json:"is_starred"`
	SortOrder    *int       `json:"sort_order"`
}

// List godoc
// @Summary      List the requester's tasks
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status      query string false "pending, in_progress, completed or cancelled"
// @Param        priority    query string false "low, medium, high or urgent"
// @Param        category_id query string false "Category ID"
// @Param        starred     query bool   false "Only starred or unstarred"
// @Param        tag         query string false "Tag"
// @Param        search      query string false "Matches title or description"
// @Param        limit       query int    false "Page size"
// @Param        offset      query int    false "Offset"
// @Success      200 {array} model.Task
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	filter, ok := taskFilter(c)
	if !ok {
		return
	}

	tasks, err := h.repo.List(c.Request.Context(), p, filter)
	if err != nil {
		fail(c, h.log, err, "Task")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

func taskFilter(c *gin.Context) (repository.TaskFilter, bool) {
	bad := func(msg string) (repository.TaskFilter, bool) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
		return repository.TaskFilter{}, false
	}

	f := repository.TaskFilter{
		Status:   model.TaskStatus(c.Query("status")),
		Priority: model.TaskPriority(c.Query("priority")),
		Tag:      c.Query("tag"),
		Search:   c.Query("search"),
	}
	if f.Status != "" && !f.Status.Valid() {
		return bad("Invalid status")
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return bad("Invalid priority")
	}
	if v := c.Query("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return bad("Invalid category ID format")
		}
		f.CategoryID = &id
	}
	if v := c.Query("starred"); v != "" {
		starred, err := strconv.ParseBool(v)
		if err != nil {
			return bad("Invalid starred flag")
		}
		f.Starred = &starred
	}
	var err error
	if v := c.Query("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 0 {
			return bad("Invalid limit")
		}
	}
	if v := c.Query("offset"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil || f.Offset < 0 {
			return bad("Invalid offset")
		}
	}
	return f, true
}

// Create godoc
// @Summary      Create a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateTaskRequest true "Task"
// @Success      201 {object} model.Task
// @Failure      400 {object} ErrorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	task := &model.Task{
		UserID:      p.UserID,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.TaskStatus(req.Status),
		Priority:    model.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
		Tags:        pq.StringArray(req.Tags),
		IsStarred:   req.IsStarred,
		SortOrder:   req.SortOrder,
	}
	if req.CategoryID != nil {
		id := uuid.MustParse(*req.CategoryID)
		task.CategoryID = &id
	}

	if err := h.repo.Create(c.Request.Context(), p, task); err != nil {
		fail(c, h.log, err, "Task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) Get(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	task, err := h.repo.Get(c.Request.Context(), p, id)
	if err != nil {
		fail(c, h.log, err, "Task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// Update godoc
// @Summary      Update a task
// @Description  Moving a task to completed stamps completed_at; leaving completed clears it.
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string            true "Task ID"
// @Param        request body UpdateTaskRequest true "Changed fields"
// @Success      200 {object} model.Task
// @Failure      404 {object} ErrorResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	changes := repository.TaskChanges{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
		Tags:         req.Tags,
		IsStarred:    req.IsStarred,
		SortOrder:    req.SortOrder,
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			changes.ClearCategory = true
		} else {
			categoryID := uuid.MustParse(*req.CategoryID)
			changes.CategoryID = &categoryID
		}
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		changes.Status = &status
	}
	if req.Priority != nil {
		priority := model.TaskPriority(*req.Priority)
		changes.Priority = &priority
	}

	task, err := h.repo.Update(c.Request.Context(), p, id, changes)
	if err != nil {
		fail(c, h.log, err, "Task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete removes a task with its subtasks and reminders.
func (h *TaskHandler) Delete(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), p, id); err != nil {
		fail(c, h.log, err, "Task")
		return
	}
	c.Status(http.StatusNoContent)
}
