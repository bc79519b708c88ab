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

const (
	dateLayout         = "2006-01-02"
	defaultHistoryDays = 30
	defaultSummaryDays = 7
	maxSummaryDays     = 365
)

type AnalyticsHandler struct {
	repo repository.AnalyticsRepositoryInterface
	log  *zap.Logger
	now  func() time.Time
}

func NewAnalyticsHandler(repo repository.AnalyticsRepositoryInterface, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{repo: repo, log: log, now: time.Now}
}

type CreateDayRequest struct {
	Date           string `json:"date" binding:"required,datetime=2006-01-02"`
	TasksCreated   int    `json:"tasks_created" binding:"min=0"`
	TasksCompleted int    `json:"tasks_completed" binding:"min=0"`
	TasksCancelled int    `json:"tasks_cancelled" binding:"min=0"`
	FocusMinutes   int    `json:"focus_minutes" binding:"min=0"`
	StreakDays     int    `json:"streak_days" binding:"min=0"`
}

type AddFocusRequest struct {
	Minutes int `json:"minutes" binding:"required,min=1,max=1440"`
}

// List godoc
// @Summary      Daily analytics rows in a date range
// @Tags         Analytics
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "First day (YYYY-MM-DD), default 29 days before to"
// @Param        to   query string false "Last day (YYYY-MM-DD), default today"
// @Success      200 {array} model.AnalyticsDay
// @Failure      400 {object} ErrorResponse
// @Router       /analytics [get]
func (h *AnalyticsHandler) List(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	to := model.Day(h.now())
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid to date"})
			return
		}
		to = t
	}
	from := to.AddDate(0, 0, -(defaultHistoryDays - 1))
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid from date"})
			return
		}
		from = t
	}
	if from.After(to) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "from must not be after to"})
		return
	}

	days, err := h.repo.List(c.Request.Context(), p, from, to)
	if err != nil {
		fail(c, h.log, err, "Analytics")
		return
	}
	if days == nil {
		days = []model.AnalyticsDay{}
	}
	c.JSON(http.StatusOK, days)
}

// Summary totals the last n days, today included.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	days := defaultSummaryDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSummaryDays {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid days"})
			return
		}
		days = n
	}

	since := model.Day(h.now()).AddDate(0, 0, -(days - 1))
	summary, err := h.repo.Summary(c.Request.Context(), p, since)
	if err != nil {
		fail(c, h.log, err, "Analytics")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CreateDay godoc
// @Summary      Insert a day row
// @Tags         Analytics
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateDayRequest true "Day"
// @Success      201 {object} model.AnalyticsDay
// @Failure      409 {object} ErrorResponse "A row for that date exists"
// @Router       /analytics/days [post]
func (h *AnalyticsHandler) CreateDay(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	var req CreateDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid date"})
		return
	}

	day := &model.AnalyticsDay{
		UserID:         p.UserID,
		Date:           date,
		TasksCreated:   req.TasksCreated,
		TasksCompleted: req.TasksCompleted,
		TasksCancelled: req.TasksCancelled,
		FocusMinutes:   req.FocusMinutes,
		StreakDays:     req.StreakDays,
	}
	if err := h.repo.CreateDay(c.Request.Context(), p, day); err != nil {
		fail(c, h.log, err, "Analytics day")
		return
	}
	c.JSON(http.StatusCreated, day)
}

func (h *AnalyticsHandler) AddFocus(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	var req AddFocusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	day, err := h.repo.AddFocus(c.Request.Context(), p, h.now(), req.Minutes)
	if err != nil {
		fail(c, h.log, err, "Analytics")
		return
	}
	c.JSON(http.StatusOK, day)
}
