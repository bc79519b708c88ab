package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"taskflow/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const keepAliveInterval = 25 * time.Second

// Subscriber is the part of realtime.Hub the stream handler needs.
type Subscriber interface {
	Subscribe(ctx context.Context, userID uuid.UUID, tables []string) (*realtime.Subscription, error)
	Unsubscribe(sub *realtime.Subscription)
}

type RealtimeHandler struct {
	hub       Subscriber
	log       *zap.Logger
	keepAlive time.Duration
}

func NewRealtimeHandler(hub Subscriber, log *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, log: log, keepAlive: keepAliveInterval}
}

// Stream godoc
// @Summary      Server-Sent Events for the requester's tasks and notifications
// @Tags         Realtime
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        tables  query string false "Comma separated subset of tasks,notifications"
// @Param        user_id query string false "Must equal the requester"
// @Success      200 {object} realtime.Event
// @Failure      403 {object} ErrorResponse
// @Router       /realtime [get]
func (h *RealtimeHandler) Stream(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	if v := c.Query("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID format"})
			return
		}
		if id != p.UserID {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "permission denied"})
			return
		}
	}

	var tables []string
	if v := c.Query("tables"); v != "" {
		for _, t := range strings.Split(v, ",") {
			t = strings.TrimSpace(t)
			if !realtime.ValidTable(t) {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown table " + t})
				return
			}
			tables = append(tables, t)
		}
	}

	ctx := c.Request.Context()
	sub, err := h.hub.Subscribe(ctx, p.UserID, tables)
	if err != nil {
		h.log.Warn("subscribe failed", zap.Error(err), zap.String("user_id", p.UserID.String()))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Realtime feed unavailable"})
		return
	}
	defer h.hub.Unsubscribe(sub)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, open := <-sub.Events():
			if !open {
				return false
			}
			c.SSEvent("change", ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
