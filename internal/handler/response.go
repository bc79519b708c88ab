package handler

import (
	"errors"
	"net/http"
	"strings"

	"taskflow/internal/middleware"
	"taskflow/internal/policy"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// requester writes 401 and returns false when no principal is set.
func requester(c *gin.Context) (policy.Principal, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return policy.Principal{}, false
	}
	return p, true
}

// pathID parses the :name path parameter as a uuid, writing 400 on failure.
func pathID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid " + label + " ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// fail maps repository errors onto HTTP replies. resource names the row kind
// in 404 messages. Unknown errors are logged and hidden behind a 500.
func fail(c *gin.Context, log *zap.Logger, err error, resource string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
	case errors.Is(err, repository.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "permission denied"})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: resource + " already exists"})
	case errors.Is(err, repository.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Referenced row does not exist"})
	case errors.Is(err, repository.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid " + strings.ToLower(resource) + " data"})
	default:
		log.Error("request failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
