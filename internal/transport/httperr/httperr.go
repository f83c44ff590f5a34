// Package httperr maps service errors onto HTTP responses.
package httperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	portagent "github.com/alanyang/shiftdesk/internal/port/agent"
	porttask "github.com/alanyang/shiftdesk/internal/port/task"
	agentsvc "github.com/alanyang/shiftdesk/internal/service/agent"
	tasksvc "github.com/alanyang/shiftdesk/internal/service/task"
)

// Status returns the HTTP status for err. Not-found checks run before the
// validation group so a missing agent is a 404 everywhere.
func Status(err error) int {
	switch {
	case errors.Is(err, porttask.ErrNotFound),
		errors.Is(err, portagent.ErrNotFound),
		errors.Is(err, dispatch.ErrAgentNotFound):
		return http.StatusNotFound
	case dispatch.IsValidation(err),
		errors.Is(err, domainagent.ErrInvalidRole),
		errors.Is(err, agentsvc.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, dispatch.ErrNoEligibleAgent),
		errors.Is(err, tasksvc.ErrTaskTerminal),
		errors.Is(err, tasksvc.ErrTaskNotActive),
		errors.Is(err, agentsvc.ErrAgentHasTasks):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Write renders err with its mapped status. Server errors are logged; the client
// still gets the message.
func Write(c *gin.Context, err error) {
	code := Status(err)
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// BadRequest is for malformed input caught before the service is called.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
