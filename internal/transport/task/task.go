package task

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	drainersvc "github.com/alanyang/shiftdesk/internal/service/drainer"
	tasksvc "github.com/alanyang/shiftdesk/internal/service/task"
	"github.com/alanyang/shiftdesk/internal/transport/httperr"
)

func Register(rg *gin.RouterGroup, svc *tasksvc.Service, drain *drainersvc.Service) {
	rg.POST("/", createTask(svc))
	rg.GET("/", listTasks(svc))
	rg.GET("/pending", listPending(svc))
	rg.GET("/stats", stats(svc))
	rg.POST("/drain", drainNow(drain))
	rg.GET("/:id", getTask(svc))
	rg.POST("/:id/complete", completeTask(svc))
	rg.POST("/:id/cancel", cancelTask(svc))
	rg.POST("/:id/reassign", reassignTask(svc))
}

type createTaskReq struct {
	Description string                  `json:"description"`
	Mode        dispatch.Mode           `json:"mode" binding:"required"`
	Type        dispatch.AssignmentType `json:"type" binding:"required"`
	AgentID     *int64                  `json:"agent_id"`
}

func createTask(svc *tasksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTaskReq
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, err.Error())
			return
		}

		t, err := svc.Create(c.Request.Context(), dispatch.Request{
			Description: req.Description,
			Mode:        req.Mode,
			Type:        req.Type,
			AgentID:     req.AgentID,
		})
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

func listTasks(svc *tasksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters domaintask.ListFilters

		if v := c.Query("status"); v != "" {
			s := domaintask.Status(v)
			if !s.Valid() {
				httperr.BadRequest(c, "invalid status")
				return
			}
			filters.Status = &s
		}
		if v := c.Query("assigned_to"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				httperr.BadRequest(c, "invalid assigned_to")
				return
			}
			filters.AssignedTo = &id
		}
		if v := c.Query("unassigned"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				httperr.BadRequest(c, "invalid unassigned")
				return
			}
			filters.Unassigned = b
		}
		filters.OldestFirst = c.Query("order") == "oldest"

		tasks, err := svc.List(c.Request.Context(), filters)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		if tasks == nil {
			tasks = []domaintask.Task{}
		}
		c.JSON(http.StatusOK, tasks)
	}
}

func listPending(svc *tasksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var agentID *int64
		if v := c.Query("agent_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				httperr.BadRequest(c, "invalid agent_id")
				return
			}
			agentID = &id
		}

		tasks, err := svc.ListPending(c.Request.Context(), agentID)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		if tasks == nil {
			tasks = []domaintask.Task{}
		}
		c.JSON(http.StatusOK, tasks)
	}
}

func stats(svc *tasksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := svc.Stats(c.Request.Context())
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func drainNow(drain *drainersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		made, err := drain.DrainUntilStable(c.Request.Context(), 0)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		if made == nil {
			made = []dispatch.Assignment{}
		}
		c.JSON(http.StatusOK, gin.H{"assignments": made})
	}
}

func getTask(svc *tasksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		t, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func completeTask(svc *tasksvc.Service) gin.HandlerFunc {
	return finishTask(svc.Complete)
}

func cancelTask(svc *tasksvc.Service) gin.HandlerFunc {
	return finishTask(svc.Cancel)
}

func finishTask(op func(ctx context.Context, id int64) (domaintask.Task, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		t, err := op(c.Request.Context(), id)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

type reassignReq struct {
	AgentID     int64 `json:"agent_id" binding:"required"`
	KeepPending bool  `json:"keep_pending"`
}

func reassignTask(svc *tasksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		var req reassignReq
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, err.Error())
			return
		}

		t, err := svc.Reassign(c.Request.Context(), id, req.AgentID, req.KeepPending)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
