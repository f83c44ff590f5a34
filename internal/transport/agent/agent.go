package agent

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	agentsvc "github.com/alanyang/shiftdesk/internal/service/agent"
	"github.com/alanyang/shiftdesk/internal/transport/httperr"
)

func Register(rg *gin.RouterGroup, svc *agentsvc.Service) {
	rg.POST("/", createAgent(svc))
	rg.GET("/", listAgents(svc))
	rg.GET("/:id", getAgent(svc))
	rg.PATCH("/:id", updateAgent(svc))
	rg.DELETE("/:id", deleteAgent(svc))
}

type createAgentReq struct {
	Name     string               `json:"name" binding:"required"`
	Email    string               `json:"email"`
	Schedule domainagent.Schedule `json:"schedule"`
	Role     domainagent.Role     `json:"role" binding:"required"`
	Active   *bool                `json:"active"`
}

func createAgent(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createAgentReq
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, err.Error())
			return
		}
		active := true
		if req.Active != nil {
			active = *req.Active
		}

		a, err := svc.Create(c.Request.Context(), req.Name, req.Email, req.Schedule, req.Role, active)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

func listAgents(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters domainagent.ListFilters

		if v := c.Query("role"); v != "" {
			role, err := domainagent.ParseRole(v)
			if err != nil {
				httperr.BadRequest(c, "invalid role")
				return
			}
			filters.Role = &role
		}
		if v := c.Query("active"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				httperr.BadRequest(c, "invalid active")
				return
			}
			filters.Active = &b
		}

		agents, err := svc.List(c.Request.Context(), filters)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		if agents == nil {
			agents = []domainagent.Agent{}
		}
		c.JSON(http.StatusOK, agents)
	}
}

func getAgent(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		a, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

type updateAgentReq struct {
	Name     *string               `json:"name"`
	Email    *string               `json:"email"`
	Schedule *domainagent.Schedule `json:"schedule"`
	Role     *domainagent.Role     `json:"role"`
	Active   *bool                 `json:"active"`
}

func updateAgent(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		var req updateAgentReq
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, err.Error())
			return
		}

		a, err := svc.Update(c.Request.Context(), id, agentsvc.Update{
			Name:     req.Name,
			Email:    req.Email,
			Schedule: req.Schedule,
			Active:   req.Active,
			Role:     req.Role,
		})
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

func deleteAgent(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), id); err != nil {
			httperr.Write(c, err)
			return
		}
		c.Status(http.StatusNoContent)
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
