package http

import (
	"net/http"

	"github.com/dkeye/cowork/internal/app/orch"
	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
	"github.com/gin-gonic/gin"
)

// handlers is the read-mostly REST view of the coordinator state.
type handlers struct {
	orch *orch.Orchestrator
}

func roomParam(c *gin.Context) (domain.RoomID, bool) {
	room := domain.RoomID(c.Param("room"))
	if err := domain.ValidateRoomID(room); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.Reason(err)})
		return "", false
	}
	return room, true
}

// GET /api/rooms
func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Registry.Rooms()})
}

// GET /api/rooms/:room/users
func (h *handlers) listUsers(c *gin.Context) {
	room, ok := roomParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": room, "users": h.orch.Registry.UsersInRoom(room)})
}

// GET /api/rooms/:room/resources
func (h *handlers) listResources(c *gin.Context) {
	room, ok := roomParam(c)
	if !ok {
		return
	}
	resources := h.orch.Resources.InRoom(room)
	if resources == nil {
		resources = []domain.Resource{}
	}
	c.JSON(http.StatusOK, gin.H{"roomId": room, "resources": resources})
}

// GET /api/resources/:id/permissions
func (h *handlers) resourcePermissions(c *gin.Context) {
	id := c.Param("id")
	owner, ok := h.orch.Perms.Owner(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"resourceId": id,
		"owner":      owner,
		"perms":      h.orch.Perms.Entries(id),
	})
}

// DELETE /api/rooms/:room kicks every member.
func (h *handlers) evictRoom(c *gin.Context) {
	room, ok := roomParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"kicked": h.orch.EvictRoom(room)})
}

// DELETE /api/sessions/:sid closes one connection.
func (h *handlers) kickSession(c *gin.Context) {
	if !h.orch.KickBySID(core.SessionID(c.Param("sid"))) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
