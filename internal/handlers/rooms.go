package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/loftwing/cinesync/internal/room"
	"github.com/loftwing/cinesync/internal/signal"
)

// ListRooms returns the admin view of every registered room (requires
// authentication).
func ListRooms(reg *room.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": reg.List()})
	}
}

// GetRoomStatus is the REST twin of the check-room-valid event:
// public, reports validity, existence and password presence.
func GetRoomStatus(reg *room.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := reg.CheckStatus(c.Param("roomName"))
		if !status.Valid {
			c.JSON(http.StatusBadRequest, status)
			return
		}
		if !status.Exists {
			c.JSON(http.StatusNotFound, status)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// CloseRoom force-closes a room, evicting its members (requires
// authentication).
func CloseRoom(reg *room.Registry, d *signal.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("roomName")
		if !d.CloseRoom(reg, name) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room does not exists"})
			return
		}

		userID, _ := c.Get("user_id")
		log.Info().Str("module", "handlers").Str("room", name).Any("by", userID).Msg("room force-closed")
		c.JSON(http.StatusOK, gin.H{"message": "Room closed"})
	}
}
