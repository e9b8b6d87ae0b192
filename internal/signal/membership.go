package signal

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/loftwing/cinesync/internal/room"
)

// Membership mutates room membership on join/leave/disconnect and
// notifies the rest of the room. It owns no state of its own; the
// registry holds the rooms, the channel delivers the notifications.
type Membership struct {
	reg *room.Registry
	ch  Channel
}

func NewMembership(reg *room.Registry, ch Channel) *Membership {
	return &Membership{reg: reg, ch: ch}
}

// Join validates the display name, admits the connection into the room
// and announces it to the other members. Re-joining is idempotent: the
// member sequence never holds a connection twice.
func (ms *Membership) Join(connID, userName, roomName, password string) JoinResult {
	if !room.ValidDisplayName(userName) {
		return JoinResult{OK: false, Joined: false, Error: room.ErrInvalidDisplayName.Error()}
	}

	members, err := ms.reg.Join(roomName, password, room.Member{ID: connID, Name: userName})
	if err != nil {
		return JoinResult{OK: false, Error: err.Error()}
	}

	ms.ch.JoinGroup(roomName, connID)
	ms.ch.BroadcastExcept(roomName, connID, EventUserJoined, UserEvent{ID: connID, Name: userName})
	log.Info().Str("module", "signal").Str("room", roomName).Str("conn", connID).
		Int("roomSize", ms.ch.GroupSize(roomName)).Msg("member admitted")

	return JoinResult{OK: true, Joined: true, Members: members}
}

// Leave removes the connection from its room, drops the room once
// empty and tells the remaining members. Connections that never joined
// a room are a no-op. The broadcast goes out regardless of whether the
// room survived; addressing is by room group, which the departing
// connection has left by then.
func (ms *Membership) Leave(connID, roomName string) {
	if roomName == "" {
		return
	}

	removed, deleted, ok := ms.reg.Leave(roomName, connID)
	ms.ch.LeaveGroup(roomName, connID)
	if !ok {
		return
	}
	if deleted {
		log.Debug().Str("module", "signal").Str("room", roomName).Msg("room emptied by departure")
	}
	ms.ch.BroadcastExcept(roomName, connID, EventUserDisconnected, UserEvent{ID: removed.ID, Name: removed.Name})
}

// CreateRoom registers a room for later joins.
func (ms *Membership) CreateRoom(roomName, password string) CreateResult {
	if err := ms.reg.Create(roomName, password); err != nil {
		if !errors.Is(err, room.ErrInvalidRoomName) && !errors.Is(err, room.ErrRoomOccupied) {
			log.Error().Err(err).Str("module", "signal").Str("room", roomName).Msg("create room")
		}
		return CreateResult{Error: err.Error()}
	}
	return CreateResult{}
}

// CheckStatus reports name validity, existence and password presence.
func (ms *Membership) CheckStatus(roomName string) room.Status {
	return ms.reg.CheckStatus(roomName)
}

// CheckPermission reports whether the password opens the room.
func (ms *Membership) CheckPermission(roomName, password string) PermissionResult {
	if err := ms.reg.CheckPermission(roomName, password); err != nil {
		return PermissionResult{Allowed: false, Error: err.Error()}
	}
	return PermissionResult{Allowed: true}
}
