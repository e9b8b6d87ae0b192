package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/loftwing/cinesync/internal/room"
)

// Router delivers application events to the right connections:
// room-wide chat, phase-scoped playback updates, and the hand-off
// protocol that selects an authoritative source for shared state.
type Router struct {
	reg *room.Registry
	ch  Channel
	ids IDGenerator
}

func NewRouter(reg *room.Registry, ch Channel, ids IDGenerator) *Router {
	return &Router{reg: reg, ch: ch, ids: ids}
}

// RelayMessage wraps the chat text with a fresh message id and
// broadcasts it to the whole room, sender included, so one rendering
// path on the client handles every message.
func (rt *Router) RelayMessage(roomName, senderID, senderName, text string) {
	rt.ch.Broadcast(roomName, EventUserMessage, UserMessage{
		ID:         rt.ids.NewID(),
		ClientID:   senderID,
		ClientName: senderName,
		Msg:        text,
	})
}

// RelayCamJoin announces a camera-room arrival to every other member.
func (rt *Router) RelayCamJoin(roomName, senderID, announcedID string) {
	rt.ch.BroadcastExcept(roomName, senderID, EventUserJoinedCamRoom, CamJoinData{ClientID: announcedID})
}

// RelayVideoData routes a playback update by its variant. Video
// identity goes to every member past Idle, so late joiners get the
// base video before any ticks; state ticks go to Synced members only.
func (rt *Router) RelayVideoData(roomName string, vd VideoData) {
	var match func(room.Phase) bool
	if vd.Type == VideoTypeVideo {
		match = func(p room.Phase) bool { return p != room.PhaseIdle }
	} else {
		match = func(p room.Phase) bool { return p == room.PhaseSynced }
	}
	for _, m := range rt.reg.MembersInPhase(roomName, match) {
		if err := rt.ch.Emit(m.ID, EventVideoDataUpdate, vd); err != nil {
			log.Debug().Str("module", "signal").Str("conn", m.ID).Msg("video update skipped, conn gone")
		}
	}
}

// RelayVideoDataTo unicasts a playback update to one connection. The
// target may have disconnected between being picked as a source and
// this send; that race surfaces as ErrTargetNotConnected.
func (rt *Router) RelayVideoDataTo(targetID string, vd VideoData) error {
	if err := rt.ch.Emit(targetID, EventVideoDataUpdate, vd); err != nil {
		return room.ErrTargetNotConnected
	}
	return nil
}

// HandleGetVideo moves the requester to AwaitingVideo and sources the
// video identity: from the default when nobody is Synced yet, else by
// asking one Synced member to share with the requester. Selection
// policy: any Synced member other than the requester; the first in
// join order is taken.
func (rt *Router) HandleGetVideo(roomName, requesterID string) {
	rt.reg.SetPhase(roomName, requesterID, room.PhaseAwaitingVideo)

	src, ok := rt.pickSyncedPeer(roomName, requesterID)
	if !ok {
		vd := VideoData{Type: VideoTypeVideo, VideoID: DefaultVideoID, ClientID: requesterID}
		if err := rt.ch.Emit(requesterID, EventVideoDataUpdate, vd); err != nil {
			log.Debug().Str("module", "signal").Str("conn", requesterID).Msg("default video undeliverable")
		}
		return
	}
	if err := rt.ch.Emit(src, EventShareVideoWith, requesterID); err != nil {
		log.Warn().Str("module", "signal").Str("conn", src).Msg("video source gone before share request")
	}
}

// HandleGetVideoState moves the requester to Synced and sources the
// playback state the same way; with no other Synced member the default
// "playing from zero" state is handed back directly.
func (rt *Router) HandleGetVideoState(roomName, requesterID string) {
	rt.reg.SetPhase(roomName, requesterID, room.PhaseSynced)

	src, ok := rt.pickSyncedPeer(roomName, requesterID)
	if !ok {
		state := 1
		zero := 0.0
		vd := VideoData{Type: VideoTypeState, State: &state, CurrentTime: &zero, ClientID: requesterID}
		if err := rt.ch.Emit(requesterID, EventVideoDataUpdate, vd); err != nil {
			log.Debug().Str("module", "signal").Str("conn", requesterID).Msg("default state undeliverable")
		}
		return
	}
	if err := rt.ch.Emit(src, EventShareStateWith, requesterID); err != nil {
		log.Warn().Str("module", "signal").Str("conn", src).Msg("state source gone before share request")
	}
}

func (rt *Router) pickSyncedPeer(roomName, requesterID string) (string, bool) {
	synced := rt.reg.MembersInPhase(roomName, func(p room.Phase) bool { return p == room.PhaseSynced })
	for _, m := range synced {
		if m.ID != requesterID {
			return m.ID, true
		}
	}
	return "", false
}
