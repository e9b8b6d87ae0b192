package signal

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/loftwing/cinesync/internal/room"
)

// Limiter throttles password-bearing attempts per connection.
type Limiter interface {
	Allow(key string) bool
	// Forget releases any state held for the key; called when the
	// connection goes away.
	Forget(key string)
}

// Session is the per-connection state the dispatcher tracks: the
// transport-assigned connection id, the display name set at join time,
// and the currently joined room (empty until join-room succeeds).
type Session struct {
	ID   string
	Name string
	Room string
}

// Dispatcher parses inbound frames, validates them at the boundary and
// hands them to the membership manager or the router. A single mutex
// serializes event processing: each event runs to completion before
// the next, so compound mutation sequences are atomic and no further
// locking discipline is needed downstream.
type Dispatcher struct {
	mu sync.Mutex

	membership *Membership
	router     *Router
	ch         Channel
	limiter    Limiter
}

func NewDispatcher(membership *Membership, router *Router, ch Channel, limiter Limiter) *Dispatcher {
	return &Dispatcher{
		membership: membership,
		router:     router,
		ch:         ch,
		limiter:    limiter,
	}
}

// Connected greets a fresh connection with its assigned id.
func (d *Dispatcher) Connected(s *Session) {
	_ = d.ch.Emit(s.ID, EventConnected, ConnectedData{ClientID: s.ID})
}

// Disconnected runs the leave cleanup for a closed connection.
func (d *Dispatcher) Disconnected(s *Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.membership.Leave(s.ID, s.Room)
	d.limiter.Forget(s.ID)
	s.Room = ""
}

// Dispatch handles one inbound frame. Validation and lookup failures
// are answered with structured replies; the connection is never
// dropped over them. Frames that fail boundary validation are logged
// and discarded.
func (d *Dispatcher) Dispatch(s *Session, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", s.ID).Msg("unparsable frame dropped")
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch env.Type {
	case EventCheckRoomValid:
		d.onCheckRoomValid(s, env.Data)
	case EventHasRoomPermission:
		d.onHasRoomPermission(s, env.Data)
	case EventCreateRoom:
		d.onCreateRoom(s, env.Data)
	case EventJoinRoom:
		d.onJoinRoom(s, env.Data)
	case EventMessage:
		d.onMessage(s, env.Data)
	case EventVideoDataUpdate:
		d.onVideoDataUpdate(s, env.Data)
	case EventVideoDataUpdateTo:
		d.onVideoDataUpdateTo(s, env.Data)
	case EventGetVideo:
		if s.Room != "" {
			d.router.HandleGetVideo(s.Room, s.ID)
		}
	case EventGetVideoState:
		if s.Room != "" {
			d.router.HandleGetVideoState(s.Room, s.ID)
		}
	case EventJoinCamRoom:
		d.onJoinCamRoom(s, env.Data)
	case EventOffer, EventAnswer, EventCandidate:
		d.onPeerSignal(s, env.Type, env.Data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (d *Dispatcher) onCheckRoomValid(s *Session, data json.RawMessage) {
	var p CheckRoomData
	if !d.decode(s, data, &p) {
		return
	}
	_ = d.ch.Emit(s.ID, EventRoomStatus, d.membership.CheckStatus(p.RoomName))
}

func (d *Dispatcher) onHasRoomPermission(s *Session, data json.RawMessage) {
	var p PermissionData
	if !d.decode(s, data, &p) {
		return
	}
	if !d.limiter.Allow(s.ID) {
		_ = d.ch.Emit(s.ID, EventRoomPermission, PermissionResult{Allowed: false, Error: "too many attempts"})
		return
	}
	_ = d.ch.Emit(s.ID, EventRoomPermission, d.membership.CheckPermission(p.RoomName, p.Password))
}

func (d *Dispatcher) onCreateRoom(s *Session, data json.RawMessage) {
	var p CreateRoomData
	if !d.decode(s, data, &p) {
		return
	}
	_ = d.ch.Emit(s.ID, EventCreateResult, d.membership.CreateRoom(p.RoomName, p.Password))
}

func (d *Dispatcher) onJoinRoom(s *Session, data json.RawMessage) {
	var p JoinRoomData
	if !d.decode(s, data, &p) {
		return
	}
	if !d.limiter.Allow(s.ID) {
		_ = d.ch.Emit(s.ID, EventJoinResult, JoinResult{OK: false, Error: "too many attempts"})
		return
	}

	res := d.membership.Join(s.ID, p.UserName, p.RoomName, p.Password)
	if res.OK {
		// Switching rooms vacates the previous one so it can empty out;
		// a failed attempt leaves the current membership untouched.
		if s.Room != "" && s.Room != p.RoomName {
			d.membership.Leave(s.ID, s.Room)
		}
		s.Name = p.UserName
		s.Room = p.RoomName
	}
	_ = d.ch.Emit(s.ID, EventJoinResult, res)
}

func (d *Dispatcher) onMessage(s *Session, data json.RawMessage) {
	var p MessageData
	if !d.decode(s, data, &p) {
		return
	}
	if s.Room == "" {
		return
	}
	d.router.RelayMessage(s.Room, s.ID, s.Name, p.Msg)
}

func (d *Dispatcher) onVideoDataUpdate(s *Session, data json.RawMessage) {
	vd, ok := d.decodeVideo(s, data)
	if !ok || s.Room == "" {
		return
	}
	d.router.RelayVideoData(s.Room, vd)
}

func (d *Dispatcher) onVideoDataUpdateTo(s *Session, data json.RawMessage) {
	vd, ok := d.decodeVideo(s, data)
	if !ok {
		return
	}
	if vd.ToClientID == "" {
		log.Warn().Str("module", "signal").Str("conn", s.ID).Msg("directed video update without target dropped")
		return
	}
	if err := d.router.RelayVideoDataTo(vd.ToClientID, vd); err != nil {
		// Real race: the target can disconnect between being picked as
		// a data source and receiving the request.
		log.Debug().Err(err).Str("module", "signal").Str("target", vd.ToClientID).Msg("directed video update undeliverable")
	}
}

func (d *Dispatcher) onJoinCamRoom(s *Session, data json.RawMessage) {
	if s.Room == "" {
		return
	}
	announced := s.ID
	var p CamJoinData
	if len(data) > 0 && json.Unmarshal(data, &p) == nil && p.ClientID != "" {
		announced = p.ClientID
	}
	d.router.RelayCamJoin(s.Room, s.ID, announced)
}

// onPeerSignal forwards negotiation frames between peers. With a
// target it is a unicast; without one it falls back to a room
// broadcast excluding the sender.
func (d *Dispatcher) onPeerSignal(s *Session, event string, data json.RawMessage) {
	var p PeerSignal
	if !d.decode(s, data, &p) {
		return
	}
	p.From = s.ID
	if p.To != "" {
		if err := d.ch.Emit(p.To, event, p); err != nil {
			log.Debug().Str("module", "signal").Str("target", p.To).Msg("peer signal undeliverable")
		}
		return
	}
	if s.Room != "" {
		d.ch.BroadcastExcept(s.Room, s.ID, event, p)
	}
}

func (d *Dispatcher) decode(s *Session, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", s.ID).Msg("malformed payload dropped")
		return false
	}
	return true
}

func (d *Dispatcher) decodeVideo(s *Session, data json.RawMessage) (VideoData, bool) {
	var vd VideoData
	if err := json.Unmarshal(data, &vd); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", s.ID).Msg("malformed video payload dropped")
		return VideoData{}, false
	}
	if err := vd.Validate(); err != nil {
		log.Warn().Str("module", "signal").Str("conn", s.ID).Str("type", vd.Type).Msg("invalid video payload dropped")
		return VideoData{}, false
	}
	return vd, true
}

// CloseRoom force-evicts every member of a room (admin surface). Each
// member is told the room is gone before its registry entry vanishes.
func (d *Dispatcher) CloseRoom(reg *room.Registry, roomName string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, ok := reg.Delete(roomName)
	if !ok {
		return false
	}
	for _, m := range members {
		_ = d.ch.Emit(m.ID, EventRoomClosed, map[string]string{"room": roomName})
		d.ch.LeaveGroup(roomName, m.ID)
	}
	return true
}
