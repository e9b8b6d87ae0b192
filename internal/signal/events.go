package signal

import (
	"encoding/json"
	"errors"

	"github.com/loftwing/cinesync/internal/room"
)

// Inbound event types.
const (
	EventCheckRoomValid    = "check-room-valid"
	EventHasRoomPermission = "has-room-permission"
	EventCreateRoom        = "create-room"
	EventJoinRoom          = "join-room"
	EventMessage           = "message"
	EventVideoDataUpdate   = "video-data-update"
	EventVideoDataUpdateTo = "video-data-update-to"
	EventGetVideo          = "get-video"
	EventGetVideoState     = "get-video-state"
	EventJoinCamRoom       = "join-cam-room"
	EventOffer             = "offer"
	EventAnswer            = "answer"
	EventCandidate         = "candidate"
)

// Outbound event types.
const (
	EventConnected         = "connected"
	EventRoomStatus        = "room-status"
	EventRoomPermission    = "room-permission"
	EventCreateResult      = "create-result"
	EventJoinResult        = "join-result"
	EventUserJoined        = "user-joined"
	EventUserMessage       = "user_message"
	EventUserDisconnected  = "user-disconnected"
	EventUserJoinedCamRoom = "user-joined-cam-room"
	EventShareVideoWith    = "share-video-with"
	EventShareStateWith    = "share-video-state-with"
	EventRoomClosed        = "room-closed"
)

// ErrMalformedPayload marks inbound data that failed boundary
// validation; such events are logged and dropped, never routed.
var ErrMalformedPayload = errors.New("malformed payload")

// Envelope is the wire frame in both directions. Inbound frames carry
// raw data decoded per event type; outbound frames carry any
// marshalable value.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound is the server-to-client frame.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type ConnectedData struct {
	ClientID string `json:"clientId"`
}

type CheckRoomData struct {
	RoomName string `json:"roomName"`
}

type PermissionData struct {
	RoomName string `json:"roomName"`
	Password string `json:"password"`
}

type PermissionResult struct {
	Allowed bool   `json:"allowed"`
	Error   string `json:"error,omitempty"`
}

type CreateRoomData struct {
	RoomName string `json:"roomName"`
	Password string `json:"password"`
}

type CreateResult struct {
	Error string `json:"error,omitempty"`
}

type JoinRoomData struct {
	UserName string `json:"userName"`
	RoomName string `json:"roomName"`
	Password string `json:"password"`
}

type JoinResult struct {
	OK      bool          `json:"ok"`
	Joined  bool          `json:"joined"`
	Error   string        `json:"error,omitempty"`
	Members []room.Member `json:"members,omitempty"`
}

type MessageData struct {
	Msg string `json:"msg"`
}

// UserMessage is the chat relay frame; every room member receives it,
// the sender included.
type UserMessage struct {
	ID         string `json:"id"`
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName"`
	Msg        string `json:"msg"`
}

// UserEvent announces a member arriving or departing.
type UserEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CamJoinData struct {
	ClientID string `json:"clientId"`
}

// Video payload discriminators.
const (
	VideoTypeVideo = "video"
	VideoTypeState = "video-state"
)

// DefaultVideoID is the fallback media identity handed to the first
// member of a room before any authoritative source exists.
const DefaultVideoID = "MDlx9k0PCSM"

// VideoData is the tagged payload behind video-data-update and
// video-data-update-to. Type selects the variant: "video" carries the
// media identity, "video-state" carries play/pause position ticks.
type VideoData struct {
	Type        string   `json:"type"`
	VideoID     string   `json:"videoId,omitempty"`
	State       *int     `json:"state,omitempty"`
	CurrentTime *float64 `json:"currentTime,omitempty"`
	ClientID    string   `json:"clientId,omitempty"`
	ToClientID  string   `json:"toClientId,omitempty"`
}

// Validate enforces the variant tag at the boundary.
func (v VideoData) Validate() error {
	switch v.Type {
	case VideoTypeVideo:
		if v.VideoID == "" {
			return ErrMalformedPayload
		}
	case VideoTypeState:
		if v.State == nil {
			return ErrMalformedPayload
		}
	default:
		return ErrMalformedPayload
	}
	return nil
}

// PeerSignal is the opaque negotiation frame (offer/answer/candidate)
// forwarded between peers; the core never inspects Payload.
type PeerSignal struct {
	To      string          `json:"to,omitempty"`
	From    string          `json:"from,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
