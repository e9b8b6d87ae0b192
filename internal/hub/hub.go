// Package hub implements the signal.Channel transport over gorilla
// websockets: per-connection clients with buffered write pumps, and
// named groups for room-level broadcast addressing.
package hub

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/loftwing/cinesync/internal/signal"
)

var ErrNotConnected = errors.New("connection not registered")

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]*Client
}

func New() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]*Client),
	}
}

// Register admits a fresh websocket under the given connection id and
// returns its client handle.
func (h *Hub) Register(connID string, conn *websocket.Conn) *Client {
	c := newClient(connID, conn)
	h.mu.Lock()
	h.clients[connID] = c
	h.mu.Unlock()
	log.Info().Str("module", "hub").Str("conn", connID).Msg("connection registered")
	return c
}

// Unregister drops the connection and removes it from every group.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	c, ok := h.clients[connID]
	if ok {
		delete(h.clients, connID)
		close(c.send)
	}
	for name, members := range h.groups {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.groups, name)
		}
	}
	h.mu.Unlock()
	if ok {
		log.Info().Str("module", "hub").Str("conn", connID).Msg("connection unregistered")
	}
}

// ConnectionCount reports how many connections are live.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Emit(connID, event string, data any) error {
	frame, err := marshalFrame(event, data)
	if err != nil {
		return err
	}

	// trySend happens under the read lock so Unregister cannot close
	// the send queue mid-enqueue.
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return ErrNotConnected
	}
	if !c.trySend(frame) {
		return ErrNotConnected
	}
	return nil
}

func (h *Hub) Broadcast(group, event string, data any) {
	h.broadcast(group, "", event, data)
}

func (h *Hub) BroadcastExcept(group, exceptID, event string, data any) {
	h.broadcast(group, exceptID, event, data)
}

func (h *Hub) broadcast(group, exceptID, event string, data any) {
	frame, err := marshalFrame(event, data)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.groups[group] {
		if id == exceptID {
			continue
		}
		c.trySend(frame)
	}
}

func (h *Hub) JoinGroup(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]*Client)
		h.groups[group] = members
	}
	members[connID] = c
}

func (h *Hub) LeaveGroup(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

func marshalFrame(event string, data any) ([]byte, error) {
	frame, err := json.Marshal(signal.Outbound{Type: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("module", "hub").Str("event", event).Msg("marshal frame")
		return nil, err
	}
	return frame, nil
}
