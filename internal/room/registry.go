package room

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry is the process-local room store. It is internally
// synchronized because the REST handlers read it concurrently with the
// signaling path; compound operations (join, leave) run under a single
// lock so their mutation sequences are atomic.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// CheckStatus validates the name first; no existence check is run for
// an invalid name.
func (reg *Registry) CheckStatus(name string) Status {
	if !ValidRoomName(name) {
		return Status{Valid: false, Error: ErrInvalidRoomName.Error()}
	}

	reg.mu.RLock()
	defer reg.mu.RUnlock()

	r, ok := reg.rooms[name]
	if !ok {
		return Status{Valid: true, Exists: false}
	}
	return Status{Valid: true, Exists: true, PasswordRequired: r.PasswordRequired()}
}

// CheckPermission reports whether the supplied password opens the room.
func (reg *Registry) CheckPermission(name, password string) error {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return checkPermission(reg.rooms[name], password)
}

func checkPermission(r *Room, password string) error {
	if r == nil {
		return ErrRoomNotFound
	}
	if r.PasswordRequired() && r.password != password {
		return ErrWrongPassword
	}
	return nil
}

// Create registers a room. The password is trimmed; empty after trim
// means open room. Re-creating an existing room is only allowed while
// it is still empty (created but never joined) and resets it; an
// occupied room is never clobbered.
func (reg *Registry) Create(name, password string) error {
	if !ValidRoomName(name) {
		return ErrInvalidRoomName
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r, ok := reg.rooms[name]; ok && len(r.Members) > 0 {
		return ErrRoomOccupied
	}

	reg.rooms[name] = &Room{Name: name, password: strings.TrimSpace(password)}
	log.Info().Str("module", "room").Str("room", name).Msg("room created")
	return nil
}

// Join runs lookup, password check and the idempotent append under one
// lock, then returns a snapshot of the full member sequence.
// Display-name validation is the caller's job.
func (reg *Registry) Join(name, password string, m Member) ([]Member, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.rooms[name]
	if err := checkPermission(r, password); err != nil {
		return nil, err
	}
	if !r.HasMember(m.ID) {
		r.Members = append(r.Members, m)
	}
	log.Info().Str("module", "room").Str("room", name).Str("conn", m.ID).Str("name", m.Name).Msg("member joined")
	return snapshot(r.Members), nil
}

// Leave removes the connection from the named room and deletes the
// room once its member sequence is empty. It reports the removed
// member and whether the room was deleted; ok is false when the
// connection was not a member.
func (reg *Registry) Leave(name, connID string) (removed Member, deleted, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, exists := reg.rooms[name]
	if !exists {
		return Member{}, false, false
	}
	for i, m := range r.Members {
		if m.ID == connID {
			removed = m
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			ok = true
			break
		}
	}
	if !ok {
		return Member{}, false, false
	}
	if len(r.Members) == 0 {
		delete(reg.rooms, name)
		deleted = true
		log.Info().Str("module", "room").Str("room", name).Msg("empty room deleted")
	}
	return removed, deleted, true
}

// DeleteIfEmpty removes the room entry iff its member sequence is
// empty. Used by the admin surface; the signaling path relies on
// Leave doing this inline.
func (reg *Registry) DeleteIfEmpty(name string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[name]
	if !ok || len(r.Members) > 0 {
		return false
	}
	delete(reg.rooms, name)
	return true
}

// Delete force-removes a room regardless of occupancy and returns the
// members that were still in it.
func (reg *Registry) Delete(name string) ([]Member, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[name]
	if !ok {
		return nil, false
	}
	delete(reg.rooms, name)
	return snapshot(r.Members), true
}

// Members returns a snapshot of the room's member sequence in join
// order, or nil if the room does not exist.
func (reg *Registry) Members(name string) []Member {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	r, ok := reg.rooms[name]
	if !ok {
		return nil
	}
	return snapshot(r.Members)
}

// Exists reports whether the room is currently registered.
func (reg *Registry) Exists(name string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.rooms[name]
	return ok
}

// SetPhase updates a member's hand-off phase. Returns false when the
// room or member is gone.
func (reg *Registry) SetPhase(name, connID string, p Phase) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[name]
	if !ok {
		return false
	}
	for i := range r.Members {
		if r.Members[i].ID == connID {
			r.Members[i].Phase = p
			return true
		}
	}
	return false
}

// MembersInPhase returns members matching the predicate, in join order.
func (reg *Registry) MembersInPhase(name string, match func(Phase) bool) []Member {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	r, ok := reg.rooms[name]
	if !ok {
		return nil
	}
	var out []Member
	for _, m := range r.Members {
		if match(m.Phase) {
			out = append(out, m)
		}
	}
	return out
}

// Info is the admin view of a room.
type Info struct {
	Name             string `json:"name"`
	MemberCount      int    `json:"memberCount"`
	PasswordRequired bool   `json:"passwordRequired"`
}

// List returns the admin view of every registered room.
func (reg *Registry) List() []Info {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]Info, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, Info{
			Name:             r.Name,
			MemberCount:      len(r.Members),
			PasswordRequired: r.PasswordRequired(),
		})
	}
	return out
}

func snapshot(ms []Member) []Member {
	out := make([]Member, len(ms))
	copy(out, ms)
	return out
}
