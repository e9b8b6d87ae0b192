package signal

import (
	"errors"
	"fmt"
)

// fakeChannel records emits and broadcasts for assertions. Connections
// listed in gone refuse unicasts, mimicking a peer that dropped.
type sent struct {
	Conn  string
	Event string
	Data  any
}

type bcast struct {
	Group  string
	Except string
	Event  string
	Data   any
}

type fakeChannel struct {
	emits  []sent
	casts  []bcast
	groups map[string]map[string]bool
	gone   map[string]bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		groups: make(map[string]map[string]bool),
		gone:   make(map[string]bool),
	}
}

func (f *fakeChannel) Emit(connID, event string, data any) error {
	if f.gone[connID] {
		return errors.New("connection not registered")
	}
	f.emits = append(f.emits, sent{Conn: connID, Event: event, Data: data})
	return nil
}

func (f *fakeChannel) Broadcast(group, event string, data any) {
	f.casts = append(f.casts, bcast{Group: group, Event: event, Data: data})
}

func (f *fakeChannel) BroadcastExcept(group, exceptID, event string, data any) {
	f.casts = append(f.casts, bcast{Group: group, Except: exceptID, Event: event, Data: data})
}

func (f *fakeChannel) JoinGroup(group, connID string) {
	if f.groups[group] == nil {
		f.groups[group] = make(map[string]bool)
	}
	f.groups[group][connID] = true
}

func (f *fakeChannel) LeaveGroup(group, connID string) {
	delete(f.groups[group], connID)
}

func (f *fakeChannel) GroupSize(group string) int {
	return len(f.groups[group])
}

func (f *fakeChannel) emitsTo(connID string) []sent {
	var out []sent
	for _, e := range f.emits {
		if e.Conn == connID {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeChannel) castsOf(event string) []bcast {
	var out []bcast
	for _, b := range f.casts {
		if b.Event == event {
			out = append(out, b)
		}
	}
	return out
}

// seqIDs hands out deterministic ids.
type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }
func (allowAll) Forget(string)     {}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }
func (denyAll) Forget(string)     {}

// trackingLimiter records which keys were released.
type trackingLimiter struct {
	allowAll
	forgotten []string
}

func (l *trackingLimiter) Forget(key string) { l.forgotten = append(l.forgotten, key) }
