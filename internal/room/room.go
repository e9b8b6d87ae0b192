// Package room owns the in-memory room registry: room lifecycle,
// membership records and the name/password rules guarding both.
package room

// Phase tracks how far a member has progressed through the playback
// hand-off: Idle until it asks for the video identity, AwaitingVideo
// once it has asked, Synced once it also holds the playback state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingVideo
	PhaseSynced
)

// Member is a connection's participation record within a room.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phase Phase  `json:"-"`
}

// Room is a named, optionally password-protected group of connections.
// Members keep join order; the zero value of password means open room.
type Room struct {
	Name     string
	password string
	Members  []Member
}

// PasswordRequired reports whether joining needs a password.
func (r *Room) PasswordRequired() bool { return r.password != "" }

// HasMember reports whether a connection is already listed.
func (r *Room) HasMember(connID string) bool {
	for _, m := range r.Members {
		if m.ID == connID {
			return true
		}
	}
	return false
}

// Status is the result of a room-name check.
type Status struct {
	Valid            bool   `json:"valid"`
	Exists           bool   `json:"exists"`
	PasswordRequired bool   `json:"passwordRequired"`
	Error            string `json:"error,omitempty"`
}
