// Package signal implements the room-coordination core: membership
// lifecycle, event routing between room members, and the playback
// hand-off protocol that picks an authoritative source for shared
// video state.
package signal

// Channel is the duplex per-connection event transport the core emits
// through. Group addressing is used for room-level broadcast only;
// role tracking lives in the registry as a per-member phase.
type Channel interface {
	// Emit sends one event to one connection. It fails when the
	// connection no longer exists.
	Emit(connID, event string, data any) error
	// Broadcast sends to every connection in the group.
	Broadcast(group, event string, data any)
	// BroadcastExcept sends to every connection in the group except one.
	BroadcastExcept(group, exceptID, event string, data any)

	JoinGroup(group, connID string)
	LeaveGroup(group, connID string)
	GroupSize(group string) int
}

// IDGenerator produces globally-unique opaque strings on demand.
type IDGenerator interface {
	NewID() string
}
