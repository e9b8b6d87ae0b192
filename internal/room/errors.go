package room

import "errors"

// Sentinel errors surfaced to clients as structured replies. The
// message text is part of the wire contract.
var (
	ErrInvalidRoomName    = errors.New("Invalid room name")
	ErrInvalidDisplayName = errors.New("Invalid username (min 4-10 characters, no white-spaces)")
	ErrRoomNotFound       = errors.New("Room does not exists")
	ErrWrongPassword      = errors.New("Wrong password")
	ErrRoomOccupied       = errors.New("Room name already in use")
	ErrTargetNotConnected = errors.New("target not connected")
)
