package hub

import "github.com/google/uuid"

// UUIDGenerator implements signal.IDGenerator with random UUIDv4s.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.New().String() }
