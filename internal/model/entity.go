package model

import "time"

// Entity is a uniquely identified record managed by a container.
type Entity interface {
	EntityID() string
}

// Timestamped is implemented by entities whose timestamps are assigned by the server.
type Timestamped interface {
	Timestamps() (createdAt, updatedAt time.Time)
}

// Patch carries a partial update merged server-side.
type Patch map[string]any
