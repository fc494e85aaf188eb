package domain

import "time"

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
)

// PresenceEvent is a transient fact, broadcast and never persisted.
type PresenceEvent struct {
	UserID UserID
	Status PresenceStatus
	At     time.Time
}
