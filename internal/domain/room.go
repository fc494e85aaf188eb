package domain

type RoomID string

// Room is a chat or group channel. Membership lives in the room index,
// not here; a member may be offline and still belong to the room.
type Room struct {
	ID      RoomID
	IsGroup bool
}
