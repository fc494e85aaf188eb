package domain

import "time"

// Message is the wire-level chat unit the hub relays. The external store
// is the source of truth for history; the hub never replays it.
type Message struct {
	ID         string    `json:"id"`
	RoomID     RoomID    `json:"roomId"`
	Sender     UserID    `json:"sender"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status"`
	IsGroup    bool      `json:"isGroup"`
}
