package model

import "time"

// ChatMessage rows are append-only.
type ChatMessage struct {
	ID         int64     `json:"id" db:"id"`
	SenderID   int64     `json:"from" db:"sender_id"`
	ReceiverID int64     `json:"to" db:"receiver_id"`
	Text       string    `json:"text" db:"message_text"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}
