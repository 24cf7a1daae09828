package model

import "time"

// Message is a single chat utterance.  Messages are append-only: there
// is no edit or delete path, and history stays readable after the chat
// expires.  The active check happens at write time only.
//
// Fields:
//  ID        – primary key identifier.
//  ChatID    – parent chat.
//  SenderID  – authoring participant.
//  Content   – message body, never empty.
//  CreatedAt – server-assigned creation timestamp.
type Message struct {
	ID        uint64    // messages.id
	ChatID    uint64    // messages.chat_id
	SenderID  uint64    // messages.sender_id
	Content   string    // messages.content
	CreatedAt time.Time // messages.created_at
}
