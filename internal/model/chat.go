package model

import "time"

// Chat is a two-party conversation room bound 1:1 to a paid booking.
// The unique index on booking_id guarantees at most one chat per
// booking even under concurrent provisioning.  Once IsActive flips
// false it never flips back; a new booking starts a new chat.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – booking this chat belongs to (unique).
//  MentorID  – mentor participant.
//  MenteeID  – mentee participant.
//  IsActive  – whether messages may still be sent.
//  ExpiresAt – hard deadline after which the chat is read-only.
//  CreatedAt – creation timestamp.
type Chat struct {
	ID        uint64    // chats.id
	BookingID uint64    // chats.booking_id
	MentorID  uint64    // chats.mentor_id
	MenteeID  uint64    // chats.mentee_id
	IsActive  bool      // chats.is_active
	ExpiresAt time.Time // chats.expires_at
	CreatedAt time.Time // chats.created_at
}

// Expired reports whether the chat's deadline has passed at the given
// instant.  The flag in the database is flipped lazily; callers should
// treat an expired-but-still-flagged-active chat as inactive.
func (c *Chat) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// OtherParticipant returns the participant that is not the given user.
// It is used by the realtime dispatcher to pick the delivery target.
func (c *Chat) OtherParticipant(userID uint64) uint64 {
	if userID == c.MentorID {
		return c.MenteeID
	}
	return c.MentorID
}

// HasParticipant reports whether the given user is one of the two
// chat participants.
func (c *Chat) HasParticipant(userID uint64) bool {
	return userID == c.MentorID || userID == c.MenteeID
}
