// Package sweeper closes out chats whose sessions are over. Chats are
// already unusable once expires_at passes because reads check the clock;
// the sweep exists so the stored is_active flags eventually agree with
// reality even for chats nobody opens again.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/mentorhive/mentor-booking/internal/repository"
)

// Sweeper periodically deactivates chats for paid bookings whose session
// ended more than the chat TTL ago.
type Sweeper struct {
	Bookings *repository.BookingRepo
	Chats    *repository.ChatRepo
	TTL      time.Duration
	Interval time.Duration
}

// New returns a Sweeper with the given dependencies.
func New(bookings *repository.BookingRepo, chats *repository.ChatRepo, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{Bookings: bookings, Chats: chats, TTL: ttl, Interval: interval}
}

// SweepOnce performs a single pass and reports how many bookings were
// closed out. Every flag flip is a conditional update, so a sweep racing
// another sweep or the lazy read-path deactivation settles on the same
// final state.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.UTC().Add(-s.TTL)
	expired, err := s.Bookings.ListExpiredActive(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, b := range expired {
		if b.ChatID != nil {
			if _, err := s.Chats.Deactivate(ctx, *b.ChatID); err != nil {
				log.Printf("sweeper: deactivate chat %d: %v", *b.ChatID, err)
				continue
			}
		}
		if _, err := s.Bookings.DeactivateChatFlag(ctx, b.ID); err != nil {
			log.Printf("sweeper: clear chat flag on booking %d: %v", b.ID, err)
			continue
		}
		closed++
	}
	return closed, nil
}

// Run blocks, sweeping immediately and then on every tick until the
// context is cancelled. Intended to be launched in its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	if n, err := s.SweepOnce(ctx, time.Now()); err != nil {
		log.Printf("sweeper: initial sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("sweeper: closed %d expired chats", n)
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := s.SweepOnce(ctx, time.Now()); err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("sweeper: closed %d expired chats", n)
			}
		}
	}
}
