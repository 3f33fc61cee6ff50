// Package cache stores computed chore views per room. Keys embed a per-room
// generation counter so a single Invalidate call retires every cached view of
// that room.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is implemented by Memory and Redis.
type Store interface {
	// Get returns the cached value for key. ok is false on a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Generation returns the room's current generation, 0 if never invalidated.
	Generation(ctx context.Context, roomID int64) (int64, error)
	// Invalidate advances the room's generation.
	Invalidate(ctx context.Context, roomID int64) error
}

// ViewKey builds the key for a room view at a given generation. parts
// distinguish views that depend on a member, a date or a window.
func ViewKey(roomID, gen int64, view string, parts ...any) string {
	key := fmt.Sprintf("room:%d:gen:%d:%s", roomID, gen, view)
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}
