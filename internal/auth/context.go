package auth

import "context"

type contextKey struct{}

// AuthContext identifies the caller of a request. RoomID is 0 until the user
// selects a room.
type AuthContext struct {
	UserID    int64
	RoomID    int64
	SessionID int64
	Token     string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func RoomID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.RoomID
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

// HasRoom reports whether the caller has a current room.
func HasRoom(ctx context.Context) bool {
	return RoomID(ctx) != 0
}
