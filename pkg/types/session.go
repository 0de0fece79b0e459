package types

import (
	"context"
	"strings"
)

// Session identifies who is issuing catalog mutations. It travels explicitly
// in the context of every mutation call.
type Session struct {
	User string
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session carried by ctx. The boolean is false when
// ctx has no session or the session has no user.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || strings.TrimSpace(s.User) == "" {
		return Session{}, false
	}
	return s, true
}
