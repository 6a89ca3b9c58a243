package session

import "context"

type key struct{}

var sessionKey key

// Session is the authenticated caller of one request, resolved fresh by the
// auth middleware on every call.
type Session struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt int64
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns nil when the request is unauthenticated.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey).(*Session); ok && s.UserID != "" {
		return s
	}
	return nil
}
