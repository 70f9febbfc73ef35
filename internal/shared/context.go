package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context. The session middleware
// installs it; guards and handlers read it back.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context, nil outside the
// middleware chain.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
