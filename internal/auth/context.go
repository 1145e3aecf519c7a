package auth

import "context"

type sessionContextKey struct{}

// ContextWithSession attaches the validated session to the context. The
// gate does this for API requests so handlers need not re-decode the
// token; handlers still verify presence and role independently.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, &sess)
}

// SessionFromContext extracts the session placed by the gate.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	v, ok := ctx.Value(sessionContextKey{}).(*Session)
	if !ok || v == nil {
		return Session{}, false
	}
	return *v, true
}
