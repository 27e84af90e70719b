package auth

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the validated session token in context.
func ContextWithSession(ctx context.Context, tok Token) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, tok)
}

// SessionFromContext extracts the validated session token from context.
func SessionFromContext(ctx context.Context) (Token, bool) {
	tok, ok := ctx.Value(sessionContextKey{}).(Token)
	return tok, ok
}
