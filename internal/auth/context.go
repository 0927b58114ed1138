package auth

import (
	"context"

	"golang.org/x/oauth2"
)

type ctxKey int

const (
	tokenKey ctxKey = iota
	sessionKey
)

// WithToken attaches the caller's OAuth token to ctx.
func WithToken(ctx context.Context, tok *oauth2.Token) context.Context {
	return context.WithValue(ctx, tokenKey, tok)
}

// TokenFrom returns the token stored by WithToken.
func TokenFrom(ctx context.Context) (*oauth2.Token, bool) {
	tok, ok := ctx.Value(tokenKey).(*oauth2.Token)
	return tok, ok && tok != nil
}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

func SessionIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey).(string)
	return id, ok && id != ""
}
