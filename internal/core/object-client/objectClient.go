package objectclient

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/markdave123-py/Synopsis/internal/auth"
	"github.com/markdave123-py/Synopsis/internal/core"
)

// StaticProvider serves the same store to every request. Used for stores
// with service credentials, such as S3.
type StaticProvider struct {
	Store core.FileStore
}

func (p StaticProvider) ForRequest(context.Context) (core.FileStore, error) {
	if p.Store == nil {
		return nil, errors.New("file store not configured")
	}
	return p.Store, nil
}

// DriveProvider builds a Drive client for the OAuth token attached to the
// request context by the session middleware.
type DriveProvider struct {
	// Source turns a stored token into a refreshing one. Nil uses the token as-is.
	Source func(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource
	// Options are passed to every Drive client, mostly for tests.
	Options []DriveOption
}

func (p DriveProvider) ForRequest(ctx context.Context) (core.FileStore, error) {
	tok, ok := auth.TokenFrom(ctx)
	if !ok {
		return nil, core.ErrUnauthorized
	}
	var ts oauth2.TokenSource = oauth2.StaticTokenSource(tok)
	if p.Source != nil {
		ts = p.Source(ctx, tok)
	}
	store, err := NewDriveStore(ctx, ts, p.Options...)
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}
	return store, nil
}

var (
	_ core.FileStoreProvider = StaticProvider{}
	_ core.FileStoreProvider = DriveProvider{}
)
