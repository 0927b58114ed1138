package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/models"
)

const (
	SessionCookie = "synopsis_session"
	StateCookie   = "synopsis_oauth_state"
	issuer        = "synopsis"
)

// Store is a session store that can also be pruned.
type Store interface {
	core.SessionStore
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type SessionsConfig struct {
	Secret string
	TTL    time.Duration
	// Secure marks cookies HTTPS-only.
	Secure bool
}

// Sessions binds a signed cookie to a server-side record holding the sealed
// OAuth token. The cookie only ever carries the session id.
type Sessions struct {
	store  Store
	sealer *Sealer
	oauth  *OAuth
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessions wires a session manager. oauth may be nil, in which case expired
// tokens are handed back as-is.
func NewSessions(store Store, oauth *OAuth, cfg SessionsConfig) (*Sessions, error) {
	sealer, err := NewSealer(cfg.Secret)
	if err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Sessions{
		store:  store,
		sealer: sealer,
		oauth:  oauth,
		key:    []byte(cfg.Secret),
		ttl:    ttl,
		secure: cfg.Secure,
		now:    time.Now,
	}, nil
}

// Create persists tok under a fresh session id and returns the cookie to set.
func (s *Sessions) Create(ctx context.Context, tok *oauth2.Token) (*http.Cookie, string, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, "", errors.New("empty oauth token")
	}
	id := uuid.NewString()
	rec, err := s.seal(id, tok)
	if err != nil {
		return nil, "", err
	}
	rec.CreatedAt = s.now()
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, "", fmt.Errorf("save session: %w", err)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        id,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return nil, "", fmt.Errorf("sign session: %w", err)
	}
	return s.cookie(signed, int(s.ttl.Seconds())), id, nil
}

// Resolve reads the session cookie and returns the live token. A token that
// was refreshed on the way is written back to the store.
func (s *Sessions) Resolve(ctx context.Context, r *http.Request) (*oauth2.Token, string, error) {
	id, err := s.sessionID(r)
	if err != nil {
		return nil, "", err
	}
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, "", core.ErrUnauthorized
	}
	if err != nil {
		return nil, "", err
	}
	tok, err := s.unseal(rec)
	if err != nil {
		return nil, "", core.ErrUnauthorized
	}
	if s.oauth == nil || tok.Valid() {
		return tok, id, nil
	}

	fresh, err := s.oauth.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, "", fmt.Errorf("refresh token: %w", core.ErrUnauthorized)
	}
	if fresh.AccessToken != tok.AccessToken {
		updated, err := s.seal(id, fresh)
		if err != nil {
			return nil, "", err
		}
		updated.CreatedAt = rec.CreatedAt
		if err := s.store.Save(ctx, updated); err != nil {
			return nil, "", fmt.Errorf("save refreshed session: %w", err)
		}
	}
	return fresh, id, nil
}

// Destroy drops the server-side record if any and returns a clearing cookie.
func (s *Sessions) Destroy(ctx context.Context, r *http.Request) (*http.Cookie, error) {
	expired := s.cookie("", -1)
	id, err := s.sessionID(r)
	if err != nil {
		return expired, nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return expired, fmt.Errorf("delete session: %w", err)
	}
	return expired, nil
}

// Prune removes sessions older than the TTL.
func (s *Sessions) Prune(ctx context.Context) (int64, error) {
	return s.store.DeleteSessionsBefore(ctx, s.now().Add(-s.ttl))
}

func (s *Sessions) StateCookie(state string) *http.Cookie {
	return &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Sessions) ClearStateCookie() *http.Cookie {
	c := s.StateCookie("")
	c.MaxAge = -1
	return c
}

func (s *Sessions) sessionID(r *http.Request) (string, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return "", core.ErrUnauthorized
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(c.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return "", core.ErrUnauthorized
	}
	return claims.ID, nil
}

func (s *Sessions) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Sessions) seal(id string, tok *oauth2.Token) (*models.SessionRecord, error) {
	access, err := s.sealer.Seal(tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("seal access token: %w", err)
	}
	refresh, err := s.sealer.Seal(tok.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("seal refresh token: %w", err)
	}
	var exp int64
	if !tok.Expiry.IsZero() {
		exp = tok.Expiry.Unix()
	}
	return &models.SessionRecord{
		ID:           id,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tok.TokenType,
		Expiry:       exp,
	}, nil
}

func (s *Sessions) unseal(rec *models.SessionRecord) (*oauth2.Token, error) {
	access, err := s.sealer.Open(rec.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sealer.Open(rec.RefreshToken)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    rec.TokenType,
	}
	if rec.Expiry > 0 {
		tok.Expiry = time.Unix(rec.Expiry, 0)
	}
	return tok, nil
}
