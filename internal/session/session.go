// Package session manages signed-in users. Sessions are HS256 JWTs; sign-in
// goes through an external identity provider using the OAuth2 code flow.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const (
	issuer   = "financepro"
	stateTTL = 10 * time.Minute
)

var (
	ErrNoSession      = errors.New("no session")
	ErrInvalidState   = errors.New("invalid or expired sign-in state")
	ErrSignInDisabled = errors.New("sign-in is not configured")
)

// User is the identity behind a session. ID is the owner key of every record.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
	tokenID   string
}

// IdentityProvider performs the provider side of sign-in.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (User, error)
}

type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

type Event struct {
	Kind    EventKind
	Session Session
}

type claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret   []byte
	ttl      time.Duration
	provider IdentityProvider
	states   *gocache.Cache
	revoked  *gocache.Cache
	now      func() time.Time

	mu        sync.RWMutex
	listeners map[int]func(Event)
	nextID    int
}

// NewManager creates a manager signing tokens with secret. provider may be
// nil, in which case SignIn reports ErrSignInDisabled.
func NewManager(secret []byte, ttl time.Duration, provider IdentityProvider) *Manager {
	return &Manager{
		secret:    secret,
		ttl:       ttl,
		provider:  provider,
		states:    gocache.New(stateTTL, 2*stateTTL),
		revoked:   gocache.New(ttl, ttl),
		now:       time.Now,
		listeners: make(map[int]func(Event)),
	}
}

// SignIn starts the provider flow. The returned state must come back
// unchanged to CompleteSignIn and is accepted once.
func (m *Manager) SignIn() (authURL, state string, err error) {
	if m.provider == nil {
		return "", "", ErrSignInDisabled
	}
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate state: %w", err)
	}
	state = base64.RawURLEncoding.EncodeToString(buf)
	m.states.SetDefault(state, struct{}{})
	return m.provider.AuthCodeURL(state), state, nil
}

// CompleteSignIn checks state, exchanges code with the provider and issues
// a session for the returned user.
func (m *Manager) CompleteSignIn(ctx context.Context, state, code string) (Session, error) {
	if m.provider == nil {
		return Session{}, ErrSignInDisabled
	}
	if _, ok := m.states.Get(state); !ok || state == "" {
		return Session{}, ErrInvalidState
	}
	m.states.Delete(state)

	user, err := m.provider.Exchange(ctx, code)
	if err != nil {
		return Session{}, fmt.Errorf("exchange code: %w", err)
	}
	return m.Issue(user)
}

// Issue creates a session for user without going through the provider.
func (m *Manager) Issue(user User) (Session, error) {
	if user.ID == "" {
		return Session{}, errors.New("issue session: empty user id")
	}
	now := m.now()
	expires := now.Add(m.ttl)
	id := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}

	s := Session{Token: signed, User: user, ExpiresAt: expires.Truncate(time.Second), tokenID: id}
	m.notify(Event{Kind: SignedIn, Session: s})
	return s, nil
}

// Verify returns the session encoded in token. Expired, tampered and
// signed-out tokens yield ErrNoSession.
func (m *Manager) Verify(token string) (Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if _, revoked := m.revoked.Get(c.ID); revoked {
		return Session{}, fmt.Errorf("%w: signed out", ErrNoSession)
	}

	return Session{
		Token:     token,
		User:      User{ID: c.Subject, Email: c.Email, Name: c.Name},
		ExpiresAt: c.ExpiresAt.Time,
		tokenID:   c.ID,
	}, nil
}

// SignOut revokes the token until it would have expired anyway.
func (m *Manager) SignOut(token string) error {
	s, err := m.Verify(token)
	if err != nil {
		return err
	}
	remaining := s.ExpiresAt.Sub(m.now())
	if remaining <= 0 {
		remaining = time.Second
	}
	m.revoked.Set(s.tokenID, struct{}{}, remaining)
	m.notify(Event{Kind: SignedOut, Session: s})
	return nil
}

// CurrentSession returns the session attached to ctx by the auth middleware.
func (m *Manager) CurrentSession(ctx context.Context) (Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// OnSessionChange registers cb for sign-in and sign-out events. The
// returned function removes the registration.
func (m *Manager) OnSessionChange(cb func(Event)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = cb
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notify(e Event) {
	m.mu.RLock()
	cbs := make([]func(Event), 0, len(m.listeners))
	for _, cb := range m.listeners {
		cbs = append(cbs, cb)
	}
	m.mu.RUnlock()

	for _, cb := range cbs {
		cb(e)
	}
}

type contextKey struct{}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
