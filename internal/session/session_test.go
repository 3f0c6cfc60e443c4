package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeProvider struct {
	user User
	err  error
}

func (f fakeProvider) AuthCodeURL(state string) string {
	return "https://idp.example/auth?state=" + url.QueryEscape(state)
}

func (f fakeProvider) Exchange(_ context.Context, code string) (User, error) {
	if code != "good-code" {
		return User{}, errors.New("bad code")
	}
	return f.user, f.err
}

func TestIssueAndVerify(t *testing.T) {
	m := NewManager(testSecret, time.Hour, nil)
	s, err := m.Issue(User{ID: "u1", Email: "a@b.c"})
	require.NoError(t, err)

	got, err := m.Verify(s.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.User.ID)
	assert.Equal(t, "a@b.c", got.User.Email)
	assert.WithinDuration(t, s.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestVerifyRejects(t *testing.T) {
	m := NewManager(testSecret, time.Hour, nil)
	s, err := m.Issue(User{ID: "u1"})
	require.NoError(t, err)

	t.Run("tampered", func(t *testing.T) {
		_, err := m.Verify(s.Token + "x")
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewManager([]byte("another-secret-another-secret-xx"), time.Hour, nil)
		_, err := other.Verify(s.Token)
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewManager(testSecret, time.Hour, nil)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Verify(s.Token)
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestSignOutRevokes(t *testing.T) {
	m := NewManager(testSecret, time.Hour, nil)
	var events []EventKind
	unsubscribe := m.OnSessionChange(func(e Event) { events = append(events, e.Kind) })

	s, err := m.Issue(User{ID: "u1"})
	require.NoError(t, err)
	require.NoError(t, m.SignOut(s.Token))

	_, err = m.Verify(s.Token)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, []EventKind{SignedIn, SignedOut}, events)

	unsubscribe()
	_, err = m.Issue(User{ID: "u2"})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestSignInFlow(t *testing.T) {
	m := NewManager(testSecret, time.Hour, fakeProvider{user: User{ID: "google:42", Email: "x@y.z"}})

	authURL, state, err := m.SignIn()
	require.NoError(t, err)
	assert.Contains(t, authURL, url.QueryEscape(state))

	_, err = m.CompleteSignIn(context.Background(), "forged", "good-code")
	assert.ErrorIs(t, err, ErrInvalidState)

	s, err := m.CompleteSignIn(context.Background(), state, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "google:42", s.User.ID)

	_, err = m.CompleteSignIn(context.Background(), state, "good-code")
	assert.ErrorIs(t, err, ErrInvalidState, "state is single use")
}

func TestSignInDisabled(t *testing.T) {
	m := NewManager(testSecret, time.Hour, nil)
	_, _, err := m.SignIn()
	assert.ErrorIs(t, err, ErrSignInDisabled)
}

func TestCurrentSession(t *testing.T) {
	m := NewManager(testSecret, time.Hour, nil)
	_, err := m.CurrentSession(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	s, err := m.Issue(User{ID: "u1"})
	require.NoError(t, err)
	got, err := m.CurrentSession(NewContext(context.Background(), s))
	require.NoError(t, err)
	assert.Equal(t, "u1", got.User.ID)
}

func TestGoogleProviderExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at", "token_type": "Bearer", "expires_in": 3600})
		case "/userinfo":
			if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer at") {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"sub": "123", "email": "ana@example.com", "email_verified": true, "name": "Ana"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewGoogleProvider("id", "secret", "http://localhost/callback")
	p.config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	p.userInfoURL = srv.URL + "/userinfo"

	u, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, User{ID: "google:123", Email: "ana@example.com", Name: "Ana"}, u)
	assert.Contains(t, p.AuthCodeURL("st"), "state=st")
}
