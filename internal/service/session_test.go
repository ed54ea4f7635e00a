package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"loyalty-wallet/internal/cache"
	"loyalty-wallet/internal/events"
	"loyalty-wallet/internal/model"
	"loyalty-wallet/pkg/uid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu    sync.Mutex
	links map[string]string
	err   error
}

func (s *captureSender) SendLink(ctx context.Context, email, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.links == nil {
		s.links = map[string]string{}
	}
	s.links[email] = link
	return nil
}

func (s *captureSender) code(t *testing.T, email string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := url.Parse(s.links[email])
	require.NoError(t, err)
	return u.Query().Get("code")
}

func newSessions(t *testing.T, bus events.Bus) (*SessionService, *captureSender) {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	sender := &captureSender{}
	s := NewSessionService(SessionConfig{
		Cache:       c,
		Sender:      sender,
		Bus:         bus,
		LinkBaseURL: "http://127.0.0.1:8080/auth/callback",
		CodeTTL:     time.Minute,
		SessionTTL:  time.Hour,
	})
	return s, sender
}

func TestSessionMagicLinkFlow(t *testing.T) {
	ctx := context.Background()
	bus := events.NewLocalBus()
	var got []model.Event
	_, err := bus.Subscribe(func(e model.Event) { got = append(got, e) })
	require.NoError(t, err)

	s, sender := newSessions(t, bus)

	require.NoError(t, s.RequestSignIn(ctx, "  Alice@Example.com "))
	link := sender.links["alice@example.com"]
	assert.Contains(t, link, "http://127.0.0.1:8080/auth/callback?code=")

	token, identity, err := s.CompleteSignIn(ctx, sender.code(t, "alice@example.com"))
	require.NoError(t, err)
	assert.Contains(t, token, TokenPrefix)
	assert.Len(t, token, len(TokenPrefix)+64)
	assert.Equal(t, uid.FromName("alice@example.com"), identity.UserID)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.True(t, identity.Authenticated())

	resolved, err := s.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, identity, resolved)

	require.NoError(t, s.SignOut(ctx, token))
	_, err = s.Resolve(ctx, token)
	var authErr *model.AuthError
	assert.True(t, errors.As(err, &authErr))

	require.Len(t, got, 2)
	assert.Equal(t, model.EventSignedIn, got[0].Type)
	assert.Equal(t, model.EventSignedOut, got[1].Type)
	assert.Equal(t, identity.UserID, got[1].UserID)
}

func TestSessionCodeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s, sender := newSessions(t, nil)

	require.NoError(t, s.RequestSignIn(ctx, "bob@example.com"))
	code := sender.code(t, "bob@example.com")

	_, _, err := s.CompleteSignIn(ctx, code)
	require.NoError(t, err)

	_, _, err = s.CompleteSignIn(ctx, code)
	var authErr *model.AuthError
	assert.True(t, errors.As(err, &authErr))
}

func TestSessionSameEmailSameUser(t *testing.T) {
	ctx := context.Background()
	s, sender := newSessions(t, nil)

	require.NoError(t, s.RequestSignIn(ctx, "carol@example.com"))
	_, first, err := s.CompleteSignIn(ctx, sender.code(t, "carol@example.com"))
	require.NoError(t, err)

	require.NoError(t, s.RequestSignIn(ctx, "CAROL@example.com"))
	_, second, err := s.CompleteSignIn(ctx, sender.code(t, "carol@example.com"))
	require.NoError(t, err)

	assert.Equal(t, first.UserID, second.UserID)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
}

func TestSessionRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s, sender := newSessions(t, nil)
	var authErr *model.AuthError

	for _, email := range []string{"", "   ", "not-an-email", "Alice <alice@example.com>"} {
		err := s.RequestSignIn(ctx, email)
		assert.True(t, errors.As(err, &authErr), email)
	}

	_, _, err := s.CompleteSignIn(ctx, "")
	assert.True(t, errors.As(err, &authErr))

	_, err = s.Resolve(ctx, "vht_wrongprefix")
	assert.True(t, errors.As(err, &authErr))

	sender.err = errors.New("smtp down")
	assert.Error(t, s.RequestSignIn(ctx, "dave@example.com"))
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	s, sender := newSessions(t, nil)

	require.NoError(t, s.RequestSignIn(ctx, "erin@example.com"))
	token, _, err := s.CompleteSignIn(ctx, sender.code(t, "erin@example.com"))
	require.NoError(t, err)

	later := time.Now().Add(2 * time.Hour)
	s.now = func() time.Time { return later }

	_, err = s.Resolve(ctx, token)
	var authErr *model.AuthError
	assert.True(t, errors.As(err, &authErr))
}
