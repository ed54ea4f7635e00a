package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"loyalty-wallet/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSyncOverRESTSendsServiceCredential(t *testing.T) {
	ctx := context.Background()

	var (
		mu      sync.Mutex
		auth    []string
		userIDs []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = append(auth, r.Header.Get("Authorization"), r.Header.Get("apikey"))
		if r.Method == http.MethodGet {
			userIDs = append(userIDs, r.URL.Query().Get("user_id"))
		}
		mu.Unlock()

		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `[]`)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sessions, sender := newSessions(t, nil)
	require.NoError(t, sessions.RequestSignIn(ctx, "alice@example.com"))
	token, _, err := sessions.CompleteSignIn(ctx, sender.code(t, "alice@example.com"))
	require.NoError(t, err)
	identity, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(identity.AccessToken, TokenPrefix))

	remote := repository.NewRESTRemoteStore(srv.URL, "anon", "service-role", 5*time.Second, zap.NewNop())
	local := repository.NewMemoryLocalStore(card("a", 10, "A"))
	s := newSync(t, local, remote, nil, nil)

	res, err := s.Sync(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pushed)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"eq." + identity.UserID}, userIDs)
	assert.Equal(t, []string{"Bearer service-role", "anon", "Bearer service-role", "anon"}, auth)
	for _, h := range auth {
		assert.NotContains(t, h, TokenPrefix)
	}
}
