package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loyalty-wallet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var alice = model.Identity{UserID: "user-alice", AccessToken: "lw_alice"}

func TestMemoryRemoteStoreIsUserScoped(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRemoteStore()

	require.NoError(t, store.Upsert(ctx, alice, sampleCards()))

	got, err := store.Pull(ctx, alice)
	require.NoError(t, err)
	assert.ElementsMatch(t, sampleCards(), got)

	other, err := store.Pull(ctx, model.Identity{UserID: "user-bob"})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryRemoteStoreUpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRemoteStore()
	require.NoError(t, store.Upsert(ctx, alice, sampleCards()))

	edited := sampleCards()[0]
	edited.Nickname = "Renamed"
	edited.UpdatedAt++
	require.NoError(t, store.Upsert(ctx, alice, model.Cards{edited}))
	require.NoError(t, store.Upsert(ctx, alice, model.Cards{edited}))

	got, err := store.Pull(ctx, alice)
	require.NoError(t, err)
	require.Len(t, got, 2)
	c, ok := got.Find(edited.ID)
	require.True(t, ok)
	assert.Equal(t, "Renamed", c.Nickname)
}

func TestRowConversionKeepsMilliseconds(t *testing.T) {
	c := sampleCards()[0]
	r := toRow("u", c)
	assert.Equal(t, "u", r.UserID)
	assert.Equal(t, c, r.toCard())
}

func TestRESTRemoteStorePull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/cards", r.URL.Path)
		assert.Equal(t, "eq.user-alice", r.URL.Query().Get("user_id"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-role", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"c9","user_id":"user-alice","retailer":"Other","country":"NL","nickname":"Gym","value":"ABC-123","format":"CODE_128","created_at":"2024-01-02T03:04:05.678Z","updated_at":"2024-01-02T03:04:06.789+00:00"}]`)
	}))
	defer srv.Close()

	store := NewRESTRemoteStore(srv.URL+"/", "anon", "service-role", 5*time.Second, zap.NewNop())
	cards, err := store.Pull(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, cards, 1)

	want := time.Date(2024, 1, 2, 3, 4, 5, 678*int(time.Millisecond), time.UTC).UnixMilli()
	assert.Equal(t, "c9", cards[0].ID)
	assert.Equal(t, want, cards[0].CreatedAt)
	assert.Equal(t, want+1111, cards[0].UpdatedAt)
}

func TestRESTRemoteStoreUpsert(t *testing.T) {
	var received []restRow
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "id", r.URL.Query().Get("on_conflict"))
		assert.Contains(t, r.Header.Get("Prefer"), "resolution=merge-duplicates")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := NewRESTRemoteStore(srv.URL, "anon", "service-role", 5*time.Second, zap.NewNop())
	require.NoError(t, store.Upsert(context.Background(), alice, sampleCards()))

	require.Len(t, received, 2)
	assert.Equal(t, "user-alice", received[0].UserID)
	assert.Equal(t, sampleCards()[0].UpdatedAt, received[0].UpdatedAt.UnixMilli())
}

func TestRESTRemoteStoreErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"JWT expired"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := NewRESTRemoteStore(srv.URL, "anon", "service-role", 5*time.Second, zap.NewNop())

	_, err := store.Pull(context.Background(), alice)
	assert.ErrorContains(t, err, "401")

	err = store.Upsert(context.Background(), alice, sampleCards())
	assert.ErrorContains(t, err, "JWT expired")

	assert.NoError(t, store.Upsert(context.Background(), alice, nil))
}

func TestRESTRemoteStoreUsesServiceKeyWhenNoAnonKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "service-role", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-role", r.Header.Get("Authorization"))
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	store := NewRESTRemoteStore(srv.URL, "", "service-role", 5*time.Second, zap.NewNop())
	cards, err := store.Pull(context.Background(), alice)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestForeignRowsSkipsDuplicateIDsOnly(t *testing.T) {
	dup := func(i int) mongo.BulkWriteError {
		return mongo.BulkWriteError{WriteError: mongo.WriteError{Index: i, Code: duplicateKeyCode}}
	}

	n, err := foreignRows(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = foreignRows(mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{dup(0), dup(3)}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mixed := mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{
		dup(0),
		{WriteError: mongo.WriteError{Index: 1, Code: 121}},
	}}
	_, err = foreignRows(mixed)
	assert.Error(t, err)

	concern := mongo.BulkWriteException{
		WriteConcernError: &mongo.WriteConcernError{Code: 64},
		WriteErrors:       []mongo.BulkWriteError{dup(0)},
	}
	_, err = foreignRows(concern)
	assert.Error(t, err)

	_, err = foreignRows(errors.New("connection reset"))
	assert.EqualError(t, err, "connection reset")
}
