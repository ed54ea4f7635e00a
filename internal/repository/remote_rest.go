package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"loyalty-wallet/internal/model"

	"go.uber.org/zap"
)

// RESTRemoteStore implements RemoteStore against a hosted PostgREST style
// backend exposing a cards table under /rest/v1/cards.
//
// The daemon authenticates as itself with a service credential. Session
// tokens are local to the daemon and never leave it; rows are scoped by the
// user_id filter instead of backend row level security.
type RESTRemoteStore struct {
	baseURL    string
	anonKey    string
	serviceKey string
	client     *http.Client
	logger     *zap.Logger
}

// restRow is the JSON shape of a row in the hosted cards table.
type restRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Retailer  string    `json:"retailer"`
	Country   string    `json:"country"`
	Nickname  string    `json:"nickname"`
	Value     string    `json:"value"`
	Format    string    `json:"format"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRESTRemoteStore creates a client for the backend at baseURL. The
// serviceKey is sent as the bearer token; anonKey, when set, as apikey.
func NewRESTRemoteStore(baseURL, anonKey, serviceKey string, timeout time.Duration, logger *zap.Logger) *RESTRemoteStore {
	if anonKey == "" {
		anonKey = serviceKey
	}
	return &RESTRemoteStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (s *RESTRemoteStore) tableURL(query url.Values) string {
	u := s.baseURL + "/rest/v1/cards"
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (s *RESTRemoteStore) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.anonKey != "" {
		req.Header.Set("apikey", s.anonKey)
	}
	if s.serviceKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	}
	return req, nil
}

// Pull returns every card of the user.
func (s *RESTRemoteStore) Pull(ctx context.Context, identity model.Identity) (model.Cards, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+identity.UserID)

	req, err := s.newRequest(ctx, http.MethodGet, s.tableURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build pull request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to pull cards: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var rows []restRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode cards: %w", err)
	}

	cards := make(model.Cards, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, cardRow(r).toCard())
	}
	return cards, nil
}

// Upsert posts the whole batch in one request, merging duplicates on id.
func (s *RESTRemoteStore) Upsert(ctx context.Context, identity model.Identity, cards model.Cards) error {
	if len(cards) == 0 {
		return nil
	}

	rows := make([]restRow, 0, len(cards))
	for _, c := range cards {
		rows = append(rows, restRow(toRow(identity.UserID, c)))
	}
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode cards: %w", err)
	}

	q := url.Values{}
	q.Set("on_conflict", "id")
	req, err := s.newRequest(ctx, http.MethodPost, s.tableURL(q), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upsert cards: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// Name returns the backend name.
func (s *RESTRemoteStore) Name() string { return "rest" }

// Close releases idle connections.
func (s *RESTRemoteStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}

// Ensure RESTRemoteStore implements RemoteStore
var _ RemoteStore = (*RESTRemoteStore)(nil)
