package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"loyalty-wallet/internal/cache"
	"loyalty-wallet/internal/events"
	"loyalty-wallet/internal/logging"
	"loyalty-wallet/internal/model"
	"loyalty-wallet/pkg/uid"

	"go.uber.org/zap"
)

const (
	// TokenPrefix is the prefix for all session tokens
	TokenPrefix = "lw_"

	sessionKeyPrefix = "session:"
	codeKeyPrefix    = "signin:"
)

// LinkSender delivers a magic sign-in link to an email address.
type LinkSender interface {
	SendLink(ctx context.Context, email, link string) error
}

// LogLinkSender writes sign-in links to the log instead of sending mail.
type LogLinkSender struct {
	Logger *zap.Logger
}

// SendLink logs the link.
func (s LogLinkSender) SendLink(ctx context.Context, email, link string) error {
	s.Logger.Info("sign-in link issued", zap.String("email", email), zap.String("link", link))
	return nil
}

// SessionConfig configures a SessionService.
type SessionConfig struct {
	Cache       cache.Cache
	Sender      LinkSender
	Bus         events.Bus
	LinkBaseURL string
	CodeTTL     time.Duration
	SessionTTL  time.Duration
	Logger      *zap.Logger
}

// SessionService issues magic link codes and session tokens.
type SessionService struct {
	cache       cache.Cache
	sender      LinkSender
	bus         events.Bus
	linkBaseURL string
	codeTTL     time.Duration
	sessionTTL  time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(cfg SessionConfig) *SessionService {
	cfg.Logger = logging.OrNop(cfg.Logger)
	if cfg.Sender == nil {
		cfg.Sender = LogLinkSender{Logger: cfg.Logger}
	}
	if cfg.CodeTTL == 0 {
		cfg.CodeTTL = 15 * time.Minute
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	return &SessionService{
		cache:       cfg.Cache,
		sender:      cfg.Sender,
		bus:         cfg.Bus,
		linkBaseURL: cfg.LinkBaseURL,
		codeTTL:     cfg.CodeTTL,
		sessionTTL:  cfg.SessionTTL,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// RequestSignIn issues a one-time code for email and sends it as a magic link.
func (s *SessionService) RequestSignIn(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	code, err := randomHex(16)
	if err != nil {
		return fmt.Errorf("failed to generate sign-in code: %w", err)
	}
	if err := s.cache.Set(ctx, codeKeyPrefix+code, []byte(email), s.codeTTL); err != nil {
		return fmt.Errorf("failed to store sign-in code: %w", err)
	}

	if err := s.sender.SendLink(ctx, email, s.link(code)); err != nil {
		_ = s.cache.Delete(ctx, codeKeyPrefix+code)
		return fmt.Errorf("failed to send sign-in link: %w", err)
	}
	return nil
}

func (s *SessionService) link(code string) string {
	u, err := url.Parse(s.linkBaseURL)
	if err != nil || s.linkBaseURL == "" {
		return "?code=" + url.QueryEscape(code)
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String()
}

// CompleteSignIn consumes a code and returns a session token with its identity.
func (s *SessionService) CompleteSignIn(ctx context.Context, code string) (string, model.Identity, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", model.Identity{}, &model.AuthError{Message: "sign-in code is required"}
	}

	raw, err := s.cache.Take(ctx, codeKeyPrefix+code)
	if errors.Is(err, cache.ErrCacheMiss) {
		return "", model.Identity{}, &model.AuthError{Message: "sign-in link is invalid or expired"}
	}
	if err != nil {
		return "", model.Identity{}, fmt.Errorf("failed to read sign-in code: %w", err)
	}
	email := string(raw)

	tokenHex, err := randomHex(32)
	if err != nil {
		return "", model.Identity{}, fmt.Errorf("failed to generate token: %w", err)
	}
	token := TokenPrefix + tokenHex

	now := s.now()
	sess := model.Session{
		UserID:    uid.FromName(email),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return "", model.Identity{}, fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+token, data, s.sessionTTL); err != nil {
		return "", model.Identity{}, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info("signed in", zap.String("user_id", sess.UserID), zap.Time("expires", sess.ExpiresAt))
	s.publish(ctx, model.EventSignedIn, sess.UserID)

	return token, model.Identity{UserID: sess.UserID, Email: email, AccessToken: token}, nil
}

// Resolve returns the identity bound to a session token.
func (s *SessionService) Resolve(ctx context.Context, token string) (model.Identity, error) {
	if !strings.HasPrefix(token, TokenPrefix) || len(token) == len(TokenPrefix) {
		return model.Identity{}, &model.AuthError{Message: "invalid token format"}
	}

	key := sessionKeyPrefix + token
	data, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return model.Identity{}, &model.AuthError{Message: "session not found or expired"}
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to get session: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return model.Identity{}, fmt.Errorf("failed to parse session: %w", err)
	}
	if s.now().After(sess.ExpiresAt) {
		_ = s.cache.Delete(ctx, key)
		return model.Identity{}, &model.AuthError{Message: "session expired"}
	}

	return model.Identity{UserID: sess.UserID, Email: sess.Email, AccessToken: token}, nil
}

// SignOut deletes the session and notifies subscribers.
func (s *SessionService) SignOut(ctx context.Context, token string) error {
	identity, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, sessionKeyPrefix+token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info("signed out", zap.String("user_id", identity.UserID))
	s.publish(ctx, model.EventSignedOut, identity.UserID)
	return nil
}

func (s *SessionService) publish(ctx context.Context, typ, userID string) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, model.Event{Type: typ, UserID: userID, At: s.now()}); err != nil {
		s.logger.Warn("failed to publish identity event", zap.String("type", typ), zap.Error(err))
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", &model.AuthError{Message: "email is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &model.AuthError{Message: "email is invalid"}
	}
	return email, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
