package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"loyalty-wallet/internal/cache"
	"loyalty-wallet/internal/events"
	"loyalty-wallet/internal/logging"
	"loyalty-wallet/internal/model"
	"loyalty-wallet/internal/repository"
	"loyalty-wallet/pkg/uid"

	"go.uber.org/zap"
)

// SyncResult summarizes one reconciliation run.
type SyncResult struct {
	Local  int        `json:"local"`
	Remote int        `json:"remote"`
	Merged int        `json:"merged"`
	Pushed int        `json:"pushed"`
	Stats  MergeStats `json:"stats"`
}

// SyncStatus is the last user-facing outcome of a sync for one user.
type SyncStatus struct {
	OK      bool        `json:"ok"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
	Result  *SyncResult `json:"result,omitempty"`
}

// SyncConfig holds the dependencies of a SyncService. Remote may be nil when
// no backend is configured; Latch may be nil to allow overlapping runs.
type SyncConfig struct {
	Local    repository.LocalStore
	Remote   repository.RemoteStore
	Latch    cache.Cache
	LatchTTL time.Duration
	Bus      events.Bus
	Logger   *zap.Logger

	// StoreLock serializes read-modify-write cycles on Local with the
	// WalletService sharing the same store.
	StoreLock sync.Locker
}

// SyncService reconciles the local collection with the user's remote
// collection. It only runs when asked to.
type SyncService struct {
	local    repository.LocalStore
	remote   repository.RemoteStore
	latch    cache.Cache
	latchTTL time.Duration
	bus      events.Bus
	logger   *zap.Logger
	now      func() time.Time
	storeMu  sync.Locker

	mu     sync.Mutex
	status map[string]SyncStatus

	unsubscribe func()
}

// NewSyncService creates the service and subscribes it to identity events so
// a user's last status is dropped when they sign out.
func NewSyncService(cfg SyncConfig) (*SyncService, error) {
	if cfg.Local == nil {
		return nil, errors.New("sync: local store is required")
	}
	if cfg.LatchTTL == 0 {
		cfg.LatchTTL = 2 * time.Minute
	}
	cfg.Logger = logging.OrNop(cfg.Logger)
	if cfg.StoreLock == nil {
		cfg.StoreLock = &sync.Mutex{}
	}

	s := &SyncService{
		local:    cfg.Local,
		remote:   cfg.Remote,
		latch:    cfg.Latch,
		latchTTL: cfg.LatchTTL,
		bus:      cfg.Bus,
		logger:   cfg.Logger,
		now:      time.Now,
		storeMu:  cfg.StoreLock,
		status:   make(map[string]SyncStatus),
	}

	if cfg.Bus != nil {
		unsubscribe, err := cfg.Bus.Subscribe(s.onEvent)
		if err != nil {
			return nil, fmt.Errorf("sync: failed to subscribe to events: %w", err)
		}
		s.unsubscribe = unsubscribe
	}
	return s, nil
}

// Enabled reports whether a remote store is configured.
func (s *SyncService) Enabled() bool {
	return s.remote != nil
}

// Sync pulls the remote collection, merges it with the local one, replaces the
// local collection with the result and pushes the result back.
//
// A failed pull leaves both stores untouched. A failed push leaves the merged
// collection in the local store; running Sync again repeats the same push.
func (s *SyncService) Sync(ctx context.Context, identity model.Identity) (*SyncResult, error) {
	if !identity.Authenticated() {
		return nil, model.ErrNotAuthenticated
	}
	if s.remote == nil {
		return nil, model.ErrSyncDisabled
	}

	release, err := s.acquire(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	log := s.logger.With(zap.String("user_id", identity.UserID), zap.String("remote", s.remote.Name()))

	res, err := s.run(ctx, identity, log)
	s.record(ctx, identity.UserID, res, err)
	return res, err
}

func (s *SyncService) run(ctx context.Context, identity model.Identity, log *zap.Logger) (*SyncResult, error) {
	remote, err := s.remote.Pull(ctx, identity)
	if err != nil {
		log.Warn("pull failed", zap.Error(err))
		return nil, &model.RemoteError{Op: model.OpPull, Err: err}
	}

	res, merged, err := s.mergeLocal(ctx, remote)
	if err != nil {
		return nil, err
	}
	stats := res.Stats

	if err := s.remote.Upsert(ctx, identity, merged); err != nil {
		log.Warn("push failed, local store keeps merged cards", zap.Int("merged", len(merged)), zap.Error(err))
		return res, &model.RemoteError{Op: model.OpPush, Err: err}
	}
	res.Pushed = len(merged)

	log.Info("sync complete",
		zap.Int("local", res.Local),
		zap.Int("remote", res.Remote),
		zap.Int("merged", res.Merged),
		zap.Int("remote_wins", stats.RemoteWins))
	return res, nil
}

func (s *SyncService) mergeLocal(ctx context.Context, remote model.Cards) (*SyncResult, model.Cards, error) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	local, err := s.local.LoadAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load local cards: %w", err)
	}

	merged, stats := Merge(local, remote)
	if err := s.local.ReplaceAll(ctx, merged); err != nil {
		return nil, nil, fmt.Errorf("failed to store merged cards: %w", err)
	}
	return &SyncResult{
		Local:  len(local),
		Remote: len(remote),
		Merged: len(merged),
		Stats:  stats,
	}, merged, nil
}

// acquire takes the per-user latch. A latch backend failure is logged and the
// run proceeds without it. The latch holds a per-run owner value so a run that
// outlived its TTL cannot release the latch of the run that followed it.
func (s *SyncService) acquire(ctx context.Context, userID string) (func(), error) {
	if s.latch == nil {
		return func() {}, nil
	}

	key := "sync:" + userID
	owner := []byte(uid.New())
	ok, err := s.latch.SetNX(ctx, key, owner, s.latchTTL)
	if err != nil {
		s.logger.Warn("sync latch unavailable", zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, model.ErrSyncInProgress
	}
	return func() {
		released, err := s.latch.DeleteIfValue(context.WithoutCancel(ctx), key, owner)
		if err != nil {
			s.logger.Warn("failed to release sync latch", zap.Error(err))
			return
		}
		if !released {
			s.logger.Warn("sync latch expired before the run finished", zap.Duration("ttl", s.latchTTL))
		}
	}, nil
}

func (s *SyncService) record(ctx context.Context, userID string, res *SyncResult, err error) {
	st := SyncStatus{OK: err == nil, Message: StatusMessage(err), At: s.now(), Result: res}

	s.mu.Lock()
	s.status[userID] = st
	s.mu.Unlock()

	if s.bus == nil {
		return
	}
	e := model.Event{Type: model.EventSyncCompleted, UserID: userID, Message: st.Message, At: st.At}
	if err != nil {
		e.Type = model.EventSyncFailed
	}
	if perr := s.bus.Publish(ctx, e); perr != nil {
		s.logger.Warn("failed to publish sync event", zap.Error(perr))
	}
}

// Status returns the last sync outcome for userID.
func (s *SyncService) Status(userID string) (SyncStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.status[userID]
	return st, ok
}

func (s *SyncService) onEvent(e model.Event) {
	if e.Type != model.EventSignedOut {
		return
	}
	s.mu.Lock()
	delete(s.status, e.UserID)
	s.mu.Unlock()
}

// Close unsubscribes from the event bus.
func (s *SyncService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// StatusMessage converts a sync outcome into the message shown to the user.
func StatusMessage(err error) string {
	var re *model.RemoteError
	switch {
	case err == nil:
		return "Sync complete"
	case errors.Is(err, model.ErrNotAuthenticated):
		return "Sign in first to sync."
	case errors.Is(err, model.ErrSyncDisabled):
		return "Cloud sync is not configured."
	case errors.Is(err, model.ErrSyncInProgress):
		return "A sync is already running."
	case errors.As(err, &re) && re.Op == model.OpPull:
		return "Sync failed: could not reach the cloud (" + re.Err.Error() + ")"
	case errors.As(err, &re):
		return "Sync failed: cards were merged on this device but not saved to the cloud (" + re.Err.Error() + ")"
	default:
		return "Sync failed: " + err.Error()
	}
}
