// Package session owns the authenticated identity and mirrors it to the
// durable local cache. The cache copy is non-authoritative: restore is
// fail-closed and any inconsistency yields an anonymous start instead of a
// partially restored session.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"solace/internal/localstore"
)

// Session is the authenticated identity plus its credential token. Mutated
// only by auth flow transitions; destroyed on logout.
type Session struct {
	UserID   string
	UserName string
	Token    string
}

// Store keeps the in-memory session and its durable mirror consistent.
type Store struct {
	cache  localstore.Store
	sealer *localstore.Sealer
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *Session
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger instance for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithSealer enables at-rest sealing of the credential token.
func WithSealer(sealer *localstore.Sealer) Option {
	return func(s *Store) {
		s.sealer = sealer
	}
}

// WithClock replaces the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a session store over the given durable cache.
func NewStore(cache localstore.Store, opts ...Option) *Store {
	s := &Store{
		cache: cache,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Restore reads the durable mirror and returns the stored session, or nil
// when no complete session exists. It never fails: partial state, an
// unsealable token, and an expired credential all count as absent. Called
// once at process start, before any network activity.
func (s *Store) Restore(ctx context.Context) *Session {
	userID, err := s.cache.Get(ctx, localstore.SessionUserIDKey())
	if err != nil {
		s.logRestoreMiss(ctx, "user id", err)
		return nil
	}
	userName, err := s.cache.Get(ctx, localstore.SessionUserNameKey())
	if err != nil {
		s.logRestoreMiss(ctx, "user name", err)
		return nil
	}
	token, err := s.cache.Get(ctx, localstore.SessionTokenKey())
	if err != nil {
		s.logRestoreMiss(ctx, "token", err)
		return nil
	}
	if s.sealer != nil {
		token, err = s.sealer.Open(token)
		if err != nil {
			s.logger.WarnContext(ctx, "stored token failed to unseal, discarding session", "error", err)
			return nil
		}
	}
	if userID == "" || userName == "" || token == "" {
		return nil
	}
	if s.tokenExpired(token) {
		s.logger.InfoContext(ctx, "stored credential expired, starting anonymous", "user_id", userID)
		return nil
	}

	restored := &Session{UserID: userID, UserName: userName, Token: token}
	s.mu.Lock()
	s.current = restored
	s.mu.Unlock()
	copySession := *restored
	return &copySession
}

// Establish writes the session to the durable mirror and sets it in memory.
// If any durable write fails, written keys are rolled back and the session
// is not established.
func (s *Store) Establish(ctx context.Context, sess Session) error {
	if sess.UserID == "" || sess.UserName == "" || sess.Token == "" {
		return errors.New("session: refusing to establish incomplete session")
	}

	token := sess.Token
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(token)
		if err != nil {
			return err
		}
		token = sealed
	}

	writes := []struct {
		key   localstore.Key
		value string
	}{
		{localstore.SessionUserIDKey(), sess.UserID},
		{localstore.SessionUserNameKey(), sess.UserName},
		{localstore.SessionTokenKey(), token},
	}
	for i, w := range writes {
		if err := s.cache.Put(ctx, w.key, w.value); err != nil {
			for _, undo := range writes[:i] {
				if delErr := s.cache.Delete(ctx, undo.key); delErr != nil {
					s.logger.WarnContext(ctx, "failed to roll back session key", "key", undo.key.String(), "error", delErr)
				}
			}
			return err
		}
	}

	s.mu.Lock()
	copySession := sess
	s.current = &copySession
	s.mu.Unlock()
	return nil
}

// Clear removes the session from memory and from the durable mirror.
// Idempotent; a missing key is not an error.
func (s *Store) Clear(ctx context.Context) error {
	var firstErr error
	for _, key := range []localstore.Key{
		localstore.SessionTokenKey(),
		localstore.SessionUserIDKey(),
		localstore.SessionUserNameKey(),
	} {
		if err := s.cache.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return firstErr
}

// Current returns a copy of the active session, or nil when anonymous.
// Callers re-check this before applying results of superseded requests.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	copySession := *s.current
	return &copySession
}

// tokenExpired reports whether the token parses as a JWT whose exp claim is
// in the past. Tokens that are not JWTs stay opaque and pass through.
func (s *Store) tokenExpired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(s.now())
}

func (s *Store) logRestoreMiss(ctx context.Context, field string, err error) {
	if errors.Is(err, localstore.ErrNotFound) {
		return
	}
	s.logger.WarnContext(ctx, "session restore failed, starting anonymous", "field", field, "error", err)
}
