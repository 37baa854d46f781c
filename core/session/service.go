package session

import (
	"context"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edubanco/recursos/core"
)

var (
	// ErrNotFound is returned by a Store when no session exists for an id.
	ErrNotFound = errors.New("session not found")
)

type (
	// Store holds sessions server-side; implementations live in
	// storage/session.
	Store interface {
		Get(ctx context.Context, id string) (Session, error)
		Save(ctx context.Context, sess Session) error
		Delete(ctx context.Context, id string) error
		DeleteAll(ctx context.Context) error
	}

	// API is the slice of the backend this service needs.
	API interface {
		Login(ctx context.Context, creds Credentials) (Auth, error)
		Register(ctx context.Context, acc NewAccount) (Auth, error)
		Logout(ctx context.Context, token string) error
		Verify(ctx context.Context, token string) (User, error)
		UpdateProfile(ctx context.Context, token string, up UpdateProfile) (User, error)
		ChangePassword(ctx context.Context, token string, cp ChangePassword) error
	}

	EventKind int

	// Event notifies observers of session lifecycle transitions.
	Event struct {
		Kind EventKind
		User User
	}

	ServiceInterface interface {
		Login(ctx context.Context, creds Credentials) (Session, error)
		Register(ctx context.Context, acc NewAccount) (Session, error)
		Logout(ctx context.Context, id string) error
		Restore(ctx context.Context, id string) (Session, error)
		Current(ctx context.Context, id string) (Session, error)
		Reset(ctx context.Context, id string) error
		UpdateProfile(ctx context.Context, id string, up UpdateProfile) (Session, error)
		ChangePassword(ctx context.Context, id string, cp ChangePassword) error
		Subscribe(fn func(Event))
	}

	Service struct {
		api   API
		store Store
		cache core.ViewCache
		ttl   time.Duration

		mu        sync.RWMutex
		observers []func(Event)
	}
)

const (
	EventLogin EventKind = iota
	EventLogout
	EventRefresh
)

var _ ServiceInterface = (*Service)(nil)

func NewService(api API, store Store, cache core.ViewCache, ttl time.Duration) *Service {
	return &Service{api: api, store: store, cache: cache, ttl: ttl}
}

// Subscribe registers an observer called synchronously on login/logout.
func (s *Service) Subscribe(fn func(Event)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Service) notify(evt Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.observers {
		fn(evt)
	}
}

// Login authenticates against the backend and caches the user synchronously,
// so dependent views see the new user without an extra round trip.
func (s *Service) Login(ctx context.Context, creds Credentials) (Session, error) {
	auth, err := s.api.Login(ctx, creds)
	if err != nil {
		return Session{}, errors.Wrap(err, "logging in")
	}
	sess, err := s.open(ctx, auth)
	if err != nil {
		return Session{}, err
	}
	s.notify(Event{Kind: EventLogin, User: sess.User})
	return sess, nil
}

func (s *Service) Register(ctx context.Context, acc NewAccount) (Session, error) {
	auth, err := s.api.Register(ctx, acc)
	if err != nil {
		return Session{}, errors.Wrap(err, "registering")
	}
	sess, err := s.open(ctx, auth)
	if err != nil {
		return Session{}, err
	}
	s.notify(Event{Kind: EventLogin, User: sess.User})
	return sess, nil
}

func (s *Service) open(ctx context.Context, auth Auth) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.New().String(),
		Token:     auth.Token,
		User:      auth.User,
		CreatedAt: now,
		ExpiresAt: s.expiry(auth.Token, now),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "saving session")
	}
	return sess, nil
}

// expiry bounds the session by the backend token's own `exp` claim when one
// is present; the token is the backend's, so the claim is read unverified.
func (s *Service) expiry(token string, now time.Time) time.Time {
	fallback := now.Add(s.ttl)
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return fallback
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return fallback
	}
	expAt := time.Unix(int64(exp), 0)
	if expAt.Before(fallback) {
		return expAt
	}
	return fallback
}

// Current returns the cached session without a backend round trip.
func (s *Service) Current(ctx context.Context, id string) (Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Session{}, core.ErrNotAuthenticated
		}
		return Session{}, errors.Wrap(err, "getting session")
	}
	if !sess.Authenticated() {
		// expired locally; never leave stale user data visible
		if err := s.reset(ctx, sess); err != nil {
			return Session{}, err
		}
		return Session{}, core.ErrNotAuthenticated
	}
	return sess, nil
}

// Restore re-verifies the stored credential against the backend. An invalid
// or expired credential deterministically resets state to unauthenticated.
func (s *Service) Restore(ctx context.Context, id string) (Session, error) {
	sess, err := s.Current(ctx, id)
	if err != nil {
		return Session{}, err
	}

	usr, err := s.api.Verify(ctx, sess.Token)
	if err != nil {
		if errors.Cause(err) == core.ErrSessionExpired {
			if rErr := s.reset(ctx, sess); rErr != nil {
				return Session{}, rErr
			}
			return Session{}, core.ErrSessionExpired
		}
		return Session{}, errors.Wrap(err, "verifying session")
	}

	sess.User = usr
	if err := s.store.Save(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "refreshing session")
	}
	s.notify(Event{Kind: EventRefresh, User: usr})
	return sess, nil
}

// Logout tells the backend (best effort) and always clears local state.
func (s *Service) Logout(ctx context.Context, id string) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil
		}
		return errors.Wrap(err, "getting session")
	}

	// local cleanup matters more than the backend acknowledging
	_ = s.api.Logout(ctx, sess.Token)

	if err := s.reset(ctx, sess); err != nil {
		return err
	}
	s.notify(Event{Kind: EventLogout, User: sess.User})
	return nil
}

// Reset drops the session and every user-scoped cache entry. Called on any
// 401 seen downstream.
func (s *Service) Reset(ctx context.Context, id string) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil
		}
		return errors.Wrap(err, "getting session")
	}
	return s.reset(ctx, sess)
}

func (s *Service) reset(ctx context.Context, sess Session) error {
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	// not just the user object: all user-scoped data, so the next session
	// never sees the previous user's materials or generated content
	if sess.User.ID != "" {
		if err := s.cache.Invalidate(ctx, core.UserKeyPrefix(sess.User.ID)); err != nil {
			return errors.Wrap(err, "clearing user cache")
		}
	}
	return nil
}

// UpdateProfile round-trips the change and updates the cached user in place.
func (s *Service) UpdateProfile(ctx context.Context, id string, up UpdateProfile) (Session, error) {
	sess, err := s.Current(ctx, id)
	if err != nil {
		return Session{}, err
	}

	usr, err := s.api.UpdateProfile(ctx, sess.Token, up)
	if err != nil {
		if errors.Cause(err) == core.ErrSessionExpired {
			if rErr := s.reset(ctx, sess); rErr != nil {
				return Session{}, rErr
			}
		}
		return Session{}, err
	}

	sess.User = usr
	if err := s.store.Save(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "saving session")
	}
	if err := s.cache.Invalidate(ctx, core.UserKeyPrefix(usr.ID)); err != nil {
		return Session{}, errors.Wrap(err, "invalidating user cache")
	}
	s.notify(Event{Kind: EventRefresh, User: usr})
	return sess, nil
}

func (s *Service) ChangePassword(ctx context.Context, id string, cp ChangePassword) error {
	sess, err := s.Current(ctx, id)
	if err != nil {
		return err
	}
	if err := s.api.ChangePassword(ctx, sess.Token, cp); err != nil {
		if errors.Cause(err) == core.ErrSessionExpired {
			if rErr := s.reset(ctx, sess); rErr != nil {
				return rErr
			}
		}
		return err
	}
	return nil
}
