package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubanco/recursos/core"
)

type fakeStore struct {
	mu    sync.Mutex
	table map[string]Session
}

func newFakeStore() *fakeStore { return &fakeStore{table: make(map[string]Session)} }

func (f *fakeStore) Get(_ context.Context, id string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess, ok := f.table[id]; ok {
		return sess, nil
	}
	return Session{}, ErrNotFound
}

func (f *fakeStore) Save(_ context.Context, sess Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table[sess.ID] = sess
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.table, id)
	return nil
}

func (f *fakeStore) DeleteAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table = make(map[string]Session)
	return nil
}

type fakeAPI struct {
	auth       Auth
	loginErr   error
	verifyUser User
	verifyErr  error
	loggedOut  bool
}

func (f *fakeAPI) Login(context.Context, Credentials) (Auth, error) { return f.auth, f.loginErr }
func (f *fakeAPI) Register(context.Context, NewAccount) (Auth, error) {
	return f.auth, f.loginErr
}
func (f *fakeAPI) Logout(context.Context, string) error { f.loggedOut = true; return nil }
func (f *fakeAPI) Verify(context.Context, string) (User, error) {
	return f.verifyUser, f.verifyErr
}
func (f *fakeAPI) UpdateProfile(context.Context, string, UpdateProfile) (User, error) {
	return f.verifyUser, f.verifyErr
}
func (f *fakeAPI) ChangePassword(context.Context, string, ChangePassword) error {
	return f.verifyErr
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (f *fakeCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (f *fakeCache) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}
func (f *fakeCache) Invalidate(_ context.Context, prefixes ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, prefixes...)
	return nil
}

var testUser = User{ID: "u1", Name: "Ana", Email: "ana@escola.br"}

func buildUnsignedJWT(t *testing.T, exp int64) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp})
	ss, err := token.SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return ss
}

func Test_Service_Login(t *testing.T) {
	api := &fakeAPI{auth: Auth{User: testUser, Token: "tok"}}
	store := newFakeStore()
	svc := NewService(api, store, &fakeCache{}, time.Hour)

	var events []Event
	svc.Subscribe(func(evt Event) { events = append(events, evt) })

	sess, err := svc.Login(context.Background(), Credentials{Email: "ana@escola.br", Password: "x"})
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, testUser, sess.User)

	// the user is visible synchronously, without another round trip
	got, err := svc.Current(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, testUser, got.User)

	require.Len(t, events, 1)
	assert.Equal(t, EventLogin, events[0].Kind)
}

func Test_Service_Login_failed(t *testing.T) {
	api := &fakeAPI{loginErr: errors.New("credenciais inválidas")}
	svc := NewService(api, newFakeStore(), &fakeCache{}, time.Hour)

	_, err := svc.Login(context.Background(), Credentials{Email: "x@y.z", Password: "bad"})
	assert.Error(t, err)
}

func Test_Service_Current_expiredResets(t *testing.T) {
	store := newFakeStore()
	cache := &fakeCache{}
	svc := NewService(&fakeAPI{}, store, cache, time.Hour)

	expired := Session{
		ID:        "old",
		Token:     "tok",
		User:      testUser,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, store.Save(context.Background(), expired))

	_, err := svc.Current(context.Background(), "old")
	assert.Equal(t, core.ErrNotAuthenticated, errors.Cause(err))

	// session gone, user-scoped cache dropped
	_, err = store.Get(context.Background(), "old")
	assert.Equal(t, ErrNotFound, err)
	assert.Contains(t, cache.invalidated, core.UserKeyPrefix("u1"))
}

func Test_Service_Restore_rejectedCredentialResets(t *testing.T) {
	api := &fakeAPI{verifyErr: core.ErrSessionExpired}
	store := newFakeStore()
	cache := &fakeCache{}
	svc := NewService(api, store, cache, time.Hour)

	sess := Session{ID: "s1", Token: "tok", User: testUser, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(context.Background(), sess))

	_, err := svc.Restore(context.Background(), "s1")
	assert.Equal(t, core.ErrSessionExpired, errors.Cause(err))

	// deterministic: back to unauthenticated, nothing stale left behind
	_, err = store.Get(context.Background(), "s1")
	assert.Equal(t, ErrNotFound, err)
	assert.Contains(t, cache.invalidated, core.UserKeyPrefix("u1"))
}

func Test_Service_Restore_refreshesUser(t *testing.T) {
	updated := testUser
	updated.Name = "Ana Maria"
	api := &fakeAPI{verifyUser: updated}
	store := newFakeStore()
	svc := NewService(api, store, &fakeCache{}, time.Hour)

	sess := Session{ID: "s1", Token: "tok", User: testUser, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(context.Background(), sess))

	got, err := svc.Restore(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.User.Name)
}

func Test_Service_Logout(t *testing.T) {
	api := &fakeAPI{}
	store := newFakeStore()
	cache := &fakeCache{}
	svc := NewService(api, store, cache, time.Hour)

	var events []Event
	svc.Subscribe(func(evt Event) { events = append(events, evt) })

	sess := Session{ID: "s1", Token: "tok", User: testUser, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(context.Background(), sess))

	require.NoError(t, svc.Logout(context.Background(), "s1"))

	assert.True(t, api.loggedOut)
	_, err := store.Get(context.Background(), "s1")
	assert.Equal(t, ErrNotFound, err)
	assert.Contains(t, cache.invalidated, core.UserKeyPrefix("u1"))
	require.Len(t, events, 1)
	assert.Equal(t, EventLogout, events[0].Kind)

	// idempotent: a second logout on a dead session is a no-op
	assert.NoError(t, svc.Logout(context.Background(), "s1"))
}

func Test_Service_expiry_boundByTokenExp(t *testing.T) {
	svc := NewService(&fakeAPI{}, newFakeStore(), &fakeCache{}, time.Hour)
	now := time.Now().UTC()

	// unparseable token falls back to the configured TTL
	got := svc.expiry("not-a-jwt", now)
	assert.Equal(t, now.Add(time.Hour), got)

	// exp claim sooner than the TTL wins; the signature is never checked
	exp := now.Add(10 * time.Minute).Unix()
	tok := buildUnsignedJWT(t, exp)
	got = svc.expiry(tok, now)
	assert.WithinDuration(t, time.Unix(exp, 0), got, time.Second)
}

func Test_Service_UpdateProfile(t *testing.T) {
	updated := testUser
	updated.School = "EM Paulo Freire"
	api := &fakeAPI{verifyUser: updated}
	store := newFakeStore()
	cache := &fakeCache{}
	svc := NewService(api, store, cache, time.Hour)

	sess := Session{ID: "s1", Token: "tok", User: testUser, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(context.Background(), sess))

	got, err := svc.UpdateProfile(context.Background(), "s1", UpdateProfile{School: "EM Paulo Freire"})
	require.NoError(t, err)
	assert.Equal(t, "EM Paulo Freire", got.User.School)

	// stored session updated in place
	stored, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "EM Paulo Freire", stored.User.School)
	assert.Contains(t, cache.invalidated, core.UserKeyPrefix("u1"))
}
