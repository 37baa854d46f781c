package inmemstore

import (
	"context"
	"sync"

	"github.com/edubanco/recursos/core/session"
)

// Store keeps sessions in process memory. Good enough for a single
// instance; anything load-balanced needs the redis store.
type Store struct {
	mutex sync.RWMutex
	table map[string]session.Session
}

var _ session.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{table: make(map[string]session.Session)}
}

func (st *Store) Get(_ context.Context, id string) (session.Session, error) {
	st.mutex.RLock()
	defer st.mutex.RUnlock()

	if sess, ok := st.table[id]; ok {
		return sess, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (st *Store) Save(_ context.Context, sess session.Session) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	st.table[sess.ID] = sess
	return nil
}

func (st *Store) Delete(_ context.Context, id string) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	delete(st.table, id)
	return nil
}

func (st *Store) DeleteAll(_ context.Context) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	st.table = make(map[string]session.Session)
	return nil
}
