package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/edubanco/recursos/core/session"
)

const keyPrefix = "sess:"

// Store keeps sessions in redis so every app instance sees the same
// logged-in users. Entries expire with the session itself.
type Store struct {
	rdb *redis.Client
}

var _ session.Store = (*Store)(nil)

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (st *Store) Get(ctx context.Context, id string) (session.Session, error) {
	data, err := st.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "redis get")
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, errors.Wrap(err, "decoding session")
	}
	return sess, nil
}

func (st *Store) Save(ctx context.Context, sess session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return st.Delete(ctx, sess.ID)
	}
	return errors.Wrap(st.rdb.Set(ctx, keyPrefix+sess.ID, data, ttl).Err(), "redis set")
}

func (st *Store) Delete(ctx context.Context, id string) error {
	return errors.Wrap(st.rdb.Del(ctx, keyPrefix+id).Err(), "redis del")
}

func (st *Store) DeleteAll(ctx context.Context) error {
	iter := st.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := st.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return errors.Wrap(err, "redis del")
		}
	}
	return errors.Wrap(iter.Err(), "redis scan")
}
