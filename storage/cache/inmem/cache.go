package inmemcache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/edubanco/recursos/core"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Cache is a process-local view cache. Values are stored as JSON so the
// Get contract (unmarshal into dest) matches the redis cache exactly.
type Cache struct {
	mutex sync.RWMutex
	table map[string]entry
}

var _ core.ViewCache = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{table: make(map[string]entry)}
}

func (c *Cache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mutex.RLock()
	ent, ok := c.table[key]
	c.mutex.RUnlock()

	if !ok {
		return false, nil
	}
	if time.Now().After(ent.expiresAt) {
		c.mutex.Lock()
		delete(c.table, key)
		c.mutex.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(ent.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(_ context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	c.table[key] = entry{data: data, expiresAt: time.Now().Add(ttl)}
	c.mutex.Unlock()
	return nil
}

func (c *Cache) Invalidate(_ context.Context, prefixes ...string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key := range c.table {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				delete(c.table, key)
				break
			}
		}
	}
	return nil
}
