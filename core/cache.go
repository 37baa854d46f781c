package core

import (
	"context"
	"strconv"
	"time"
)

// ViewCache caches rendered backend responses per view. It is the only
// shared mutable state outside the session store; mutations invalidate
// before the caller ever reports success (over-invalidation is fine,
// under-invalidation shows stale counts to the user who just acted).
type ViewCache interface {
	// Get unmarshals the cached value into dest; found=false on miss.
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)
	Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error
	// Invalidate drops every entry whose key starts with one of the
	// given prefixes. An exact key is a prefix of itself.
	Invalidate(ctx context.Context, prefixes ...string) error
}

// Cache key vocabulary. Every key is built from these helpers so
// invalidation prefixes and population keys cannot drift apart.

func MaterialKey(id string) string { return "material:" + id }

func MaterialListKeyPrefix() string { return "materials:list:" }

func MaterialListKey(query string) string { return MaterialListKeyPrefix() + query }

func MaterialStatsKey() string { return "materials:stats" }

func UsersKeyPrefix() string { return "user:" }

func UserKeyPrefix(userID string) string { return UsersKeyPrefix() + userID + ":" }

func UserMaterialsKey(userID string, page int) string {
	return UserKeyPrefix(userID) + "materials:" + strconv.Itoa(page)
}

func GeneratedContentKey(userID, materialID string) string {
	return UserKeyPrefix(userID) + "gen:" + materialID
}
