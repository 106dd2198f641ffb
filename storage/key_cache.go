/*
 * Copyright (C) 2024 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/eko/gocache/store/go_cache/v4"
	memcachestore "github.com/eko/gocache/store/memcache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	"github.com/nuts-foundation/nuts-vci/keys"
	"github.com/nuts-foundation/nuts-vci/pki"
	"github.com/nuts-foundation/nuts-vci/storage/log"
	gocacheclient "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

var _ keys.Store = (*CachedKeyStore)(nil)

var keyCachePruneInterval = 10 * time.Minute

const latestKeyPairCacheKey = "latest"

// CachedKeyStore is a read-through cache for the latest signing key pair and certificate chains.
// Every write to the underlying store evicts the affected entries.
type CachedKeyStore struct {
	underlying keys.Store
	cache      *cache.Cache[any]
	prefix     string
	ttl        time.Duration
	// rawValues is set for stores that only accept []byte values
	rawValues bool
}

// NewInMemoryKeyCache wraps the store with an in-memory cache.
func NewInMemoryKeyCache(underlying keys.Store, ttl time.Duration) *CachedKeyStore {
	gocacheClient := gocacheclient.New(ttl, keyCachePruneInterval)
	return &CachedKeyStore{
		underlying: underlying,
		cache:      cache.New[any](go_cache.NewGoCache(gocacheClient)),
		prefix:     "keys",
		ttl:        ttl,
	}
}

// NewRedisKeyCache wraps the store with a cache on the given Redis server. Keys are prefixed with the given prefix.
func NewRedisKeyCache(underlying keys.Store, client redis.UniversalClient, prefix string, ttl time.Duration) *CachedKeyStore {
	return &CachedKeyStore{
		underlying: underlying,
		cache:      cache.New[any](redis_store.NewRedis(client, store.WithExpiration(ttl))),
		prefix:     prefix + "/keys",
		ttl:        ttl,
	}
}

// NewMemcachedKeyCache wraps the store with a cache on the given memcached servers. Keys are prefixed with the given prefix.
func NewMemcachedKeyCache(underlying keys.Store, client *memcache.Client, prefix string, ttl time.Duration) *CachedKeyStore {
	return &CachedKeyStore{
		underlying: underlying,
		cache:      cache.New[any](memcachestore.NewMemcache(client, store.WithExpiration(ttl))),
		prefix:     prefix + "/keys",
		ttl:        ttl,
		rawValues:  true,
	}
}

func (c *CachedKeyStore) GetLatestSigningKeyPair(ctx context.Context) (*keys.SigningKeyPair, error) {
	var result keys.SigningKeyPair
	if c.get(ctx, latestKeyPairCacheKey, &result) {
		return &result, nil
	}
	pair, err := c.underlying.GetLatestSigningKeyPair(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, latestKeyPairCacheKey, pair)
	return pair, nil
}

// GetSigningKeyPair is not cached, since it's only used by key administration.
func (c *CachedKeyStore) GetSigningKeyPair(ctx context.Context, kid string) (*keys.SigningKeyPair, error) {
	return c.underlying.GetSigningKeyPair(ctx, kid)
}

func (c *CachedKeyStore) InsertSigningKeyPair(ctx context.Context, pair keys.SigningKeyPair) error {
	defer c.evict(ctx, latestKeyPairCacheKey)
	return c.underlying.InsertSigningKeyPair(ctx, pair)
}

func (c *CachedKeyStore) RevokeSigningKeyPair(ctx context.Context, kid string, revokedAt time.Time) error {
	defer c.evict(ctx, latestKeyPairCacheKey, chainCacheKey(kid))
	return c.underlying.RevokeSigningKeyPair(ctx, kid, revokedAt)
}

func (c *CachedKeyStore) AppendCertificateChain(ctx context.Context, kid string, chain pki.Chain) error {
	defer c.evict(ctx, latestKeyPairCacheKey, chainCacheKey(kid))
	return c.underlying.AppendCertificateChain(ctx, kid, chain)
}

func (c *CachedKeyStore) GetCertificateChain(ctx context.Context, kid string) (pki.Chain, error) {
	var result pki.Chain
	if c.get(ctx, chainCacheKey(kid), &result) {
		return result, nil
	}
	chain, err := c.underlying.GetCertificateChain(ctx, kid)
	if err != nil {
		return nil, err
	}
	c.set(ctx, chainCacheKey(kid), chain)
	return chain, nil
}

// get reads the entry into target. A failing cache is treated as a cache miss.
func (c *CachedKeyStore) get(ctx context.Context, key string, target interface{}) bool {
	value, err := c.cache.Get(ctx, c.fullKey(key))
	if err != nil {
		if !isCacheMiss(err) {
			log.Logger().WithError(err).Warn("Unable to read from key cache")
		}
		return false
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return false
	}
	if err := json.Unmarshal(data, target); err != nil {
		log.Logger().WithError(err).Warn("Unable to decode cached entry, ignoring it")
		return false
	}
	return true
}

func (c *CachedKeyStore) set(ctx context.Context, key string, value interface{}) {
	data, _ := json.Marshal(value)
	var entry any = string(data)
	if c.rawValues {
		entry = data
	}
	if err := c.cache.Set(ctx, c.fullKey(key), entry, store.WithExpiration(c.ttl)); err != nil {
		log.Logger().WithError(err).Warn("Unable to write to key cache")
	}
}

func (c *CachedKeyStore) evict(ctx context.Context, cacheKeys ...string) {
	for _, key := range cacheKeys {
		if err := c.cache.Delete(ctx, c.fullKey(key)); err != nil && !isCacheMiss(err) {
			log.Logger().WithError(err).Warnf("Unable to evict key cache entry: %s", key)
		}
	}
}

func (c *CachedKeyStore) fullKey(key string) string {
	return strings.Join([]string{c.prefix, key}, "/")
}

// isCacheMiss returns whether the error means the entry is absent. memcached reports this with its own error.
func isCacheMiss(err error) bool {
	var notFound *store.NotFound
	return errors.As(err, &notFound) || errors.Is(err, memcache.ErrCacheMiss)
}

func chainCacheKey(kid string) string {
	return "chain/" + kid
}
