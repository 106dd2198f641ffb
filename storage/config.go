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
	"time"
)

// Config specifies config for the storage engine.
type Config struct {
	// SQL holds the SQL database configuration. If no connection string is configured, an SQLite database in the data directory is used.
	SQL SQLConfig `koanf:"sql"`
	// Redis holds the configuration for the Redis server the key cache uses.
	Redis RedisConfig `koanf:"redis"`
	// Memcached holds the configuration for the memcached servers the key cache uses, when Redis isn't configured.
	Memcached MemcachedConfig `koanf:"memcached"`
	// Cache configures caching of signing keys.
	Cache CacheConfig `koanf:"cache"`
}

// SQLConfig specifies config for the SQL database.
type SQLConfig struct {
	// ConnectionString is the connection string for the SQL database.
	// The database type is derived from its scheme: sqlite:, postgres://, mysql:// or sqlserver://
	ConnectionString string `koanf:"connection"`
	// SlowQueryThreshold is the duration after which a query is logged as slow.
	SlowQueryThreshold time.Duration `koanf:"slowquerythreshold"`
}

// CacheConfig specifies config for the signing key cache.
type CacheConfig struct {
	// Enabled indicates whether signing keys are cached. Redis or memcached is used when configured, an in-memory cache otherwise.
	Enabled bool `koanf:"enabled"`
	// TTL is the maximum duration a key pair or certificate chain is cached.
	TTL time.Duration `koanf:"ttl"`
}

// DefaultConfig returns the default configuration for the storage engine.
func DefaultConfig() Config {
	return Config{
		SQL: SQLConfig{
			SlowQueryThreshold: 200 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     time.Minute,
		},
	}
}
