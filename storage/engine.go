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
	"errors"
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/keys"
	"github.com/nuts-foundation/nuts-vci/storage/log"
	"github.com/nuts-foundation/nuts-vci/vcr/issuer"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const engineName = "Storage"

// Engine defines the interface for the storage engine.
type Engine interface {
	core.Engine
	core.Configurable
	core.Runnable
	// GetSQLDatabase returns the SQL database, which is available after Configure.
	GetSQLDatabase() *gorm.DB
	// IssuerStore returns the store for pre-authorized issuance flows.
	IssuerStore() issuer.Store
	// KeyStore returns the store for signing key pairs, which is cached when configured.
	KeyStore() keys.Store
}

var _ core.Injectable = (*engine)(nil)
var _ core.Diagnosable = (*engine)(nil)

// New creates a new instance of the storage engine.
func New() Engine {
	return &engine{
		config: DefaultConfig(),
	}
}

type engine struct {
	config      Config
	datadir     string
	sqlDB       *gorm.DB
	redisClient redis.UniversalClient
	memcached   *memcache.Client
	issuerStore issuer.Store
	keyStore    keys.Store
	ctx         context.Context
	ctxCancel   context.CancelFunc
}

func (e *engine) Name() string {
	return engineName
}

func (e *engine) Config() interface{} {
	return &e.config
}

// Configure opens (and migrates) the SQL database, since other engines need the stores during their configuration.
func (e *engine) Configure(config core.ServerConfig) error {
	e.datadir = config.Datadir
	e.ctx, e.ctxCancel = context.WithCancel(context.Background())
	if e.config.Cache.Enabled && e.config.Cache.TTL <= 0 {
		return errors.New("storage.cache.ttl must be greater than 0 when caching is enabled")
	}
	if e.config.Redis.isConfigured() && e.config.Memcached.isConfigured() {
		return errors.New("storage.redis and storage.memcached can't both be configured")
	}
	if e.config.Redis.isConfigured() {
		client, err := createRedisClient(e.config.Redis)
		if err != nil {
			return fmt.Errorf("unable to configure Redis client: %w", err)
		}
		e.redisClient = client
	}
	if e.config.Memcached.isConfigured() {
		client, err := newMemcachedClient(e.config.Memcached)
		if err != nil {
			return fmt.Errorf("unable to configure memcached client: %w", err)
		}
		e.memcached = client
	}
	if err := e.initSQLDatabase(); err != nil {
		return fmt.Errorf("failed to initialize SQL database: %w", err)
	}
	e.issuerStore = NewSQLIssuerStore(e.sqlDB)
	e.keyStore = NewSQLKeyStore(e.sqlDB)
	if e.config.Cache.Enabled {
		switch {
		case e.redisClient != nil:
			log.Logger().Info("Caching signing keys in Redis")
			e.keyStore = NewRedisKeyCache(e.keyStore, e.redisClient, e.config.Redis.keyPrefix(), e.config.Cache.TTL)
		case e.memcached != nil:
			log.Logger().Info("Caching signing keys in memcached")
			e.keyStore = NewMemcachedKeyCache(e.keyStore, e.memcached, defaultRedisKeyPrefix, e.config.Cache.TTL)
		default:
			log.Logger().Info("Caching signing keys in memory")
			e.keyStore = NewInMemoryKeyCache(e.keyStore, e.config.Cache.TTL)
		}
	}
	return nil
}

// Start checks whether Redis or memcached, if configured, can be reached.
func (e *engine) Start() error {
	if e.redisClient != nil {
		if err := e.redisClient.Ping(e.ctx).Err(); err != nil {
			return fmt.Errorf("unable to connect to Redis: %w", err)
		}
	}
	if e.memcached != nil {
		if err := e.memcached.Ping(); err != nil {
			return fmt.Errorf("unable to connect to memcached: %w", err)
		}
	}
	return nil
}

func (e *engine) Shutdown() error {
	if e.ctxCancel != nil {
		e.ctxCancel()
	}
	var result []error
	if e.redisClient != nil {
		if err := e.redisClient.Close(); err != nil {
			result = append(result, fmt.Errorf("unable to close Redis client: %w", err))
		}
		e.redisClient = nil
	}
	if e.memcached != nil {
		if err := e.memcached.Close(); err != nil {
			result = append(result, fmt.Errorf("unable to close memcached client: %w", err))
		}
		e.memcached = nil
	}
	if e.sqlDB != nil {
		underlyingDB, err := e.sqlDB.DB()
		if err == nil {
			err = underlyingDB.Close()
		}
		if err != nil {
			result = append(result, fmt.Errorf("unable to close SQL database: %w", err))
		}
		e.sqlDB = nil
	}
	return errors.Join(result...)
}

func (e *engine) GetSQLDatabase() *gorm.DB {
	return e.sqlDB
}

func (e *engine) IssuerStore() issuer.Store {
	return e.issuerStore
}

func (e *engine) KeyStore() keys.Store {
	return e.keyStore
}

func (e *engine) Diagnostics() []core.DiagnosticResult {
	var results []core.DiagnosticResult
	if e.sqlDB != nil {
		results = append(results, &core.GenericDiagnosticResult{Title: "sql_dialect", Outcome: e.sqlDB.Dialector.Name()})
		if underlyingDB, err := e.sqlDB.DB(); err == nil {
			stats := underlyingDB.Stats()
			results = append(results, &core.NestedDiagnosticResult{
				Title: "sql_connections",
				Outcome: []core.DiagnosticResult{
					&core.GenericDiagnosticResult{Title: "open", Outcome: stats.OpenConnections},
					&core.GenericDiagnosticResult{Title: "in_use", Outcome: stats.InUse},
					&core.GenericDiagnosticResult{Title: "idle", Outcome: stats.Idle},
				},
			})
		}
	}
	cache := "disabled"
	if e.config.Cache.Enabled {
		cache = "memory"
		if e.redisClient != nil {
			cache = "redis"
		} else if e.memcached != nil {
			cache = "memcached"
		}
	}
	results = append(results, &core.GenericDiagnosticResult{Title: "key_cache", Outcome: cache})
	return results
}

func (e *engine) initSQLDatabase() error {
	connectionString := e.config.SQL.ConnectionString
	if len(connectionString) == 0 {
		connectionString = sqliteConnectionString(e.datadir)
	}
	db, err := openSQLDatabase(e.ctx, connectionString, e.config.SQL.SlowQueryThreshold)
	if err != nil {
		return err
	}
	e.sqlDB = db
	return nil
}
