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
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/storage/log"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultRedisKeyPrefix = "nuts-vci"

// redisTLSModifier allows tests to alter the TLS config of Redis connections.
var redisTLSModifier = func(_ *tls.Config) {}

// RedisConfig specifies config for the Redis server, which caches signing keys.
type RedisConfig struct {
	Address  string              `koanf:"address"`
	Username string              `koanf:"username"`
	Password string              `koanf:"password"`
	Database string              `koanf:"database"`
	TLS      RedisTLSConfig      `koanf:"tls"`
	Sentinel RedisSentinelConfig `koanf:"sentinel"`
}

// RedisTLSConfig specifies properties for connecting to a Redis server over TLS.
type RedisTLSConfig struct {
	TrustStoreFile string `koanf:"truststorefile"`
}

// RedisSentinelConfig specifies properties for connecting to a Redis Sentinel cluster.
type RedisSentinelConfig struct {
	Master   string   `koanf:"master"`
	Nodes    []string `koanf:"nodes"`
	Username string   `koanf:"username"`
	Password string   `koanf:"password"`
}

func (r RedisConfig) isConfigured() bool {
	return r.Address != ""
}

// keyPrefix returns the prefix of all keys written to Redis, so multiple issuers can share a server.
func (r RedisConfig) keyPrefix() string {
	if r.Database == "" {
		return defaultRedisKeyPrefix
	}
	return strings.ToLower(r.Database)
}

// parse converts the config to client options. A plain host:port address connects over TCP without TLS.
func (r RedisConfig) parse() (*redis.Options, error) {
	address := r.Address
	if !isRedisURL(address) {
		address = "redis://" + address
	}
	opts, err := redis.ParseURL(address)
	if err != nil {
		return nil, err
	}
	if r.Username != "" {
		opts.Username = r.Username
	}
	if r.Password != "" {
		opts.Password = r.Password
	}
	if opts.TLSConfig == nil {
		if r.TLS.TrustStoreFile != "" {
			return nil, errors.New("TLS configured but not connecting to a Redis TLS server")
		}
		return opts, nil
	}
	if r.TLS.TrustStoreFile != "" {
		trustStore, err := core.LoadTrustStore(r.TLS.TrustStoreFile)
		if err != nil {
			return nil, fmt.Errorf("unable to load truststore for Redis database: %w", err)
		}
		opts.TLSConfig.RootCAs = trustStore.CertPool
	}
	redisTLSModifier(opts.TLSConfig)
	return opts, nil
}

func (r RedisSentinelConfig) enabled() bool {
	return r.Master != "" || len(r.Nodes) > 0
}

// parse derives failover options from the options of the Redis server, which are used for the master and replicas.
func (r RedisSentinelConfig) parse(server redis.Options) (*redis.FailoverOptions, error) {
	switch {
	case r.Master == "":
		return nil, errors.New("master is not configured")
	case len(r.Nodes) == 0:
		return nil, errors.New("node addresses are not configured")
	}
	opts := &redis.FailoverOptions{
		MasterName:       r.Master,
		SentinelAddrs:    r.Nodes,
		SentinelUsername: r.Username,
		SentinelPassword: r.Password,
		Username:         server.Username,
		Password:         server.Password,
		DB:               server.DB,
		DialTimeout:      server.DialTimeout,
		ReadTimeout:      server.ReadTimeout,
		WriteTimeout:     server.WriteTimeout,
	}
	if server.TLSConfig != nil {
		// the failover client connects to several hosts, so it can't verify a single server name
		opts.TLSConfig = server.TLSConfig.Clone()
		opts.TLSConfig.ServerName = ""
	}
	return opts, nil
}

// createRedisClient creates a client for a single Redis server, or a failover client when Sentinel is configured.
func createRedisClient(config RedisConfig) (redis.UniversalClient, error) {
	opts, err := config.parse()
	if err != nil {
		return nil, err
	}
	redis.SetLogger(redisLogWriter{logger: log.Logger()})
	if !config.Sentinel.enabled() {
		return redis.NewClient(opts), nil
	}
	failoverOpts, err := config.Sentinel.parse(*opts)
	if err != nil {
		return nil, fmt.Errorf("unable to configure Redis Sentinel client: %w", err)
	}
	return redis.NewFailoverClient(failoverOpts), nil
}

func isRedisURL(address string) bool {
	for _, scheme := range []string{"redis://", "rediss://", "unix://"} {
		if strings.HasPrefix(address, scheme) {
			return true
		}
	}
	return false
}

// redisLogWriter writes log messages of the Redis client as warnings.
type redisLogWriter struct {
	logger *logrus.Entry
}

func (t redisLogWriter) Printf(_ context.Context, format string, v ...interface{}) {
	t.logger.Warnf(format, v...)
}
