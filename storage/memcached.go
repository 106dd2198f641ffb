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
	"errors"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcachedConfig holds the configuration for the memcached servers the key cache uses.
type MemcachedConfig struct {
	// Address holds the host:port addresses of the memcached servers. Keys are distributed over them.
	Address []string `koanf:"address"`
}

func (m MemcachedConfig) isConfigured() bool {
	return len(m.Address) > 0
}

func newMemcachedClient(config MemcachedConfig) (*memcache.Client, error) {
	for _, address := range config.Address {
		if address == "" {
			return nil, errors.New("empty memcached address")
		}
	}
	return memcache.New(config.Address...), nil
}
