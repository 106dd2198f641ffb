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

package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const defaultClientTimeout = 10 * time.Second
const defaultAddress = "localhost:1323"
const clientTimeoutFlag = "timeout"
const addressFlag = "address"
const tokenFlag = "token"
const tokenFileFlag = "token-file"

// ClientConfig has CLI client settings, used by commands that call the admin API of a running server.
type ClientConfig struct {
	Address string        `koanf:"address"`
	Timeout time.Duration `koanf:"timeout"`
	// Token is the bearer token used to authenticate to the admin API.
	Token string `koanf:"token"`
	// TokenFile is a file containing the bearer token. It's used when Token isn't set.
	TokenFile string `koanf:"token-file"`
}

// NewClientConfig creates a new CLI client config with default values set.
func NewClientConfig() *ClientConfig {
	return &ClientConfig{
		Address: defaultAddress,
		Timeout: defaultClientTimeout,
	}
}

// Load loads the client config from environment variables and the given (parsed) flags.
func (cfg *ClientConfig) Load(flags *pflag.FlagSet) error {
	configMap := koanf.New(defaultDelimiter)
	if err := loadFromFlagSet(configMap, flags); err != nil {
		return err
	}
	if err := loadFromEnv(configMap); err != nil {
		return err
	}
	if err := loadFromFlagSet(configMap, flags); err != nil {
		return err
	}
	return loadConfigIntoStruct(cfg, configMap)
}

// ClientConfigFlags returns the flags for configuring the client config.
func ClientConfigFlags() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("client", pflag.ContinueOnError)
	flagSet.String(addressFlag, defaultAddress, "Address of the remote server. Must contain at least host and port, URL scheme may be omitted. In that case 'http://' is prepended.")
	flagSet.Duration(clientTimeoutFlag, defaultClientTimeout, "Client time-out when performing remote operations.")
	flagSet.String(tokenFlag, "", "Token to authenticate to the admin API of the remote server, see 'http gen-token'.")
	flagSet.String(tokenFileFlag, "", "File from which the token to authenticate to the admin API is read. Used when --token isn't set.")
	return flagSet
}

// GetAddress normalizes and gets the address of the remote server
func (cfg ClientConfig) GetAddress() string {
	addr := cfg.Address
	if !strings.HasPrefix(addr, "http") {
		addr = "http://" + addr
	}
	return addr
}

// GetAuthToken returns the configured bearer token, reading it from TokenFile if Token isn't set.
// It returns an empty string if neither is configured.
func (cfg ClientConfig) GetAuthToken() (string, error) {
	if cfg.Token != "" {
		return cfg.Token, nil
	}
	if cfg.TokenFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return "", fmt.Errorf("unable to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
