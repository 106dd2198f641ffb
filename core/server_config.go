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
	"slices"
	"strings"

	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const defaultConfigFile = "nuts-vci.yaml"
const configFileFlag = "configfile"

const defaultPrefix = "NUTSVCI_"
const defaultDelimiter = "."
const configValueListSeparator = ","

// redactedConfigKeys contains the configuration keys that are masked when logged, to avoid leaking secrets.
var redactedConfigKeys = []string{
	"storage.sql.connection",
	"storage.redis.password",
	"storage.redis.sentinel.password",
}

// ServerConfig has global server settings.
type ServerConfig struct {
	Verbosity    string    `koanf:"verbosity"`
	LoggerFormat string    `koanf:"loggerformat"`
	Strictmode   bool      `koanf:"strictmode"`
	Datadir      string    `koanf:"datadir"`
	URL          string    `koanf:"url"`
	TLS          TLSConfig `koanf:"tls"`
	configMap    *koanf.Koanf
}

// TLSConfig specifies how TLS should be configured for HTTP interfaces.
type TLSConfig struct {
	CertFile       string `koanf:"certfile"`
	CertKeyFile    string `koanf:"certkeyfile"`
	TrustStoreFile string `koanf:"truststorefile"`
}

// Enabled returns whether a server certificate is configured.
func (t TLSConfig) Enabled() bool {
	return len(t.CertFile) > 0 || len(t.CertKeyFile) > 0
}

// NewServerConfig creates a new config with some defaults
func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		configMap:    koanf.New(defaultDelimiter),
		Verbosity:    "info",
		LoggerFormat: "text",
		Strictmode:   true,
		Datadir:      "./data",
	}
}

// Load follows the load order of configfile, env vars and then commandline param
func (ngc *ServerConfig) Load(flags *pflag.FlagSet) (err error) {
	ngc.configMap = koanf.New(defaultDelimiter)
	if err = loadConfigMap(ngc.configMap, flags); err != nil {
		return err
	}
	if err = loadConfigIntoStruct(ngc, ngc.configMap); err != nil {
		return err
	}
	return ngc.configureLogging()
}

func (ngc *ServerConfig) configureLogging() error {
	lvl, err := logrus.ParseLevel(ngc.Verbosity)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)

	switch ngc.LoggerFormat {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid formatter: '%s'", ngc.LoggerFormat)
	}
	return nil
}

// FlagSet returns the default server flags
func FlagSet() *pflag.FlagSet {
	defaults := NewServerConfig()
	flagSet := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flagSet.String(configFileFlag, defaultConfigFile, "Config file")
	flagSet.String("verbosity", defaults.Verbosity, "Log level (trace, debug, info, warn, error)")
	flagSet.String("loggerformat", defaults.LoggerFormat, "Log format (text, json)")
	flagSet.Bool("strictmode", defaults.Strictmode, "When set, insecure settings are forbidden.")
	flagSet.String("datadir", defaults.Datadir, "Directory where the node stores its files.")
	flagSet.String("url", "", "Public facing URL of the server (required). It's used as Credential Issuer Identifier and must be HTTPS in strict mode.")
	flagSet.String("tls.certfile", "", "PEM file containing the certificate for the HTTP server.")
	flagSet.String("tls.certkeyfile", "", "PEM file containing the private key of the HTTP server certificate.")
	flagSet.String("tls.truststorefile", "", "PEM file containing the trusted CA certificates, used for client certificate authentication and TLS connections to Redis.")
	return flagSet
}

// PrintConfig returns the current config in string form, with secrets redacted.
func (ngc *ServerConfig) PrintConfig() string {
	var lines []string
	for _, key := range ngc.configMap.Keys() {
		value := fmt.Sprintf("%v", ngc.configMap.Get(key))
		if slices.Contains(redactedConfigKeys, key) && value != "" {
			value = "(redacted)"
		}
		lines = append(lines, fmt.Sprintf("%s -> %s", key, value))
	}
	return strings.Join(lines, "\n")
}

// InjectIntoEngine takes the loaded config and sets the engine's config struct.
// The current values of the engine's config struct are used as defaults for keys that aren't configured.
func (ngc *ServerConfig) InjectIntoEngine(e Injectable) error {
	engineConfig := koanf.New(defaultDelimiter)
	if err := engineConfig.Load(structs.Provider(e.Config(), "koanf"), nil); err != nil {
		return fmt.Errorf("unable to load defaults of %s config: %w", e.Name(), err)
	}
	if err := engineConfig.Merge(ngc.configMap.Cut(strings.ToLower(e.Name()))); err != nil {
		return fmt.Errorf("unable to load %s config: %w", e.Name(), err)
	}
	return loadConfigIntoStruct(e.Config(), engineConfig)
}
