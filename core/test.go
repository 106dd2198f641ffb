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
	"errors"

	"github.com/spf13/pflag"
)

const testEngineName = "testengine"

// TestEngineConfig defines the configuration for the test engine
type TestEngineConfig struct {
	Key  string              `koanf:"key"`
	Sub  TestEngineSubConfig `koanf:"sub"`
	List []string            `koanf:"list"`
}

// TestEngineSubConfig defines the `sub` configuration for the test engine
type TestEngineSubConfig struct {
	Test string `koanf:"test"`
}

// TestServerConfig returns a new ServerConfig with the given template applied.
func TestServerConfig(template ServerConfig) ServerConfig {
	config := NewServerConfig()
	// Most commonly used properties
	config.Datadir = template.Datadir
	config.Strictmode = template.Strictmode
	config.URL = template.URL
	config.TLS = template.TLS
	return *config
}

// TestEngine is a configurable engine used in tests of the engine lifecycle.
type TestEngine struct {
	TestConfig     TestEngineConfig
	flagSet        *pflag.FlagSet
	ConfigureError error
	StartError     bool
	ShutdownError  bool
	started        bool
}

func testDefaultConfig() TestEngineConfig {
	return TestEngineConfig{List: []string{"default", "default"}}
}

// Configure fails if ConfigureError is set
func (i *TestEngine) Configure(_ ServerConfig) error {
	return i.ConfigureError
}

// Start does test stuff
func (i *TestEngine) Start() error {
	if i.StartError {
		return errors.New("failure")
	}
	i.started = true
	return nil
}

// Shutdown does test stuff
func (i *TestEngine) Shutdown() error {
	if i.ShutdownError {
		return errors.New("failure")
	}
	i.started = false
	return nil
}

// Started returns whether Start was called without a subsequent Shutdown.
func (i *TestEngine) Started() bool {
	return i.started
}

func (i *TestEngine) Config() interface{} {
	return &i.TestConfig
}

func (i *TestEngine) FlagSet() *pflag.FlagSet {
	return i.flagSet
}

func (i *TestEngine) Name() string {
	return testEngineName
}

func testFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet(testEngineName, pflag.ContinueOnError)

	defs := testDefaultConfig()
	flags.StringSlice(testEngineName+".list", defs.List, "sets the values of list")
	flags.String(testEngineName+".key", defs.Key, "another flag")

	return flags
}
