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

package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/http/log"
)

const moduleName = "HTTP"

// TokenPath is the path of the OAuth2 token endpoint, which is rate limited per client IP.
const TokenPath = "/token"

// New returns a new HTTP engine. The callback is called when an HTTP interface shuts down unexpectedly.
func New(serverShutdownCb func()) *Engine {
	return &Engine{
		serverShutdownCb: serverShutdownCb,
		config:           DefaultConfig(),
	}
}

// Engine is the HTTP engine. It serves all APIs of the issuer on one or more HTTP interfaces.
type Engine struct {
	server           *MultiEcho
	serverShutdownCb func()
	config           Config
}

// Router returns the router of the HTTP engine, which can be used by other engines to register HTTP handlers.
func (h Engine) Router() core.EchoRouter {
	return h.server
}

// Name returns the name of the engine.
func (h *Engine) Name() string {
	return moduleName
}

// Config returns the configuration of the HTTP engine.
func (h *Engine) Config() interface{} {
	return &h.config
}

// Configure creates the HTTP interfaces and applies their middleware.
func (h *Engine) Configure(serverConfig core.ServerConfig) error {
	if h.config.RateLimit.TokenRate <= 0 || h.config.RateLimit.TokenBurst <= 0 {
		return errors.New("http.ratelimit.tokenrate and http.ratelimit.tokenburst must be greater than 0")
	}
	tlsConfig, err := serverConfig.TLS.Load()
	if err != nil {
		return err
	}

	h.server = NewMultiEcho()
	if err = h.bind(RootPath, h.config.InterfaceConfig, tlsConfig); err != nil {
		return err
	}
	altPaths := make([]string, 0, len(h.config.AltBinds))
	for altPath, altConfig := range h.config.AltBinds {
		if altConfig.Address == "" {
			altConfig.Address = h.config.Address
		}
		if err = h.bind(altPath, altConfig, tlsConfig); err != nil {
			return err
		}
		altPaths = append(altPaths, "/"+strings.TrimPrefix(altPath, "/"))
	}

	h.applyGlobalMiddleware(h.server, serverConfig)

	for altPath, altConfig := range h.config.AltBinds {
		if err = h.applyBindMiddleware(h.server.getInterface(altPath), altPath, nil, serverConfig, altConfig); err != nil {
			return err
		}
	}
	// alt binds that share the root interface must not get the root middleware twice
	return h.applyBindMiddleware(h.server.getInterface(RootPath), RootPath, altPaths, serverConfig, h.config.InterfaceConfig)
}

func (h *Engine) bind(path string, cfg InterfaceConfig, tlsConfig *tls.Config) error {
	log.Logger().Infof("Binding /%s -> %s", strings.TrimPrefix(path, "/"), cfg.Address)
	return h.server.Bind(path, cfg.Address, func() (EchoServer, error) {
		return h.createEchoServer(cfg, tlsConfig)
	})
}

func (h *Engine) createEchoServer(cfg InterfaceConfig, tlsConfig *tls.Config) (*echoAdapter, error) {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = core.CreateHTTPErrorHandler()
	// Reverse proxies must set the X-Forwarded-For header to the original client IP.
	echoServer.IPExtractor = echo.ExtractIPFromXFFHeader()

	adapter := &echoAdapter{Echo: echoServer, startFn: echoServer.Start}
	switch cfg.TLSMode {
	case "", TLSDisabledMode:
		return adapter, nil
	case TLSServerCertMode, TLServerClientCertMode:
		if tlsConfig == nil {
			return nil, errors.New("TLS must be configured (tls.certfile and tls.certkeyfile) to enable it on HTTP endpoints")
		}
	default:
		return nil, fmt.Errorf("invalid TLS mode: %s", cfg.TLSMode)
	}

	serverTLSConfig := tlsConfig.Clone()
	if cfg.TLSMode == TLServerClientCertMode {
		log.Logger().Infof("Enabling TLS (with client certificate requirement) for HTTP interface: %s", cfg.Address)
		serverTLSConfig.ClientAuth = tls.RequireAndVerifyClientCert
	} else {
		log.Logger().Infof("Enabling TLS for HTTP interface: %s", cfg.Address)
	}
	echoServer.TLSServer.TLSConfig = serverTLSConfig
	echoServer.TLSServer.Addr = cfg.Address
	adapter.startFn = func(_ string) error {
		return echoServer.StartServer(echoServer.TLSServer)
	}
	return adapter, nil
}

// Start starts all HTTP interfaces in the background.
// When one of them stops, the shutdown callback is called.
func (h *Engine) Start() error {
	go func(server *MultiEcho, cancel func()) {
		defer cancel()
		err := server.Start()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Logger().
				WithError(err).
				Error("HTTP server stopped due to error")
		}
	}(h.server, h.serverShutdownCb)
	return nil
}

// Shutdown stops all HTTP interfaces.
func (h *Engine) Shutdown() error {
	return h.server.Shutdown(context.Background())
}
