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
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/http/log"
	"github.com/nuts-foundation/nuts-vci/http/tokenauth"
	"golang.org/x/time/rate"
)

// unloggedPaths are endpoints polled by monitoring, which would flood the request log.
var unloggedPaths = []string{"/metrics", "/status", "/health"}

// rateLimitedInternalRoutes are the admin operations that create state, per HTTP method.
var rateLimitedInternalRoutes = map[string][]string{
	http.MethodPost: {
		"/internal/issuer/v0/offer",
		"/internal/keys/v0",
		"/internal/pki/v0/crl",
	},
	http.MethodPut: {
		"/internal/keys/v0/:kid/chain",
	},
}

// decodeURIPath unescapes path parameters, e.g. key IDs containing a '#'.
// Echo doesn't do this itself, see https://github.com/labstack/echo/issues/1258
func decodeURIPath(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		values := c.ParamValues()
		decoded := make([]string, len(values))
		for i, value := range values {
			if unescaped, err := url.PathUnescape(value); err == nil {
				decoded[i] = unescaped
			} else {
				decoded[i] = value
			}
		}
		c.SetParamNames(c.ParamNames()...)
		c.SetParamValues(decoded...)
		return next(c)
	}
}

// matchesPath reports whether requestURI is path itself or lies below it, per path segment.
// Every URI matches the root path, /internal/keys matches /internal but /internalfoo doesn't.
func matchesPath(requestURI string, path string) bool {
	if path == RootPath {
		return true
	}
	prefix := strings.TrimSuffix(path, "/") + "/"
	return strings.HasPrefix(strings.TrimSuffix(requestURI, "/")+"/", prefix)
}

func (h Engine) applyGlobalMiddleware(router core.EchoRouter, serverConfig core.ServerConfig) {
	router.Use(decodeURIPath)
	router.Use(newClientRateLimiter(map[string][]string{
		http.MethodPost: {TokenPath},
	}, rate.Limit(h.config.RateLimit.TokenRate), h.config.RateLimit.TokenBurst))
	// strict mode always limits the admin API
	if serverConfig.Strictmode || h.config.RateLimit.Internal {
		router.Use(newInternalRateLimiter(rateLimitedInternalRoutes, 24*time.Hour, 3000, 30))
	}
}

// applyBindMiddleware applies the logging, CORS and authentication middleware of an interface config.
// The middleware only acts on requests under path, except those under one of excludePaths.
func (h Engine) applyBindMiddleware(echoServer EchoServer, path string, excludePaths []string, serverConfig core.ServerConfig, cfg InterfaceConfig) error {
	path = "/" + strings.TrimPrefix(path, "/")
	skipper := func(c echo.Context) bool {
		requestURI := c.Request().RequestURI
		if !matchesPath(requestURI, path) {
			return true
		}
		return slices.ContainsFunc(excludePaths, func(excludePath string) bool {
			return matchesPath(requestURI, excludePath)
		})
	}
	loggerSkipper := func(c echo.Context) bool {
		return skipper(c) || slices.ContainsFunc(unloggedPaths, func(unlogged string) bool {
			return matchesPath(c.Request().RequestURI, unlogged)
		})
	}

	switch cfg.Log {
	case LogNothingLevel:
	case LogMetadataAndBodyLevel:
		echoServer.Use(requestLoggerMiddleware(loggerSkipper, log.Logger()))
		echoServer.Use(bodyLoggerMiddleware(skipper, log.Logger()))
	default:
		echoServer.Use(requestLoggerMiddleware(loggerSkipper, log.Logger()))
	}

	address := h.server.getAddressForPath(path)
	if cfg.CORS.Enabled() {
		if serverConfig.Strictmode && slices.ContainsFunc(cfg.CORS.Origin, func(origin string) bool {
			return strings.TrimSpace(origin) == "*"
		}) {
			return errors.New("wildcard CORS origin is not allowed in strict mode")
		}
		log.Logger().Infof("Enabling CORS for HTTP endpoint: %s%s", address, path)
		echoServer.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.CORS.Origin, Skipper: skipper}))
	}

	authenticator, err := createAuthenticator(cfg.Auth, skipper)
	if err != nil {
		return err
	}
	if authenticator == nil {
		if serverConfig.Strictmode && path != RootPath {
			log.Logger().Warnf("HTTP interface %s%s does not require authentication", address, path)
		}
		return nil
	}
	log.Logger().Infof("Enabling token authentication for HTTP interface: %s%s", address, path)
	echoServer.Use(authenticator)
	return nil
}

// createAuthenticator returns the authentication middleware for the given config, or nil if no authentication is configured.
func createAuthenticator(cfg AuthConfig, skipper middleware.Skipper) (echo.MiddlewareFunc, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case BearerTokenAuth:
	default:
		return nil, fmt.Errorf("unsupported authentication engine: %v", cfg.Type)
	}
	// tokens must be issued for this host, unless configured otherwise
	audience := cfg.Audience
	if audience == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("unable to discover hostname: %w", err)
		}
		log.Logger().Infof("Enforcing default audience: %v", hostname)
		audience = hostname
	}
	authenticator, err := tokenauth.NewFromFile(skipper, audience, cfg.AuthorizedKeysPath)
	if err != nil {
		return nil, fmt.Errorf("unable to create token authentication middleware: %w", err)
	}
	return authenticator.Handler, nil
}
