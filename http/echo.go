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
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/http/log"
	"golang.org/x/sync/errgroup"
)

// RootPath is the bind for routes that don't map to a configured alternative bind.
const RootPath = "/"

// EchoServer is an HTTP interface routes can be registered on, which can be started and stopped.
type EchoServer interface {
	core.EchoRouter
	Start(address string) error
	Shutdown(ctx context.Context) error
}

// echoAdapter overrides Start of the underlying Echo server, to start it with TLS when configured.
type echoAdapter struct {
	*echo.Echo
	startFn func(address string) error
}

// Start starts the HTTP interface on the given address.
func (a *echoAdapter) Start(address string) error {
	return a.startFn(address)
}

// NewMultiEcho creates a new MultiEcho without binds. Bind must be called for RootPath before routes are registered.
func NewMultiEcho() *MultiEcho {
	return &MultiEcho{
		interfaces: map[string]EchoServer{},
		binds:      map[string]string{},
	}
}

// MultiEcho routes requests to HTTP interfaces by the first segment of the request path (the bind),
// e.g. /internal/keys/v0 maps to bind /internal. Paths that don't map to a bind go to the RootPath interface.
type MultiEcho struct {
	// interfaces maps listen addresses to their HTTP interface
	interfaces map[string]EchoServer
	// binds maps binds to listen addresses
	binds map[string]string
}

// Bind binds the given path (first segment of the URL) to the HTTP interface listening on the given address.
// The interface is created using creatorFn if no other bind uses the address yet.
// Binding the same path twice returns an error.
func (c *MultiEcho) Bind(path string, address string, creatorFn func() (EchoServer, error)) error {
	if len(address) == 0 {
		return errors.New("empty address")
	}
	if strings.Contains(strings.Trim(path, "/"), "/") {
		return fmt.Errorf("bind can't contain subpaths: %s", path)
	}
	bind := bindOf(path)
	if _, exists := c.binds[bind]; exists {
		return fmt.Errorf("http bind already exists: %s", bind)
	}
	if _, exists := c.interfaces[address]; !exists {
		server, err := creatorFn()
		if err != nil {
			return err
		}
		c.interfaces[address] = server
	}
	c.binds[bind] = address
	return nil
}

// Start starts all HTTP interfaces and blocks until all of them stopped.
// It returns the first error an interface stopped with.
func (c *MultiEcho) Start() error {
	var group errgroup.Group
	for address, server := range c.interfaces {
		group.Go(func() error {
			return server.Start(address)
		})
	}
	return group.Wait()
}

// Shutdown stops all HTTP interfaces.
func (c *MultiEcho) Shutdown(ctx context.Context) error {
	var errs []error
	for address, server := range c.interfaces {
		log.Logger().Tracef("Stopping interface: %s", address)
		if err := server.Shutdown(ctx); err != nil {
			log.Logger().WithError(err).Errorf("Unable to shutdown interface: %s", address)
			errs = append(errs, fmt.Errorf("interface %s: %w", address, err))
		}
	}
	return errors.Join(errs...)
}

// Use applies the given middleware to all HTTP interfaces.
func (c *MultiEcho) Use(middleware ...echo.MiddlewareFunc) {
	for _, server := range c.interfaces {
		server.Use(middleware...)
	}
}

// Add registers the route on the HTTP interface the path is bound to.
func (c *MultiEcho) Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route {
	return c.getInterface(path).Add(method, path, handler, middleware...)
}

func (c *MultiEcho) CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route {
	return c.Add(http.MethodConnect, path, h, m...)
}

func (c *MultiEcho) DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route {
	return c.Add(http.MethodDelete, path, h, m...)
}

func (c *MultiEcho) GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route {
	return c.Add(http.MethodGet, path, h, m...)
}

func (c *MultiEcho) HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route {
	return c.Add(http.MethodHead, path, h, m...)
}

func (c *MultiEcho) OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route {
	return c.Add(http.MethodOptions, path, h, m...)
}

func (c *MultiEcho) PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route {
	return c.Add(http.MethodPatch, path, h, m...)
}

func (c *MultiEcho) POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route {
	return c.Add(http.MethodPost, path, h, m...)
}

func (c *MultiEcho) PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route {
	return c.Add(http.MethodPut, path, h, m...)
}

func (c *MultiEcho) TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route {
	return c.Add(http.MethodTrace, path, h, m...)
}

func (c *MultiEcho) getInterface(path string) EchoServer {
	return c.interfaces[c.getAddressForPath(path)]
}

func (c *MultiEcho) getAddressForPath(path string) string {
	if address, ok := c.binds[bindOf(path)]; ok {
		return address
	}
	return c.binds[RootPath]
}

// bindOf returns the bind of the given request path: its lowercased first segment.
func bindOf(path string) string {
	segment, _, _ := strings.Cut(strings.Trim(path, "/"), "/")
	if segment == "" {
		return RootPath
	}
	return "/" + strings.ToLower(segment)
}
