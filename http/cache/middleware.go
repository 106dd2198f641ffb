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

package cache

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// NoStore returns route middleware that forbids clients and intermediaries to store the response,
// for responses carrying secrets like access tokens, credentials and transaction codes.
// The headers are set before the handler is invoked, so they're also present on error responses.
func NoStore() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Cache-Control", "no-store")
			// Pragma is deprecated (HTTP/1.0) but it's specified by OAuth2 RFC6749,
			// so specify it for compliance.
			c.Response().Header().Set("Pragma", "no-cache")
			return next(c)
		}
	}
}

// MaxAge returns route middleware that allows caching of successful responses for the given duration.
// Error responses are never cached.
func MaxAge(maxAge time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Before(func() {
				if c.Response().Status < http.StatusBadRequest {
					c.Response().Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", int(maxAge.Seconds())))
				}
			})
			return next(c)
		}
	}
}
