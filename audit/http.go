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

package audit

import (
	"github.com/labstack/echo/v4"
)

// Middleware sets the audit info on the request context of the echo.Context.
// It sets the following fields:
// - actor, which is the client IP address (taken from X-Forwarded-For when behind a reverse proxy).
// - moduleName, which is the module name of the interface that invoked the operation.
// - operationID, which is operation that invoked the operation.
func Middleware(echoCtx echo.Context, moduleName, operationID string) {
	ctx := Context(echoCtx.Request().Context(), echoCtx.RealIP(), moduleName, operationID)
	echoCtx.SetRequest(echoCtx.Request().WithContext(ctx))
}

// EchoMiddleware returns Middleware as echo.MiddlewareFunc for the given module and operation.
func EchoMiddleware(moduleName, operationID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			Middleware(c, moduleName, operationID)
			return next(c)
		}
	}
}
