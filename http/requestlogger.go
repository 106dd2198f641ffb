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
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/sirupsen/logrus"
)

const redacted = "(redacted)"

// secretFields are the form and JSON fields of the issuance flow that grant access to a credential.
var secretFields = []string{"pre-authorized_code", "tx_code", "pin", "access_token", "c_nonce", "proof", "credential"}

// requestLoggerMiddleware returns middleware that logs metadata of HTTP requests.
// It should be the outer middleware, so it sees the status of errors returned by inner middleware.
func requestLoggerMiddleware(skipper middleware.Skipper, logger *logrus.Entry) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:     skipper,
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip": values.RemoteIP,
				"method":    values.Method,
				"uri":       values.URI,
				"status":    responseStatus(values),
			}
			// set by the token authentication middleware
			if user, ok := c.Get(core.UserContextKey).(string); ok && user != "" {
				fields[core.LogFieldUser] = user
			}
			logger.WithFields(fields).Info("HTTP request")
			return nil
		},
	})
}

// responseStatus returns the status the error handler will respond with, since values.Status isn't updated for returned errors.
func responseStatus(values middleware.RequestLoggerValues) int {
	switch err := values.Error.(type) {
	case nil:
		return values.Status
	case interface{ StatusCode() int }:
		return err.StatusCode()
	case *echo.HTTPError:
		return err.Code
	default:
		return http.StatusInternalServerError
	}
}

// bodyLoggerMiddleware returns middleware that logs the bodies of HTTP requests and their responses.
// Secrets of the issuance flow are redacted.
func bodyLoggerMiddleware(skipper middleware.Skipper, logger *logrus.Entry) echo.MiddlewareFunc {
	return middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: skipper,
		Handler: func(e echo.Context, request []byte, response []byte) {
			logger.Infof("HTTP request body: %s", loggableBody(e.Request().Header.Get(echo.HeaderContentType), request))
			logger.Infof("HTTP response body: %s", loggableBody(e.Response().Header().Get(echo.HeaderContentType), response))
		},
	})
}

func loggableBody(contentType string, body []byte) string {
	if !isLoggableContentType(contentType) {
		return "(not loggable: " + contentType + ")"
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == echo.MIMEApplicationForm {
		return redactForm(body)
	}
	return redactJSON(body)
}

func isLoggableContentType(contentType string) bool {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case echo.MIMEApplicationJSON, "application/problem+json", echo.MIMEApplicationForm:
		return true
	}
	return false
}

func redactForm(body []byte) string {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return "(not loggable: invalid form)"
	}
	changed := false
	for key := range values {
		if slices.Contains(secretFields, key) {
			values.Set(key, redacted)
			changed = true
		}
	}
	if !changed {
		return string(body)
	}
	return values.Encode()
}

// redactJSON redacts the secret fields of a JSON object. Other JSON is logged as-is.
func redactJSON(body []byte) string {
	var object map[string]json.RawMessage
	if json.Unmarshal(body, &object) != nil {
		return string(body)
	}
	changed := false
	for key := range object {
		if slices.Contains(secretFields, key) {
			object[key] = json.RawMessage(`"` + redacted + `"`)
			changed = true
		}
	}
	if !changed {
		return string(body)
	}
	result, _ := json.Marshal(object)
	return string(result)
}
