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
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-vci/audit"
	"github.com/nuts-foundation/nuts-vci/core"
	"schneider.vip/problem"
)

var validate = validator.New()

// Preprocess is called by API handlers to preprocess the request.
// It sets the module and operation names used for logging, and the audit info of the request.
// The apiInstance is used as error status code resolver if it implements core.ErrorStatusCodeResolver,
// and as error writer if it implements core.ErrorWriter.
func Preprocess(echoContext echo.Context, apiInstance interface{}, moduleName string, operationID string) {
	echoContext.Set(core.StatusCodeResolverContextKey, apiInstance)
	echoContext.Set(core.OperationIDContextKey, operationID)
	echoContext.Set(core.ModuleNameContextKey, moduleName)
	if errorWriter, ok := apiInstance.(core.ErrorWriter); ok {
		echoContext.Set(core.ErrorWriterContextKey, errorWriter)
	}
	audit.Middleware(echoContext, moduleName, operationID)
}

// BindAndValidate decodes the request body into target and validates it using its `validate` struct tags.
// Failures are returned as 400 Bad Request.
func BindAndValidate(echoContext echo.Context, target interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(echoContext, target); err != nil {
		return core.InvalidInputError("invalid request body: %w", err)
	}
	if err := validate.Struct(target); err != nil {
		return core.InvalidInputError("invalid request: %w", err)
	}
	return nil
}

// ErrorCoder is implemented by errors that carry an admin error code.
type ErrorCoder interface {
	ErrorCode() string
}

// WriteAdminProblem writes the error as RFC 7807 problem with an extra `code` member.
// The code is taken from the error if it implements ErrorCoder, otherwise it's derived from the status code.
func WriteAdminProblem(echoContext echo.Context, statusCode int, title string, err error) error {
	code := errorCodeForStatus(statusCode)
	var coder ErrorCoder
	if errors.As(err, &coder) {
		code = coder.ErrorCode()
	}
	return core.WriteProblem(echoContext, statusCode, title, err, problem.Custom("code", code))
}

func errorCodeForStatus(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return "INVALID_PARAMETER"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "DUPLICATED_ERROR"
	case http.StatusGone:
		return "GONE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}
