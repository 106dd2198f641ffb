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

package v0

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-vci/core"
	httpNuts "github.com/nuts-foundation/nuts-vci/http"
	"github.com/nuts-foundation/nuts-vci/http/cache"
	"github.com/nuts-foundation/nuts-vci/vcr"
	"github.com/nuts-foundation/nuts-vci/vcr/log"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
)

const moduleName = vcr.ModuleName + "/OpenID4VCI"

// TokenPath is the path of the token endpoint.
const TokenPath = httpNuts.TokenPath

// CredentialPath is the path of the credential endpoint.
const CredentialPath = "/credential"

var _ core.ErrorWriter = (*protocolErrorWriter)(nil)

// protocolErrorWriter writes errors as {error, error_description}.
// Errors that aren't protocol errors are written with the fallback code, without their details.
type protocolErrorWriter struct {
	fallback openid4vci.ErrorCode
}

func (p protocolErrorWriter) Write(echoContext echo.Context, statusCode int, _ string, err error) error {
	var protocolError openid4vci.Error
	if !errors.As(err, &protocolError) {
		protocolError = openid4vci.Error{
			Err:        err,
			Code:       p.fallback,
			HTTPStatus: http.StatusInternalServerError,
		}
		// HTTP errors raised by Echo (e.g. unsupported media type) are the client's fault
		if statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError {
			protocolError.Code = openid4vci.InvalidRequest
			protocolError.Description = err.Error()
			protocolError.HTTPStatus = statusCode
		}
	}
	status := protocolError.StatusCode()
	// Unexpected errors might contain sensitive details, so they're only logged.
	if status >= http.StatusInternalServerError {
		protocolError.Description = ""
	}
	log.Logger().Warnf("OpenID4VCI error occurred (status %d): %s", status, err)
	if protocolError.Code == openid4vci.InvalidToken {
		echoContext.Response().Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	return echoContext.JSON(status, protocolError)
}

// Wrapper serves the OpenID4VCI token and credential endpoints.
type Wrapper struct {
	Issuer vcr.Issuer
}

// Routes registers the API routes
func (w Wrapper) Routes(router core.EchoRouter) {
	router.POST(TokenPath, w.RequestAccessToken, cache.NoStore(), preprocess("RequestAccessToken", openid4vci.ServerError))
	router.POST(CredentialPath, w.RequestCredential, cache.NoStore(), preprocess("RequestCredential", openid4vci.UnexpectedError))
}

func preprocess(operationID string, fallback openid4vci.ErrorCode) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			httpNuts.Preprocess(ctx, protocolErrorWriter{fallback: fallback}, moduleName, operationID)
			return next(ctx)
		}
	}
}

// RequestAccessToken redeems a pre-authorized code. The request is form encoded.
// tx_code is accepted as successor of user_pin.
func (w Wrapper) RequestAccessToken(ctx echo.Context) error {
	form, err := ctx.FormParams()
	if err != nil {
		return openid4vci.Error{
			Code:        openid4vci.InvalidRequest,
			Description: "unable to parse form",
			Err:         err,
			HTTPStatus:  http.StatusBadRequest,
		}
	}
	request := openid4vci.TokenRequest{
		GrantType:         form.Get("grant_type"),
		PreAuthorizedCode: form.Get("pre-authorized_code"),
	}
	for _, param := range []string{"tx_code", "user_pin"} {
		if form.Has(param) {
			pin := form.Get(param)
			request.UserPIN = &pin
			break
		}
	}
	response, err := w.Issuer.HandleTokenRequest(ctx.Request().Context(), request)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, response)
}

// RequestCredential issues a credential to the holder of the access token.
func (w Wrapper) RequestCredential(ctx echo.Context) error {
	var request openid4vci.CredentialRequest
	if err := (&echo.DefaultBinder{}).BindBody(ctx, &request); err != nil {
		return openid4vci.Error{
			Code:        openid4vci.InvalidRequest,
			Description: "unable to read credential request",
			Err:         err,
			HTTPStatus:  http.StatusBadRequest,
		}
	}
	response, err := w.Issuer.HandleCredentialRequest(ctx.Request().Context(), ctx.Request().Header.Get(echo.HeaderAuthorization), request)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, response)
}
