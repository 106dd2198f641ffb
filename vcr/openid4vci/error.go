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

package openid4vci

import "net/http"

// ErrorCode specifies error codes as defined by OAuth2 (token endpoint) and OpenID4VCI (credential endpoint).
type ErrorCode string

const (
	// InvalidRequest is returned when:
	// - the Authorization Server does not expect a PIN in the pre-authorized flow but the client provides a PIN
	// - the Authorization Server expects a PIN in the pre-authorized flow but the client does not provide a PIN
	// - a PIN protected code is redeemed again
	// - Credential Request was malformed. One or more of the parameters (i.e. format, proof) are missing or malformed.
	InvalidRequest ErrorCode = "invalid_request"
	// InvalidGrant is returned when (in addition to cases defined by OAuth2):
	// - the Authorization Server expects a PIN in the pre-authorized flow but the client provides the wrong PIN
	// - the End-User provides the wrong Pre-Authorized Code or the Pre-Authorized Code has expired
	InvalidGrant ErrorCode = "invalid_grant"
	// UnsupportedGrantType is returned when the Authorization Server does not support the requested grant type.
	UnsupportedGrantType ErrorCode = "unsupported_grant_type"
	// InvalidToken is returned when (in addition to cases defined by OAuth2):
	// - Credential Request contains the wrong Access Token or the Access Token is missing
	InvalidToken ErrorCode = "invalid_token"
	// InvalidOrMissingProof is returned when the Credential Request did not contain a proof,
	// or proof was invalid, i.e. it was not bound to a Credential Issuer provided nonce
	InvalidOrMissingProof ErrorCode = "invalid_or_missing_proof"
	// UnsupportedCredentialType is returned when the credential issuer does not support the requested credential type.
	UnsupportedCredentialType ErrorCode = "unsupported_credential_type"
	// UnsupportedCredentialFormat is returned when the credential issuer does not support the requested credential format.
	UnsupportedCredentialFormat ErrorCode = "unsupported_credential_format"
	// UnexpectedError is returned when the issuer encounters an unexpected condition that prevents it from fulfilling the request.
	UnexpectedError ErrorCode = "unexpected_error"
	// ServerError is the OAuth2 equivalent of UnexpectedError, returned by the token endpoint.
	ServerError ErrorCode = "server_error"
)

// Error is an error that signals the error was (probably) caused by the client (e.g. bad request),
// or that the client can recover from the error (e.g. retry). It's written to the client as {error, error_description}.
type Error struct {
	// Code is the error code as defined by OAuth2 or OpenID4VCI.
	Code ErrorCode `json:"error"`
	// Description is the human-readable reason which is returned to the client.
	Description string `json:"error_description,omitempty"`
	// Err is the underlying error, may be omitted. It is not intended to be returned to the client.
	Err error `json:"-"`
	// HTTPStatus is the HTTP status code that should be returned to the client.
	HTTPStatus int `json:"-"`
}

// NewError creates an Error with the default HTTP status for the code.
func NewError(code ErrorCode, description string) Error {
	return Error{Code: code, Description: description, HTTPStatus: defaultStatusCode(code)}
}

// Error returns the error message, consisting of the code, the description and the underlying error (if present).
func (e Error) Error() string {
	result := string(e.Code)
	if e.Description != "" {
		result += " - " + e.Description
	}
	if e.Err != nil {
		result += " - " + e.Err.Error()
	}
	return result
}

// Unwrap returns the underlying error.
func (e Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for the error.
func (e Error) StatusCode() int {
	if e.HTTPStatus == 0 {
		return defaultStatusCode(e.Code)
	}
	return e.HTTPStatus
}

func defaultStatusCode(code ErrorCode) int {
	switch code {
	case InvalidToken:
		return http.StatusUnauthorized
	case UnexpectedError, ServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
