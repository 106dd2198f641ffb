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

package keys

import (
	"errors"
	"net/http"

	"github.com/nuts-foundation/nuts-vci/crypto"
	"github.com/nuts-foundation/nuts-vci/pki"
)

// ErrorCode is the admin error code returned by the key administration and PKI APIs.
type ErrorCode string

const (
	// InvalidParameter is returned when a request parameter is missing or can't be decoded.
	InvalidParameter ErrorCode = "INVALID_PARAMETER"
	// UnsupportedCurve is returned when an operation is requested for a curve or algorithm it does not support.
	UnsupportedCurve ErrorCode = "UNSUPPORTED_CURVE"
	// KeyDoesNotMatch is returned when a certificate's public key is not the key pair's public key.
	KeyDoesNotMatch ErrorCode = "KEY_DOES_NOT_MATCH"
	// NotFound is returned when the key pair (or its chain) does not exist.
	NotFound ErrorCode = "NOT_FOUND"
	// Duplicated is returned when a certificate chain is already registered for the key pair.
	Duplicated ErrorCode = "DUPLICATED_ERROR"
	// Gone is returned when the key pair has been revoked.
	Gone ErrorCode = "GONE"
	// InternalError is returned for unexpected failures.
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Error is returned by the Manager. It carries an admin error code which maps to an HTTP status code.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Err.Error()
}

func (e Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the admin error code.
func (e Error) ErrorCode() string {
	return string(e.Code)
}

// StatusCode returns the HTTP status code for the error code.
func (e Error) StatusCode() int {
	switch e.Code {
	case InvalidParameter, UnsupportedCurve, KeyDoesNotMatch:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Duplicated:
		return http.StatusConflict
	case Gone:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func newError(code ErrorCode, err error) error {
	return Error{Code: code, Err: err}
}

// fromCryptoError converts errors of the crypto and pki packages to an Error.
func fromCryptoError(err error) error {
	var target Error
	switch {
	case errors.As(err, &target):
		return err
	case errors.Is(err, pki.ErrUnsupportedCurve),
		errors.Is(err, pki.ErrUnsupportedAlgorithm),
		errors.Is(err, crypto.ErrUnsupportedKey),
		errors.Is(err, crypto.ErrUnsupportedKeyType):
		return newError(UnsupportedCurve, err)
	case errors.Is(err, pki.ErrKeyMismatch):
		return newError(KeyDoesNotMatch, err)
	case errors.Is(err, pki.ErrInvalidCSR),
		errors.Is(err, pki.ErrInvalidCertificate),
		errors.Is(err, pki.ErrInvalidSerialNumber),
		errors.Is(err, crypto.ErrInvalidKey):
		return newError(InvalidParameter, err)
	default:
		return newError(InternalError, err)
	}
}
