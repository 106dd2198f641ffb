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

package pki

import (
	"errors"
	"time"
)

// errors
var (
	// ErrUnsupportedCurve is returned when a key can't be used for X.509 signing, e.g. secp256k1 keys.
	ErrUnsupportedCurve = errors.New("unsupported curve for X.509 signing")
	// ErrUnsupportedAlgorithm is returned for signature algorithms other than ES256 and EdDSA.
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")
	// ErrKeyMismatch is returned when the public key doesn't belong to the private key.
	ErrKeyMismatch = errors.New("public key does not match private key")
	// ErrInvalidCSR is returned when a certificate signing request can't be parsed or its signature is invalid.
	ErrInvalidCSR = errors.New("invalid certificate signing request")
	// ErrInvalidCertificate is returned when stored certificate data can't be decoded.
	ErrInvalidCertificate = errors.New("invalid certificate")
	// ErrInvalidSerialNumber is returned when a serial number isn't a valid hexadecimal number.
	ErrInvalidSerialNumber = errors.New("invalid serial number")
)

// RevokedCertificate describes an entry of a certificate revocation list.
type RevokedCertificate struct {
	// SerialHex is the hexadecimal serial number of the revoked certificate.
	SerialHex string `json:"serial" validate:"required,hexadecimal"`
	// RevocationDate is the moment the certificate was revoked.
	RevocationDate time.Time `json:"revocation_date" validate:"required"`
	// Reason is the optional CRL reason code (RFC 5280, section 5.3.1).
	Reason *int `json:"reason,omitempty" validate:"omitempty,min=0,max=10"`
}
