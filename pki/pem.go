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
	"encoding/base64"
	"encoding/pem"
	"errors"
	"strings"

	"github.com/nuts-foundation/nuts-vci/crypto/util"
)

const pemLineLength = 64

// StripPEM removes the BEGIN/END lines of the given block types and all line breaks, leaving the base64 body.
// When no markers are given, CERTIFICATE is assumed.
func StripPEM(text string, markers ...string) string {
	if len(markers) == 0 {
		markers = []string{util.CertificatePEMType}
	}
	for _, marker := range markers {
		text = strings.ReplaceAll(text, "-----BEGIN "+marker+"-----", "")
		text = strings.ReplaceAll(text, "-----END "+marker+"-----", "")
	}
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\n", "")
	return strings.TrimSpace(text)
}

// WrapBase64PEM frames a base64 body as PEM block of the given type, wrapping the body at 64 columns.
// The body is used as-is, so for canonical base64 the output equals encoding/pem's.
func WrapBase64PEM(body string, blockType string) string {
	var sb strings.Builder
	sb.WriteString("-----BEGIN " + blockType + "-----\n")
	for len(body) > pemLineLength {
		sb.WriteString(body[:pemLineLength])
		sb.WriteString("\n")
		body = body[pemLineLength:]
	}
	if len(body) > 0 {
		sb.WriteString(body)
		sb.WriteString("\n")
	}
	sb.WriteString("-----END " + blockType + "-----\n")
	return sb.String()
}

// SplitPEMBundle returns the base64 DER of every CERTIFICATE block in the bundle, in order.
func SplitPEMBundle(bundle string) ([]string, error) {
	var result []string
	rest := []byte(bundle)
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != util.CertificatePEMType {
			continue
		}
		result = append(result, base64.StdEncoding.EncodeToString(block.Bytes))
	}
	if len(result) == 0 {
		return nil, errors.Join(ErrInvalidCertificate, errNoPEM)
	}
	return result, nil
}
