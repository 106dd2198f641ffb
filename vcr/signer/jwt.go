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

package signer

import (
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/cert"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/nuts-foundation/nuts-vci/crypto"
)

// JWTType is the typ header of JWT-VC credentials.
const JWTType = "JWT"

// X509Options specifies how the signing key's certificate is referenced from the JWS header.
// When both are set, X5U takes precedence and X5C is omitted.
type X509Options struct {
	// X5U is the URL of the signing key's certificate chain.
	X5U string
	// X5C is the signing key's certificate chain (base64 DER, leaf first).
	X5C []string
}

// IssueJWTCredential signs the claims as compact JWS with header {alg, typ: "JWT"} plus either x5u or x5c.
// The algorithm follows from the key: ES256 for P-256, ES256K for other EC curves, EdDSA for OKP keys.
func IssueJWTCredential(claims map[string]interface{}, key jwk.Key, options X509Options) (string, error) {
	headers := jws.NewHeaders()
	_ = headers.Set(jws.TypeKey, JWTType)
	if options.X5U != "" {
		_ = headers.Set(jws.X509URLKey, options.X5U)
	} else if len(options.X5C) > 0 {
		if err := setCertificateChain(headers, options.X5C); err != nil {
			return "", err
		}
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("unable to marshal credential claims: %w", err)
	}
	return sign(payload, key, headers)
}

func sign(payload []byte, key jwk.Key, headers jws.Headers) (string, error) {
	alg, err := crypto.KeyAlgorithmOf(key)
	if err != nil {
		return "", err
	}
	signed, err := jws.Sign(payload, jws.WithKey(alg, key, jws.WithProtectedHeaders(headers)))
	if err != nil {
		return "", fmt.Errorf("unable to sign credential: %w", err)
	}
	return string(signed), nil
}

func setCertificateChain(headers jws.Headers, x5c []string) error {
	chain := &cert.Chain{}
	for _, certificate := range x5c {
		if err := chain.AddString(certificate); err != nil {
			return fmt.Errorf("invalid x5c entry: %w", err)
		}
	}
	return headers.Set(jws.X509CertChainKey, chain)
}
