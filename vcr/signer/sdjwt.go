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
	gocrypto "crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose"
	sdissuer "github.com/hyperledger/aries-framework-go/component/models/sdjwt/issuer"
	sdverifier "github.com/hyperledger/aries-framework-go/component/models/sdjwt/verifier"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/nuts-foundation/nuts-vci/crypto"
)

const (
	// SDJWTType is the typ header of SD-JWT VC credentials.
	SDJWTType = "vc+sd-jwt"
	// SDKey is the payload claim holding the disclosure digests.
	SDKey = "_sd"
	// SDAlgorithmKey is the payload claim holding the digest algorithm.
	SDAlgorithmKey = "_sd_alg"
	// SDAlgorithm is the only supported disclosure digest algorithm.
	SDAlgorithm = "sha-256"

	disclosureSeparator = "~"
	x5cHeader           = "x5c"
)

// ErrInvalidSDJWT is returned when an SD-JWT can't be verified.
var ErrInvalidSDJWT = errors.New("invalid SD-JWT")

// plainClaims are never made selectively disclosable.
var plainClaims = []string{"iss", "iat", "cnf", "vct", "nbf", "exp", "aud", "jti"}

// issuerSigningAlgorithms are the algorithms accepted for the issuer signature when verifying.
var issuerSigningAlgorithms = []string{jwa.ES256.String(), jwa.ES256K.String(), jwa.EdDSA.String()}

// IssueFlatCredential issues an SD-JWT where every top-level claim, except the registered/structural ones
// (iss, iat, cnf, vct, nbf, exp, aud, jti), is selectively disclosable.
// The x5c chain is put in the header when non-empty.
func IssueFlatCredential(claims map[string]interface{}, key jwk.Key, x5c []string) (string, error) {
	var frame []string
	for name := range claims {
		if !slices.Contains(plainClaims, name) {
			frame = append(frame, name)
		}
	}
	return IssueCredentialCore(claims, frame, key, x5c)
}

// IssueCredentialCore issues an SD-JWT in the form <jwt>~<disclosure 1>~...~<disclosure n>~.
// The claims named by disclosureFrame are replaced by their digests in the payload's _sd array.
func IssueCredentialCore(payload map[string]interface{}, disclosureFrame []string, key jwk.Key, x5c []string) (string, error) {
	claims := make(map[string]interface{}, len(payload))
	var nonSelective []string
	for name, value := range payload {
		claims[name] = value
		if !slices.Contains(disclosureFrame, name) {
			nonSelective = append(nonSelective, name)
		}
	}
	signer, err := newJoseSigner(key)
	if err != nil {
		return "", err
	}
	headers := jose.Headers{jose.HeaderType: SDJWTType}
	if len(x5c) > 0 {
		if err = validateCertificateChain(x5c); err != nil {
			return "", err
		}
		headers[x5cHeader] = x5c
	}
	token, err := sdissuer.New("", claims, headers, signer,
		sdissuer.WithNonSelectivelyDisclosableClaims(nonSelective),
		sdissuer.WithHashAlgorithm(gocrypto.SHA256))
	if err != nil {
		return "", fmt.Errorf("unable to create SD-JWT: %w", err)
	}
	combined, err := token.Serialize(false)
	if err != nil {
		return "", fmt.Errorf("unable to serialize SD-JWT: %w", err)
	}
	// no key binding: the combined format ends with a separator
	return combined + disclosureSeparator, nil
}

// VerifySDJWT verifies the issuer signature of an SD-JWT and all its disclosures, returning the reconstructed claims.
func VerifySDJWT(combined string, publicKey jwk.Key) (map[string]interface{}, error) {
	parts := strings.Split(combined, disclosureSeparator)
	if len(parts) < 2 || parts[len(parts)-1] != "" {
		return nil, fmt.Errorf("%w: expected <jwt>~[<disclosure>~]*", ErrInvalidSDJWT)
	}
	verifier, err := newJoseVerifier(publicKey)
	if err != nil {
		return nil, err
	}
	claims, err := sdverifier.Parse(combined,
		sdverifier.WithSignatureVerifier(verifier),
		sdverifier.WithIssuerSigningAlgorithms(issuerSigningAlgorithms))
	if err != nil {
		return nil, errors.Join(ErrInvalidSDJWT, err)
	}
	return claims, nil
}

// validateCertificateChain checks every x5c entry is standard base64 encoded DER.
func validateCertificateChain(x5c []string) error {
	for _, certificate := range x5c {
		if _, err := base64.StdEncoding.DecodeString(certificate); err != nil {
			return fmt.Errorf("invalid x5c entry: %w", err)
		}
	}
	return nil
}

// joseSigner signs SD-JWTs with a JWK.
type joseSigner struct {
	alg    jwa.SignatureAlgorithm
	signer jws.Signer
	key    interface{}
}

func newJoseSigner(key jwk.Key) (*joseSigner, error) {
	alg, err := crypto.KeyAlgorithmOf(key)
	if err != nil {
		return nil, err
	}
	signer, err := jws.NewSigner(alg)
	if err != nil {
		return nil, fmt.Errorf("unable to sign credential: %w", err)
	}
	var raw interface{}
	if err = key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("unable to sign credential: %w", err)
	}
	return &joseSigner{alg: alg, signer: signer, key: raw}, nil
}

func (s joseSigner) Sign(data []byte) ([]byte, error) {
	signature, err := s.signer.Sign(data, s.key)
	if err != nil {
		return nil, fmt.Errorf("unable to sign credential: %w", err)
	}
	return signature, nil
}

func (s joseSigner) Headers() jose.Headers {
	return jose.Headers{jose.HeaderAlgorithm: s.alg.String()}
}

// joseVerifier verifies issuer signatures of SD-JWTs against a public JWK.
type joseVerifier struct {
	alg      jwa.SignatureAlgorithm
	verifier jws.Verifier
	key      interface{}
}

func newJoseVerifier(publicKey jwk.Key) (*joseVerifier, error) {
	alg, err := crypto.KeyAlgorithmOf(publicKey)
	if err != nil {
		return nil, err
	}
	verifier, err := jws.NewVerifier(alg)
	if err != nil {
		return nil, errors.Join(ErrInvalidSDJWT, err)
	}
	var raw interface{}
	if err = publicKey.Raw(&raw); err != nil {
		return nil, errors.Join(ErrInvalidSDJWT, err)
	}
	return &joseVerifier{alg: alg, verifier: verifier, key: raw}, nil
}

func (v joseVerifier) Verify(joseHeaders jose.Headers, _, signingInput, signature []byte) error {
	alg, ok := joseHeaders.Algorithm()
	if !ok {
		return errors.New("alg is not defined")
	}
	if alg != v.alg.String() {
		return fmt.Errorf("alg %s doesn't match key algorithm %s", alg, v.alg)
	}
	return v.verifier.Verify(signingInput, signature, v.key)
}
