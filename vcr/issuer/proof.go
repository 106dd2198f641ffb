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

package issuer

import (
	"crypto/subtle"
	"slices"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/nuts-vci/crypto"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
)

// maxIatSkew is how far the iat of a proof may be in the future.
const maxIatSkew = 5 * time.Second

const nonceClaim = "nonce"

// Reasons returned in the error_description of invalid_or_missing_proof errors.
const (
	reasonMissingProof    = "Missing proof"
	reasonUnsupportedType = "Unsupported proof type"
	reasonMissingJWK      = "Missing JWK in JWT header"
	reasonInvalidJWT      = "Failed to verify JWT"
	reasonInvalidIss      = "Failed to verify iss"
	reasonInvalidIat      = "Failed to verify iat"
	reasonInvalidNonce    = "Failed to verify nonce"
	reasonNonceExpired    = "The c_nonce expired"
)

// ProofOfPossession is a validated proof JWT: the wallet signed it with the key in its header.
type ProofOfPossession struct {
	Header  ProofHeader
	Payload ProofPayload
}

// ProofHeader contains the validated JOSE header of the proof.
type ProofHeader struct {
	Alg jwa.SignatureAlgorithm
	// JWK is the public key of the holder, which is bound to the issued credential (cnf.jwk).
	JWK jwk.Key
}

// ProofPayload contains the validated claims of the proof.
type ProofPayload struct {
	// Iss is the client ID of the wallet, empty for anonymous wallets.
	Iss      string
	Aud      []string
	IssuedAt time.Time
	Nonce    string
}

// ProofValidator validates proofs of possession for a credential issuer.
type ProofValidator struct {
	// CredentialIssuer is the identifier the proof's aud must contain.
	CredentialIssuer string
	// AnonymousAccess allows proofs without iss in the pre-authorized code flow.
	AnonymousAccess bool
}

// Validate validates the proof against the code it is presented for and the latest nonce issued for the access token.
// A failing check returns an invalid_or_missing_proof error with the reason as description.
func (v ProofValidator) Validate(proof *openid4vci.Proof, code AuthorizedCode, nonce *CNonce) (*ProofOfPossession, error) {
	if proof == nil {
		return nil, proofError(reasonMissingProof, nil)
	}
	if proof.ProofType != openid4vci.ProofTypeJWT {
		return nil, proofError(reasonUnsupportedType, nil)
	}
	message, err := jws.ParseString(proof.JWT)
	if err != nil {
		return nil, proofError(reasonInvalidJWT, err)
	}
	if len(message.Signatures()) != 1 {
		return nil, proofError(reasonInvalidJWT, nil)
	}
	headers := message.Signatures()[0].ProtectedHeaders()
	if headers.JWK() == nil {
		return nil, proofError(reasonMissingJWK, nil)
	}
	alg := headers.Algorithm()
	if !slices.Contains(crypto.SupportedAlgorithms, alg) {
		return nil, proofError(reasonInvalidJWT, nil)
	}
	publicKey, err := headers.JWK().PublicKey()
	if err != nil {
		return nil, proofError(reasonInvalidJWT, err)
	}
	// claims are validated below, since the iat check allows a skew in one direction only
	token, err := jwt.ParseString(proof.JWT, jwt.WithKey(alg, publicKey), jwt.WithValidate(false))
	if err != nil {
		return nil, proofError(reasonInvalidJWT, err)
	}
	if !slices.Contains(token.Audience(), v.CredentialIssuer) {
		return nil, proofError(reasonInvalidJWT, nil)
	}
	if token.Issuer() == "" && !(code.PreAuthorizedFlow && v.AnonymousAccess) {
		return nil, proofError(reasonInvalidIss, nil)
	}
	if token.IssuedAt().IsZero() || token.IssuedAt().After(timeFunc().Add(maxIatSkew)) {
		return nil, proofError(reasonInvalidIat, nil)
	}
	nonceValue, _ := token.PrivateClaims()[nonceClaim].(string)
	if nonce == nil || nonceValue == "" || subtle.ConstantTimeCompare([]byte(nonceValue), []byte(nonce.Nonce)) != 1 {
		return nil, proofError(reasonInvalidNonce, nil)
	}
	if !timeFunc().Before(nonce.ExpiresAt()) {
		return nil, proofError(reasonNonceExpired, nil)
	}
	return &ProofOfPossession{
		Header: ProofHeader{Alg: alg, JWK: publicKey},
		Payload: ProofPayload{
			Iss:      token.Issuer(),
			Aud:      token.Audience(),
			IssuedAt: token.IssuedAt(),
			Nonce:    nonceValue,
		},
	}, nil
}

func proofError(reason string, cause error) error {
	result := openid4vci.NewError(openid4vci.InvalidOrMissingProof, reason)
	result.Err = cause
	return result
}
