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

const (
	// PreAuthorizedCodeGrant is the grant type of the pre-authorized code flow.
	PreAuthorizedCodeGrant = "urn:ietf:params:oauth:grant-type:pre-authorized_code"
	// TokenTypeBearer is the token_type of issued access tokens.
	TokenTypeBearer = "bearer"
	// ProofTypeJWT is the only supported proof type.
	ProofTypeJWT = "jwt"
	// JWTVCJSONFormat is the format identifier for W3C credentials signed as JWT.
	JWTVCJSONFormat = "jwt_vc_json"
	// SDJWTVCFormat is the format identifier for SD-JWT VC credentials.
	SDJWTVCFormat = "vc+sd-jwt"
	// ProofJWTType is the typ header value of proof-of-possession JWTs. It's accepted, not required.
	ProofJWTType = "openid4vci-proof+jwt"
	// DefaultOfferScheme is the URL scheme wallets register for credential offers.
	DefaultOfferScheme = "openid-credential-offer://"
)

// TokenRequest is the (form encoded) token request of the pre-authorized code flow.
type TokenRequest struct {
	GrantType         string
	PreAuthorizedCode string
	// UserPIN is nil when the client didn't send a PIN (user_pin or its successor tx_code).
	UserPIN *string
}

// TokenResponse is the response of the token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	// CNonce is only set when the credential request requires a proof of possession.
	CNonce          *string `json:"c_nonce,omitempty"`
	CNonceExpiresIn *int    `json:"c_nonce_expires_in,omitempty"`
}

// CredentialRequest is the request body of the credential endpoint.
type CredentialRequest struct {
	Format               string                `json:"format"`
	CredentialDefinition *CredentialDefinition `json:"credential_definition,omitempty"`
	// VCT is the requested SD-JWT VC type.
	VCT   string `json:"vct,omitempty"`
	Proof *Proof `json:"proof,omitempty"`
}

// CredentialDefinition describes the requested W3C credential.
type CredentialDefinition struct {
	Context           []string               `json:"@context,omitempty"`
	Type              []string               `json:"type"`
	CredentialSubject map[string]interface{} `json:"credentialSubject"`
}

// Proof is the proof of possession of the holder's key.
type Proof struct {
	ProofType string `json:"proof_type"`
	JWT       string `json:"jwt"`
}

// CredentialResponse is the response of the credential endpoint.
type CredentialResponse struct {
	Format          string  `json:"format"`
	Credential      string  `json:"credential"`
	CNonce          *string `json:"c_nonce,omitempty"`
	CNonceExpiresIn *int    `json:"c_nonce_expires_in,omitempty"`
}
