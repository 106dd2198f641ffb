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

package vcr

import (
	"time"

	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
)

// ModuleName is the name of this module.
const ModuleName = "Issuer"

// Config holds the config for the credential issuer engine
type Config struct {
	// Identifier is the Credential Issuer Identifier. Defaults to the server URL.
	Identifier string `koanf:"identifier"`
	// AnonymousAccess allows wallets to present proofs without iss in the pre-authorized code flow.
	AnonymousAccess bool `koanf:"anonymousaccess"`
	// PreAuthorizedCode contains the settings for created pre-authorized codes.
	PreAuthorizedCode PreAuthorizedCodeConfig `koanf:"preauthorizedcode"`
	// AccessTokenTTL is the lifetime of access tokens.
	AccessTokenTTL time.Duration `koanf:"accesstokenttl"`
	// CNonceTTL is the lifetime of c_nonces.
	CNonceTTL time.Duration `koanf:"cnoncettl"`
	// Credential contains the settings for issued credentials.
	Credential CredentialConfig `koanf:"credential"`
	// OfferEndpoint is the scheme or wallet endpoint credential offers are encoded for.
	OfferEndpoint string `koanf:"offerendpoint"`
}

// PreAuthorizedCodeConfig contains the settings for pre-authorized codes.
type PreAuthorizedCodeConfig struct {
	// TTL is the lifetime of a pre-authorized code.
	TTL time.Duration `koanf:"ttl"`
	// SingleUse makes codes without PIN single-use as well.
	SingleUse bool `koanf:"singleuse"`
	// NeedsProof is the default for requiring a proof of possession for credentials issued for a code.
	NeedsProof bool `koanf:"needsproof"`
	// TxCodeLength is the number of digits of generated PINs.
	TxCodeLength int `koanf:"txcodelength"`
	// MaxPINAttempts is the number of times a PIN may be presented for a code, after which it's locked. 0 disables the limit.
	MaxPINAttempts int `koanf:"maxpinattempts"`
}

// CredentialConfig contains the settings for issued credentials.
type CredentialConfig struct {
	// Validity is the time between iat and exp.
	Validity time.Duration `koanf:"validity"`
	// X5U is put in the JWS header of JWT-VC credentials instead of the certificate chain, when set.
	X5U string `koanf:"x5u"`
}

// DefaultConfig returns a fresh Config filled with default values
func DefaultConfig() Config {
	return Config{
		PreAuthorizedCode: PreAuthorizedCodeConfig{
			TTL:            10 * time.Minute,
			SingleUse:      true,
			NeedsProof:     true,
			TxCodeLength:   6,
			MaxPINAttempts: 5,
		},
		AccessTokenTTL: 15 * time.Minute,
		CNonceTTL:      5 * time.Minute,
		Credential: CredentialConfig{
			Validity: 365 * 24 * time.Hour,
		},
		OfferEndpoint: openid4vci.DefaultOfferScheme,
	}
}
