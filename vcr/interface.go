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
	"context"

	"github.com/nuts-foundation/nuts-vci/keys"
	"github.com/nuts-foundation/nuts-vci/vcr/issuer"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
)

// Issuer is the OpenID4VCI credential issuer, as used by the HTTP APIs.
type Issuer interface {
	// Identifier returns the Credential Issuer Identifier.
	Identifier() string
	// HandleTokenRequest redeems a pre-authorized code for an access token.
	HandleTokenRequest(ctx context.Context, request openid4vci.TokenRequest) (*openid4vci.TokenResponse, error)
	// HandleCredentialRequest issues a credential to the holder of the access token in the Authorization header.
	HandleCredentialRequest(ctx context.Context, authorization string, request openid4vci.CredentialRequest) (*openid4vci.CredentialResponse, error)
	// CreateOffer creates a pre-authorized credential offer.
	CreateOffer(ctx context.Context, request issuer.OfferRequest) (*issuer.Offer, error)
	// Keys returns the manager of the signing keys.
	Keys() keys.Manager
}
