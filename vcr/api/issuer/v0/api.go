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

package v0

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-vci/core"
	httpNuts "github.com/nuts-foundation/nuts-vci/http"
	"github.com/nuts-foundation/nuts-vci/http/cache"
	"github.com/nuts-foundation/nuts-vci/vcr"
	"github.com/nuts-foundation/nuts-vci/vcr/issuer"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
)

const moduleName = vcr.ModuleName + "/Admin"

// OfferPath is the path credential offers are created on.
const OfferPath = "/internal/issuer/v0/offer"

// CreateOfferRequest is the request body for creating a credential offer.
type CreateOfferRequest struct {
	CredentialConfigurationIDs []string               `json:"credential_configuration_ids" validate:"required,min=1,dive,required"`
	Claims                     map[string]interface{} `json:"claims"`
	RequirePIN                 bool                   `json:"require_pin"`
	// NeedsProof overrides the configured default when set.
	NeedsProof *bool `json:"needs_proof,omitempty"`
}

// CreateOfferResponse contains the created offer and its URL. The PIN is only set for PIN protected offers.
type CreateOfferResponse struct {
	Offer     openid4vci.CredentialOffer `json:"offer"`
	URL       string                     `json:"url"`
	PIN       string                     `json:"pin,omitempty"`
	ExpiresAt time.Time                  `json:"expires_at"`
}

var _ core.ErrorStatusCodeResolver = (*Wrapper)(nil)
var _ core.ErrorWriter = (*Wrapper)(nil)

// Wrapper serves the credential offer administration API.
type Wrapper struct {
	Issuer vcr.Issuer
}

// Routes registers the API routes
func (w Wrapper) Routes(router core.EchoRouter) {
	router.POST(OfferPath, w.CreateOffer, cache.NoStore(), func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			httpNuts.Preprocess(ctx, w, moduleName, "CreateOffer")
			return next(ctx)
		}
	})
}

// ResolveStatusCode maps errors returned by this API to status codes.
func (w Wrapper) ResolveStatusCode(err error) int {
	return core.ResolveStatusCode(err, map[error]int{
		issuer.ErrInvalidOfferRequest: http.StatusBadRequest,
	})
}

func (w Wrapper) Write(echoContext echo.Context, statusCode int, title string, err error) error {
	return httpNuts.WriteAdminProblem(echoContext, statusCode, title, err)
}

// CreateOffer creates a pre-authorized credential offer.
func (w Wrapper) CreateOffer(ctx echo.Context) error {
	var request CreateOfferRequest
	if err := httpNuts.BindAndValidate(ctx, &request); err != nil {
		return err
	}
	offer, err := w.Issuer.CreateOffer(ctx.Request().Context(), issuer.OfferRequest{
		CredentialConfigurationIDs: request.CredentialConfigurationIDs,
		Claims:                     request.Claims,
		RequirePIN:                 request.RequirePIN,
		NeedsProof:                 request.NeedsProof,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, CreateOfferResponse{
		Offer:     offer.Offer,
		URL:       offer.URL,
		PIN:       offer.PIN,
		ExpiresAt: offer.ExpiresAt,
	})
}
