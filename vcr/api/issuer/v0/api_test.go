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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-vci/audit"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/vcr"
	"github.com/nuts-foundation/nuts-vci/vcr/issuer"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestWrapper_CreateOffer(t *testing.T) {
	setup := func(t *testing.T) (*vcr.MockIssuer, *echo.Echo) {
		mockIssuer := vcr.NewMockIssuer(gomock.NewController(t))
		e := echo.New()
		e.HTTPErrorHandler = core.CreateHTTPErrorHandler()
		Wrapper{Issuer: mockIssuer}.Routes(e)
		return mockIssuer, e
	}
	do := func(e *echo.Echo, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
		request := httptest.NewRequest(http.MethodPost, OfferPath, strings.NewReader(body))
		request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		recorder := httptest.NewRecorder()
		e.ServeHTTP(recorder, request)
		var result map[string]interface{}
		_ = json.Unmarshal(recorder.Body.Bytes(), &result)
		return recorder, result
	}
	expiresAt := time.Unix(1700000600, 0).UTC()
	offer := openid4vci.GeneratePreAuthCredentialOffer("https://issuer.example.com", []string{"UniversityDegree"}, "code", nil)

	t.Run("ok", func(t *testing.T) {
		mockIssuer, e := setup(t)
		needsProof := false
		mockIssuer.EXPECT().CreateOffer(audit.ContextWithAuditInfo(), issuer.OfferRequest{
			CredentialConfigurationIDs: []string{"UniversityDegree"},
			Claims:                     map[string]interface{}{"name": "Alice"},
			RequirePIN:                 true,
			NeedsProof:                 &needsProof,
		}).Return(&issuer.Offer{Offer: offer, URL: "openid-credential-offer://?credential_offer=x", PIN: "123456", ExpiresAt: expiresAt}, nil)

		recorder, body := do(e, `{"credential_configuration_ids":["UniversityDegree"],"claims":{"name":"Alice"},"require_pin":true,"needs_proof":false}`)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "openid-credential-offer://?credential_offer=x", body["url"])
		assert.Equal(t, "123456", body["pin"])
		assert.Equal(t, "2023-11-14T22:23:20Z", body["expires_at"])
		assert.Equal(t, "https://issuer.example.com", body["offer"].(map[string]interface{})["credential_issuer"])
	})
	t.Run("without PIN", func(t *testing.T) {
		mockIssuer, e := setup(t)
		mockIssuer.EXPECT().CreateOffer(gomock.Any(), issuer.OfferRequest{CredentialConfigurationIDs: []string{"UniversityDegree"}}).
			Return(&issuer.Offer{Offer: offer, URL: "url", ExpiresAt: expiresAt}, nil)

		recorder, body := do(e, `{"credential_configuration_ids":["UniversityDegree"]}`)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.NotContains(t, body, "pin")
	})
	t.Run("missing credential configuration ids", func(t *testing.T) {
		_, e := setup(t)

		recorder, body := do(e, `{"claims":{}}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "INVALID_PARAMETER", body["code"])
		assert.Equal(t, "CreateOffer failed", body["title"])
	})
	t.Run("empty credential configuration id", func(t *testing.T) {
		_, e := setup(t)

		recorder, body := do(e, `{"credential_configuration_ids":[""]}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "INVALID_PARAMETER", body["code"])
	})
	t.Run("malformed body", func(t *testing.T) {
		_, e := setup(t)

		recorder, body := do(e, `{`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "INVALID_PARAMETER", body["code"])
	})
	t.Run("invalid offer request", func(t *testing.T) {
		mockIssuer, e := setup(t)
		mockIssuer.EXPECT().CreateOffer(gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("%w: no credential configuration ids", issuer.ErrInvalidOfferRequest))

		recorder, body := do(e, `{"credential_configuration_ids":["UniversityDegree"]}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "INVALID_PARAMETER", body["code"])
	})
	t.Run("unexpected error", func(t *testing.T) {
		mockIssuer, e := setup(t)
		mockIssuer.EXPECT().CreateOffer(gomock.Any(), gomock.Any()).Return(nil, errors.New("database is down"))

		recorder, body := do(e, `{"credential_configuration_ids":["UniversityDegree"]}`)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.Equal(t, "INTERNAL_ERROR", body["code"])
		assert.NotContains(t, recorder.Body.String(), "database")
	})
}
