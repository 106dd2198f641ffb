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
	"errors"

	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "nuts_vci"
const resultOK = "ok"

var tokenRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: metricsNamespace,
	Subsystem: "issuer",
	Name:      "token_requests_total",
	Help:      "Number of token requests handled, by result (ok or error code).",
}, []string{"result"})

var credentialRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: metricsNamespace,
	Subsystem: "issuer",
	Name:      "credential_requests_total",
	Help:      "Number of credential requests handled, by requested format and result (ok or error code).",
}, []string{"format", "result"})

var offersCounter = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: metricsNamespace,
	Subsystem: "issuer",
	Name:      "offers_total",
	Help:      "Number of credential offers created.",
})

// Collectors returns the prometheus collectors of the issuer.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{tokenRequestsCounter, credentialRequestsCounter, offersCounter}
}

func errorCodeLabel(err error) string {
	var protocolErr openid4vci.Error
	if errors.As(err, &protocolErr) {
		return string(protocolErr.Code)
	}
	return string(openid4vci.UnexpectedError)
}
