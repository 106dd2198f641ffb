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
	"fmt"
	"testing"

	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func Test_errorCodeLabel(t *testing.T) {
	t.Run("protocol error", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", openid4vci.NewError(openid4vci.InvalidGrant, "wrong code"))

		assert.Equal(t, "invalid_grant", errorCodeLabel(err))
	})
	t.Run("other error", func(t *testing.T) {
		assert.Equal(t, "unexpected_error", errorCodeLabel(errors.New("failed")))
	})
}

func TestCollectors(t *testing.T) {
	before := testutil.ToFloat64(tokenRequestsCounter.WithLabelValues("invalid_grant"))

	tokenRequestsCounter.WithLabelValues(errorCodeLabel(openid4vci.NewError(openid4vci.InvalidGrant, ""))).Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(tokenRequestsCounter.WithLabelValues("invalid_grant")))
	assert.Len(t, Collectors(), 3)
}
