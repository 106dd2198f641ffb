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

package cache

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pquerna/cachecontrol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoStore(t *testing.T) {
	e := echo.New()
	e.POST("/token", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, NoStore())
	e.POST("/credential", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, errors.New("invalid"))
	}, NoStore())
	e.GET("/other", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	call := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	t.Run("success", func(t *testing.T) {
		rec := call(http.MethodPost, "/token")

		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
		reasons, _, err := cachecontrol.CachableResponse(httptest.NewRequest(http.MethodGet, "/token", nil), rec.Result(), cachecontrol.Options{PrivateCache: true})
		require.NoError(t, err)
		assert.NotEmpty(t, reasons)
	})
	t.Run("error", func(t *testing.T) {
		rec := call(http.MethodPost, "/credential")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})
	t.Run("other route", func(t *testing.T) {
		rec := call(http.MethodGet, "/other")

		assert.Empty(t, rec.Header().Get("Cache-Control"))
	})
}

func TestMaxAge(t *testing.T) {
	e := echo.New()
	e.GET("/chain", func(c echo.Context) error {
		return c.String(http.StatusOK, "chain")
	}, MaxAge(time.Minute))
	e.GET("/gone", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusGone, "revoked")
	}, MaxAge(time.Minute))
	call := func(path string) (*http.Request, *http.Response) {
		rec := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, path, nil)
		e.ServeHTTP(rec, request)
		return request, rec.Result()
	}

	t.Run("success is cacheable", func(t *testing.T) {
		request, response := call("/chain")

		assert.Equal(t, "max-age=60", response.Header.Get("Cache-Control"))
		reasons, expires, err := cachecontrol.CachableResponse(request, response, cachecontrol.Options{PrivateCache: false})
		require.NoError(t, err)
		assert.Empty(t, reasons)
		assert.WithinDuration(t, time.Now().Add(time.Minute), expires, 5*time.Second)
	})
	t.Run("error is not cached", func(t *testing.T) {
		_, response := call("/gone")

		assert.Equal(t, http.StatusGone, response.StatusCode)
		assert.Empty(t, response.Header.Get("Cache-Control"))
	})
}
