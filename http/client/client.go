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

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/spf13/pflag"
)

// Client calls the admin API of a running server, as configured by the CLI client config.
type Client struct {
	address string
	doer    core.HTTPRequestDoer
}

// New creates a Client for the server and token in the given config.
func New(cfg core.ClientConfig) (*Client, error) {
	doer, err := core.CreateHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{address: strings.TrimSuffix(cfg.GetAddress(), "/"), doer: doer}, nil
}

// ProblemError is returned when the server responded with an RFC7807 problem.
type ProblemError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

func (p ProblemError) Error() string {
	result := fmt.Sprintf("%s (status=%d", p.Title, p.Status)
	if p.Code != "" {
		result += ", code=" + p.Code
	}
	result += ")"
	if p.Detail != "" {
		result += ": " + p.Detail
	}
	return result
}

// JSON performs a request with the given body marshalled as JSON, and unmarshals the response into result.
// body and result may be nil.
func (c Client) JSON(ctx context.Context, method string, path string, body interface{}, result interface{}, expectedStatus int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	request, err := core.NewJSONRequest(ctx, method, c.address+path, reader)
	if err != nil {
		return err
	}
	responseData, err := c.do(request, expectedStatus)
	if err != nil {
		return err
	}
	if result == nil || len(responseData) == 0 {
		return nil
	}
	if err = json.Unmarshal(responseData, result); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

// Raw performs a request with a body of the given content type, and returns the response body as is.
// It's used for PEM encoded request and response bodies.
func (c Client) Raw(ctx context.Context, method string, path string, contentType string, body []byte, expectedStatus int) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, method, c.address+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	return c.do(request, expectedStatus)
}

func (c Client) do(request *http.Request, expectedStatus int) ([]byte, error) {
	response, err := c.doer.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if err = core.TestResponseCode(expectedStatus, response); err != nil {
		return nil, toProblem(err)
	}
	return io.ReadAll(response.Body)
}

// toProblem converts an unexpected response to a ProblemError if its body is a problem.
func toProblem(err error) error {
	var httpErr core.HttpError
	if !errors.As(err, &httpErr) {
		return err
	}
	var problem ProblemError
	if json.Unmarshal(httpErr.ResponseBody, &problem) != nil || problem.Title == "" {
		return err
	}
	if problem.Status == 0 {
		problem.Status = httpErr.StatusCode
	}
	return problem
}

// NewFromFlags creates a Client from the CLI client flags (see core.ClientConfigFlags) and environment.
func NewFromFlags(flags *pflag.FlagSet) (*Client, error) {
	cfg := core.NewClientConfig()
	if err := cfg.Load(flags); err != nil {
		return nil, err
	}
	return New(*cfg)
}
