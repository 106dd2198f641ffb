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

package core

import (
	"fmt"
	"strings"
)

// DiagnosticResult is the outcome of a single health or status check of an engine.
type DiagnosticResult interface {
	// Name returns a simple and understandable name of the check
	Name() string
	// Result returns the raw outcome, used when rendering as JSON
	Result() interface{}
	// String returns the outcome of the check formatted as string
	String() string
}

// GenericDiagnosticResult is a DiagnosticResult holding a single value.
type GenericDiagnosticResult struct {
	Title   string
	Outcome interface{}
}

func (r *GenericDiagnosticResult) Name() string {
	return r.Title
}

func (r *GenericDiagnosticResult) Result() interface{} {
	return r.Outcome
}

func (r *GenericDiagnosticResult) String() string {
	return fmt.Sprintf("%v", r.Outcome)
}

// NestedDiagnosticResult groups diagnostics of a sub-component, e.g. a database connection pool.
type NestedDiagnosticResult struct {
	Title   string
	Outcome []DiagnosticResult
}

func (r *NestedDiagnosticResult) Name() string {
	return r.Title
}

func (r *NestedDiagnosticResult) Result() interface{} {
	return DiagnosticResultMap(r.Outcome)
}

func (r *NestedDiagnosticResult) String() string {
	parts := make([]string, 0, len(r.Outcome))
	for _, d := range r.Outcome {
		parts = append(parts, d.Name()+"="+d.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// DiagnosticResultMap converts diagnostics into a map, suitable for JSON and YAML rendering.
func DiagnosticResultMap(results []DiagnosticResult) map[string]interface{} {
	m := make(map[string]interface{}, len(results))
	for _, r := range results {
		m[r.Name()] = r.Result()
	}
	return m
}
