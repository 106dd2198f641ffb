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
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace is the prometheus namespace of metrics exposed by engines.
const MetricsNamespace = "nuts_vci"

// MetricsProvider is implemented by engines that expose prometheus metrics.
type MetricsProvider interface {
	Collectors() []prometheus.Collector
}

// NewMetricsEngine creates a new Engine for exposing prometheus metrics via http.
// Metrics are exposed on /metrics, by default the GoCollector and ProcessCollector are enabled.
// Collectors of engines implementing MetricsProvider are registered as well.
func NewMetricsEngine(system *System) Engine {
	return &metrics{system: system}
}

type metrics struct {
	system     *System
	registered []prometheus.Collector
}

func (e *metrics) Name() string {
	return "Metrics"
}

func (e *metrics) Routes(router EchoRouter) {
	router.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func (e *metrics) Configure(_ ServerConfig) error {
	toRegister := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	if e.system != nil {
		e.system.VisitEngines(func(engine Engine) {
			if provider, ok := engine.(MetricsProvider); ok {
				toRegister = append(toRegister, provider.Collectors()...)
			}
		})
	}
	for _, c := range toRegister {
		if err := prometheus.Register(c); err != nil {
			var alreadyRegistered prometheus.AlreadyRegisteredError
			if errors.As(err, &alreadyRegistered) {
				continue
			}
			return err
		}
		e.registered = append(e.registered, c)
	}
	return nil
}

func (e *metrics) Start() error {
	return nil
}

// Shutdown unregisters the collectors registered by Configure.
func (e *metrics) Shutdown() error {
	for _, c := range e.registered {
		prometheus.Unregister(c)
	}
	e.registered = nil
	return nil
}
