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

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ logger.Interface = (*gormLogrusLogger)(nil)
var nowFunc = time.Now

// gormLogrusLogger routes gorm's logging to logrus. Queries are logged on debug, slow and failed queries as warning.
type gormLogrusLogger struct {
	underlying *logrus.Entry
	// slowThreshold is the duration after which a query is considered slow. Zero disables slow query logging.
	slowThreshold time.Duration
}

func (g gormLogrusLogger) LogMode(_ logger.LogLevel) logger.Interface {
	// Ignored, level determined by underlying logger
	return g
}

func (g gormLogrusLogger) Info(_ context.Context, msg string, args ...interface{}) {
	g.underlying.Infof(msg, args...)
}

func (g gormLogrusLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	g.underlying.Warnf(msg, args...)
}

func (g gormLogrusLogger) Error(_ context.Context, msg string, args ...interface{}) {
	g.underlying.Errorf(msg, args...)
}

func (g gormLogrusLogger) Trace(_ context.Context, begin time.Time, fn func() (sql string, rowsAffected int64), err error) {
	elapsed := nowFunc().Sub(begin)
	sql, rows := fn()
	entry := g.underlying.WithField("rows", rows)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		entry.WithError(err).Warnf("Query failed (took %s): %s", elapsed, sql)
	case g.slowThreshold > 0 && elapsed >= g.slowThreshold:
		entry.Warnf("Slow query (took %s): %s", elapsed, sql)
	default:
		entry.Debugf("Query (took %s): %s", elapsed, sql)
	}
}
