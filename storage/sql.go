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
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/storage/log"
	"github.com/nuts-foundation/sqlite"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
)

//go:embed sql_migrations/*.sql
var sqlMigrationsFS embed.FS

const sqlMigrationsDir = "sql_migrations"

// sqlConnectAttempts is the number of times connecting to a remote database is tried before giving up.
var sqlConnectAttempts uint = 5
var sqlConnectRetryDelay = time.Second

// SQLiteInMemoryConnectionString returns a connection string for a new, private, in-memory SQLite database.
func SQLiteInMemoryConnectionString(name string) string {
	return fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
}

func sqliteConnectionString(datadir string) string {
	return "sqlite:file:" + path.Join(datadir, "sqlite.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// sqlDialect contains the database-specific properties needed to connect and migrate.
type sqlDialect struct {
	// name is the goose dialect
	name      string
	dialector gorm.Dialector
	// local indicates the database is embedded, so connecting isn't retried
	local bool
	// env contains the column types substituted in the migration scripts
	env map[string]string
}

var defaultMigrationTypes = map[string]string{
	"TEXT_TYPE":    "text",
	"BOOLEAN_TYPE": "boolean",
}

func resolveSQLDialect(connectionString string) (*sqlDialect, error) {
	dbType, _, found := strings.Cut(connectionString, ":")
	if !found {
		return nil, errors.New("invalid SQL connection string: missing database type")
	}
	switch dbType {
	case "sqlite":
		return &sqlDialect{
			name:      "sqlite3",
			dialector: sqlite.Open(strings.TrimPrefix(connectionString, "sqlite:")),
			local:     true,
			env:       migrationTypes("SEQUENCE_TYPE", "integer primary key autoincrement"),
		}, nil
	case "postgres", "postgresql":
		return &sqlDialect{
			name:      "postgres",
			dialector: postgres.Open(connectionString),
			env:       migrationTypes("SEQUENCE_TYPE", "bigserial primary key"),
		}, nil
	case "mysql":
		return &sqlDialect{
			name:      "mysql",
			dialector: mysql.Open(strings.TrimPrefix(connectionString, "mysql://")),
			env:       migrationTypes("SEQUENCE_TYPE", "bigint not null auto_increment primary key"),
		}, nil
	case "sqlserver":
		env := migrationTypes("SEQUENCE_TYPE", "bigint identity(1,1) primary key")
		env["TEXT_TYPE"] = "varchar(max)"
		env["BOOLEAN_TYPE"] = "bit"
		return &sqlDialect{
			name:      "mssql",
			dialector: sqlserver.Open(connectionString),
			env:       env,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported SQL database type: %s", dbType)
	}
}

func migrationTypes(overrides ...string) map[string]string {
	result := make(map[string]string, len(defaultMigrationTypes))
	for k, v := range defaultMigrationTypes {
		result[k] = v
	}
	for i := 0; i+1 < len(overrides); i += 2 {
		result[overrides[i]] = overrides[i+1]
	}
	return result
}

// openSQLDatabase connects to the database and migrates it to the latest schema version.
func openSQLDatabase(ctx context.Context, connectionString string, slowQueryThreshold time.Duration) (*gorm.DB, error) {
	dialect, err := resolveSQLDialect(connectionString)
	if err != nil {
		return nil, err
	}
	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger: gormLogrusLogger{
			underlying:    log.Logger().WithField(core.LogFieldDatabase, dialect.name),
			slowThreshold: slowQueryThreshold,
		},
	}
	attempts := sqlConnectAttempts
	if dialect.local {
		attempts = 1
	}
	var db *gorm.DB
	err = retry.Do(func() error {
		db, err = gorm.Open(dialect.dialector, gormConfig)
		return err
	},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(sqlConnectRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Logger().WithError(err).Warnf("Unable to connect to SQL database (attempt %d/%d), retrying", n+1, attempts)
		}),
	)
	if err != nil {
		return nil, err
	}
	underlyingDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dialect.local {
		// SQLite allows only 1 writer at a time
		underlyingDB.SetMaxOpenConns(1)
	}
	if err = migrate(dialect, db); err != nil {
		_ = underlyingDB.Close()
		return nil, fmt.Errorf("unable to migrate SQL database: %w", err)
	}
	return db, nil
}

func migrate(dialect *sqlDialect, db *gorm.DB) error {
	underlyingDB, err := db.DB()
	if err != nil {
		return err
	}
	// Migration scripts substitute database-specific column types from the environment
	for key, value := range dialect.env {
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	goose.SetBaseFS(sqlMigrationsFS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(dialect.name); err != nil {
		return err
	}
	return goose.Up(underlyingDB, sqlMigrationsDir)
}

// gooseLogger writes goose output to our logger on debug level
type gooseLogger struct{}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	log.Logger().Fatalf(format, v...)
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	log.Logger().Debugf(strings.TrimSpace(format), v...)
}
