// Package storage decides which backend serves the domain data and copies the device data into the remote store
// once it is reachable
package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	// SQL drivers selectable in the configuration
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/migrate"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
	"github.com/1752rissy/enterate/internal/repos/remote"
)

// ErrNoRemote is reported when no remote store is configured
var ErrNoRemote = errors.New("no remote store configured")

// Resolve probes the remote store and returns its backend together with the opened database. Whenever the remote
// store cannot be used, fallback is returned and the database is nil. Resolve never fails
func Resolve(ctx context.Context, conf models.RemoteConfig, fallback repos.Backend,
	logger *logrus.Entry) (repos.Backend, *sqlx.DB) {
	db, err := Connect(ctx, conf, logger)
	if err != nil {
		logger.WithError(err).WithField(log.FldBackend, fallback.Kind).Warn("Remote store unavailable - using the device store")
		return fallback, nil
	}
	logger.WithFields(logrus.Fields{
		log.FldBackend: repos.KindRemote,
		log.FldDriver:  conf.Driver,
	}).Info("Connected to the remote store")
	return remote.NewBackend(db, logger), db
}

// Connect opens the remote database, migrates its schema if configured to do so and checks that the events table can
// be read
func Connect(ctx context.Context, conf models.RemoteConfig, logger *logrus.Entry) (*sqlx.DB, error) {
	if conf.DSN == "" {
		return nil, ErrNoRemote
	}
	db, err := sqlx.Open(conf.Driver, conf.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "Connect: Cannot open %s database", conf.Driver)
	}
	timeout := time.Duration(conf.ProbeTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "Connect: Database is not reachable")
	}
	if conf.AutoMigrate {
		if err := migrate.ExecuteMigrationsOnDb(db, logger); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "Connect: Schema migration failed")
		}
	}
	if _, err := remote.Probe(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "Connect: Probe failed")
	}
	return db, nil
}
