// Package migrate handles SQL schema migration for the remote Entérate database. The statements are kept portable
// between SQLite and PostgreSQL
package migrate

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var migrations []dbMigration

type dbMigration struct {
	Version uint
	Queries []string
}

func markMigration(db *sqlx.DB, version uint, success int) {
	db.Exec(db.Rebind(`INSERT INTO migrations(version, success) VALUES(?, ?)
        ON CONFLICT(version) DO UPDATE SET success = excluded.success`), version, success)
}

// Execute runs the current DB migration on the given database
func (mig *dbMigration) Execute(db *sqlx.DB, logger *logrus.Entry) error {
	// Check if the migration has already run
	var success int
	err := db.QueryRow(db.Rebind(`SELECT success FROM migrations WHERE version = ?`), mig.Version).Scan(&success)
	if err != nil && err != sql.ErrNoRows {
		logger.WithError(err).Error("Failed to fetch version information")
		return err
	}
	if success == 1 {
		return nil
	}
	logger.Infof("Executing DB migration #%d", mig.Version)
	for i, query := range mig.Queries {
		logger.Debugf("Query %d of %d...", (i + 1), len(mig.Queries))
		if _, err := db.Exec(query); err != nil {
			logger.WithError(err).Errorf("Query #%d failed", (i + 1))
			markMigration(db, mig.Version, 0)
			return err
		}
	}
	markMigration(db, mig.Version, 1)
	return nil
}

// ExecuteMigrationsOnDb executes the database migrations on the given database instance
func ExecuteMigrationsOnDb(db *sqlx.DB, logger *logrus.Entry) error {
	// Create the migrations table if it does not exist, yet
	query := `CREATE TABLE IF NOT EXISTS migrations (
                version   INTEGER NOT NULL,
                success   INTEGER NOT NULL DEFAULT 0,
                PRIMARY KEY(version)
            )`
	if _, err := db.Exec(query); err != nil {
		logger.WithError(err).Error("Failed to create migrations table")
		return err
	}
	for _, mig := range migrations {
		if err := mig.Execute(db, logger); err != nil {
			logger.WithError(err).Errorf("Failed to execute migration #%d", mig.Version)
			return err
		}
	}
	return nil
}

func init() {
	migrations = []dbMigration{
		{
			Version: 1,
			Queries: []string{
				`CREATE TABLE IF NOT EXISTS events (
                    id VARCHAR(64) NOT NULL PRIMARY KEY,
                    title VARCHAR(200) NOT NULL DEFAULT '',
                    description TEXT NOT NULL DEFAULT '',
                    date VARCHAR(10) NOT NULL DEFAULT '',
                    time VARCHAR(5) NOT NULL DEFAULT '',
                    end_time VARCHAR(5) NOT NULL DEFAULT '',
                    location VARCHAR(255) NOT NULL DEFAULT '',
                    category VARCHAR(64) NOT NULL DEFAULT '',
                    image_url TEXT NOT NULL DEFAULT '',
                    price DOUBLE PRECISION NOT NULL DEFAULT 0,
                    organizer_name VARCHAR(128) NOT NULL DEFAULT '',
                    created_by VARCHAR(64) NOT NULL DEFAULT '',
                    likes INTEGER NOT NULL DEFAULT 0,
                    liked_by TEXT NOT NULL DEFAULT '[]',
                    attendees TEXT NOT NULL DEFAULT '[]',
                    created_at TIMESTAMP NOT NULL,
                    updated_at TIMESTAMP NULL
                )`,
				`CREATE TABLE IF NOT EXISTS comments (
                    id VARCHAR(64) NOT NULL PRIMARY KEY,
                    event_id VARCHAR(64) NOT NULL REFERENCES events(id),
                    user_id VARCHAR(64) NOT NULL,
                    user_name VARCHAR(128) NOT NULL DEFAULT '',
                    user_profile_image TEXT NOT NULL DEFAULT '',
                    content TEXT NOT NULL,
                    created_at TIMESTAMP NOT NULL
                )`,
				`CREATE TABLE IF NOT EXISTS event_interactions (
                    event_id VARCHAR(64) NOT NULL REFERENCES events(id),
                    user_id VARCHAR(64) NOT NULL,
                    interaction_type VARCHAR(16) NOT NULL,
                    created_at TIMESTAMP NOT NULL,
                    UNIQUE(event_id, user_id, interaction_type)
                )`,
				`CREATE TABLE IF NOT EXISTS users (
                    id VARCHAR(64) NOT NULL PRIMARY KEY,
                    name VARCHAR(128) NOT NULL DEFAULT '',
                    email VARCHAR(255) NOT NULL UNIQUE,
                    profile_image TEXT NOT NULL DEFAULT '',
                    role VARCHAR(16) NOT NULL DEFAULT 'user',
                    created_at TIMESTAMP NOT NULL
                )`,
				`CREATE INDEX IF NOT EXISTS idx_comments_event ON comments (event_id, created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_events_created ON events (created_at)`,
			},
		},
		{
			Version: 2,
			Queries: []string{
				`ALTER TABLE events ADD COLUMN points INTEGER NOT NULL DEFAULT 0`,
				`CREATE TABLE IF NOT EXISTS event_points (
                    user_id VARCHAR(64) NOT NULL,
                    event_id VARCHAR(64) NOT NULL,
                    points INTEGER NOT NULL DEFAULT 0,
                    awarded_at TIMESTAMP NOT NULL,
                    UNIQUE(user_id, event_id)
                )`,
			},
		},
		{
			Version: 3,
			Queries: []string{
				`ALTER TABLE users ADD COLUMN requested_role VARCHAR(16) NOT NULL DEFAULT ''`,
				`ALTER TABLE users ADD COLUMN approval_status VARCHAR(16) NOT NULL DEFAULT ''`,
				`ALTER TABLE users ADD COLUMN password_hash VARCHAR(255) NOT NULL DEFAULT ''`,
				`CREATE INDEX IF NOT EXISTS idx_users_approval ON users (approval_status)`,
			},
		},
	}
}
