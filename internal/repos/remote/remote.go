// Package remote provides repositories that store their data inside the hosted SQL database. Queries are written
// with "?" placeholders and rebound to the bind style of the driver in use, so SQLite and PostgreSQL both work
package remote

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/1752rissy/enterate/internal/repos"
)

// pqUniqueViolation is the SQLSTATE PostgreSQL reports for unique constraint violations
const pqUniqueViolation = "23505"

// NewBackend creates all remote repositories working on the given database
func NewBackend(db *sqlx.DB, logger *logrus.Entry) repos.Backend {
	return repos.Backend{
		Kind:         repos.KindRemote,
		Events:       NewEventRepo(db, logger),
		Comments:     NewCommentRepo(db, logger),
		Interactions: NewInteractionRepo(db, logger),
		Users:        NewUserRepo(db, logger),
		Points:       NewPointsRepo(db, logger),
	}
}

// Probe checks that the remote store is reachable and has the expected schema by counting the events
func Probe(db *sqlx.DB) (int, error) {
	var n int
	err := db.Get(&n, `SELECT COUNT(*) FROM events`)
	return n, err
}

func now() time.Time {
	return time.Now().UTC()
}

// isUniqueViolation checks the driver error for a violated unique constraint
func isUniqueViolation(err error) bool {
	switch e := errors.Cause(err).(type) {
	case sqlite3.Error:
		return e.ExtendedCode == sqlite3.ErrConstraintUnique || e.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	case *pq.Error:
		return e.Code == pqUniqueViolation
	}
	return false
}

// checkAffected returns ErrEntityNotExisting if the statement did not touch any row
func checkAffected(res interface{ RowsAffected() (int64, error) }) error {
	num, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if num == 0 {
		return repos.ErrEntityNotExisting
	}
	return nil
}
