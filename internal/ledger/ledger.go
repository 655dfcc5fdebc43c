// Package ledger records likes and attendances and keeps the denormalized counters of an event in line with them.
// The same logic runs on both storage backends, it only talks to a repos.InteractionRepo
package ledger

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
)

// ErrUnknownKind is returned for interaction kinds other than like and attend
var ErrUnknownKind = errors.New("unknown interaction kind")

// Ledger changes interactions and recomputes the counters of the affected event
type Ledger struct {
	repo   repos.InteractionRepo
	logger *logrus.Entry
}

// New creates a ledger working on the given interaction repository
func New(repo repos.InteractionRepo, logger *logrus.Entry) *Ledger {
	return &Ledger{
		repo:   repo,
		logger: logger,
	}
}

// SetInteraction makes the relationship between user and event present or absent and recounts the event afterwards.
// Only a failure of the relationship change itself fails the call; a failed recount is logged, the counters catch up
// with the next successful one
func (l *Ledger) SetInteraction(eventID, userID string, kind models.InteractionKind, present bool) error {
	if !kind.Valid() {
		return ErrUnknownKind
	}
	logger := l.logger.WithFields(logrus.Fields{
		log.FldEvent: eventID,
		log.FldUser:  userID,
		log.FldKind:  kind,
	})
	if err := l.repo.Set(eventID, userID, kind, present); err != nil {
		if err != repos.ErrEntityNotExisting {
			logger.WithError(err).Error("Failed to change interaction")
		}
		return err
	}
	if err := l.Recount(eventID); err != nil {
		logger.WithError(err).Warn("Interaction changed but the counters could not be updated")
	}
	return nil
}

// Recount reads the likers and attendees of an event and writes the counters derived from them
func (l *Ledger) Recount(eventID string) error {
	likers, err := l.repo.UserIDs(eventID, models.InteractionLike)
	if err != nil {
		return errors.Wrap(err, "Recount: Cannot read likers")
	}
	attendees, err := l.repo.UserIDs(eventID, models.InteractionAttend)
	if err != nil {
		return errors.Wrap(err, "Recount: Cannot read attendees")
	}
	c := models.Counters{
		Likes:     len(likers),
		LikedBy:   models.IDList(likers),
		Attendees: models.IDList(attendees),
	}
	return errors.Wrap(l.repo.SaveCounters(eventID, c), "Recount: Cannot save counters")
}
