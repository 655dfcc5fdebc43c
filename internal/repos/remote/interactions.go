package remote

import (
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
)

// InteractionRepo stores interactions as rows of the event_interactions table
type InteractionRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// NewInteractionRepo creates a new interaction repository instance
func NewInteractionRepo(db *sqlx.DB, logger *logrus.Entry) *InteractionRepo {
	return &InteractionRepo{
		db:     db,
		logger: logger,
	}
}

// Set inserts (ignoring an existing row) or deletes the interaction row
func (r *InteractionRepo) Set(eventID, userID string, kind models.InteractionKind, present bool) error {
	if err := eventExists(r.db, eventID); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{
		log.FldEvent: eventID,
		log.FldUser:  userID,
		log.FldKind:  kind,
	}).Debugf("Setting interaction to %v", present)
	if present {
		query := `INSERT INTO event_interactions(event_id, user_id, interaction_type, created_at) VALUES(?, ?, ?, ?)
            ON CONFLICT(event_id, user_id, interaction_type) DO NOTHING`
		_, err := r.db.Exec(r.db.Rebind(query), eventID, userID, string(kind), now())
		return err
	}
	query := `DELETE FROM event_interactions WHERE event_id = ? AND user_id = ? AND interaction_type = ?`
	_, err := r.db.Exec(r.db.Rebind(query), eventID, userID, string(kind))
	return err
}

// UserIDs lists the users having the interaction with the event in the order the rows were created
func (r *InteractionRepo) UserIDs(eventID string, kind models.InteractionKind) ([]string, error) {
	ids := []string{}
	query := `SELECT user_id FROM event_interactions WHERE event_id = ? AND interaction_type = ?
        ORDER BY created_at ASC, user_id ASC`
	if err := r.db.Select(&ids, r.db.Rebind(query), eventID, string(kind)); err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveCounters overwrites the denormalized counters of the event row
func (r *InteractionRepo) SaveCounters(eventID string, c models.Counters) error {
	likedBy := c.LikedBy
	if likedBy == nil {
		likedBy = models.IDList{}
	}
	attendees := c.Attendees
	if attendees == nil {
		attendees = models.IDList{}
	}
	query := `UPDATE events SET likes = ?, liked_by = ?, attendees = ? WHERE id = ?`
	res, err := r.db.Exec(r.db.Rebind(query), c.Likes, likedBy, attendees, eventID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
