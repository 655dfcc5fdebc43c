package remote

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
)

const (
	eventFields = `title, description, date, time, end_time, location, category, image_url, price, organizer_name,
        created_by, points, likes, liked_by, attendees, created_at, updated_at`
	commentFields = `event_id, user_id, user_name, user_profile_image, content, created_at`
)

// EventRepo is an event repository working on the remote database
type EventRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// NewEventRepo creates a new event repository instance with the given database and logger
func NewEventRepo(db *sqlx.DB, logger *logrus.Entry) *EventRepo {
	return &EventRepo{
		db:     db,
		logger: logger,
	}
}

// List returns all events newest first with their comments nested oldest first
func (r *EventRepo) List() ([]models.Event, error) {
	evts := []models.Event{}
	query := fmt.Sprintf(`SELECT id, %s FROM events ORDER BY created_at DESC`, eventFields)
	if err := r.db.Select(&evts, query); err != nil {
		return nil, err
	}
	var comments []models.Comment
	query = fmt.Sprintf(`SELECT id, %s FROM comments ORDER BY created_at ASC`, commentFields)
	if err := r.db.Select(&comments, query); err != nil {
		return nil, err
	}
	byEvent := map[string][]models.Comment{}
	for _, c := range comments {
		byEvent[c.EventID] = append(byEvent[c.EventID], c)
	}
	for i := range evts {
		evts[i].Comments = byEvent[evts[i].ID]
		if evts[i].Comments == nil {
			evts[i].Comments = []models.Comment{}
		}
	}
	return evts, nil
}

// GetByID returns the event with the given ID including its comments
func (r *EventRepo) GetByID(id string) (*models.Event, error) {
	r.logger.WithField(log.FldID, id).Debug("Loading event")
	var ev models.Event
	query := fmt.Sprintf(`SELECT id, %s FROM events WHERE id = ?`, eventFields)
	if err := r.db.Get(&ev, r.db.Rebind(query), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	comments, err := listComments(r.db, id)
	if err != nil {
		return nil, err
	}
	ev.Comments = comments
	return &ev, nil
}

// Create stores a new event with a fresh UUID. A preset creation date is kept, which is used when copying events
// from the device store
func (r *EventRepo) Create(ev *models.Event) error {
	ev.ID = uuid.New().String()
	ev.Likes = 0
	ev.LikedBy = models.IDList{}
	ev.Attendees = models.IDList{}
	ev.Comments = []models.Comment{}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now()
	}
	ev.UpdatedAt = nil
	r.logger.WithField(log.FldID, ev.ID).Debug("Adding new event")
	query := fmt.Sprintf(`INSERT INTO events(id, %s) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		eventFields)
	_, err := r.db.Exec(r.db.Rebind(query), ev.ID, ev.Title, ev.Description, ev.Date, ev.Time, ev.EndTime, ev.Location,
		ev.Category, ev.ImageURL, ev.Price, ev.OrganizerName, ev.CreatedBy, ev.Points, ev.Likes, ev.LikedBy,
		ev.Attendees, ev.CreatedAt, ev.UpdatedAt)
	return err
}

// Update overwrites the editable fields. Counters are only written through SaveCounters
func (r *EventRepo) Update(ev *models.Event) error {
	r.logger.WithField(log.FldID, ev.ID).Debug("Updating event")
	updated := now()
	query := `UPDATE events SET title = ?, description = ?, date = ?, time = ?, end_time = ?, location = ?,
        category = ?, image_url = ?, price = ?, organizer_name = ?, points = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.Exec(r.db.Rebind(query), ev.Title, ev.Description, ev.Date, ev.Time, ev.EndTime, ev.Location,
		ev.Category, ev.ImageURL, ev.Price, ev.OrganizerName, ev.Points, updated, ev.ID)
	if err != nil {
		return err
	}
	if err := checkAffected(res); err != nil {
		return err
	}
	ev.UpdatedAt = &updated
	return nil
}

// Delete removes an event. Comments and interaction rows are removed first inside the same transaction
func (r *EventRepo) Delete(id string) error {
	r.logger.WithField(log.FldID, id).Debug("Deleting event")
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	for _, query := range []string{
		`DELETE FROM comments WHERE event_id = ?`,
		`DELETE FROM event_interactions WHERE event_id = ?`,
	} {
		if _, err := tx.Exec(tx.Rebind(query), id); err != nil {
			return repos.DoRollback(tx, err)
		}
	}
	res, err := tx.Exec(tx.Rebind(`DELETE FROM events WHERE id = ?`), id)
	if err != nil {
		return repos.DoRollback(tx, err)
	}
	if err := checkAffected(res); err != nil {
		return repos.DoRollback(tx, err)
	}
	return tx.Commit()
}

// Count returns the number of stored events
func (r *EventRepo) Count() (int, error) {
	return Probe(r.db)
}

// -- Comments ---------------------------------------------------------------------------------------------------------

// CommentRepo is a comment repository working on the remote database
type CommentRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// NewCommentRepo creates a new comment repository instance
func NewCommentRepo(db *sqlx.DB, logger *logrus.Entry) *CommentRepo {
	return &CommentRepo{
		db:     db,
		logger: logger,
	}
}

func eventExists(db *sqlx.DB, id string) error {
	var n int
	if err := db.Get(&n, db.Rebind(`SELECT COUNT(*) FROM events WHERE id = ?`), id); err != nil {
		return err
	}
	if n == 0 {
		return repos.ErrEntityNotExisting
	}
	return nil
}

func listComments(db *sqlx.DB, eventID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	query := fmt.Sprintf(`SELECT id, %s FROM comments WHERE event_id = ? ORDER BY created_at ASC`, commentFields)
	if err := db.Select(&comments, db.Rebind(query), eventID); err != nil {
		return nil, err
	}
	return comments, nil
}

// Create adds a comment to an existing event
func (r *CommentRepo) Create(c *models.Comment) error {
	if err := eventExists(r.db, c.EventID); err != nil {
		return err
	}
	c.ID = uuid.New().String()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now()
	}
	r.logger.WithField(log.FldEvent, c.EventID).Debug("Adding comment")
	query := fmt.Sprintf(`INSERT INTO comments(id, %s) VALUES(?, ?, ?, ?, ?, ?, ?)`, commentFields)
	_, err := r.db.Exec(r.db.Rebind(query), c.ID, c.EventID, c.UserID, c.UserName, c.UserProfileImage, c.Content,
		c.CreatedAt)
	return err
}

// ListByEvent returns the comments of an event, oldest first
func (r *CommentRepo) ListByEvent(eventID string) ([]models.Comment, error) {
	if err := eventExists(r.db, eventID); err != nil {
		return nil, err
	}
	return listComments(r.db, eventID)
}
