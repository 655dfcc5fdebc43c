package local

import (
	"sort"

	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
)

// EventRepo stores events inside the local event collection
type EventRepo struct {
	s *Store
}

func indexOfEvent(evts []models.Event, id string) int {
	for i := range evts {
		if evts[i].ID == id {
			return i
		}
	}
	return -1
}

// List returns all events, newest first
func (r *EventRepo) List() ([]models.Event, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	evts, err := r.s.loadEvents()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(evts, func(i, j int) bool {
		return evts[i].CreatedAt.After(evts[j].CreatedAt)
	})
	return evts, nil
}

// GetByID returns the event with the given ID
func (r *EventRepo) GetByID(id string) (*models.Event, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	evts, err := r.s.loadEvents()
	if err != nil {
		return nil, err
	}
	idx := indexOfEvent(evts, id)
	if idx < 0 {
		return nil, repos.ErrEntityNotExisting
	}
	return &evts[idx], nil
}

// Create stores a new event with a timestamp ID and empty aggregates
func (r *EventRepo) Create(ev *models.Event) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	evts, err := r.s.loadEvents()
	if err != nil {
		return err
	}
	ev.ID = r.s.newID(func(id string) bool { return indexOfEvent(evts, id) >= 0 })
	ev.Likes = 0
	ev.LikedBy = models.IDList{}
	ev.Attendees = models.IDList{}
	ev.Comments = []models.Comment{}
	ev.CreatedAt = r.s.now().UTC()
	ev.UpdatedAt = nil
	r.s.logger.WithField(log.FldID, ev.ID).Debug("Adding new event")
	return r.s.saveEvents(append(evts, *ev))
}

// Update overwrites the editable fields of an existing event
func (r *EventRepo) Update(ev *models.Event) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	evts, err := r.s.loadEvents()
	if err != nil {
		return err
	}
	idx := indexOfEvent(evts, ev.ID)
	if idx < 0 {
		return repos.ErrEntityNotExisting
	}
	r.s.logger.WithField(log.FldID, ev.ID).Debug("Updating event")
	now := r.s.now().UTC()
	evts[idx].ApplyChanges(ev)
	evts[idx].UpdatedAt = &now
	if err := r.s.saveEvents(evts); err != nil {
		return err
	}
	*ev = evts[idx]
	return nil
}

// Delete removes an event. Comments and interactions are embedded and go with it
func (r *EventRepo) Delete(id string) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	evts, err := r.s.loadEvents()
	if err != nil {
		return err
	}
	idx := indexOfEvent(evts, id)
	if idx < 0 {
		return repos.ErrEntityNotExisting
	}
	r.s.logger.WithField(log.FldID, id).Debug("Deleting event")
	return r.s.saveEvents(append(evts[:idx], evts[idx+1:]...))
}

// Count returns the number of events
func (r *EventRepo) Count() (int, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	evts, err := r.s.loadEvents()
	if err != nil {
		return 0, err
	}
	return len(evts), nil
}

// -- Comments ---------------------------------------------------------------------------------------------------------

// CommentRepo stores comments embedded in their events
type CommentRepo struct {
	s *Store
}

// Create appends a comment to its event
func (r *CommentRepo) Create(c *models.Comment) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	evts, err := r.s.loadEvents()
	if err != nil {
		return err
	}
	idx := indexOfEvent(evts, c.EventID)
	if idx < 0 {
		return repos.ErrEntityNotExisting
	}
	comments := evts[idx].Comments
	c.ID = r.s.newID(func(id string) bool {
		for _, other := range comments {
			if other.ID == id {
				return true
			}
		}
		return false
	})
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.now().UTC()
	}
	evts[idx].Comments = append(comments, *c)
	return r.s.saveEvents(evts)
}

// ListByEvent returns the comments of an event
func (r *CommentRepo) ListByEvent(eventID string) ([]models.Comment, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	evts, err := r.s.loadEvents()
	if err != nil {
		return nil, err
	}
	idx := indexOfEvent(evts, eventID)
	if idx < 0 {
		return nil, repos.ErrEntityNotExisting
	}
	return evts[idx].Comments, nil
}

// -- Interactions -----------------------------------------------------------------------------------------------------

// InteractionRepo keeps likes and attendances as ID lists on the event
type InteractionRepo struct {
	s *Store
}

func listFor(ev *models.Event, kind models.InteractionKind) *models.IDList {
	if kind == models.InteractionLike {
		return &ev.LikedBy
	}
	return &ev.Attendees
}

// Set adds the user to or removes the user from the event's list for the given kind. The like counter is written
// together with the list
func (r *InteractionRepo) Set(eventID, userID string, kind models.InteractionKind, present bool) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	evts, err := r.s.loadEvents()
	if err != nil {
		return err
	}
	idx := indexOfEvent(evts, eventID)
	if idx < 0 {
		return repos.ErrEntityNotExisting
	}
	lst := listFor(&evts[idx], kind)
	if present {
		*lst = lst.With(userID)
	} else {
		*lst = lst.Without(userID)
	}
	evts[idx].Likes = len(evts[idx].LikedBy)
	return r.s.saveEvents(evts)
}

// UserIDs returns the IDs on the event's list for the given kind
func (r *InteractionRepo) UserIDs(eventID string, kind models.InteractionKind) ([]string, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	evts, err := r.s.loadEvents()
	if err != nil {
		return nil, err
	}
	idx := indexOfEvent(evts, eventID)
	if idx < 0 {
		return nil, repos.ErrEntityNotExisting
	}
	return append([]string{}, *listFor(&evts[idx], kind)...), nil
}

// SaveCounters overwrites the aggregates of an event
func (r *InteractionRepo) SaveCounters(eventID string, c models.Counters) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	evts, err := r.s.loadEvents()
	if err != nil {
		return err
	}
	idx := indexOfEvent(evts, eventID)
	if idx < 0 {
		return repos.ErrEntityNotExisting
	}
	evts[idx].Likes = c.Likes
	evts[idx].LikedBy = append(models.IDList{}, c.LikedBy...)
	evts[idx].Attendees = append(models.IDList{}, c.Attendees...)
	return r.s.saveEvents(evts)
}
