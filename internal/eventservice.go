package internal

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/1752rissy/enterate/internal/ctxhelper"
	"github.com/1752rissy/enterate/internal/i18n"
	"github.com/1752rissy/enterate/internal/ledger"
	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
	"github.com/1752rissy/enterate/internal/storage"
)

// EventService provides service functions for working with events
type EventService interface {
	// List returns the events matching the filter, newest first
	List(ctx context.Context, filter *EventFilter) ([]models.Event, error)
	// Refresh is the load path: an empty remote store is filled first, then all events are returned
	Refresh(ctx context.Context) (*RefreshResult, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) (*models.Event, error)
	Delete(ctx context.Context, id string) error
	// SetInteraction likes/unlikes or attends/unattends an event for the current user
	SetInteraction(ctx context.Context, req *InteractionRequest) error
	// InteractionState tells whether the current user likes and attends the event
	InteractionState(ctx context.Context, eventID string) (*models.InteractionState, error)
	AddComment(ctx context.Context, req *CommentRequest) (*models.Comment, error)
	// AwardPoints grants the points of an event to one of its attendees
	AwardPoints(ctx context.Context, req *AwardRequest) (*models.PointsEntry, error)
	Categories(ctx context.Context) []string
}

// RefreshResult is returned by the load path
type RefreshResult struct {
	Backend repos.Kind     `json:"backend"`
	Events  []models.Event `json:"events"`
	// Set if the remote store has just been filled
	Migration *storage.MigrationReport `json:"migration,omitempty"`
}

// -- EventService implementation --------------------------------------------------------------------------------------

type eventService struct {
	backend  repos.Backend
	ledger   *ledger.Ledger
	migrator *storage.Migrator
	config   ConfigService
	logger   *logrus.Entry
	// Serializes migration runs of concurrent refreshes
	migrateMtx sync.Mutex
}

// NewEventService creates a new event service instance working on the selected backend. migrator may be nil if the
// backend needs no migration
func NewEventService(
	backend repos.Backend,
	migrator *storage.Migrator,
	cs ConfigService,
	logger *logrus.Entry,
) EventService {
	return &eventService{
		backend:  backend,
		ledger:   ledger.New(backend.Interactions, logger),
		migrator: migrator,
		config:   cs,
		logger:   logger,
	}
}

func eventError(err error, id string) *HTTPError {
	return repoError(err, ErrCodeEventNotFound, fmt.Sprintf("Event '%s' does not exist", id))
}

// mayManage checks if the user may change or delete the event
func mayManage(u *models.User, ev *models.Event) bool {
	return u.CanModerate() || (ev.CreatedBy != "" && ev.CreatedBy == u.ID)
}

func (s *eventService) currentUser(ctx context.Context) (*models.User, error) {
	u := ctxhelper.User(ctx)
	if u == nil {
		return nil, ErrNotLoggedIn
	}
	return u, nil
}

func (s *eventService) checkCategory(ctx context.Context, category string) error {
	for _, c := range s.config.Categories(ctx) {
		if c == category {
			return nil
		}
	}
	return MakeErrorWithData(
		http.StatusBadRequest,
		ErrCodeIllegalValue,
		fmt.Sprintf("Unknown category '%s'", category),
		map[string]string{
			"field": "category",
			"rule":  "category",
		},
	)
}

// List returns the events matching the filter
func (s *eventService) List(ctx context.Context, filter *EventFilter) ([]models.Event, error) {
	evts, err := s.backend.Events.List()
	if err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while listing events",
			err,
		)
	}
	if filter == nil || (filter.Search == "" && filter.Category == "") {
		return evts, nil
	}
	ctxhelper.Logger(ctx).WithField(log.FldSearch, filter.Search).Debug("Filtering events")
	ret := []models.Event{}
	for _, ev := range evts {
		if filter.Category != "" && ev.Category != filter.Category {
			continue
		}
		if filter.Search != "" &&
			!i18n.ContainsFolded(ev.Title, filter.Search) &&
			!i18n.ContainsFolded(ev.Description, filter.Search) &&
			!i18n.ContainsFolded(ev.Location, filter.Search) {
			continue
		}
		ret = append(ret, ev)
	}
	return ret, nil
}

// Refresh fills an empty remote store and returns all events. The backend selection is not re-evaluated here
func (s *eventService) Refresh(ctx context.Context) (*RefreshResult, error) {
	res := RefreshResult{Backend: s.backend.Kind}
	if s.migrator != nil {
		s.migrateMtx.Lock()
		report, err := s.migrator.MigrateIfEmpty()
		s.migrateMtx.Unlock()
		if err != nil {
			// The events that are there can still be shown
			ctxhelper.Logger(ctx).WithError(err).Warn("Migration check failed")
		}
		res.Migration = report
	}
	evts, err := s.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	res.Events = evts
	return &res, nil
}

// Get returns the event with the given ID
func (s *eventService) Get(ctx context.Context, id string) (*models.Event, error) {
	ev, err := s.backend.Events.GetByID(id)
	if err != nil {
		return nil, eventError(err, id)
	}
	return ev, nil
}

// Create creates a new event owned by the current user
func (s *eventService) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	u, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	event.Title = strings.TrimSpace(event.Title)
	if err := validateStruct(ctx, event); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, event.Category); err != nil {
		return nil, err
	}
	event.CreatedBy = u.ID
	if strings.TrimSpace(event.OrganizerName) == "" {
		event.OrganizerName = u.Name
	}
	if err := s.backend.Events.Create(event); err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while creating event",
			err,
		)
	}
	ctxhelper.Logger(ctx).WithField(log.FldEvent, event.ID).Info("Event created")
	return event, nil
}

// Update updates the editable fields of an existing event
func (s *eventService) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	u, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	original, err := s.Get(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if !mayManage(u, original) {
		return nil, ErrPermissionDenied
	}
	event.Title = strings.TrimSpace(event.Title)
	if err := validateStruct(ctx, event); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, event.Category); err != nil {
		return nil, err
	}
	original.ApplyChanges(event)
	if err := s.backend.Events.Update(original); err != nil {
		return nil, eventError(err, event.ID)
	}
	return original, nil
}

// Delete removes an existing event together with its comments and interactions
func (s *eventService) Delete(ctx context.Context, id string) error {
	u, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	ev, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !mayManage(u, ev) {
		return ErrPermissionDenied
	}
	if err := s.backend.Events.Delete(id); err != nil {
		return eventError(err, id)
	}
	ctxhelper.Logger(ctx).WithField(log.FldEvent, id).Info("Event deleted")
	return nil
}

// SetInteraction changes a like or an attendance of the current user
func (s *eventService) SetInteraction(ctx context.Context, req *InteractionRequest) error {
	u, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if !req.Kind.Valid() {
		return MakeError(http.StatusBadRequest, ErrCodeIllegalValue, fmt.Sprintf("Unknown interaction '%s'", req.Kind))
	}
	if err := s.ledger.SetInteraction(req.EventID, u.ID, req.Kind, req.Present); err != nil {
		return eventError(err, req.EventID)
	}
	return nil
}

// InteractionState tells whether the current user likes and attends the event
func (s *eventService) InteractionState(ctx context.Context, eventID string) (*models.InteractionState, error) {
	u, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	ev, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &models.InteractionState{
		Liked:     ev.LikedBy.Contains(u.ID),
		Attending: ev.Attendees.Contains(u.ID),
	}, nil
}

// AddComment adds a comment of the current user to an event
func (s *eventService) AddComment(ctx context.Context, req *CommentRequest) (*models.Comment, error) {
	u, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := validateStruct(ctx, req); err != nil {
		return nil, err
	}
	c := models.Comment{
		EventID:          req.EventID,
		UserID:           u.ID,
		UserName:         u.Name,
		UserProfileImage: u.ProfileImage,
		Content:          req.Content,
	}
	if err := s.backend.Comments.Create(&c); err != nil {
		return nil, eventError(err, req.EventID)
	}
	return &c, nil
}

// AwardPoints grants the points of an event to one of its attendees. Awarding twice replaces the earlier award
func (s *eventService) AwardPoints(ctx context.Context, req *AwardRequest) (*models.PointsEntry, error) {
	ev, err := s.Get(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if !ev.Attendees.Contains(req.UserID) {
		return nil, MakeError(
			http.StatusConflict,
			ErrCodeNotAttending,
			fmt.Sprintf("User '%s' does not attend event '%s'", req.UserID, req.EventID),
		)
	}
	entry := models.PointsEntry{
		UserID:  req.UserID,
		EventID: ev.ID,
		Points:  ev.Points,
	}
	if err := s.backend.Points.Award(&entry); err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while awarding points",
			err,
		)
	}
	ctxhelper.Logger(ctx).WithFields(logrus.Fields{
		log.FldEvent: ev.ID,
		log.FldUser:  req.UserID,
	}).Infof("Awarded %d points", entry.Points)
	return &entry, nil
}

// Categories returns the categories events can be filed under
func (s *eventService) Categories(ctx context.Context) []string {
	return s.config.Categories(ctx)
}
