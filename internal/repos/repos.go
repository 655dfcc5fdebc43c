// Package repos contains the repository interfaces needed in Entérate
// It exists to prevent circular dependencies between the services and the repo implementations
package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/1752rissy/enterate/internal/models"
)

var (
	// ErrEntityNotExisting is fired by a repository when an entity that is read, updated or deleted does not exist
	ErrEntityNotExisting = fmt.Errorf("entity does not exist")
	// ErrDuplicateEmail is returned when a user is created with an e-mail address that is already registered
	ErrDuplicateEmail = fmt.Errorf("e-mail address is already registered")
)

// EventRepo defines a repository that handles storing and querying events
type EventRepo interface {
	// List returns all events, newest first, with their comments nested
	List() ([]models.Event, error)
	// GetByID returns the event with the given ID including its comments
	GetByID(id string) (*models.Event, error)
	// Create stores a new event, assigning its ID. Counters start at zero
	Create(ev *models.Event) error
	// Update overwrites the editable fields of an existing event
	Update(ev *models.Event) error
	// Delete removes an event together with its comments and interactions
	Delete(id string) error
	// Count returns the number of stored events
	Count() (int, error)
}

// CommentRepo stores the comments of events
type CommentRepo interface {
	// Create adds a comment to the event referenced by c.EventID
	Create(c *models.Comment) error
	// ListByEvent returns the comments of an event, oldest first
	ListByEvent(eventID string) ([]models.Comment, error)
}

// InteractionRepo stores like and attend relationships and the counters derived from them
type InteractionRepo interface {
	// Set makes the (event, user, kind) relationship present or absent. Both directions are idempotent
	Set(eventID, userID string, kind models.InteractionKind, present bool) error
	// UserIDs lists the users having the given relationship with an event
	UserIDs(eventID string, kind models.InteractionKind) ([]string, error)
	// SaveCounters overwrites the denormalized counters of an event
	SaveCounters(eventID string, c models.Counters) error
}

// UserRepo defines a repository that is able to store and query users
type UserRepo interface {
	// Create creates a new user. Returns ErrDuplicateEmail if the address is taken
	Create(u *models.User) error
	// Update updates an existing user
	Update(u *models.User) error
	// GetByID returns the user with the given ID
	GetByID(id string) (*models.User, error)
	// GetByEmail returns the user with the given (case-insensitive) e-mail address
	GetByEmail(email string) (*models.User, error)
	// FindPending returns all users with a pending role request
	FindPending() ([]models.User, error)
}

// PointsRepo stores the points users earned by attending events
type PointsRepo interface {
	// Total sums up all points of a user - 0 if there are none
	Total(userID string) (int, error)
	// Award stores the points for a user and an event, replacing an earlier award for the same pair
	Award(entry *models.PointsEntry) error
}

// SessionRepo stores information about active API sessions
type SessionRepo interface {
	// CreateFor creates a new session for the given user ID
	CreateFor(userID string) (*models.Session, error)
	// GetByID returns the session associated with the given session ID and extends it's expiry if requested
	GetByID(sessionID string, extend bool) (*models.Session, error)
	// Delete removes a session from the session storage
	Delete(sessionID string) error
}

// NotificationRepo keeps the log of sent notifications
type NotificationRepo interface {
	Append(n *models.Notification) error
	List() ([]models.Notification, error)
}

// ImageRepo stores uploaded images
type ImageRepo interface {
	// Save stores the image and adds it to the registry, assigning its ID
	Save(img *models.Image) error
	Get(id string) (*models.Image, error)
	// List returns the registry, newest first
	List() ([]models.ImageInfo, error)
}

// -- Backend selection ------------------------------------------------------------------------------------------------

// Kind names the storage backend serving the domain data
type Kind string

const (
	// KindRemote is the hosted relational database
	KindRemote Kind = "remote"
	// KindLocal is the device-local key/value store
	KindLocal Kind = "local"
)

// Backend bundles the repositories of one storage backend. It is selected once at startup and injected into the
// services
type Backend struct {
	Kind         Kind
	Events       EventRepo
	Comments     CommentRepo
	Interactions InteractionRepo
	Users        UserRepo
	Points       PointsRepo
}

// -- Helpers for SQLX repos -------------------------------------------------------------------------------------------

// DoRollback rolls back a transaction and catches any error resulting from it while appending the original error
func DoRollback(tx *sqlx.Tx, originalError error) error {
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("doRollback: Transaction rollback failed: %v; Recent error: %v", err, originalError)
	}
	return originalError
}
