// Package inmem provides a session repository that holds the API sessions in-memory. Sessions do not survive a
// restart, clients sign in again
package inmem

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
)

// DefaultTTL is how long a session lasts after its last use
const DefaultTTL = 60 * time.Minute

type opKind int

const (
	opCreate opKind = iota
	opGet
	opDelete
)

// sessionRequest is sent to the control goroutine, which owns the session map
type sessionRequest struct {
	op        opKind
	sessionID string
	userID    string
	extend    bool
	answer    chan<- sessionResponse
}

type sessionResponse struct {
	session *models.Session
	err     error
}

// SessionRepo is a session repository that stores the session data in-memory
type SessionRepo struct {
	requests chan<- sessionRequest
	done     chan struct{}
	ttl      time.Duration
	now      func() time.Time
}

// New creates a new session repository instance with the default session lifetime
func New() *SessionRepo {
	return NewWithTTL(DefaultTTL, time.Now)
}

// NewWithTTL creates a session repository with a custom lifetime and clock
func NewWithTTL(ttl time.Duration, now func() time.Time) *SessionRepo {
	reqs := make(chan sessionRequest)
	repo := &SessionRepo{
		requests: reqs,
		done:     make(chan struct{}),
		ttl:      ttl,
		now:      now,
	}
	go repo.control(reqs)
	return repo
}

// newToken creates a 64 character random session token
func newToken() string {
	return strings.Replace(uuid.New().String()+uuid.New().String(), "-", "", -1)
}

// control runs until Close is called and serves all requests on the session map
func (r *SessionRepo) control(reqs <-chan sessionRequest) {
	sessions := map[string]*models.Session{}
	// Expired sessions are purged about once a minute
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case req := <-reqs:
			req.answer <- r.handle(sessions, req)
		case <-ticker.C:
			now := r.now()
			for key, sess := range sessions {
				if sess.ExpiresAt.Before(now) {
					delete(sessions, key)
				}
			}
		}
	}
}

func (r *SessionRepo) handle(sessions map[string]*models.Session, req sessionRequest) sessionResponse {
	switch req.op {
	case opCreate:
		sess := models.Session{
			ID:        newToken(),
			UserID:    req.userID,
			ExpiresAt: r.now().Add(r.ttl),
		}
		sessions[sess.ID] = &sess
		cp := sess
		return sessionResponse{session: &cp}
	case opGet:
		sess, ok := sessions[req.sessionID]
		if !ok {
			return sessionResponse{err: repos.ErrEntityNotExisting}
		}
		if sess.ExpiresAt.Before(r.now()) {
			delete(sessions, req.sessionID)
			return sessionResponse{err: repos.ErrEntityNotExisting}
		}
		if req.extend {
			sess.ExpiresAt = r.now().Add(r.ttl)
		}
		cp := *sess
		return sessionResponse{session: &cp}
	default:
		delete(sessions, req.sessionID)
		return sessionResponse{}
	}
}

func (r *SessionRepo) send(req sessionRequest) sessionResponse {
	answer := make(chan sessionResponse, 1)
	req.answer = answer
	select {
	case r.requests <- req:
		return <-answer
	case <-r.done:
		return sessionResponse{err: repos.ErrEntityNotExisting}
	}
}

// CreateFor creates a new session for the given user ID
func (r *SessionRepo) CreateFor(userID string) (*models.Session, error) {
	resp := r.send(sessionRequest{op: opCreate, userID: userID})
	return resp.session, resp.err
}

// GetByID returns the session associated with the given session ID and extends it's expiry if requested
func (r *SessionRepo) GetByID(sessionID string, extend bool) (*models.Session, error) {
	resp := r.send(sessionRequest{op: opGet, sessionID: sessionID, extend: extend})
	return resp.session, resp.err
}

// Delete removes a session from the session storage
func (r *SessionRepo) Delete(sessionID string) error {
	return r.send(sessionRequest{op: opDelete, sessionID: sessionID}).err
}

// Close stops the control goroutine. Afterwards no session can be found anymore
func (r *SessionRepo) Close() {
	close(r.done)
}
