// Package local provides repositories that keep whole collections as JSON documents inside the device-local
// key/value store. Every mutation reads the collection, changes it and writes it back (last write wins)
package local

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/1752rissy/enterate/internal/fixtures"
	"github.com/1752rissy/enterate/internal/kvstore"
	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
)

// Keys used inside the key/value store
const (
	KeyPrefix        = "enterate-"
	KeyUsers         = "enterate-users"
	KeyEvents        = "enterate-events"
	KeyCurrentUser   = "enterate-current-user"
	KeySessionID     = "enterate-session-id"
	KeySentEmails    = "enterate-sent-emails"
	KeyPoints        = "enterate-points"
	KeyImageRegistry = "enterate-image-registry"
	keyImagePrefix   = "enterate-image-"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Store is the device-local data store
type Store struct {
	kv     kvstore.Store
	logger *logrus.Entry
	mtx    sync.Mutex
	now    func() time.Time
	rnd    *rand.Rand
}

// New creates a new local store on top of the given key/value store
func New(kv kvstore.Store, logger *logrus.Entry) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
		now:    time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Backend returns the repositories of the local store bundled as storage backend
func (s *Store) Backend() repos.Backend {
	return repos.Backend{
		Kind:         repos.KindLocal,
		Events:       &EventRepo{s},
		Comments:     &CommentRepo{s},
		Interactions: &InteractionRepo{s},
		Users:        &UserRepo{s},
		Points:       &PointsRepo{s},
	}
}

// Notifications returns the repository holding the sent-notification log
func (s *Store) Notifications() repos.NotificationRepo {
	return &NotificationRepo{s}
}

// Images returns the repository holding uploaded images
func (s *Store) Images() repos.ImageRepo {
	return &ImageRepo{s}
}

// -- Collection helpers (all of them expect the lock to be held) ------------------------------------------------------

// readJSON decodes the value of key into v. found is false when the key does not exist
func (s *Store) readJSON(key string, v interface{}) (found bool, err error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return false, errors.Wrapf(err, "readJSON: Cannot read '%s'", key)
	}
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(raw), v)
}

func (s *Store) writeJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "writeJSON: Cannot serialize '%s'", key)
	}
	return errors.Wrapf(s.kv.Set(key, string(data)), "writeJSON: Cannot write '%s'", key)
}

// isMalformed tells decode errors apart from storage errors
func isMalformed(err error) bool {
	switch err.(type) {
	case *json.SyntaxError, *json.UnmarshalTypeError:
		return true
	}
	return false
}

// loadSeeded loads a collection that is seeded with demo data when it is missing or unreadable
func (s *Store) loadSeeded(key string, v interface{}, seed func() interface{}) error {
	found, err := s.readJSON(key, v)
	switch {
	case found && err == nil:
		return nil
	case found && isMalformed(err):
		s.logger.WithError(err).WithField(log.FldKey, key).Warn("Malformed collection - resetting to demo data")
	case err != nil:
		return err
	default:
		s.logger.WithField(log.FldKey, key).Info("Seeding collection with demo data")
	}
	if err := s.writeJSON(key, seed()); err != nil {
		return err
	}
	// Round-trip so the caller gets exactly what has been stored
	_, err = s.readJSON(key, v)
	return err
}

// loadList loads a collection that starts empty. Malformed data is logged and dropped
func (s *Store) loadList(key string, v interface{}) error {
	found, err := s.readJSON(key, v)
	if found && isMalformed(err) {
		s.logger.WithError(err).WithField(log.FldKey, key).Warn("Malformed collection - starting over")
		return nil
	}
	return err
}

func (s *Store) loadEvents() ([]models.Event, error) {
	var evts []models.Event
	err := s.loadSeeded(KeyEvents, &evts, func() interface{} { return fixtures.Events() })
	if err != nil {
		return nil, err
	}
	for i := range evts {
		normalizeEvent(&evts[i])
	}
	return evts, nil
}

func (s *Store) saveEvents(evts []models.Event) error {
	return s.writeJSON(KeyEvents, evts)
}

func (s *Store) loadUsers() ([]models.User, error) {
	var users []models.User
	err := s.loadSeeded(KeyUsers, &users, func() interface{} { return fixtures.Users() })
	return users, err
}

func (s *Store) saveUsers(users []models.User) error {
	return s.writeJSON(KeyUsers, users)
}

// newID creates a millisecond timestamp ID that is not taken yet
func (s *Store) newID(taken func(id string) bool) string {
	ms := s.now().UnixNano() / int64(time.Millisecond)
	for {
		id := strconv.FormatInt(ms, 10)
		if !taken(id) {
			return id
		}
		ms++
	}
}

func normalizeEvent(ev *models.Event) {
	if ev.LikedBy == nil {
		ev.LikedBy = models.IDList{}
	}
	if ev.Attendees == nil {
		ev.Attendees = models.IDList{}
	}
	if ev.Comments == nil {
		ev.Comments = []models.Comment{}
	}
}

// -- Device session ---------------------------------------------------------------------------------------------------

// CurrentUser returns the user last signed in on this device. The stored record is refreshed from the user collection,
// so changes made since the sign-in (e.g. a granted role) are visible. Returns nil if nobody is signed in
func (s *Store) CurrentUser() (*models.User, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	var u models.User
	found, err := s.readJSON(KeyCurrentUser, &u)
	if !found {
		return nil, err
	}
	if err != nil {
		if !isMalformed(err) {
			return nil, err
		}
		s.logger.WithError(err).Warn("Malformed current user record - removing it")
		return nil, s.kv.Delete(KeyCurrentUser)
	}
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	for _, stored := range users {
		if stored.ID == u.ID {
			stored = stored.Public()
			return &stored, nil
		}
	}
	return &u, nil
}

// SetCurrentUser remembers the user signed in on this device. nil signs out
func (s *Store) SetCurrentUser(u *models.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if u == nil {
		return s.kv.Delete(KeyCurrentUser)
	}
	return s.writeJSON(KeyCurrentUser, u.Public())
}

// SessionID returns the identifier of this device's session, creating it on first use
func (s *Store) SessionID() (string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	id, ok, err := s.kv.Get(KeySessionID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}
	b := make([]byte, 9)
	for i := range b {
		b[i] = base36[s.rnd.Intn(len(base36))]
	}
	id = "session_" + strconv.FormatInt(s.now().UnixNano()/int64(time.Millisecond), 10) + "_" + string(b)
	return id, s.kv.Set(KeySessionID, id)
}

// -- Maintenance ------------------------------------------------------------------------------------------------------

// Stats summarizes the content of the local store
type Stats struct {
	Users         int `json:"users"`
	Events        int `json:"events"`
	Comments      int `json:"comments"`
	Likes         int `json:"likes"`
	Attendances   int `json:"attendances"`
	Notifications int `json:"notifications"`
	Images        int `json:"images"`
	// Bytes is the summed size of all stored values
	Bytes int `json:"bytes"`
}

// Stats counts the entities held in the local store
func (s *Store) Stats() (*Stats, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	evts, err := s.loadEvents()
	if err != nil {
		return nil, err
	}
	st := Stats{Users: len(users), Events: len(evts)}
	for _, ev := range evts {
		st.Comments += len(ev.Comments)
		st.Likes += len(ev.LikedBy)
		st.Attendances += len(ev.Attendees)
	}
	var sent []models.Notification
	if err := s.loadList(KeySentEmails, &sent); err != nil {
		return nil, err
	}
	st.Notifications = len(sent)
	var imgs []models.ImageInfo
	if err := s.loadList(KeyImageRegistry, &imgs); err != nil {
		return nil, err
	}
	st.Images = len(imgs)
	keys, err := s.kv.Keys()
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if v, ok, err := s.kv.Get(key); err == nil && ok {
			st.Bytes += len(v)
		}
	}
	return &st, nil
}

// Export is a backup of the local user and event data
type Export struct {
	Users       []models.User  `json:"users"`
	Events      []models.Event `json:"events"`
	CurrentUser *models.User   `json:"currentUser,omitempty"`
	SessionID   string         `json:"sessionId,omitempty"`
	ExportedAt  time.Time      `json:"exportDate"`
}

// Export creates a backup of the users, events and the device session. Password hashes stay on the device
func (s *Store) Export() (*Export, error) {
	cur, err := s.CurrentUser()
	if err != nil {
		return nil, err
	}
	sid, err := s.SessionID()
	if err != nil {
		return nil, err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	evts, err := s.loadEvents()
	if err != nil {
		return nil, err
	}
	public := make([]models.User, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	return &Export{
		Users:       public,
		Events:      evts,
		CurrentUser: cur,
		SessionID:   sid,
		ExportedAt:  s.now().UTC(),
	}, nil
}

// Import restores a backup created by Export. Collections missing in the backup are left untouched. Users keep the
// password they have on this device
func (s *Store) Import(data []byte) error {
	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return errors.Wrap(err, "Import: Malformed backup")
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if exp.Users != nil {
		cur, err := s.loadUsers()
		if err != nil {
			return err
		}
		hashes := map[string]string{}
		for _, u := range cur {
			hashes[u.ID] = u.PasswordHash
		}
		for i := range exp.Users {
			if exp.Users[i].PasswordHash == "" {
				exp.Users[i].PasswordHash = hashes[exp.Users[i].ID]
			}
		}
		if err := s.saveUsers(exp.Users); err != nil {
			return err
		}
	}
	if exp.Events != nil {
		if err := s.saveEvents(exp.Events); err != nil {
			return err
		}
	}
	if exp.CurrentUser != nil {
		if err := s.writeJSON(KeyCurrentUser, exp.CurrentUser.Public()); err != nil {
			return err
		}
	}
	s.logger.WithFields(logrus.Fields{
		"users":  len(exp.Users),
		"events": len(exp.Events),
	}).Info("Imported local data")
	return nil
}

// Clear removes every key of the application from the store. Collections are re-seeded on next access
func (s *Store) Clear() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	keys, err := s.kv.Keys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if !strings.HasPrefix(key, KeyPrefix) {
			continue
		}
		if err := s.kv.Delete(key); err != nil {
			return err
		}
	}
	s.logger.Info("Cleared all local data")
	return nil
}
