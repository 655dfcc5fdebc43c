package local

import (
	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
)

// UserRepo stores users inside the local user collection
type UserRepo struct {
	s *Store
}

func indexOfUser(users []models.User, match func(u *models.User) bool) int {
	for i := range users {
		if match(&users[i]) {
			return i
		}
	}
	return -1
}

// Create adds a new user. The e-mail address has to be unique
func (r *UserRepo) Create(u *models.User) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	users, err := r.s.loadUsers()
	if err != nil {
		return err
	}
	u.Email = models.NormalizeEmail(u.Email)
	if indexOfUser(users, func(o *models.User) bool { return models.NormalizeEmail(o.Email) == u.Email }) >= 0 {
		return repos.ErrDuplicateEmail
	}
	u.ID = r.s.newID(func(id string) bool {
		return indexOfUser(users, func(o *models.User) bool { return o.ID == id }) >= 0
	})
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.CreatedAt = r.s.now().UTC()
	r.s.logger.WithField(log.FldEmail, u.Email).Debug("Adding new user")
	return r.s.saveUsers(append(users, *u))
}

// Update replaces the stored user having the same ID
func (r *UserRepo) Update(u *models.User) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	users, err := r.s.loadUsers()
	if err != nil {
		return err
	}
	idx := indexOfUser(users, func(o *models.User) bool { return o.ID == u.ID })
	if idx < 0 {
		return repos.ErrEntityNotExisting
	}
	users[idx] = *u
	return r.s.saveUsers(users)
}

// GetByID returns the user with the given ID
func (r *UserRepo) GetByID(id string) (*models.User, error) {
	return r.find(func(o *models.User) bool { return o.ID == id })
}

// GetByEmail returns the user with the given e-mail address
func (r *UserRepo) GetByEmail(email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	return r.find(func(o *models.User) bool { return models.NormalizeEmail(o.Email) == email })
}

func (r *UserRepo) find(match func(u *models.User) bool) (*models.User, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	users, err := r.s.loadUsers()
	if err != nil {
		return nil, err
	}
	idx := indexOfUser(users, match)
	if idx < 0 {
		return nil, repos.ErrEntityNotExisting
	}
	return &users[idx], nil
}

// FindPending returns the users waiting for a decision on their role request
func (r *UserRepo) FindPending() ([]models.User, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	users, err := r.s.loadUsers()
	if err != nil {
		return nil, err
	}
	ret := []models.User{}
	for _, u := range users {
		if u.ApprovalStatus == models.ApprovalPending {
			ret = append(ret, u)
		}
	}
	return ret, nil
}

// -- Points -----------------------------------------------------------------------------------------------------------

// PointsRepo keeps awarded points in their own collection
type PointsRepo struct {
	s *Store
}

// Total sums up the points of a user
func (r *PointsRepo) Total(userID string) (int, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	var entries []models.PointsEntry
	if err := r.s.loadList(KeyPoints, &entries); err != nil {
		return 0, err
	}
	total := 0
	for _, e := range entries {
		if e.UserID == userID {
			total += e.Points
		}
	}
	return total, nil
}

// Award stores the points of a user for an event, replacing an earlier award for the same event
func (r *PointsRepo) Award(entry *models.PointsEntry) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	var entries []models.PointsEntry
	if err := r.s.loadList(KeyPoints, &entries); err != nil {
		return err
	}
	if entry.AwardedAt.IsZero() {
		entry.AwardedAt = r.s.now().UTC()
	}
	replaced := false
	for i := range entries {
		if entries[i].UserID == entry.UserID && entries[i].EventID == entry.EventID {
			entries[i] = *entry
			replaced = true
		}
	}
	if !replaced {
		entries = append(entries, *entry)
	}
	return r.s.writeJSON(KeyPoints, entries)
}
