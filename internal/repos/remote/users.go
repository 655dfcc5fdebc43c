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
	userFields = `name, email, profile_image, role, requested_role, approval_status, password_hash, created_at`
)

// UserRepo is a user repository working on the remote database
type UserRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// NewUserRepo creates a new user repository instance
func NewUserRepo(db *sqlx.DB, logger *logrus.Entry) *UserRepo {
	return &UserRepo{
		db:     db,
		logger: logger,
	}
}

// Create stores a new user. Duplicate e-mail addresses are rejected by a lookup and, for concurrent inserts, by the
// unique constraint
func (r *UserRepo) Create(u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	if _, err := r.GetByEmail(u.Email); err == nil {
		return repos.ErrDuplicateEmail
	} else if err != repos.ErrEntityNotExisting {
		return err
	}
	u.ID = uuid.New().String()
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.CreatedAt = now()
	r.logger.WithField(log.FldEmail, u.Email).Debug("Adding new user")
	query := fmt.Sprintf(`INSERT INTO users(id, %s) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`, userFields)
	_, err := r.db.Exec(r.db.Rebind(query), u.ID, u.Name, u.Email, u.ProfileImage, u.Role, u.RequestedRole,
		u.ApprovalStatus, u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return repos.ErrDuplicateEmail
	}
	return err
}

// Update updates an existing user
func (r *UserRepo) Update(u *models.User) error {
	r.logger.WithField(log.FldID, u.ID).Debug("Updating user")
	query := `UPDATE users SET name = ?, email = ?, profile_image = ?, role = ?, requested_role = ?,
        approval_status = ?, password_hash = ? WHERE id = ?`
	res, err := r.db.Exec(r.db.Rebind(query), u.Name, models.NormalizeEmail(u.Email), u.ProfileImage, u.Role,
		u.RequestedRole, u.ApprovalStatus, u.PasswordHash, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repos.ErrDuplicateEmail
		}
		return err
	}
	return checkAffected(res)
}

func (r *UserRepo) getOne(where string, arg interface{}) (*models.User, error) {
	var u models.User
	query := fmt.Sprintf(`SELECT id, %s FROM users WHERE %s = ?`, userFields, where)
	if err := r.db.Get(&u, r.db.Rebind(query), arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns the user with the given ID
func (r *UserRepo) GetByID(id string) (*models.User, error) {
	return r.getOne("id", id)
}

// GetByEmail returns the user with the given e-mail address
func (r *UserRepo) GetByEmail(email string) (*models.User, error) {
	return r.getOne("email", models.NormalizeEmail(email))
}

// FindPending returns the users waiting for a decision on their role request
func (r *UserRepo) FindPending() ([]models.User, error) {
	users := []models.User{}
	query := fmt.Sprintf(`SELECT id, %s FROM users WHERE approval_status = ? ORDER BY created_at ASC`, userFields)
	if err := r.db.Select(&users, r.db.Rebind(query), models.ApprovalPending); err != nil {
		return nil, err
	}
	return users, nil
}

// -- Points -----------------------------------------------------------------------------------------------------------

// PointsRepo stores awarded points in the event_points table
type PointsRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// NewPointsRepo creates a new points repository instance
func NewPointsRepo(db *sqlx.DB, logger *logrus.Entry) *PointsRepo {
	return &PointsRepo{
		db:     db,
		logger: logger,
	}
}

// Total sums up all points of the user
func (r *PointsRepo) Total(userID string) (int, error) {
	var total int
	err := r.db.Get(&total, r.db.Rebind(`SELECT COALESCE(SUM(points), 0) FROM event_points WHERE user_id = ?`), userID)
	return total, err
}

// Award stores the points for a user and an event, replacing an earlier award
func (r *PointsRepo) Award(entry *models.PointsEntry) error {
	if entry.AwardedAt.IsZero() {
		entry.AwardedAt = now()
	}
	r.logger.WithFields(logrus.Fields{
		log.FldUser:  entry.UserID,
		log.FldEvent: entry.EventID,
	}).Debugf("Awarding %d points", entry.Points)
	query := `INSERT INTO event_points(user_id, event_id, points, awarded_at) VALUES(?, ?, ?, ?)
        ON CONFLICT(user_id, event_id) DO UPDATE SET points = excluded.points, awarded_at = excluded.awarded_at`
	_, err := r.db.Exec(r.db.Rebind(query), entry.UserID, entry.EventID, entry.Points, entry.AwardedAt)
	return err
}
