package internal

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/1752rissy/enterate/internal/ctxhelper"
	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
)

// UserService handles points and role requests of users
type UserService interface {
	// Points returns the points total of the current user
	Points(ctx context.Context) (int, error)
	// RequestRole asks for an elevated role for the current user
	RequestRole(ctx context.Context, req *RoleRequest) (*models.User, error)
	// PendingRequests lists the users waiting for a decision
	PendingRequests(ctx context.Context) ([]models.User, error)
	// Decide approves or rejects the pending role request of a user and notifies the user by e-mail
	Decide(ctx context.Context, userID string, approve bool) (*models.User, error)
}

// -- UserService implementation ---------------------------------------------------------------------------------------

type userService struct {
	users         repos.UserRepo
	points        repos.PointsRepo
	notifications NotificationService
	logger        *logrus.Entry
}

// NewUserService creates a new user service instance
func NewUserService(
	users repos.UserRepo,
	points repos.PointsRepo,
	ns NotificationService,
	logger *logrus.Entry,
) UserService {
	return &userService{
		users:         users,
		points:        points,
		notifications: ns,
		logger:        logger,
	}
}

func userError(err error, id string) *HTTPError {
	return repoError(err, ErrCodeUserNotFound, fmt.Sprintf("User '%s' does not exist", id))
}

// roleRank orders the roles by their permissions
var roleRank = map[models.Role]int{
	models.RoleUser:      0,
	models.RoleModerator: 1,
	models.RoleAdmin:     2,
}

// Points returns the points total of the current user
func (s *userService) Points(ctx context.Context) (int, error) {
	u := ctxhelper.User(ctx)
	if u == nil {
		return 0, ErrNotLoggedIn
	}
	total, err := s.points.Total(u.ID)
	if err != nil {
		return 0, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to sum up points", err)
	}
	return total, nil
}

// RequestRole asks for an elevated role for the current user. A new request replaces an earlier one
func (s *userService) RequestRole(ctx context.Context, req *RoleRequest) (*models.User, error) {
	cur := ctxhelper.User(ctx)
	if cur == nil {
		return nil, ErrNotLoggedIn
	}
	if err := validateStruct(ctx, req); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(cur.ID)
	if err != nil {
		return nil, userError(err, cur.ID)
	}
	if roleRank[req.Role] <= roleRank[u.Role] {
		return nil, MakeErrorWithData(
			http.StatusConflict,
			ErrCodeRoleRequestInvalid,
			fmt.Sprintf("User already has role '%s'", u.Role),
			map[string]models.Role{"role": u.Role},
		)
	}
	u.RequestedRole = req.Role
	u.ApprovalStatus = models.ApprovalPending
	if err := s.users.Update(u); err != nil {
		return nil, userError(err, u.ID)
	}
	ctxhelper.Logger(ctx).WithField(log.FldUser, u.ID).Infof("Role '%s' requested", req.Role)
	ret := u.Public()
	return &ret, nil
}

// PendingRequests lists the users waiting for a decision
func (s *userService) PendingRequests(ctx context.Context) ([]models.User, error) {
	lst, err := s.users.FindPending()
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to load requests", err)
	}
	ret := make([]models.User, 0, len(lst))
	for _, u := range lst {
		ret = append(ret, u.Public())
	}
	return ret, nil
}

// Decide approves or rejects the pending role request of a user. Only admins may grant the admin role
func (s *userService) Decide(ctx context.Context, userID string, approve bool) (*models.User, error) {
	decider := ctxhelper.User(ctx)
	if decider == nil {
		return nil, ErrNotLoggedIn
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, userError(err, userID)
	}
	if u.ApprovalStatus != models.ApprovalPending {
		return nil, MakeError(
			http.StatusConflict,
			ErrCodeNoPendingRequest,
			fmt.Sprintf("User '%s' has no pending role request", userID),
		)
	}
	if approve && u.RequestedRole == models.RoleAdmin && !decider.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if approve {
		u.Role = u.RequestedRole
		u.ApprovalStatus = models.ApprovalApproved
	} else {
		u.ApprovalStatus = models.ApprovalRejected
	}
	if err := s.users.Update(u); err != nil {
		return nil, userError(err, userID)
	}
	logger := ctxhelper.Logger(ctx).WithFields(logrus.Fields{
		log.FldUser: u.ID,
		"decider":   decider.ID,
	})
	logger.Infof("Role request decided: %s", u.ApprovalStatus)
	// The decision stands even if the e-mail fails
	if _, err := s.notifications.SendRoleDecision(ctx, u, approve); err != nil {
		logger.WithError(err).Warn("Failed to send the decision e-mail")
	}
	ret := u.Public()
	return &ret, nil
}
