package internal

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/1752rissy/enterate/internal/ctxhelper"
	"github.com/1752rissy/enterate/internal/identity"
	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
)

// SessionService provides functions for interacting with a user's session
type SessionService interface {
	// Register creates a new password account and signs it in
	Register(ctx context.Context, req *RegisterRequest) (*SessionInfo, error)
	// Login tries to log-in the user with the given credentials and returns the info about the created session if login
	// was successful
	Login(ctx context.Context, req *LoginRequest) (*SessionInfo, error)
	// LoginGoogle signs in with a Google ID token. Unknown e-mail addresses get a new account
	LoginGoogle(ctx context.Context, req *GoogleLoginRequest) (*SessionInfo, error)
	// Logout logs out a currently active session
	Logout(ctx context.Context, sessionID string) error
	// WhoAmI returns information about the current session
	WhoAmI(ctx context.Context, sessionID string) (*SessionInfo, error)
	// GetContents returns the session and user data associated with the given session ID
	// This service function will be used internally and does not have an endpoint
	GetContents(ctx context.Context, sessionID string, extendExpiry bool) (*models.Session, *models.User, error)
}

// DeviceSession remembers the user signed in on this device
type DeviceSession interface {
	SetCurrentUser(u *models.User) error
}

// -- Session service implementation -----------------------------------------------------------------------------------

// SessionInfo is a session information object that is returned upon login. It contains both, the session ID and
// information about the user that is logged in
type SessionInfo struct {
	SessionID string      `json:"sessionId"`
	User      models.User `json:"user"`
}

type sessionService struct {
	logger      *logrus.Entry
	sessions    repos.SessionRepo
	users       repos.UserRepo
	device      DeviceSession
	verifier    identity.Verifier
	minPassword int
}

// NewSessionService creates a new session service instance with the provided repositories. verifier may be nil, which
// disables Google sign-in
func NewSessionService(
	sr repos.SessionRepo,
	ur repos.UserRepo,
	device DeviceSession,
	verifier identity.Verifier,
	conf models.AuthConfig,
	logger *logrus.Entry,
) SessionService {
	return &sessionService{
		logger:      logger,
		sessions:    sr,
		users:       ur,
		device:      device,
		verifier:    verifier,
		minPassword: conf.MinPasswordLength,
	}
}

// makeSessionInfo creates a session info object from the given session and user data
func makeSessionInfo(sess *models.Session, user *models.User) *SessionInfo {
	return &SessionInfo{
		SessionID: sess.ID,
		User:      user.Public(),
	}
}

// startSession creates an API session for the user and remembers the user as signed in on the device
func (s *sessionService) startSession(ctx context.Context, u *models.User) (*SessionInfo, error) {
	logger := ctxhelper.Logger(ctx)
	sess, err := s.sessions.CreateFor(u.ID)
	if err != nil {
		logger.WithError(err).Error("Failed to create session")
		return nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Failed to create session",
		)
	}
	if err := s.device.SetCurrentUser(u); err != nil {
		logger.WithError(err).Warn("Failed to remember the signed-in user on the device")
	}
	logger.WithField(log.FldUser, u.ID).Info("User signed in")
	return makeSessionInfo(sess, u), nil
}

// Register creates a new password account and signs it in
func (s *sessionService) Register(ctx context.Context, req *RegisterRequest) (*SessionInfo, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = models.NormalizeEmail(req.Email)
	if err := validateStruct(ctx, req); err != nil {
		return nil, err
	}
	if len(req.Password) < s.minPassword {
		return nil, MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodePasswordTooShort,
			"The password is too short",
			map[string]int{"minLength": s.minPassword},
		)
	}
	if req.Password != req.ConfirmPassword {
		return nil, MakeError(http.StatusBadRequest, ErrCodePasswordMismatch, "The passwords do not match")
	}
	u := models.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  models.RoleUser,
	}
	if err := u.SetPassword(req.Password); err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeUnknown, "Failed to store password", err)
	}
	if err := s.users.Create(&u); err != nil {
		if errors.Cause(err) == repos.ErrDuplicateEmail {
			return nil, MakeError(
				http.StatusConflict,
				ErrCodeDuplicateEmail,
				"The e-mail address is already registered",
			)
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to create user", err)
	}
	return s.startSession(ctx, &u)
}

// Login tries to log-in the user with the given credentials
func (s *sessionService) Login(ctx context.Context, req *LoginRequest) (*SessionInfo, error) {
	if err := validateStruct(ctx, req); err != nil {
		return nil, err
	}
	failed := MakeError(
		http.StatusForbidden,
		ErrCodeLoginFailed,
		"Login failed",
	)
	u, err := s.users.GetByEmail(req.Email)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, failed
		}
		ctxhelper.Logger(ctx).WithError(err).Error("Failed to load user data for auth")
		return nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Failed to authenticate user",
		)
	}
	if err := u.CheckPassword(req.Password); err != nil {
		return nil, failed
	}
	return s.startSession(ctx, u)
}

// LoginGoogle signs in with a Google ID token
func (s *sessionService) LoginGoogle(ctx context.Context, req *GoogleLoginRequest) (*SessionInfo, error) {
	if s.verifier == nil {
		return nil, MakeError(http.StatusNotImplemented, ErrCodeGoogleLoginDisabled, "Google sign-in is not configured")
	}
	if err := validateStruct(ctx, req); err != nil {
		return nil, err
	}
	logger := ctxhelper.Logger(ctx)
	claims, err := s.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		logger.WithError(err).Warn("Rejected Google ID token")
		return nil, MakeError(http.StatusUnauthorized, ErrCodeInvalidIDToken, "Invalid Google ID token")
	}
	u, err := s.users.GetByEmail(claims.Email)
	switch {
	case err == repos.ErrEntityNotExisting:
		name := strings.TrimSpace(claims.Name)
		if name == "" {
			name = strings.SplitN(claims.Email, "@", 2)[0]
		}
		u = &models.User{
			Name:  name,
			Email: claims.Email,
			Role:  models.RoleUser,
		}
		if err := s.users.Create(u); err != nil {
			return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to create user", err)
		}
		logger.WithField(log.FldEmail, u.Email).Info("Created account for Google user")
	case err != nil:
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to load user", err)
	}
	return s.startSession(ctx, u)
}

// Logout logs out a currently active session
func (s *sessionService) Logout(ctx context.Context, sessionID string) error {
	err := s.sessions.Delete(sessionID)
	if err != nil {
		ctxhelper.Logger(ctx).WithError(err).Error("Failed to delete session")
		return MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Failed to logout. Error in the data store",
		)
	}
	if err := s.device.SetCurrentUser(nil); err != nil {
		ctxhelper.Logger(ctx).WithError(err).Warn("Failed to forget the signed-in user on the device")
	}
	return nil
}

// WhoAmI returns information about the current session
func (s *sessionService) WhoAmI(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, u, err := s.GetContents(ctx, sessionID, false)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotLoggedIn
	}
	return makeSessionInfo(sess, u), nil
}

// GetContents returns the session and user data associated with the given session ID
// This service function will be used internally and does not have an endpoint
func (s *sessionService) GetContents(ctx context.Context, sessionID string, extendExpiry bool) (*models.Session, *models.User, error) {
	sess, err := s.sessions.GetByID(sessionID, extendExpiry)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, nil, nil
		}
		s.logger.WithError(err).Error("Failed to retrieve session from repo")
		return nil, nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Failed to retrieve session information from storage",
		)
	}
	u, err := s.users.GetByID(sess.UserID)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, nil, nil
		}
		s.logger.WithError(err).Error("Failed to retrieve user data from repo")
		return nil, nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Failed to retrieve user information from storage",
		)
	}
	return sess, u, nil
}
