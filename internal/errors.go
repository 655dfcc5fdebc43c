package internal

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/1752rissy/enterate/internal/repos"
)

const (
	// ErrCodeUnknown is the error code for unknown errors
	ErrCodeUnknown = "UNKNOWN_ERROR"
	// ErrCodeRepoError is returned when the request to a repo fails with an error
	ErrCodeRepoError = "STORAGE_QUERY_FAILED"
	// ErrCodeRequiredFieldMissing is returned when at least one required field has not been populated on an incoming
	// request
	ErrCodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	// ErrCodeIllegalJSON is returned when the request did not contain a valid JSON body
	ErrCodeIllegalJSON = "ILLEGAL_JSON_REQUEST"
	// ErrCodeIllegalValue is returned when any field in the transferred data does not validate for some reason
	ErrCodeIllegalValue = "ILLEGAL_VALUE"
	// ErrCodeEventNotFound is returned when an operation works on an event that does not exist
	ErrCodeEventNotFound = "EVENT_NOT_FOUND"
	// ErrCodeUserNotFound is returned when an operation references a user that does not exist
	ErrCodeUserNotFound = "USER_NOT_FOUND"
	// ErrCodeImageNotFound is returned when a requested image does not exist
	ErrCodeImageNotFound = "IMAGE_NOT_FOUND"
	// ErrCodeLoginFailed is returned when the user fails to login for some reason
	ErrCodeLoginFailed = "LOGIN_FAILED"
	// ErrCodeNotLoggedIn is returned when the user tried to access an API that needs a logged-in user, but the user
	// has no authenticated session
	ErrCodeNotLoggedIn = "NOT_LOGGED_IN"
	// ErrCodePermissionDenied is returned when the logged-in user lacks the role needed for an operation
	ErrCodePermissionDenied = "PERMISSION_DENIED"
	// ErrCodeDuplicateEmail is returned when registering with an e-mail address that is already in use
	ErrCodeDuplicateEmail = "DUPLICATE_EMAIL"
	// ErrCodePasswordMismatch is returned when password and confirmation differ
	ErrCodePasswordMismatch = "PASSWORD_MISMATCH"
	// ErrCodePasswordTooShort is returned when a new password is shorter than configured
	ErrCodePasswordTooShort = "PASSWORD_TOO_SHORT"
	// ErrCodeGoogleLoginDisabled is returned when Google sign-in is used without a configured client ID
	ErrCodeGoogleLoginDisabled = "GOOGLE_LOGIN_DISABLED"
	// ErrCodeInvalidIDToken is returned when a Google ID token does not verify
	ErrCodeInvalidIDToken = "INVALID_ID_TOKEN"
	// ErrCodeRoleRequestInvalid is returned when a user requests a role that cannot be requested
	ErrCodeRoleRequestInvalid = "ROLE_REQUEST_INVALID"
	// ErrCodeNoPendingRequest is returned when deciding on a user without a pending role request
	ErrCodeNoPendingRequest = "NO_PENDING_REQUEST"
	// ErrCodeNotAttending is returned when points are awarded to a user that does not attend the event
	ErrCodeNotAttending = "NOT_ATTENDING"
	// ErrCodeImageTooLarge is returned when an uploaded image exceeds the configured size
	ErrCodeImageTooLarge = "IMAGE_TOO_LARGE"
	// ErrCodeUnsupportedImage is returned when an upload is no JPEG, PNG or WebP image
	ErrCodeUnsupportedImage = "UNSUPPORTED_IMAGE"
	// ErrCodeIllegalImport is returned when a backup cannot be imported
	ErrCodeIllegalImport = "ILLEGAL_IMPORT"
)

var (
	// ErrNotLoggedIn is returned by every operation needing a signed-in user
	ErrNotLoggedIn = MakeError(
		http.StatusForbidden,
		ErrCodeNotLoggedIn,
		"This function needs a logged-in user",
	)
	// ErrPermissionDenied is returned when the role of the current user is not sufficient
	ErrPermissionDenied = MakeError(
		http.StatusForbidden,
		ErrCodePermissionDenied,
		"You are not allowed to perform this operation",
	)
)

// HTTPError is an error that contains information about the error message to return to the client
type HTTPError struct {
	message string
	code    string
	status  int
	data    interface{}
}

// MakeError creates a new HTTPError with the given contents
func MakeError(status int, code, message string) *HTTPError {
	return MakeErrorWithData(status, code, message, nil)
}

// MakeErrorWithData creates a new HTTPError with the given contents and an additional data element
func MakeErrorWithData(status int, code, message string, data interface{}) *HTTPError {
	return &HTTPError{message, code, status, data}
}

// Error implements the errorer interface
func (e *HTTPError) Error() string {
	return e.message
}

// Status returns the HTTP status that should be returned
func (e *HTTPError) Status() int {
	return e.status
}

// ErrorCode returns the machine-readable error code
func (e *HTTPError) ErrorCode() string {
	return e.code
}

// Data returns additional data about the error
func (e *HTTPError) Data() interface{} {
	return e.data
}

// repoError converts an error returned by a repository into an HTTPError. A missing entity becomes a 404 with the
// given code, everything else a storage failure
func repoError(err error, notFoundCode, message string) *HTTPError {
	if he, ok := err.(*HTTPError); ok {
		return he
	}
	if errors.Cause(err) == repos.ErrEntityNotExisting {
		return MakeError(http.StatusNotFound, notFoundCode, message)
	}
	return MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, message, err)
}
