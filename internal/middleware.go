package internal

import (
	"github.com/go-kit/kit/endpoint"
	"golang.org/x/net/context"

	"github.com/1752rissy/enterate/internal/ctxhelper"
)

// EnsureUserLoggedIn is a middleware that checks if there is a valid user session for the current call
func EnsureUserLoggedIn(next endpoint.Endpoint) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		user := ctxhelper.User(ctx)
		if user == nil {
			// Nobody logged in
			return nil, ErrNotLoggedIn
		}
		return next(ctx, request)
	}
}

// EnsureModerator is a middleware that only lets moderators and admins pass
func EnsureModerator(next endpoint.Endpoint) endpoint.Endpoint {
	return EnsureUserLoggedIn(func(ctx context.Context, request interface{}) (interface{}, error) {
		if !ctxhelper.User(ctx).CanModerate() {
			return nil, ErrPermissionDenied
		}
		return next(ctx, request)
	})
}

// EnsureAdmin is a middleware that only lets admins pass
func EnsureAdmin(next endpoint.Endpoint) endpoint.Endpoint {
	return EnsureUserLoggedIn(func(ctx context.Context, request interface{}) (interface{}, error) {
		if !ctxhelper.User(ctx).IsAdmin() {
			return nil, ErrPermissionDenied
		}
		return next(ctx, request)
	})
}
