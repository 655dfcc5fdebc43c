package internal

import (
	"fmt"

	"github.com/go-kit/kit/endpoint"
	"golang.org/x/net/context"

	"github.com/1752rissy/enterate/internal/models"
)

// EventEndpoints is a collection of endpoints for working with the event service
type EventEndpoints struct {
	List             endpoint.Endpoint
	Refresh          endpoint.Endpoint
	Get              endpoint.Endpoint
	Create           endpoint.Endpoint
	Update           endpoint.Endpoint
	Delete           endpoint.Endpoint
	SetInteraction   endpoint.Endpoint
	InteractionState endpoint.Endpoint
	AddComment       endpoint.Endpoint
	AwardPoints      endpoint.Endpoint
	Categories       endpoint.Endpoint
}

// SessionEndpoints is a collection of endpoints for working with the session service
type SessionEndpoints struct {
	Register    endpoint.Endpoint
	Login       endpoint.Endpoint
	LoginGoogle endpoint.Endpoint
	Logout      endpoint.Endpoint
	WhoAmI      endpoint.Endpoint
}

// UserEndpoints is a collection of endpoints for points and role requests
type UserEndpoints struct {
	Points          endpoint.Endpoint
	RequestRole     endpoint.Endpoint
	PendingRequests endpoint.Endpoint
	Decide          endpoint.Endpoint
}

// NotificationEndpoints is a collection of endpoints of the notification service
type NotificationEndpoints struct {
	List endpoint.Endpoint
}

// ImageEndpoints is a collection of endpoints of the image service
type ImageEndpoints struct {
	Upload endpoint.Endpoint
	List   endpoint.Endpoint
	Get    endpoint.Endpoint
}

// DeviceEndpoints is a collection of endpoints for the device-local data
type DeviceEndpoints struct {
	Status endpoint.Endpoint
	Export endpoint.Endpoint
	Import endpoint.Endpoint
	Clear  endpoint.Endpoint
}

// The base for all responses which always contains an "ok" property to show if the call was successful and a
// data element containing the result of the request
type basicResponse struct {
	OK   bool        `json:"ok"`
	Data interface{} `json:"data,omitempty"`
}

// A decision on a role request
type decideRequest struct {
	UserID  string
	Approve bool
}

// -- Events -----------------------------------------------------------------------------------------------------------

// MakeEventEndpoints builds the endpoints needed to communicate with the Event Service
func MakeEventEndpoints(s EventService) EventEndpoints {
	return EventEndpoints{
		List:             makeListEventsEndpoint(s),
		Refresh:          makeRefreshEndpoint(s),
		Get:              makeGetEventEndpoint(s),
		Create:           EnsureUserLoggedIn(makeCreateEventEndpoint(s)),
		Update:           EnsureUserLoggedIn(makeUpdateEventEndpoint(s)),
		Delete:           EnsureUserLoggedIn(makeDeleteEventEndpoint(s)),
		SetInteraction:   EnsureUserLoggedIn(makeSetInteractionEndpoint(s)),
		InteractionState: EnsureUserLoggedIn(makeInteractionStateEndpoint(s)),
		AddComment:       EnsureUserLoggedIn(makeAddCommentEndpoint(s)),
		AwardPoints:      EnsureModerator(makeAwardPointsEndpoint(s)),
		Categories:       makeCategoriesEndpoint(s),
	}
}

func makeListEventsEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		filter, ok := request.(EventFilter)
		if !ok {
			return nil, fmt.Errorf("illegal filter parameter")
		}
		list, err := s.List(ctx, &filter)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, list}, nil
	}
}

func makeRefreshEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		res, err := s.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, res}, nil
	}
}

func makeGetEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal event ID")
		}
		ev, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

func makeCreateEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		event, ok := request.(models.Event)
		if !ok {
			return nil, fmt.Errorf("illegal event parameter")
		}
		ev, err := s.Create(ctx, &event)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

func makeUpdateEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		event, ok := request.(models.Event)
		if !ok {
			return nil, fmt.Errorf("illegal event parameter")
		}
		ev, err := s.Update(ctx, &event)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

func makeDeleteEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal event ID")
		}
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

func makeSetInteractionEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(InteractionRequest)
		if !ok {
			return nil, fmt.Errorf("illegal interaction request")
		}
		if err := s.SetInteraction(ctx, &req); err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

func makeInteractionStateEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal event ID")
		}
		st, err := s.InteractionState(ctx, id)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, st}, nil
	}
}

func makeAddCommentEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(CommentRequest)
		if !ok {
			return nil, fmt.Errorf("illegal comment")
		}
		c, err := s.AddComment(ctx, &req)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, c}, nil
	}
}

func makeAwardPointsEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(AwardRequest)
		if !ok {
			return nil, fmt.Errorf("illegal award request")
		}
		entry, err := s.AwardPoints(ctx, &req)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, entry}, nil
	}
}

func makeCategoriesEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		return basicResponse{true, s.Categories(ctx)}, nil
	}
}

// -- Sessions ---------------------------------------------------------------------------------------------------------

// MakeSessionEndpoints builds the endpoints needed to communicate with the Session Service
func MakeSessionEndpoints(s SessionService) SessionEndpoints {
	return SessionEndpoints{
		Register:    makeRegisterEndpoint(s),
		Login:       makeLoginEndpoint(s),
		LoginGoogle: makeLoginGoogleEndpoint(s),
		Logout:      makeLogoutEndpoint(s),
		WhoAmI:      makeWhoAmIEndpoint(s),
	}
}

func makeRegisterEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(RegisterRequest)
		if !ok {
			return nil, fmt.Errorf("illegal registration request")
		}
		si, err := s.Register(ctx, &req)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, si}, nil
	}
}

func makeLoginEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(LoginRequest)
		if !ok {
			return nil, fmt.Errorf("illegal login request")
		}
		si, err := s.Login(ctx, &req)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, si}, nil
	}
}

func makeLoginGoogleEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(GoogleLoginRequest)
		if !ok {
			return nil, fmt.Errorf("illegal login request")
		}
		si, err := s.LoginGoogle(ctx, &req)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, si}, nil
	}
}

func makeLogoutEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal session token")
		}
		if err := s.Logout(ctx, id); err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

func makeWhoAmIEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal session token")
		}
		si, err := s.WhoAmI(ctx, id)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, si}, nil
	}
}

// -- Users ------------------------------------------------------------------------------------------------------------

// MakeUserEndpoints builds the endpoints of the user service
func MakeUserEndpoints(s UserService) UserEndpoints {
	return UserEndpoints{
		Points:          EnsureUserLoggedIn(makePointsEndpoint(s)),
		RequestRole:     EnsureUserLoggedIn(makeRequestRoleEndpoint(s)),
		PendingRequests: EnsureModerator(makePendingRequestsEndpoint(s)),
		Decide:          EnsureModerator(makeDecideEndpoint(s)),
	}
}

func makePointsEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		total, err := s.Points(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, map[string]int{"points": total}}, nil
	}
}

func makeRequestRoleEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(RoleRequest)
		if !ok {
			return nil, fmt.Errorf("illegal role request")
		}
		u, err := s.RequestRole(ctx, &req)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, u}, nil
	}
}

func makePendingRequestsEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		lst, err := s.PendingRequests(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, lst}, nil
	}
}

func makeDecideEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(decideRequest)
		if !ok {
			return nil, fmt.Errorf("illegal decision")
		}
		u, err := s.Decide(ctx, req.UserID, req.Approve)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, u}, nil
	}
}

// -- Notifications ----------------------------------------------------------------------------------------------------

// MakeNotificationEndpoints builds the endpoints of the notification service
func MakeNotificationEndpoints(s NotificationService) NotificationEndpoints {
	return NotificationEndpoints{
		List: EnsureModerator(func(ctx context.Context, _ interface{}) (interface{}, error) {
			lst, err := s.List(ctx)
			if err != nil {
				return nil, err
			}
			return basicResponse{true, lst}, nil
		}),
	}
}

// -- Images -----------------------------------------------------------------------------------------------------------

// MakeImageEndpoints builds the endpoints of the image service
func MakeImageEndpoints(s ImageService) ImageEndpoints {
	return ImageEndpoints{
		Upload: EnsureUserLoggedIn(makeUploadImageEndpoint(s)),
		List:   makeListImagesEndpoint(s),
		Get:    makeGetImageEndpoint(s),
	}
}

func makeUploadImageEndpoint(s ImageService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		upload, ok := request.(ImageUpload)
		if !ok {
			return nil, fmt.Errorf("illegal upload")
		}
		info, err := s.Upload(ctx, &upload)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, info}, nil
	}
}

func makeListImagesEndpoint(s ImageService) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		lst, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, lst}, nil
	}
}

// The response is the raw image - see encodeImageResponse
func makeGetImageEndpoint(s ImageService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal image ID")
		}
		return s.Get(ctx, id)
	}
}

// -- Device -----------------------------------------------------------------------------------------------------------

// MakeDeviceEndpoints builds the endpoints of the device service
func MakeDeviceEndpoints(s DeviceService) DeviceEndpoints {
	return DeviceEndpoints{
		Status: func(ctx context.Context, _ interface{}) (interface{}, error) {
			st, err := s.Status(ctx)
			if err != nil {
				return nil, err
			}
			return basicResponse{true, st}, nil
		},
		Export: EnsureAdmin(func(ctx context.Context, _ interface{}) (interface{}, error) {
			exp, err := s.Export(ctx)
			if err != nil {
				return nil, err
			}
			return basicResponse{true, exp}, nil
		}),
		Import: EnsureAdmin(func(ctx context.Context, request interface{}) (interface{}, error) {
			data, ok := request.([]byte)
			if !ok {
				return nil, fmt.Errorf("illegal backup")
			}
			if err := s.Import(ctx, data); err != nil {
				return nil, err
			}
			return basicResponse{true, nil}, nil
		}),
		Clear: EnsureAdmin(func(ctx context.Context, _ interface{}) (interface{}, error) {
			if err := s.Clear(ctx); err != nil {
				return nil, err
			}
			return basicResponse{true, nil}, nil
		}),
	}
}
