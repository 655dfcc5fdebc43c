package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-kit/kit/endpoint"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/kardianos/osext"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/1752rissy/enterate/internal/ctxhelper"
	"github.com/1752rissy/enterate/internal/i18n"
	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
)

const (
	apiBasePath = "/api"
	// Upper bound for request bodies read into memory (uploads and backups). The image service applies its own,
	// usually lower, limit
	maxBodyBytes = 32 << 20
)

// Defines an error that defines the HTTP status that should be returned
type httpStatuser interface {
	Status() int
}

// Defines an error that returns a machine-readable error code
type errorCoder interface {
	ErrorCode() string
}

// Defines an error that contains a data field with additional information
type dataBearer interface {
	Data() interface{}
}

type errorResponse struct {
	basicResponse
	// The error code
	Error   string      `json:"error"`
	Message string      `json:"errorMessage"`
	Details interface{} `json:"errorDetails,omitempty"`
}

// Services bundles the services served over HTTP
type Services struct {
	Events        EventService
	Sessions      SessionService
	Users         UserService
	Notifications NotificationService
	Images        ImageService
	Device        DeviceService
}

// MakeHTTPHandler creates the main HTTP handler for the Entérate service
func MakeHTTPHandler(svc Services, logger *logrus.Entry) http.Handler {
	r := mux.NewRouter()

	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(encodeError),
		httptransport.ServerBefore(makeContextInjector(logger)),
		httptransport.ServerBefore(makeSessionDecoder(svc.Sessions)),
	}
	handle := func(method, p string, ep endpoint.Endpoint, dec httptransport.DecodeRequestFunc) {
		r.Methods(method).Path(apiBasePath + p).Handler(httptransport.NewServer(
			ep,
			dec,
			encodeJSONResponse,
			options...,
		))
	}

	// -- Event Service --------------------------------
	{
		evEp := MakeEventEndpoints(svc.Events)

		handle(http.MethodGet, "/events", evEp.List, decodeEventFilter)
		handle(http.MethodPost, "/events/refresh", evEp.Refresh, decodeNilRequest)
		handle(http.MethodGet, "/events/{id}", evEp.Get, decodeIDFromPath)
		handle(http.MethodPost, "/events", evEp.Create, decodeEvent)
		handle(http.MethodPut, "/events/{id}", evEp.Update, decodeEventUpdate)
		handle(http.MethodDelete, "/events/{id}", evEp.Delete, decodeIDFromPath)

		// Interactions - PUT makes the relationship present, DELETE absent
		for _, kind := range []models.InteractionKind{models.InteractionLike, models.InteractionAttend} {
			handle(http.MethodPut, "/events/{id}/"+string(kind), evEp.SetInteraction, decodeInteraction(kind, true))
			handle(http.MethodDelete, "/events/{id}/"+string(kind), evEp.SetInteraction, decodeInteraction(kind, false))
		}
		handle(http.MethodGet, "/events/{id}/interactions", evEp.InteractionState, decodeIDFromPath)
		handle(http.MethodPost, "/events/{id}/comments", evEp.AddComment, decodeCommentRequest)
		handle(http.MethodPost, "/events/{id}/points/{userId}", evEp.AwardPoints, decodeAwardRequest)
		handle(http.MethodGet, "/categories", evEp.Categories, decodeNilRequest)
	}

	// -- Session Service ------------------------------
	{
		sEp := MakeSessionEndpoints(svc.Sessions)

		handle(http.MethodPost, "/register", sEp.Register, decodeRegisterRequest)
		handle(http.MethodPost, "/login", sEp.Login, decodeLoginRequest)
		handle(http.MethodPost, "/login/google", sEp.LoginGoogle, decodeGoogleLoginRequest)
		handle(http.MethodPost, "/logout", sEp.Logout, decodeToken)
		handle(http.MethodGet, "/whoami", sEp.WhoAmI, decodeToken)
	}

	// -- User Service ---------------------------------
	{
		uEp := MakeUserEndpoints(svc.Users)

		handle(http.MethodGet, "/users/me/points", uEp.Points, decodeNilRequest)
		handle(http.MethodPost, "/users/me/role-request", uEp.RequestRole, decodeRoleRequest)
		handle(http.MethodGet, "/users/requests", uEp.PendingRequests, decodeNilRequest)
		handle(http.MethodPost, "/users/{id}/approve", uEp.Decide, decodeDecision(true))
		handle(http.MethodPost, "/users/{id}/reject", uEp.Decide, decodeDecision(false))
	}

	// -- Notification Service -------------------------
	{
		nEp := MakeNotificationEndpoints(svc.Notifications)

		handle(http.MethodGet, "/notifications", nEp.List, decodeNilRequest)
	}

	// -- Image Service --------------------------------
	{
		iEp := MakeImageEndpoints(svc.Images)

		handle(http.MethodPost, "/images", iEp.Upload, decodeImageUpload)
		handle(http.MethodGet, "/images", iEp.List, decodeNilRequest)
		r.Methods(http.MethodGet).Path(apiBasePath + "/images/{id}").Handler(httptransport.NewServer(
			iEp.Get,
			decodeIDFromPath,
			encodeImageResponse,
			options...,
		))
	}

	// -- Device Service -------------------------------
	{
		dEp := MakeDeviceEndpoints(svc.Device)

		handle(http.MethodGet, "/status", dEp.Status, decodeNilRequest)
		handle(http.MethodGet, "/local/export", dEp.Export, decodeNilRequest)
		handle(http.MethodPost, "/local/import", dEp.Import, decodeRawBody)
		handle(http.MethodDelete, "/local", dEp.Clear, decodeNilRequest)
	}

	// Simple alive answer for checking if HTTP can be reached
	r.Methods(http.MethodGet).Path("/alive").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		data := map[string]bool{"ok": true}
		json.NewEncoder(w).Encode(data)
	})

	// Plain file service for the UI serving everything from the "ui" folder right beside the application executable
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		panic(err)
	}
	uiDir := filepath.Join(execDir, "ui")
	r.Methods(http.MethodGet).PathPrefix("/").Handler(http.FileServer(http.Dir(uiDir)))

	return r
}

// decodeNilRequest just does nothing with the request. It is used for endpoints that don't need anything to be passed
func decodeNilRequest(_ context.Context, r *http.Request) (request interface{}, err error) {
	return nil, nil
}

// decodeJSONBody decodes the request's JSON body into v
func decodeJSONBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	return nil
}

// getStringFromPath is a helper function that gets a non-empty path variable
func getStringFromPath(varname string, r *http.Request) (string, error) {
	str := strings.TrimSpace(mux.Vars(r)[varname])
	if str == "" {
		return "", MakeError(
			http.StatusBadRequest,
			ErrCodeRequiredFieldMissing,
			fmt.Sprintf("No value for '%s' provided", varname),
		)
	}
	return str, nil
}

// Decodes an ID from the "id" path variable provided by GoRilla
func decodeIDFromPath(_ context.Context, r *http.Request) (interface{}, error) {
	return getStringFromPath("id", r)
}

// decodeToken gets the token from the call's context
func decodeToken(ctx context.Context, r *http.Request) (request interface{}, err error) {
	session := ctxhelper.Session(ctx)
	if session == nil {
		return nil, ErrNotLoggedIn
	}
	return session.ID, nil
}

// decodeEventFilter reads the GET variables "search" and "category"
func decodeEventFilter(_ context.Context, r *http.Request) (interface{}, error) {
	val := r.URL.Query()
	return EventFilter{
		Search:   strings.TrimSpace(val.Get("search")),
		Category: strings.TrimSpace(val.Get("category")),
	}, nil
}

// decodeEvent tries to load an event object from the provided HTTP request's body
func decodeEvent(_ context.Context, r *http.Request) (interface{}, error) {
	var ev models.Event
	if err := decodeJSONBody(r, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Decodes an event from an update request where the ID of the event is in the path
func decodeEventUpdate(ctx context.Context, r *http.Request) (interface{}, error) {
	ev, err := decodeEvent(ctx, r)
	if err != nil {
		return nil, err
	}
	id, err := getStringFromPath("id", r)
	if err != nil {
		return nil, err
	}
	ret := ev.(models.Event)
	ret.ID = id
	return ret, nil
}

// decodeInteraction creates a decoder for setting an interaction of the given kind on the event in the path
func decodeInteraction(kind models.InteractionKind, present bool) httptransport.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (interface{}, error) {
		id, err := getStringFromPath("id", r)
		if err != nil {
			return nil, err
		}
		return InteractionRequest{EventID: id, Kind: kind, Present: present}, nil
	}
}

func decodeCommentRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req CommentRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return nil, err
	}
	id, err := getStringFromPath("id", r)
	if err != nil {
		return nil, err
	}
	req.EventID = id
	return req, nil
}

func decodeAwardRequest(_ context.Context, r *http.Request) (interface{}, error) {
	eventID, err := getStringFromPath("id", r)
	if err != nil {
		return nil, err
	}
	userID, err := getStringFromPath("userId", r)
	if err != nil {
		return nil, err
	}
	return AwardRequest{EventID: eventID, UserID: userID}, nil
}

func decodeRegisterRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req RegisterRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return nil, err
	}
	return req, nil
}

// decodeLoginRequest decodes a login request from the JSON body
func decodeLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req LoginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeGoogleLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req GoogleLoginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeRoleRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req RoleRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return nil, err
	}
	return req, nil
}

// decodeDecision creates a decoder approving or rejecting the role request of the user in the path
func decodeDecision(approve bool) httptransport.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (interface{}, error) {
		id, err := getStringFromPath("id", r)
		if err != nil {
			return nil, err
		}
		return decideRequest{UserID: id, Approve: approve}, nil
	}
}

// decodeImageUpload reads the file of the multipart field "image"
func decodeImageUpload(_ context.Context, r *http.Request) (interface{}, error) {
	f, hdr, err := r.FormFile("image")
	if err != nil {
		return nil, MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeRequiredFieldMissing,
			"No image provided",
			map[string]string{"field": "image", "rule": "required"},
		)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBodyBytes))
	if err != nil {
		return nil, MakeErrorWithData(http.StatusBadRequest, ErrCodeIllegalValue, "Failed to read upload", err)
	}
	return ImageUpload{Filename: hdr.Filename, Content: bytes.NewReader(data)}, nil
}

// decodeRawBody passes the request body on as byte slice
func decodeRawBody(_ context.Context, r *http.Request) (interface{}, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, MakeErrorWithData(http.StatusBadRequest, ErrCodeIllegalValue, "Failed to read request body", err)
	}
	return data, nil
}

// Encodes a typical JSON response
func encodeJSONResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}

// Writes a stored image as it is
func encodeImageResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	blob, ok := response.(*ImageBlob)
	if !ok {
		return fmt.Errorf("illegal image response")
	}
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, err := w.Write(blob.Data)
	return err
}

// Builds an error response based on the incoming error. The message is translated into the language negotiated with
// the client
func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	if err == nil {
		panic("encodeError with nil error")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if st, ok := err.(httpStatuser); ok {
		w.WriteHeader(st.Status())
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}
	ret := errorResponse{
		basicResponse: basicResponse{false, nil},
		Message:       err.Error(),
		Error:         ErrCodeUnknown,
	}
	if cd, ok := err.(errorCoder); ok {
		ret.Error = cd.ErrorCode()
		ret.Message = i18n.Translate(ctxhelper.Language(ctx), ret.Error, ret.Message)
	}
	if db, ok := err.(dataBearer); ok {
		if data := db.Data(); data != nil {
			if err, ok := data.(error); ok {
				ret.Details = err.Error()
			} else {
				ret.Details = data
			}
		}
	}
	json.NewEncoder(w).Encode(&ret)
}

// makeSessionDecoder returns a function that is used in every HTTP call to decode the session used, if a session
// token is sent by the client
func makeSessionDecoder(s SessionService) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		token := strings.TrimSpace(r.Header.Get("token"))
		logger := ctxhelper.Logger(ctx)
		if token != "" {
			// Try to load the session's data
			sess, user, err := s.GetContents(ctx, token, true)
			if err != nil {
				logger.WithError(err).WithField(log.FldSession, token).Error("Failed to retrieve session information")
				return ctx
			}
			if sess == nil || user == nil {
				// Nobody logged in
				return ctx
			}
			ctx = context.WithValue(ctx, ctxhelper.KeySession, *sess)
			ctx = context.WithValue(ctx, ctxhelper.KeyUser, *user)
			ctx = context.WithValue(ctx, ctxhelper.KeyLogger, logger.WithFields(logrus.Fields{
				log.FldSession: sess.ID,
				log.FldUser:    user.ID,
			}))
		}
		return ctx
	}
}

// makeContextInjector puts the logger and the client's language into the context
func makeContextInjector(logger *logrus.Entry) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		ctx = context.WithValue(ctx, ctxhelper.KeyLogger, logger)
		return context.WithValue(ctx, ctxhelper.KeyLanguage, i18n.Negotiate(r.Header.Get("Accept-Language")))
	}
}
