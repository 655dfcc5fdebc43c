package internal

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/1752rissy/enterate/internal/ctxhelper"
	"github.com/1752rissy/enterate/internal/repos"
	"github.com/1752rissy/enterate/internal/repos/local"
)

// DeviceService reports and maintains the data kept on this device
type DeviceService interface {
	// Status tells which backend serves the domain data and what the device store holds
	Status(ctx context.Context) (*DeviceStatus, error)
	// Export creates a backup of the device store
	Export(ctx context.Context) (*local.Export, error)
	// Import restores a backup created by Export
	Import(ctx context.Context, data []byte) error
	// Clear wipes the device store. The demo data comes back on next access
	Clear(ctx context.Context) error
}

// DeviceStatus is the answer of the status endpoint
type DeviceStatus struct {
	Backend   repos.Kind   `json:"backend"`
	SessionID string       `json:"sessionId"`
	Local     *local.Stats `json:"local"`
}

// -- DeviceService implementation -------------------------------------------------------------------------------------

type deviceService struct {
	store   *local.Store
	backend repos.Kind
	logger  *logrus.Entry
}

// NewDeviceService creates a new device service. backend is the kind of the backend selected at startup
func NewDeviceService(store *local.Store, backend repos.Kind, logger *logrus.Entry) DeviceService {
	return &deviceService{
		store:   store,
		backend: backend,
		logger:  logger,
	}
}

// Status tells which backend serves the domain data and what the device store holds
func (s *deviceService) Status(ctx context.Context) (*DeviceStatus, error) {
	sid, err := s.store.SessionID()
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to read device session", err)
	}
	st, err := s.store.Stats()
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to count local data", err)
	}
	return &DeviceStatus{
		Backend:   s.backend,
		SessionID: sid,
		Local:     st,
	}, nil
}

// Export creates a backup of the device store
func (s *deviceService) Export(ctx context.Context) (*local.Export, error) {
	exp, err := s.store.Export()
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to export local data", err)
	}
	return exp, nil
}

// Import restores a backup created by Export
func (s *deviceService) Import(ctx context.Context, data []byte) error {
	if err := s.store.Import(data); err != nil {
		ctxhelper.Logger(ctx).WithError(err).Warn("Import failed")
		return MakeError(http.StatusBadRequest, ErrCodeIllegalImport, "The backup could not be imported")
	}
	return nil
}

// Clear wipes the device store
func (s *deviceService) Clear(ctx context.Context) error {
	if err := s.store.Clear(); err != nil {
		return MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to clear local data", err)
	}
	ctxhelper.Logger(ctx).Warn("Local data cleared")
	return nil
}
