package local

import (
	"github.com/google/uuid"

	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
)

// NotificationRepo keeps the log of sent notifications
type NotificationRepo struct {
	s *Store
}

// Append adds a notification to the log
func (r *NotificationRepo) Append(n *models.Notification) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	var sent []models.Notification
	if err := r.s.loadList(KeySentEmails, &sent); err != nil {
		return err
	}
	if n.ID == "" {
		n.ID = r.s.newID(func(id string) bool {
			for _, o := range sent {
				if o.ID == id {
					return true
				}
			}
			return false
		})
	}
	if n.SentAt.IsZero() {
		n.SentAt = r.s.now().UTC()
	}
	return r.s.writeJSON(KeySentEmails, append(sent, *n))
}

// List returns the log, oldest entry first
func (r *NotificationRepo) List() ([]models.Notification, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	sent := []models.Notification{}
	if err := r.s.loadList(KeySentEmails, &sent); err != nil {
		return nil, err
	}
	return sent, nil
}

// -- Images -----------------------------------------------------------------------------------------------------------

// ImageRepo stores every image under its own key and keeps a registry of all images
type ImageRepo struct {
	s *Store
}

// Save stores the image blob and registers it
func (r *ImageRepo) Save(img *models.Image) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	var registry []models.ImageInfo
	if err := r.s.loadList(KeyImageRegistry, &registry); err != nil {
		return err
	}
	img.ID = uuid.New().String()
	if img.UploadedAt.IsZero() {
		img.UploadedAt = r.s.now().UTC()
	}
	if err := r.s.writeJSON(keyImagePrefix+img.ID, img); err != nil {
		return err
	}
	r.s.logger.WithField(log.FldImage, img.ID).Debug("Stored image")
	return r.s.writeJSON(KeyImageRegistry, append([]models.ImageInfo{img.ImageInfo}, registry...))
}

// Get loads a stored image
func (r *ImageRepo) Get(id string) (*models.Image, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	if _, err := uuid.Parse(id); err != nil {
		return nil, repos.ErrEntityNotExisting
	}
	var img models.Image
	found, err := r.s.readJSON(keyImagePrefix+id, &img)
	if !found {
		if err == nil {
			err = repos.ErrEntityNotExisting
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// List returns the registry, newest image first
func (r *ImageRepo) List() ([]models.ImageInfo, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()
	registry := []models.ImageInfo{}
	if err := r.s.loadList(KeyImageRegistry, &registry); err != nil {
		return nil, err
	}
	return registry, nil
}
