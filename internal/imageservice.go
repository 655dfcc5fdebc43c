package internal

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp" // decoder registration
	"golang.org/x/net/context"

	"github.com/1752rissy/enterate/internal/ctxhelper"
	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
)

// ImageService stores images uploaded for events and profiles
type ImageService interface {
	// Upload checks, normalizes and stores an uploaded image
	Upload(ctx context.Context, upload *ImageUpload) (*models.ImageInfo, error)
	// List returns the registry of uploaded images, newest first
	List(ctx context.Context) ([]models.ImageInfo, error)
	// Get returns the binary content of a stored image
	Get(ctx context.Context, id string) (*ImageBlob, error)
}

// ImageUpload is an image file sent by the client
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// ImageBlob is the binary content of a stored image
type ImageBlob struct {
	ContentType string
	Data        []byte
}

// -- ImageService implementation --------------------------------------------------------------------------------------

type imageService struct {
	repo   repos.ImageRepo
	conf   models.ImageConfig
	logger *logrus.Entry
}

// NewImageService creates a new image service storing into repo
func NewImageService(repo repos.ImageRepo, conf models.ImageConfig, logger *logrus.Entry) ImageService {
	return &imageService{
		repo:   repo,
		conf:   conf,
		logger: logger,
	}
}

// Upload checks, normalizes and stores an uploaded image. Images exceeding the configured bounds are scaled down;
// PNGs stay PNGs to keep their transparency, everything else is stored as JPEG
func (s *imageService) Upload(ctx context.Context, upload *ImageUpload) (*models.ImageInfo, error) {
	raw, err := io.ReadAll(io.LimitReader(upload.Content, int64(s.conf.MaxBytes)+1))
	if err != nil {
		return nil, MakeErrorWithData(http.StatusBadRequest, ErrCodeIllegalValue, "Failed to read upload", err)
	}
	if len(raw) > s.conf.MaxBytes {
		return nil, MakeErrorWithData(
			http.StatusRequestEntityTooLarge,
			ErrCodeImageTooLarge,
			"The image is too large",
			map[string]int{"maxBytes": s.conf.MaxBytes},
		)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, MakeError(http.StatusUnsupportedMediaType, ErrCodeUnsupportedImage, "Unsupported image format")
	}
	if s.conf.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(s.conf.MaxPixels) {
		return nil, MakeErrorWithData(
			http.StatusRequestEntityTooLarge,
			ErrCodeImageTooLarge,
			fmt.Sprintf("The image has too many pixels (%dx%d)", cfg.Width, cfg.Height),
			map[string]int{"maxPixels": s.conf.MaxPixels},
		)
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, MakeError(http.StatusUnsupportedMediaType, ErrCodeUnsupportedImage, "Unsupported image format")
	}
	b := img.Bounds()
	if b.Dx() > s.conf.MaxWidth || b.Dy() > s.conf.MaxHeight {
		img = imaging.Fit(img, s.conf.MaxWidth, s.conf.MaxHeight, imaging.Lanczos)
	}

	outFormat, contentType := imaging.JPEG, "image/jpeg"
	if format == "png" {
		outFormat, contentType = imaging.PNG, "image/png"
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, outFormat, imaging.JPEGQuality(85)); err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeUnknown, "Failed to encode image", err)
	}

	name := path.Base(strings.ReplaceAll(upload.Filename, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}
	stored := models.Image{
		ImageInfo: models.ImageInfo{
			Filename:    name,
			ContentType: contentType,
			Size:        buf.Len(),
			Width:       img.Bounds().Dx(),
			Height:      img.Bounds().Dy(),
		},
		Data: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
	if err := s.repo.Save(&stored); err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to store image", err)
	}
	ctxhelper.Logger(ctx).WithFields(logrus.Fields{
		log.FldImage: stored.ID,
		"format":     format,
	}).Infof("Image stored (%dx%d)", stored.Width, stored.Height)
	return &stored.ImageInfo, nil
}

// List returns the registry of uploaded images
func (s *imageService) List(ctx context.Context) ([]models.ImageInfo, error) {
	lst, err := s.repo.List()
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to list images", err)
	}
	return lst, nil
}

// Get returns the binary content of a stored image
func (s *imageService) Get(ctx context.Context, id string) (*ImageBlob, error) {
	img, err := s.repo.Get(id)
	if err != nil {
		return nil, repoError(err, ErrCodeImageNotFound, fmt.Sprintf("Image '%s' does not exist", id))
	}
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Stored image is corrupt", err)
	}
	return &ImageBlob{ContentType: img.ContentType, Data: data}, nil
}
