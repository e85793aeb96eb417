package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/armour-nexus/nexus-api/internal/constants"
	"github.com/armour-nexus/nexus-api/internal/gate"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrInvalidImagePrompt = errors.New("prompt must be between 10 and 2000 characters")
	ErrInvalidImageType   = errors.New("invalid image type")
)

// ImageModel renders a prompt into PNG bytes.
type ImageModel interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

type ImageType string

const (
	ImageTypeMatchGraphic ImageType = "match_graphic"
	ImageTypeSocialPost   ImageType = "social_post"
	ImageTypeThumbnail    ImageType = "thumbnail"
	ImageTypeCustom       ImageType = "custom"
)

func (t ImageType) Valid() bool {
	switch t {
	case ImageTypeMatchGraphic, ImageTypeSocialPost, ImageTypeThumbnail, ImageTypeCustom:
		return true
	}
	return false
}

var imageStyles = map[ImageType]string{
	ImageTypeMatchGraphic: "Bold esports match announcement graphic with dynamic lighting. ",
	ImageTypeSocialPost:   "Clean esports social media post, eye-catching and on brand. ",
	ImageTypeThumbnail:    "High contrast esports video thumbnail with a clear focal point. ",
}

// ImageService generates images against the image_generation allowance and
// stores them in the object store.
type ImageService struct {
	meter Metering
	model ImageModel
	store storage.Store
	now   func() time.Time
}

func NewImageService(meter Metering, model ImageModel, store storage.Store) *ImageService {
	return &ImageService{
		meter: meter,
		model: model,
		store: store,
		now:   time.Now,
	}
}

// GenerateImageInput is one image request.
type GenerateImageInput struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Prompt         string
	ImageType      ImageType
}

// GeneratedImage is a stored image.
type GeneratedImage struct {
	URL       string
	Type      ImageType
	CreatedAt time.Time
}

// Generate consumes one image credit. Model and upload failures are not charged.
func (s *ImageService) Generate(ctx context.Context, input GenerateImageInput) (*GeneratedImage, error) {
	prompt := strings.TrimSpace(input.Prompt)
	n := len([]rune(prompt))
	if n < constants.MinImagePromptLen || n > constants.MaxImagePromptLen {
		return nil, ErrInvalidImagePrompt
	}
	imageType := input.ImageType
	if imageType == "" {
		imageType = ImageTypeCustom
	}
	if !imageType.Valid() {
		return nil, ErrInvalidImageType
	}
	actor := input.UserID

	var out GeneratedImage
	_, err := s.meter.Meter(ctx, gate.Request{
		Actor:          &actor,
		OrganizationID: input.OrganizationID,
		Category:       models.CategoryImageGeneration,
		MinimumRole:    gate.MinimumRole(models.CategoryImageGeneration),
	}, func(ctx context.Context, _ *gate.Authorization) (int64, error) {
		img, err := s.model.GenerateImage(ctx, imageStyles[imageType]+prompt)
		if err != nil {
			return 0, err
		}

		created := s.now().UTC()
		path := fmt.Sprintf("generated-images/%s/%d.png", input.OrganizationID, created.UnixNano())
		url, err := s.store.Upload(ctx, path, "image/png", img)
		if err != nil {
			return 0, err
		}

		out = GeneratedImage{URL: url, Type: imageType, CreatedAt: created}
		return 1, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
