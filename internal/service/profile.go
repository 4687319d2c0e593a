package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// DefaultMaxImageSize caps uploaded profile images.
const DefaultMaxImageSize = 5 << 20

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ProfileImages replaces the profile image of a user with an uploaded one.
type ProfileImages struct {
	users   model.UserStore
	images  model.ImageStore
	maxSize int64
	timeout time.Duration
	logger  *logger.Logger
}

func NewProfileImages(users model.UserStore, images model.ImageStore, maxSize int64, timeout time.Duration, logger *logger.Logger) *ProfileImages {
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}
	return &ProfileImages{
		users:   users,
		images:  images,
		maxSize: maxSize,
		timeout: orDefault(timeout),
		logger:  logger,
	}
}

// MaxSize returns the largest accepted image in bytes.
func (p *ProfileImages) MaxSize() int64 {
	return p.maxSize
}

// Update stores the image and points the user's profile image at it.
func (p *ProfileImages) Update(ctx context.Context, userID uuid.UUID, r io.Reader, size int64, contentType string) (string, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", &model.ValidationError{Field: "image", Reason: fmt.Sprintf("unsupported content type %q", contentType)}
	}
	if size <= 0 || size > p.maxSize {
		return "", &model.ValidationError{Field: "image", Reason: fmt.Sprintf("size must be between 1 and %d bytes", p.maxSize)}
	}

	key := userID.String() + ext
	imageURL, err := call(ctx, p.timeout, func(ctx context.Context) (string, error) {
		return p.images.Upload(ctx, key, r, size, contentType)
	})
	if err != nil {
		p.logger.Error("Profile images: failed to upload image",
			"user_id", userID,
			"error", err.Error())
		return "", model.NewInternalError("upload profile image", err)
	}

	err = exec(ctx, p.timeout, func(ctx context.Context) error {
		return p.users.UpdateProfileImage(ctx, userID, imageURL)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.ErrUserNotFound
		}
		p.logger.Error("Profile images: failed to update user",
			"user_id", userID,
			"error", err.Error())
		return "", model.NewInternalError("update profile image", err)
	}

	p.logger.Info("Profile images: image updated", "user_id", userID)

	return imageURL, nil
}
