package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/dtroode/shopkeeper-auth/internal/api/http/response"
	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// UserLister lists stored users.
type UserLister interface {
	ListUsers(ctx context.Context) ([]model.User, error)
}

// ProfileImageUpdater replaces the profile image of a user.
type ProfileImageUpdater interface {
	Update(ctx context.Context, userID uuid.UUID, r io.Reader, size int64, contentType string) (string, error)
	MaxSize() int64
}

// User serves the /users endpoints.
type User struct {
	users          UserLister
	images         ProfileImageUpdater
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewUser creates a new User handler.
func NewUser(users UserLister, images ProfileImageUpdater, contextManager model.ContextManager, logger *logger.Logger) *User {
	return &User{
		users:          users,
		images:         images,
		contextManager: contextManager,
		logger:         logger,
	}
}

type profileImageResponse struct {
	ProfileImage string `json:"profileImage"`
}

// List handles GET /users.
func (h *User) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		response.WriteError(w, err, h.logger)
		return
	}

	response.WriteJSON(w, http.StatusOK, users)
}

// UploadProfileImage handles PUT /users/me/profile-image with a multipart "image" field.
func (h *User) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.contextManager.GetPrincipalFromContext(r.Context())
	if !ok {
		response.WriteError(w, model.ErrUnauthorized, h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.images.MaxSize()+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		response.WriteError(w, &model.ValidationError{Field: "image", Reason: "multipart field is required"}, h.logger)
		return
	}
	defer file.Close()

	imageURL, err := h.images.Update(context.WithoutCancel(r.Context()), p.UserID, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		response.WriteError(w, err, h.logger)
		return
	}

	response.WriteJSON(w, http.StatusOK, profileImageResponse{ProfileImage: imageURL})
}
