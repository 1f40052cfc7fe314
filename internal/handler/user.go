package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/semifinals/users/internal/envelope"
	"github.com/semifinals/users/internal/handler/dto"
	"github.com/semifinals/users/internal/service"
)

// MessageUserNotFound is the exception message for unknown user ids.
const MessageUserNotFound = "User does not exist"

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Routes mounts the user routes on r.
func (h *UserHandler) Routes(r chi.Router) {
	r.Post("/", envelope.Handler(h.Create))
	r.Get("/{id}", envelope.Handler(h.Get))
	r.Patch("/{id}", envelope.Handler(h.Update))
	r.Delete("/{id}", envelope.Handler(h.Delete))
}

// Create handles POST /.
func (h *UserHandler) Create(r *http.Request) (int, any, error) {
	req, err := dto.DecodeCreateUser(r.Body)
	if err != nil {
		return 0, nil, h.translate(r, err)
	}

	user, err := h.svc.CreateUser(r.Context(), service.CreateUserInput{
		Username: *req.Username,
		Verified: *req.Verified,
		Region:   req.Region,
	})
	if err != nil {
		return 0, nil, h.translate(r, err)
	}

	h.logger.Info("user_created", "user_id", user.ID)

	return http.StatusCreated, user, nil
}

// Get handles GET /{id}.
func (h *UserHandler) Get(r *http.Request) (int, any, error) {
	id, err := userID(r)
	if err != nil {
		return 0, nil, h.translate(r, err)
	}

	user, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		return 0, nil, h.translate(r, err)
	}

	return http.StatusOK, user, nil
}

// Update handles PATCH /{id}.
func (h *UserHandler) Update(r *http.Request) (int, any, error) {
	id, err := userID(r)
	if err != nil {
		return 0, nil, h.translate(r, err)
	}

	changes, err := dto.DecodeUpdateUser(r.Body)
	if err != nil {
		return 0, nil, h.translate(r, err)
	}

	user, err := h.svc.UpdateUser(r.Context(), id, changes)
	if err != nil {
		return 0, nil, h.translate(r, err)
	}

	h.logger.Info("user_updated",
		"user_id", user.ID,
		"fields", changes.Keys(),
	)

	return http.StatusOK, user, nil
}

// Delete handles DELETE /{id}.
func (h *UserHandler) Delete(r *http.Request) (int, any, error) {
	id, err := userID(r)
	if err != nil {
		return 0, nil, h.translate(r, err)
	}

	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		return 0, nil, h.translate(r, err)
	}

	h.logger.Info("user_deleted", "user_id", id)

	return http.StatusNoContent, nil, nil
}

func userID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if err := dto.ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}

// translate maps service and validation errors to declared HTTP errors.
func (h *UserHandler) translate(r *http.Request, err error) error {
	var verr *dto.ValidationError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		return envelope.BadRequest(verr.Message)
	case errors.As(err, &maxErr):
		return envelope.Wrap(http.StatusRequestEntityTooLarge, "Request body too large", err)
	case errors.Is(err, service.ErrUserNotFound):
		return envelope.NotFound(MessageUserNotFound)
	case errors.Is(err, service.ErrInvalidUpdate):
		return envelope.Wrap(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, service.ErrUserExists):
		return envelope.Conflict("User already exists")
	default:
		h.logger.ErrorContext(r.Context(), "internal_error",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		return err
	}
}
