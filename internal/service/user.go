// Package service provides business logic for the application.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/semifinals/users/internal/docstore"
	"github.com/semifinals/users/internal/metrics"
	"github.com/semifinals/users/internal/model"
	"github.com/semifinals/users/internal/patch"
)

// Service errors.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrInvalidUpdate = errors.New("invalid user update")
)

const (
	usersContainer        = "users"
	usersPartitionKeyPath = "/id"
	maxIDRetries          = 3
)

// UserService handles user business logic.
type UserService struct {
	store   docstore.Store
	ids     IDGenerator
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(store docstore.Store, ids IDGenerator, recorder metrics.Recorder) *UserService {
	if ids == nil {
		ids = ULIDGenerator{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		ids:     ids,
		metrics: recorder,
	}
}

// CreateUserInput defines input for creating a user.
type CreateUserInput struct {
	Username string
	Verified bool
	Region   *string
}

// CreateUser persists a new user under a freshly generated id.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	c, err := s.container(ctx)
	if err != nil {
		return nil, err
	}

	for i := 0; i < maxIDRetries; i++ {
		user := &model.User{
			ID:       s.ids.NewID(),
			Username: input.Username,
			Verified: input.Verified,
			Region:   input.Region,
		}

		doc, err := json.Marshal(user)
		if err != nil {
			return nil, fmt.Errorf("failed to encode user: %w", err)
		}

		stored, err := c.CreateItem(ctx, user.PartitionKey(), doc)
		if errors.Is(err, docstore.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		s.metrics.IncUserCreated()
		return decodeUser(stored)
	}

	return nil, ErrUserExists
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	c, err := s.container(ctx)
	if err != nil {
		return nil, err
	}

	doc, found, err := c.GetItem(ctx, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, ErrUserNotFound
	}

	return decodeUser(doc)
}

// UpdateUser applies a partial update. Members set to patch.Unset are
// removed. An update with nothing to apply returns the stored user.
func (s *UserService) UpdateUser(ctx context.Context, id string, changes patch.Object) (*model.User, error) {
	ops := patch.Build(changes)
	if len(ops) == 0 {
		return s.GetUser(ctx, id)
	}

	c, err := s.container(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := c.PatchItem(ctx, id, id, ops, nil)
	if err != nil {
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, docstore.ErrInvalidPatch):
			return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.metrics.IncUserUpdated()

	return decodeUser(doc)
}

// DeleteUser removes a user. A missing user is reported as ErrUserNotFound
// so callers can answer 404 instead of 204.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	c, err := s.container(ctx)
	if err != nil {
		return err
	}

	deleted, err := c.DeleteItem(ctx, id, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}

	s.metrics.IncUserDeleted()

	return nil
}

// container opens the users container on every call, creating it on first
// use.
func (s *UserService) container(ctx context.Context) (docstore.Container, error) {
	c, err := s.store.EnsureContainer(ctx, usersContainer, usersPartitionKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open users container: %w", err)
	}
	return c, nil
}

func decodeUser(doc []byte) (*model.User, error) {
	var user model.User
	if err := json.Unmarshal(doc, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}
