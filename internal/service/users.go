package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Dan9191/user-service/internal/apperr"
	"github.com/Dan9191/user-service/internal/cache"
	"github.com/Dan9191/user-service/internal/models"
	"github.com/Dan9191/user-service/internal/repository"
)

// CreateUser registers a new user in INACTIVE status.
func (s *Service) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := validateCreateUser(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.DataExists("User with email: %s already exists", req.Email)
	}

	user := &models.User{
		Name:      req.Name,
		Surname:   req.Surname,
		BirthDate: req.BirthDate,
		Email:     req.Email,
		Active:    models.StatusInactive,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		// a concurrent creator may have claimed the email between the
		// existence check and the insert
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.DataExists("User with email: %s already exists", req.Email)
		}
		return nil, err
	}

	s.cache.Set(ctx, cache.NamespaceUsers, user.ID, user)
	if s.notifier != nil {
		go s.notifier.UserCreated(user)
	}

	s.log.Infof("User created: %s", user.Email)
	return user, nil
}

// GetUserByID returns the user with its cards. Reads may be served from
// cache.
func (s *Service) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var cached models.User
	if s.cache.Get(ctx, cache.NamespaceUsers, id, &cached) {
		return &cached, nil
	}

	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User with id: %d was not found", id)
	}
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, cache.NamespaceUsers, user.ID, user)
	return user, nil
}

// ListUsers returns a page of users filtered by optional case-insensitive
// substring matches on name and surname, AND-combined when both are set.
func (s *Service) ListUsers(ctx context.Context, name, surname string, page, size int) (*models.Page[*models.User], error) {
	page, size = normalizePaging(page, size)
	return s.repo.ListUsers(ctx, name, surname, page, size)
}

// UpdateUser applies the request's non-nil fields to the user. The email
// must not collide with another user; the owned-card count is defensively
// re-validated.
func (s *Service) UpdateUser(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User with id: %d was not found", id)
	}
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		taken, err := s.repo.ExistsOtherUserByEmail(ctx, *req.Email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.DataExists("User with email: %s already exists", *req.Email)
		}
	}

	// should be structurally impossible, re-checked on every update anyway
	if len(user.Cards) > models.MaxCardsPerUser {
		return nil, apperr.InvalidData("User with id: %d has more than %d cards", id, models.MaxCardsPerUser)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Surname != nil {
		user.Surname = *req.Surname
	}
	if req.BirthDate != nil {
		user.BirthDate = *req.BirthDate
	}
	if req.Email != nil {
		user.Email = *req.Email
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("User with id: %d was not found", id)
		case errors.Is(err, repository.ErrConflict):
			return nil, apperr.DataExists("User with email: %s already exists", user.Email)
		}
		return nil, err
	}

	s.cache.Set(ctx, cache.NamespaceUsers, user.ID, user)
	s.log.Infof("User updated: %d", user.ID)
	return user, nil
}

// ActivateUser sets the user ACTIVE. Activating an already-active user
// succeeds and reports the active state.
func (s *Service) ActivateUser(ctx context.Context, id int64) (*models.User, error) {
	return s.setUserStatus(ctx, id, models.StatusActive)
}

// DeactivateUser sets the user INACTIVE, idempotently.
func (s *Service) DeactivateUser(ctx context.Context, id int64) (*models.User, error) {
	return s.setUserStatus(ctx, id, models.StatusInactive)
}

func (s *Service) setUserStatus(ctx context.Context, id int64, status models.ActiveStatus) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User with id: %d was not found", id)
	}
	if err != nil {
		return nil, err
	}

	user.Active = status
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User with id: %d was not found", id)
		}
		return nil, err
	}

	s.cache.Set(ctx, cache.NamespaceUsers, user.ID, user)
	s.log.Infof("User %d status set to %s", user.ID, status)
	return user, nil
}

// DeleteUser removes the user and cascade-deletes all owned cards, evicting
// the cache entries for every removed entity.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	cards, err := s.repo.ListCardsByOwner(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User with id: %d was not found", id)
		}
		return err
	}

	s.cache.Delete(ctx, cache.NamespaceUsers, id)
	for _, card := range cards {
		s.cache.Delete(ctx, cache.NamespaceCards, card.ID)
	}

	s.log.Infof("User deleted: %d (%d cards cascaded)", id, len(cards))
	return nil
}

func validateCreateUser(req models.CreateUserRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperr.InvalidData("Name is required")
	}
	if strings.TrimSpace(req.Surname) == "" {
		return apperr.InvalidData("Surname is required")
	}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		return apperr.InvalidData("A valid email is required")
	}
	return nil
}
