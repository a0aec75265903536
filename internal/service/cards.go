package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/user-service/internal/apperr"
	"github.com/Dan9191/user-service/internal/cache"
	"github.com/Dan9191/user-service/internal/models"
	"github.com/Dan9191/user-service/internal/repository"
)

// cardValidityYears is how long a freshly issued card stays valid.
const cardValidityYears = 4

// createCardAttempts bounds insert retries when a concurrent creator wins the
// race for a generated number. The number generation itself is unbounded.
const createCardAttempts = 5

// CreateCard issues a new card for the user. The holder name is derived from
// the owner at creation time, the number is generated and checked for
// uniqueness, and the card starts INACTIVE.
func (s *Service) CreateCard(ctx context.Context, userID int64) (*models.Card, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User with id: %d was not found", userID)
	}
	if err != nil {
		return nil, err
	}

	if len(user.Cards) >= models.MaxCardsPerUser {
		return nil, apperr.InvalidData("User with id: %d has more than %d cards", userID, models.MaxCardsPerUser)
	}

	now := time.Now()
	for attempt := 0; attempt < createCardAttempts; attempt++ {
		number, err := s.numbers.Unique(ctx, s.repo.ExistsCardByNumber)
		if err != nil {
			return nil, err
		}

		card := &models.Card{
			OwnerID:        user.ID,
			Number:         number,
			Holder:         user.Name + " " + user.Surname,
			ExpirationDate: now.AddDate(cardValidityYears, 0, 0),
			Active:         models.StatusInactive,
		}

		err = s.repo.CreateCard(ctx, card)
		switch {
		case err == nil:
			s.cache.Set(ctx, cache.NamespaceCards, card.ID, card)
			s.cache.Delete(ctx, cache.NamespaceUsers, user.ID)
			if s.notifier != nil {
				go s.notifier.CardIssued(user, card)
			}
			s.log.Infof("Card created for user %d", user.ID)
			return card, nil
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("User with id: %d was not found", userID)
		case errors.Is(err, repository.ErrCardLimit):
			return nil, apperr.InvalidData("User with id: %d has more than %d cards", userID, models.MaxCardsPerUser)
		case errors.Is(err, repository.ErrConflict):
			// a concurrent creator committed the same number first
			s.log.Warnf("Card number collision on insert for user %d, regenerating", user.ID)
			continue
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("failed to create card after %d attempts", createCardAttempts)
}

// GetCardByID returns the card. Reads may be served from cache.
func (s *Service) GetCardByID(ctx context.Context, id int64) (*models.Card, error) {
	var cached models.Card
	if s.cache.Get(ctx, cache.NamespaceCards, id, &cached) {
		return &cached, nil
	}

	card, err := s.repo.GetCard(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("Card with id: %d was not found", id)
	}
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, cache.NamespaceCards, card.ID, card)
	return card, nil
}

// ListCards returns a page of cards optionally filtered by case-insensitive
// substring match on the holder name.
func (s *Service) ListCards(ctx context.Context, holder string, page, size int) (*models.Page[*models.Card], error) {
	page, size = normalizePaging(page, size)
	return s.repo.ListCards(ctx, holder, page, size)
}

// ListCardsByUser returns all cards owned by the user, unfiltered and
// unpaginated.
func (s *Service) ListCardsByUser(ctx context.Context, userID int64) ([]*models.Card, error) {
	return s.repo.ListCardsByOwner(ctx, userID)
}

// UpdateCard applies the request's non-nil fields. A number change must not
// collide with a different card. The owner reference is never altered.
func (s *Service) UpdateCard(ctx context.Context, id int64, req models.UpdateCardRequest) (*models.Card, error) {
	card, err := s.repo.GetCard(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("Card with id: %d was not found", id)
	}
	if err != nil {
		return nil, err
	}

	if req.Number != nil && *req.Number != card.Number {
		taken, err := s.repo.ExistsOtherCardByNumber(ctx, *req.Number, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.DataExists("Card with number: %s already exists", *req.Number)
		}
	}

	if req.Number != nil {
		card.Number = *req.Number
	}
	if req.Holder != nil {
		card.Holder = *req.Holder
	}
	if req.ExpirationDate != nil {
		card.ExpirationDate = *req.ExpirationDate
	}
	if req.Active != nil {
		card.Active = *req.Active
	}

	if err := s.repo.UpdateCard(ctx, card); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("Card with id: %d was not found", id)
		case errors.Is(err, repository.ErrConflict):
			return nil, apperr.DataExists("Card with number: %s already exists", card.Number)
		}
		return nil, err
	}

	s.cache.Set(ctx, cache.NamespaceCards, card.ID, card)
	s.cache.Delete(ctx, cache.NamespaceUsers, card.OwnerID)
	s.log.Infof("Card updated: %d", card.ID)
	return card, nil
}

// ActivateCard sets the card ACTIVE. Activating an already-active card
// succeeds and reports the active state.
func (s *Service) ActivateCard(ctx context.Context, id int64) (*models.Card, error) {
	return s.setCardStatus(ctx, id, models.StatusActive)
}

// DeactivateCard sets the card INACTIVE, idempotently.
func (s *Service) DeactivateCard(ctx context.Context, id int64) (*models.Card, error) {
	return s.setCardStatus(ctx, id, models.StatusInactive)
}

func (s *Service) setCardStatus(ctx context.Context, id int64, status models.ActiveStatus) (*models.Card, error) {
	card, err := s.repo.GetCard(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("Card with id: %d was not found", id)
	}
	if err != nil {
		return nil, err
	}

	card.Active = status
	if err := s.repo.UpdateCard(ctx, card); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Card with id: %d was not found", id)
		}
		return nil, err
	}

	s.cache.Set(ctx, cache.NamespaceCards, card.ID, card)
	s.cache.Delete(ctx, cache.NamespaceUsers, card.OwnerID)
	s.log.Infof("Card %d status set to %s", card.ID, status)
	return card, nil
}

// DeleteCard removes the card permanently and evicts its cache entry along
// with the owner's, whose embedded card list it invalidates.
func (s *Service) DeleteCard(ctx context.Context, id int64) error {
	card, err := s.repo.GetCard(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("Card with id: %d was not found", id)
	}
	if err != nil {
		return err
	}

	if err := s.repo.DeleteCard(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Card with id: %d was not found", id)
		}
		return err
	}

	s.cache.Delete(ctx, cache.NamespaceCards, id)
	s.cache.Delete(ctx, cache.NamespaceUsers, card.OwnerID)
	s.log.Infof("Card deleted: %d", id)
	return nil
}

// CardOwner resolves the current owner of a card. The handlers' ownership
// guard is built on this rather than IsOwner so a missing card surfaces as
// NotFound instead of being masked as a denial.
func (s *Service) CardOwner(ctx context.Context, cardID int64) (int64, error) {
	card, err := s.repo.GetCard(ctx, cardID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, apperr.NotFound("Card with id: %d was not found", cardID)
	}
	if err != nil {
		return 0, err
	}
	return card.OwnerID, nil
}

// IsOwner reports whether callerID owns the card. A missing card yields
// false, never an error; absence is surfaced as NotFound by the operation
// itself, not here.
func (s *Service) IsOwner(ctx context.Context, cardID, callerID int64) bool {
	owner, err := s.CardOwner(ctx, cardID)
	return err == nil && owner == callerID
}
