package service

import (
	"github.com/Dan9191/user-service/internal/cache"
	"github.com/Dan9191/user-service/internal/cardnum"
	"github.com/Dan9191/user-service/internal/models"
	"github.com/Dan9191/user-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// Notifier receives best-effort notifications about lifecycle events.
// Failures are logged by the implementation, never surfaced to callers.
type Notifier interface {
	UserCreated(user *models.User)
	CardIssued(user *models.User, card *models.Card)
}

// Service handles business logic
type Service struct {
	repo     *repository.Repository
	cache    cache.Store
	numbers  *cardnum.Generator
	notifier Notifier
	log      *logrus.Logger
}

// NewService initializes a new service. notifier may be nil.
func NewService(repo *repository.Repository, store cache.Store, numbers *cardnum.Generator, notifier Notifier, log *logrus.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    store,
		numbers:  numbers,
		notifier: notifier,
		log:      log,
	}
}

func normalizePaging(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	return page, size
}
