package jobs

import (
	"context"
	"time"

	"github.com/Dan9191/user-service/internal/cache"
	"github.com/Dan9191/user-service/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ExpirySweeper periodically deactivates cards whose expiration instant has
// passed and evicts the affected cache entries so stale reads are not served.
type ExpirySweeper struct {
	repo  *repository.Repository
	cache cache.Store
	log   *logrus.Logger
}

// NewExpirySweeper initializes the sweeper
func NewExpirySweeper(repo *repository.Repository, store cache.Store, log *logrus.Logger) *ExpirySweeper {
	return &ExpirySweeper{repo: repo, cache: store, log: log}
}

// Schedule registers the sweep on the cron runner with the given spec.
func (s *ExpirySweeper) Schedule(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, s.Run)
	return err
}

// Run performs a single sweep.
func (s *ExpirySweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cards, err := s.repo.DeactivateExpiredCards(ctx, time.Now())
	if err != nil {
		s.log.Errorf("Expiry sweep failed: %v", err)
		return
	}
	for _, card := range cards {
		s.cache.Delete(ctx, cache.NamespaceCards, card.ID)
		s.cache.Delete(ctx, cache.NamespaceUsers, card.OwnerID)
	}
	if len(cards) > 0 {
		s.log.Infof("Expiry sweep deactivated %d cards", len(cards))
	}
}
