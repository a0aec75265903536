package repository

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/Dan9191/user-service/internal/models"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on a uniqueness violation (email, card number).
	ErrConflict = errors.New("conflict")
	// ErrCardLimit is returned when a user already owns the maximum number
	// of cards.
	ErrCardLimit = errors.New("card limit reached")
)

// Repository provides database operations. With a nil db it runs on
// in-memory maps, which is the backend the tests use; the Postgres backend
// is authoritative in production and enforces uniqueness at commit time via
// unique indexes.
type Repository struct {
	db *sql.DB

	mu         sync.RWMutex
	nextUserID int64
	nextCardID int64
	users      map[int64]*models.User
	cards      map[int64]*models.Card
}

// NewRepository initializes a db-backed repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// NewMemory initializes an in-memory repository
func NewMemory() *Repository {
	return &Repository{
		nextUserID: 1,
		nextCardID: 1,
		users:      make(map[int64]*models.User),
		cards:      make(map[int64]*models.Card),
	}
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23505"
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Cards = nil
	return &c
}

func cloneCard(c *models.Card) *models.Card {
	d := *c
	return &d
}
