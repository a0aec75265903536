package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Dan9191/user-service/internal/models"
)

// CreateCard inserts a card after re-validating the per-user card limit
// against a consistent snapshot. The owner row is locked so concurrent
// creators for the same user serialize; the unique index on the card number
// remains the authoritative guard against racing number collisions, surfaced
// as ErrConflict.
func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.users[card.OwnerID]; !ok {
			return ErrNotFound
		}
		owned := 0
		for _, c := range r.cards {
			if c.OwnerID == card.OwnerID {
				owned++
			}
			if c.Number == card.Number {
				return fmt.Errorf("number %s: %w", card.Number, ErrConflict)
			}
		}
		if owned >= models.MaxCardsPerUser {
			return ErrCardLimit
		}
		card.ID = r.nextCardID
		r.nextCardID++
		now := time.Now()
		card.CreatedAt = now
		card.UpdatedAt = now
		r.cards[card.ID] = cloneCard(card)
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, card.OwnerID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}

	var owned int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM payment_cards WHERE user_id = $1`, card.OwnerID).Scan(&owned)
	if err != nil {
		return fmt.Errorf("failed to count cards: %w", err)
	}
	if owned >= models.MaxCardsPerUser {
		return ErrCardLimit
	}

	query := `
		INSERT INTO payment_cards (user_id, number, holder, expiration_date, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		card.OwnerID, card.Number, card.Holder, card.ExpirationDate, card.Active).
		Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("number %s: %w", card.Number, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card: %w", err)
	}
	return nil
}

// GetCard retrieves a card by id.
func (r *Repository) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		c, ok := r.cards[id]
		if !ok {
			return nil, ErrNotFound
		}
		return cloneCard(c), nil
	}

	card := &models.Card{}
	query := `
		SELECT id, user_id, number, holder, expiration_date, active, created_at, updated_at
		FROM payment_cards
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&card.ID, &card.OwnerID, &card.Number, &card.Holder,
			&card.ExpirationDate, &card.Active, &card.CreatedAt, &card.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// ExistsCardByNumber reports whether any card has the given number.
func (r *Repository) ExistsCardByNumber(ctx context.Context, number string) (bool, error) {
	return r.existsCardByNumber(ctx, number, 0)
}

// ExistsOtherCardByNumber reports whether a card other than excludeID has the
// given number.
func (r *Repository) ExistsOtherCardByNumber(ctx context.Context, number string, excludeID int64) (bool, error) {
	return r.existsCardByNumber(ctx, number, excludeID)
}

func (r *Repository) existsCardByNumber(ctx context.Context, number string, excludeID int64) (bool, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		for _, c := range r.cards {
			if c.Number == number && c.ID != excludeID {
				return true, nil
			}
		}
		return false, nil
	}

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM payment_cards WHERE number = $1 AND id <> $2)`
	if err := r.db.QueryRowContext(ctx, query, number, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check card number: %w", err)
	}
	return exists, nil
}

// ListCards returns a page of cards filtered by case-insensitive substring
// match on the holder name.
func (r *Repository) ListCards(ctx context.Context, holder string, page, size int) (*models.Page[*models.Card], error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		var matched []*models.Card
		for _, c := range r.cards {
			if holder != "" && !strings.Contains(strings.ToLower(c.Holder), strings.ToLower(holder)) {
				continue
			}
			matched = append(matched, cloneCard(c))
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
		return paginate(matched, page, size), nil
	}

	filter := `WHERE ($1 = '' OR holder ILIKE '%' || $1 || '%')`

	var total int64
	countQuery := `SELECT COUNT(*) FROM payment_cards ` + filter
	if err := r.db.QueryRowContext(ctx, countQuery, holder).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count cards: %w", err)
	}

	query := `
		SELECT id, user_id, number, holder, expiration_date, active, created_at, updated_at
		FROM payment_cards ` + filter + `
		ORDER BY id
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, holder, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards, err := scanCards(rows)
	if err != nil {
		return nil, err
	}
	return models.NewPage(cards, page, size, total), nil
}

// ListCardsByOwner returns all cards owned by the given user id, unpaginated.
// An unknown user yields an empty list.
func (r *Repository) ListCardsByOwner(ctx context.Context, userID int64) ([]*models.Card, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.cardsByOwnerLocked(userID), nil
	}

	query := `
		SELECT id, user_id, number, holder, expiration_date, active, created_at, updated_at
		FROM payment_cards
		WHERE user_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards by owner: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

func (r *Repository) cardsByOwnerLocked(userID int64) []*models.Card {
	var cards []*models.Card
	for _, c := range r.cards {
		if c.OwnerID == userID {
			cards = append(cards, cloneCard(c))
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards
}

// UpdateCard persists the card's mutable fields. The owner column is never
// touched. Returns ErrNotFound or ErrConflict on a number collision.
func (r *Repository) UpdateCard(ctx context.Context, card *models.Card) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		stored, ok := r.cards[card.ID]
		if !ok {
			return ErrNotFound
		}
		for _, c := range r.cards {
			if c.Number == card.Number && c.ID != card.ID {
				return fmt.Errorf("number %s: %w", card.Number, ErrConflict)
			}
		}
		stored.Number = card.Number
		stored.Holder = card.Holder
		stored.ExpirationDate = card.ExpirationDate
		stored.Active = card.Active
		stored.UpdatedAt = time.Now()
		card.UpdatedAt = stored.UpdatedAt
		return nil
	}

	query := `
		UPDATE payment_cards
		SET number = $2, holder = $3, expiration_date = $4, active = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		card.ID, card.Number, card.Holder, card.ExpirationDate, card.Active).
		Scan(&card.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("number %s: %w", card.Number, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	return nil
}

// DeleteCard removes a card permanently.
func (r *Repository) DeleteCard(ctx context.Context, id int64) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.cards[id]; !ok {
			return ErrNotFound
		}
		delete(r.cards, id)
		return nil
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM payment_cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateExpiredCards flips active cards whose expiration has passed to
// INACTIVE and returns them with id and owner populated so the card and
// owner cache entries can be evicted.
func (r *Repository) DeactivateExpiredCards(ctx context.Context, now time.Time) ([]*models.Card, error) {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		var flipped []*models.Card
		for _, c := range r.cards {
			if c.Active == models.StatusActive && c.ExpirationDate.Before(now) {
				c.Active = models.StatusInactive
				c.UpdatedAt = time.Now()
				flipped = append(flipped, cloneCard(c))
			}
		}
		sort.Slice(flipped, func(i, j int) bool { return flipped[i].ID < flipped[j].ID })
		return flipped, nil
	}

	query := `
		UPDATE payment_cards
		SET active = $2, updated_at = CURRENT_TIMESTAMP
		WHERE active = $3 AND expiration_date < $1
		RETURNING id, user_id`
	rows, err := r.db.QueryContext(ctx, query, now, models.StatusInactive, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate expired cards: %w", err)
	}
	defer rows.Close()

	var flipped []*models.Card
	for rows.Next() {
		c := &models.Card{Active: models.StatusInactive}
		if err := rows.Scan(&c.ID, &c.OwnerID); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		flipped = append(flipped, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to deactivate expired cards: %w", err)
	}
	return flipped, nil
}

func scanCards(rows *sql.Rows) ([]*models.Card, error) {
	var cards []*models.Card
	for rows.Next() {
		c := &models.Card{}
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Number, &c.Holder,
			&c.ExpirationDate, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cards: %w", err)
	}
	return cards, nil
}
