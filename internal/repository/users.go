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

// CreateUser creates a new user. Returns ErrConflict if the email is taken.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, u := range r.users {
			if u.Email == user.Email {
				return fmt.Errorf("email %s: %w", user.Email, ErrConflict)
			}
		}
		user.ID = r.nextUserID
		r.nextUserID++
		now := time.Now()
		user.CreatedAt = now
		user.UpdatedAt = now
		r.users[user.ID] = cloneUser(user)
		return nil
	}

	query := `
		INSERT INTO users (name, surname, birth_date, email, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Surname, user.BirthDate, user.Email, user.Active).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %s: %w", user.Email, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id together with its cards.
func (r *Repository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		u, ok := r.users[id]
		if !ok {
			return nil, ErrNotFound
		}
		out := cloneUser(u)
		out.Cards = r.cardsByOwnerLocked(id)
		return out, nil
	}

	user := &models.User{}
	query := `
		SELECT id, name, surname, birth_date, email, active, created_at, updated_at
		FROM users
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Name, &user.Surname, &user.BirthDate, &user.Email,
			&user.Active, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	cards, err := r.ListCardsByOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Cards = cards
	return user, nil
}

// ExistsUserByEmail reports whether any user has the given email.
func (r *Repository) ExistsUserByEmail(ctx context.Context, email string) (bool, error) {
	return r.existsUserByEmail(ctx, email, 0)
}

// ExistsOtherUserByEmail reports whether a user other than excludeID has the
// given email.
func (r *Repository) ExistsOtherUserByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.existsUserByEmail(ctx, email, excludeID)
}

func (r *Repository) existsUserByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		for _, u := range r.users {
			if u.Email == email && u.ID != excludeID {
				return true, nil
			}
		}
		return false, nil
	}

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// ListUsers returns a page of users filtered by case-insensitive substring
// match on name and surname. Empty filters match everything.
func (r *Repository) ListUsers(ctx context.Context, name, surname string, page, size int) (*models.Page[*models.User], error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		var matched []*models.User
		for _, u := range r.users {
			if name != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(name)) {
				continue
			}
			if surname != "" && !strings.Contains(strings.ToLower(u.Surname), strings.ToLower(surname)) {
				continue
			}
			matched = append(matched, cloneUser(u))
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
		return paginate(matched, page, size), nil
	}

	filter := `WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		AND ($2 = '' OR surname ILIKE '%' || $2 || '%')`

	var total int64
	countQuery := `SELECT COUNT(*) FROM users ` + filter
	if err := r.db.QueryRowContext(ctx, countQuery, name, surname).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	query := `
		SELECT id, name, surname, birth_date, email, active, created_at, updated_at
		FROM users ` + filter + `
		ORDER BY id
		LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, name, surname, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Surname, &u.BirthDate, &u.Email,
			&u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return models.NewPage(users, page, size, total), nil
}

// UpdateUser persists the given user's mutable fields. Returns ErrNotFound if
// the user is gone and ErrConflict if the email collides with another user.
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		stored, ok := r.users[user.ID]
		if !ok {
			return ErrNotFound
		}
		for _, u := range r.users {
			if u.Email == user.Email && u.ID != user.ID {
				return fmt.Errorf("email %s: %w", user.Email, ErrConflict)
			}
		}
		stored.Name = user.Name
		stored.Surname = user.Surname
		stored.BirthDate = user.BirthDate
		stored.Email = user.Email
		stored.Active = user.Active
		stored.UpdatedAt = time.Now()
		user.UpdatedAt = stored.UpdatedAt
		return nil
	}

	query := `
		UPDATE users
		SET name = $2, surname = $3, birth_date = $4, email = $5, active = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Surname, user.BirthDate, user.Email, user.Active).
		Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("email %s: %w", user.Email, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser removes a user. Owned cards are removed in the same operation:
// the Postgres backend cascades via the foreign key.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.users[id]; !ok {
			return ErrNotFound
		}
		delete(r.users, id)
		for cardID, c := range r.cards {
			if c.OwnerID == id {
				delete(r.cards, cardID)
			}
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func paginate[T any](items []T, page, size int) *models.Page[T] {
	total := int64(len(items))
	start := page * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return models.NewPage(items[start:end], page, size, total)
}
