package models

import "time"

// ActiveStatus is the lifecycle flag shared by users and cards.
type ActiveStatus string

const (
	StatusActive   ActiveStatus = "ACTIVE"
	StatusInactive ActiveStatus = "INACTIVE"
)

// MaxCardsPerUser is the ceiling on cards a single user may own.
const MaxCardsPerUser = 5

// User represents an account holder. A user exclusively owns its cards.
type User struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Surname   string       `json:"surname"`
	BirthDate string       `json:"birth_date"` // YYYY-MM-DD
	Email     string       `json:"email"`
	Active    ActiveStatus `json:"active"`
	Cards     []*Card      `json:"cards"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// CreateUserRequest carries the fields accepted on user creation.
type CreateUserRequest struct {
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	BirthDate string `json:"birth_date"`
	Email     string `json:"email"`
}

// UpdateUserRequest carries optional field changes; nil fields are left
// unchanged.
type UpdateUserRequest struct {
	Name      *string `json:"name"`
	Surname   *string `json:"surname"`
	BirthDate *string `json:"birth_date"`
	Email     *string `json:"email"`
}
