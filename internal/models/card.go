package models

import "time"

// Card represents a payment card. The owner reference is fixed at creation
// and is never altered by any exposed operation.
type Card struct {
	ID             int64        `json:"id"`
	OwnerID        int64        `json:"owner_id"`
	Number         string       `json:"number"`
	Holder         string       `json:"holder"`
	ExpirationDate time.Time    `json:"expiration_date"`
	Active         ActiveStatus `json:"active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// UpdateCardRequest carries optional field changes; nil fields are left
// unchanged. The owner cannot be changed through an update.
type UpdateCardRequest struct {
	Number         *string       `json:"number"`
	Holder         *string       `json:"holder"`
	ExpirationDate *time.Time    `json:"expiration_date"`
	Active         *ActiveStatus `json:"active"`
}
