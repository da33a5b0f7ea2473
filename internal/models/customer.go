package models

import "time"

// Customer is a customer record managed through the admin console.
// ID and CreatedAt are assigned by the backend and omitted when unset.
type Customer struct {
	ID        string    `json:"id,omitzero"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Banner is a promotional banner shown in the storefront
type Banner struct {
	ID        string    `json:"id,omitzero"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
	Link      string    `json:"link,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}
