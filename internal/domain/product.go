package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry. Stock is the only field that changes after seeding.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
}

// User is the identity handed to the core by the auth collaborator.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Authenticated reports whether u carries a usable identity.
func (u *User) Authenticated() bool {
	return u != nil && u.ID != ""
}
