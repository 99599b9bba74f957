package client

import (
	"github.com/safeserve/safeserve-go/pkg/allergens"
)

// TokenPair is returned by the login endpoint
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Role is the account type chosen at registration
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
)

// RegisterRequest represents the registration payload
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// User represents the authenticated account
type User struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
	// DietaryRestrictions is the comma separated allergen list
	DietaryRestrictions string `json:"dietary_restrictions"`
}

// Restrictions returns the parsed dietary restrictions
func (u *User) Restrictions() []string {
	if u == nil {
		return nil
	}
	return allergens.Parse(u.DietaryRestrictions)
}

// Restaurant represents a restaurant listing
type Restaurant struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	CuisineType string `json:"cuisine_type"`
	Owner       int64  `json:"owner,omitempty"`
}

// RestaurantInput is the payload for creating a restaurant
type RestaurantInput struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	CuisineType string `json:"cuisine_type"`
}

// Category groups menu items of a restaurant
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MenuItem represents a dish as returned by the backend
type MenuItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Ingredients string    `json:"ingredients"`
	Allergens   string    `json:"allergens"`
	Category    *Category `json:"category"`
}

// AllergenList returns the parsed allergens of the item
func (m *MenuItem) AllergenList() []string {
	return allergens.Parse(m.Allergens)
}

// MenuItemInput is the payload for creating or updating a menu item
type MenuItemInput struct {
	Name        string
	Ingredients string
	Allergens   []string
	CategoryID  *int64
}

type menuItemPayload struct {
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
	Allergens   string `json:"allergens"`
	CategoryID  *int64 `json:"category_id"`
}

func (in MenuItemInput) payload() menuItemPayload {
	return menuItemPayload{
		Name:        in.Name,
		Ingredients: in.Ingredients,
		Allergens:   allergens.Join(in.Allergens, nil),
		CategoryID:  in.CategoryID,
	}
}

// AnnotatedMenuItem is a menu item with the allergens the current user avoids
type AnnotatedMenuItem struct {
	MenuItem
	Warnings []string `json:"warnings,omitempty"`
}

// RestaurantDetail aggregates what a customer sees when opening a restaurant
type RestaurantDetail struct {
	Restaurant   *Restaurant         `json:"restaurant"`
	Menu         []AnnotatedMenuItem `json:"menu"`
	Restrictions []string            `json:"restrictions,omitempty"`
	// SessionExpired means the user could not be loaded because no valid
	// session remains; the stored credentials have been cleared
	SessionExpired bool `json:"session_expired,omitempty"`
}
