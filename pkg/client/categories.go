package client

import (
	"context"
	"net/http"
)

// ListCategories returns the categories of a restaurant
func (c *Client) ListCategories(ctx context.Context, restaurantID int64) ([]Category, error) {
	var categories []Category
	if err := c.doJSON(ctx, http.MethodGet, categoriesPath(restaurantID), nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory adds a category to a restaurant
func (c *Client) CreateCategory(ctx context.Context, restaurantID int64, name string) (*Category, error) {
	path := categoriesPath(restaurantID)
	if err := (categoryInput{Name: name}).Validate(); err != nil {
		return nil, invalidInput(http.MethodPost, path, err)
	}

	var category Category
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]string{"name": name}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}
