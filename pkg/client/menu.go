package client

import (
	"context"
	"net/http"
)

// ListMenuItems returns the menu of a restaurant
func (c *Client) ListMenuItems(ctx context.Context, restaurantID int64) ([]MenuItem, error) {
	var items []MenuItem
	if err := c.doJSON(ctx, http.MethodGet, menuPath(restaurantID), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateMenuItem adds an item to a restaurant's menu
func (c *Client) CreateMenuItem(ctx context.Context, restaurantID int64, in MenuItemInput) (*MenuItem, error) {
	path := menuPath(restaurantID)
	if err := in.Validate(); err != nil {
		return nil, invalidInput(http.MethodPost, path, err)
	}

	var item MenuItem
	if err := c.doJSON(ctx, http.MethodPost, path, in.payload(), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateMenuItem replaces a menu item
func (c *Client) UpdateMenuItem(ctx context.Context, restaurantID, itemID int64, in MenuItemInput) (*MenuItem, error) {
	path := menuItemPath(restaurantID, itemID)
	if err := in.Validate(); err != nil {
		return nil, invalidInput(http.MethodPut, path, err)
	}

	var item MenuItem
	if err := c.doJSON(ctx, http.MethodPut, path, in.payload(), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteMenuItem removes a menu item
func (c *Client) DeleteMenuItem(ctx context.Context, restaurantID, itemID int64) error {
	return c.doJSON(ctx, http.MethodDelete, menuItemPath(restaurantID, itemID), nil, nil)
}
