package client

import (
	"context"
	"net/http"
)

// ListRestaurants returns every restaurant. Browsing needs no credential.
func (c *Client) ListRestaurants(ctx context.Context) ([]Restaurant, error) {
	var restaurants []Restaurant
	if err := c.doJSON(ctx, http.MethodGet, RestaurantsPath, nil, &restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

// GetRestaurant returns one restaurant
func (c *Client) GetRestaurant(ctx context.Context, id int64) (*Restaurant, error) {
	var restaurant Restaurant
	if err := c.doJSON(ctx, http.MethodGet, restaurantPath(id), nil, &restaurant); err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// CreateRestaurant creates a restaurant owned by the authenticated user
func (c *Client) CreateRestaurant(ctx context.Context, in RestaurantInput) (*Restaurant, error) {
	if err := in.Validate(); err != nil {
		return nil, invalidInput(http.MethodPost, RestaurantsPath, err)
	}

	var restaurant Restaurant
	if err := c.doJSON(ctx, http.MethodPost, RestaurantsPath, in, &restaurant); err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// GenerateQRCode returns the PNG encoded QR code linking to the restaurant's menu
func (c *Client) GenerateQRCode(ctx context.Context, id int64) ([]byte, error) {
	resp, err := c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   qrCodePath(id),
		Header: http.Header{"Accept": []string{"image/png"}},
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
