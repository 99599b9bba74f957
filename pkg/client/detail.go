package client

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/safeserve/safeserve-go/pkg/allergens"
)

// RestaurantDetail loads a restaurant, its menu and the user's restrictions
// concurrently and annotates every item with the allergens the user avoids.
// Failing to load the user is tolerated and yields no warnings; when that
// failure is expired authentication the result has SessionExpired set.
func (c *Client) RestaurantDetail(ctx context.Context, id int64) (*RestaurantDetail, error) {
	var (
		restaurant *Restaurant
		items      []MenuItem
		me         *User
		expired    bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		restaurant, err = c.GetRestaurant(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = c.ListMenuItems(gctx, id)
		return err
	})
	g.Go(func() error {
		user, err := c.Me(gctx)
		if IsAuthExpired(err) {
			c.logger.Warn("session expired, showing menu without warnings",
				slog.String("error", err.Error()))
			expired = true
			return nil
		}
		if err != nil {
			c.logger.Debug("loading restrictions failed, showing menu without warnings",
				slog.String("error", err.Error()))
			return nil
		}
		me = user
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	restrictions := me.Restrictions()
	detail := &RestaurantDetail{
		Restaurant:     restaurant,
		Menu:           make([]AnnotatedMenuItem, 0, len(items)),
		Restrictions:   restrictions,
		SessionExpired: expired,
	}
	for _, item := range items {
		detail.Menu = append(detail.Menu, AnnotatedMenuItem{
			MenuItem: item,
			Warnings: allergens.Overlap(item.AllergenList(), restrictions),
		})
	}
	return detail, nil
}
