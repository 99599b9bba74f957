package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safeserve/safeserve-go/pkg/client"
	"github.com/safeserve/safeserve-go/pkg/utils"
)

var (
	restaurantName     string
	restaurantLocation string
	restaurantCuisine  string
	qrOutput           string
)

var RestaurantsCmd = &cobra.Command{
	Use:     "restaurants",
	Aliases: []string{"restaurant"},
	Short:   "Browse and manage restaurants",
}

var restaurantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List restaurants",
	Args:  cobra.NoArgs,
	RunE:  withApp(runRestaurantsList),
}

var restaurantsShowCmd = &cobra.Command{
	Use:   "show <restaurant-id>",
	Short: "Show a restaurant and its menu with allergen warnings",
	Long: `Show a restaurant and its menu. When logged in, items containing
allergens from your dietary restrictions are flagged.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runRestaurantsShow),
}

var restaurantsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a restaurant (owners only)",
	Args:  cobra.NoArgs,
	RunE:  withApp(runRestaurantsCreate),
}

var restaurantsQRCmd = &cobra.Command{
	Use:   "qr <restaurant-id>",
	Short: "Download the QR code of a restaurant's menu",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runRestaurantsQR),
}

func init() {
	restaurantsCreateCmd.Flags().StringVar(&restaurantName, "name", "", "Restaurant name (required)")
	restaurantsCreateCmd.Flags().StringVar(&restaurantLocation, "location", "", "Restaurant location")
	restaurantsCreateCmd.Flags().StringVar(&restaurantCuisine, "cuisine", "", "Cuisine type")

	restaurantsQRCmd.Flags().StringVar(&qrOutput, "out", "", "File to write the PNG to (default restaurant-<id>-qr.png)")

	RestaurantsCmd.AddCommand(restaurantsListCmd)
	RestaurantsCmd.AddCommand(restaurantsShowCmd)
	RestaurantsCmd.AddCommand(restaurantsCreateCmd)
	RestaurantsCmd.AddCommand(restaurantsQRCmd)
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

func runRestaurantsList(cmd *cobra.Command, args []string, a *app) error {
	restaurants, err := a.client.ListRestaurants(cmd.Context())
	if err != nil {
		return err
	}

	return a.render(restaurants, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tLOCATION\tCUISINE")
		for _, r := range restaurants {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, r.Name, r.Location, r.CuisineType)
		}
	})
}

func runRestaurantsShow(cmd *cobra.Command, args []string, a *app) error {
	id, err := parseID(args[0], "restaurant")
	if err != nil {
		return err
	}

	detail, err := a.client.RestaurantDetail(cmd.Context(), id)
	if err != nil {
		return err
	}
	if detail.SessionExpired {
		fmt.Fprintln(cmd.ErrOrStderr(), "not logged in or session expired, run `safeserve login` to see allergen warnings")
	}

	return a.render(detail, func(w io.Writer) {
		r := detail.Restaurant
		fmt.Fprintf(w, "%s\t(%s, %s)\n", r.Name, r.Location, r.CuisineType)
		if len(detail.Restrictions) > 0 {
			fmt.Fprintf(w, "Your restrictions:\t%s\n", strings.Join(detail.Restrictions, ", "))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "ID\tITEM\tCATEGORY\tALLERGENS\tWARNING")
		for _, item := range detail.Menu {
			category := "-"
			if item.Category != nil {
				category = item.Category.Name
			}
			warning := ""
			if len(item.Warnings) > 0 {
				warning = "contains " + strings.Join(item.Warnings, ", ")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				item.ID, item.Name, category, strings.Join(item.AllergenList(), ", "), warning)
		}
	})
}

func runRestaurantsCreate(cmd *cobra.Command, args []string, a *app) error {
	r, err := a.client.CreateRestaurant(cmd.Context(), client.RestaurantInput{
		Name:        restaurantName,
		Location:    restaurantLocation,
		CuisineType: restaurantCuisine,
	})
	if err != nil {
		return err
	}

	return a.render(r, func(w io.Writer) {
		fmt.Fprintf(w, "Created restaurant %d: %s\n", r.ID, r.Name)
	})
}

func runRestaurantsQR(cmd *cobra.Command, args []string, a *app) error {
	id, err := parseID(args[0], "restaurant")
	if err != nil {
		return err
	}

	png, err := a.client.GenerateQRCode(cmd.Context(), id)
	if err != nil {
		return err
	}

	path := qrOutput
	if path == "" {
		path = fmt.Sprintf("restaurant-%d-qr.png", id)
	}
	if err := utils.AtomicWriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("failed to write QR code: %w", err)
	}

	result := map[string]any{"restaurant_id": id, "file": path, "bytes": len(png)}
	return a.render(result, func(w io.Writer) {
		fmt.Fprintf(w, "Wrote %s (%d bytes)\n", path, len(png))
	})
}
