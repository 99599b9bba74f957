package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safeserve/safeserve-go/pkg/allergens"
	"github.com/safeserve/safeserve-go/pkg/client"
)

var (
	itemName        string
	itemIngredients string
	itemAllergens   string
	itemCategory    int64
)

var MenuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Manage the menu items of a restaurant",
}

var menuListCmd = &cobra.Command{
	Use:   "list <restaurant-id>",
	Short: "List the menu items of a restaurant",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runMenuList),
}

var menuAddCmd = &cobra.Command{
	Use:   "add <restaurant-id>",
	Short: "Add a menu item",
	Long: `Add a menu item to a restaurant you own.

Examples:
  safeserve menu add 3 --name Lasagna --ingredients "pasta, cheese" --allergens Dairy,Gluten --category 4`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runMenuAdd),
}

var menuUpdateCmd = &cobra.Command{
	Use:   "update <restaurant-id> <item-id>",
	Short: "Replace a menu item",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runMenuUpdate),
}

var menuDeleteCmd = &cobra.Command{
	Use:   "delete <restaurant-id> <item-id>",
	Short: "Delete a menu item",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runMenuDelete),
}

func init() {
	for _, c := range []*cobra.Command{menuAddCmd, menuUpdateCmd} {
		c.Flags().StringVar(&itemName, "name", "", "Item name (required)")
		c.Flags().StringVar(&itemIngredients, "ingredients", "", "Ingredients")
		c.Flags().StringVar(&itemAllergens, "allergens", "", "Comma separated allergens")
		c.Flags().Int64Var(&itemCategory, "category", 0, "Category id")
	}

	MenuCmd.AddCommand(menuListCmd)
	MenuCmd.AddCommand(menuAddCmd)
	MenuCmd.AddCommand(menuUpdateCmd)
	MenuCmd.AddCommand(menuDeleteCmd)
}

func menuItemInput() client.MenuItemInput {
	in := client.MenuItemInput{
		Name:        itemName,
		Ingredients: itemIngredients,
		Allergens:   allergens.Parse(itemAllergens),
	}
	if itemCategory > 0 {
		category := itemCategory
		in.CategoryID = &category
	}
	return in
}

func renderMenuItem(a *app, verb string, item *client.MenuItem) error {
	return a.render(item, func(w io.Writer) {
		fmt.Fprintf(w, "%s menu item %d: %s\n", verb, item.ID, item.Name)
	})
}

func runMenuList(cmd *cobra.Command, args []string, a *app) error {
	restaurantID, err := parseID(args[0], "restaurant")
	if err != nil {
		return err
	}

	items, err := a.client.ListMenuItems(cmd.Context(), restaurantID)
	if err != nil {
		return err
	}

	return a.render(items, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tALLERGENS\tINGREDIENTS")
		for _, item := range items {
			category := "-"
			if item.Category != nil {
				category = item.Category.Name
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				item.ID, item.Name, category, strings.Join(item.AllergenList(), ", "), item.Ingredients)
		}
	})
}

func runMenuAdd(cmd *cobra.Command, args []string, a *app) error {
	restaurantID, err := parseID(args[0], "restaurant")
	if err != nil {
		return err
	}

	item, err := a.client.CreateMenuItem(cmd.Context(), restaurantID, menuItemInput())
	if err != nil {
		return err
	}
	return renderMenuItem(a, "Created", item)
}

func runMenuUpdate(cmd *cobra.Command, args []string, a *app) error {
	restaurantID, err := parseID(args[0], "restaurant")
	if err != nil {
		return err
	}
	itemID, err := parseID(args[1], "menu item")
	if err != nil {
		return err
	}

	item, err := a.client.UpdateMenuItem(cmd.Context(), restaurantID, itemID, menuItemInput())
	if err != nil {
		return err
	}
	return renderMenuItem(a, "Updated", item)
}

func runMenuDelete(cmd *cobra.Command, args []string, a *app) error {
	restaurantID, err := parseID(args[0], "restaurant")
	if err != nil {
		return err
	}
	itemID, err := parseID(args[1], "menu item")
	if err != nil {
		return err
	}

	if err := a.client.DeleteMenuItem(cmd.Context(), restaurantID, itemID); err != nil {
		return err
	}

	result := map[string]any{"restaurant_id": restaurantID, "item_id": itemID, "status": "deleted"}
	return a.render(result, func(w io.Writer) {
		fmt.Fprintf(w, "Deleted menu item %d\n", itemID)
	})
}
