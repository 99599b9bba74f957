package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var CategoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"category"},
	Short:   "Manage the menu categories of a restaurant",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list <restaurant-id>",
	Short: "List the categories of a restaurant",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runCategoriesList),
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add <restaurant-id> <name>",
	Short: "Add a category to a restaurant you own",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runCategoriesAdd),
}

func init() {
	CategoriesCmd.AddCommand(categoriesListCmd)
	CategoriesCmd.AddCommand(categoriesAddCmd)
}

func runCategoriesList(cmd *cobra.Command, args []string, a *app) error {
	restaurantID, err := parseID(args[0], "restaurant")
	if err != nil {
		return err
	}

	categories, err := a.client.ListCategories(cmd.Context(), restaurantID)
	if err != nil {
		return err
	}

	return a.render(categories, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME")
		for _, c := range categories {
			fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Name)
		}
	})
}

func runCategoriesAdd(cmd *cobra.Command, args []string, a *app) error {
	restaurantID, err := parseID(args[0], "restaurant")
	if err != nil {
		return err
	}

	category, err := a.client.CreateCategory(cmd.Context(), restaurantID, args[1])
	if err != nil {
		return err
	}

	return a.render(category, func(w io.Writer) {
		fmt.Fprintf(w, "Created category %d: %s\n", category.ID, category.Name)
	})
}
