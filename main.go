package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/safeserve/safeserve-go/cmd"
)

var rootCmd = &cobra.Command{
	Use:           "safeserve",
	Short:         "SafeServe command line client",
	Long:          "Browse restaurant menus with allergen warnings and manage restaurants on a SafeServe backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cmd.AddGlobalFlags(rootCmd)
	rootCmd.AddCommand(cmd.RegisterCmd)
	rootCmd.AddCommand(cmd.LoginCmd)
	rootCmd.AddCommand(cmd.LogoutCmd)
	rootCmd.AddCommand(cmd.WhoamiCmd)
	rootCmd.AddCommand(cmd.AllergiesCmd)
	rootCmd.AddCommand(cmd.RestaurantsCmd)
	rootCmd.AddCommand(cmd.CategoriesCmd)
	rootCmd.AddCommand(cmd.MenuCmd)
	rootCmd.AddCommand(cmd.DevServerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cmd.Explain(err))
		os.Exit(1)
	}
}
