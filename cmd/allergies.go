package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safeserve/safeserve-go/pkg/allergens"
)

var (
	allergiesKnown  string
	allergiesCustom string
)

var AllergiesCmd = &cobra.Command{
	Use:   "allergies",
	Short: "Show or change your dietary restrictions",
}

var allergiesGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show your dietary restrictions",
	Args:  cobra.NoArgs,
	RunE:  withApp(runAllergiesGet),
}

var allergiesSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace your dietary restrictions",
	Long: `Replace your dietary restrictions with the given allergens.

--known accepts the standard allergens: ` + strings.Join(allergens.Known, ", ") + `.
--custom accepts anything else. Both take comma separated lists.
Passing neither clears the restrictions.

Examples:
  safeserve allergies set --known Dairy,Peanuts
  safeserve allergies set --known Eggs --custom Kiwi,Mustard`,
	Args: cobra.NoArgs,
	RunE: withApp(runAllergiesSet),
}

func init() {
	allergiesSetCmd.Flags().StringVar(&allergiesKnown, "known", "", "Comma separated standard allergens")
	allergiesSetCmd.Flags().StringVar(&allergiesCustom, "custom", "", "Comma separated custom allergens")

	AllergiesCmd.AddCommand(allergiesGetCmd)
	AllergiesCmd.AddCommand(allergiesSetCmd)
}

type restrictionsView struct {
	Known  []string `json:"known"`
	Custom []string `json:"custom"`
}

func newRestrictionsView(entries []string) restrictionsView {
	known, custom := allergens.Split(entries)
	if known == nil {
		known = []string{}
	}
	if custom == nil {
		custom = []string{}
	}
	return restrictionsView{Known: known, Custom: custom}
}

func (v restrictionsView) table(w io.Writer) {
	fmt.Fprintf(w, "Known:\t%s\n", strings.Join(v.Known, ", "))
	fmt.Fprintf(w, "Custom:\t%s\n", strings.Join(v.Custom, ", "))
}

func runAllergiesGet(cmd *cobra.Command, args []string, a *app) error {
	user, err := a.client.Me(cmd.Context())
	if err != nil {
		return err
	}
	view := newRestrictionsView(user.Restrictions())
	return a.render(view, view.table)
}

func runAllergiesSet(cmd *cobra.Command, args []string, a *app) error {
	known := allergens.Parse(allergiesKnown)
	for _, k := range known {
		if !allergens.IsKnown(k) {
			return fmt.Errorf("%q is not a standard allergen, pass it with --custom", k)
		}
	}
	custom := allergens.Parse(allergiesCustom)

	user, err := a.client.UpdateDietaryRestrictions(cmd.Context(), append(known, custom...))
	if err != nil {
		return err
	}
	view := newRestrictionsView(user.Restrictions())
	return a.render(view, view.table)
}
