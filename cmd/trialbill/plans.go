package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func newPlansCmd(load configLoader) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Validate and print the plan catalog",
		Long: `Print the plan catalog the service would load.

Examples:
  trialbill plans                      # built-in plans or SUBSCRIPTION_PLANS_FILE
  trialbill plans --file plans.yaml    # validate a catalog file`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if file != "" {
				cfg.Subscription.PlansFile = file
			}

			catalog, err := loadCatalog(cmd.Context(), cfg.Subscription)
			if err != nil {
				return err
			}

			p := message.NewPrinter(language.English)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tTRIAL\tGATEWAY PRICE")
			for _, plan := range catalog.Plans() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d days\t%s\n",
					plan.ID,
					plan.Name,
					p.Sprintf("%s %.2f", strings.ToUpper(plan.Price.Currency), float64(plan.Price.Amount)/100),
					plan.TrialDays,
					plan.GatewayPriceID(),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog to validate")
	return cmd
}
