package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newReconcileCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Activate every trial that has ended, once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg, newLogger(cfg))
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

			n, err := a.subs.ReconcileTrials(ctx)
			if err != nil {
				return fmt.Errorf("reconcile trials: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d trials activated\n", n)
			return err
		},
	}
}
