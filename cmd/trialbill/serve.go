package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/trialbill/modules/api"
	"github.com/dmitrymomot/trialbill/pkg/httpserver"
	"github.com/dmitrymomot/trialbill/pkg/logger"
	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the trial reconciler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
				defer cancel()
				if err := a.Close(closeCtx); err != nil {
					log.Error("shutdown failed", logger.Error(err))
				}
			}()

			router := api.NewRouter(api.Options{
				Accounts:          a.accounts,
				Subscriptions:     a.subs,
				Sessions:          a.sessions,
				Logger:            log,
				Metrics:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}),
				Probes:            a.probes,
				AuthLimiter:       a.limiter,
				SignatureHeader:   a.signatureHeader,
				SignInRedirectURL: cfg.SignInRedirectURL,
			})

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			reconciled := make(chan error, 1)
			go func() {
				reconciled <- subscription.NewReconciler(a.subs, cfg.Subscription.ReconcileInterval, log).Start(runCtx)
			}()

			srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
			err = srv.Run(runCtx, router)
			cancel()
			<-reconciled
			return err
		},
	}
}
