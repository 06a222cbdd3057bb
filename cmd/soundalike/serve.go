package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hupe1980/soundalike"
	"github.com/hupe1980/soundalike/internal/httpapi"
	"github.com/hupe1980/soundalike/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recommendations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sc := a.cfg.Server
			if addr != "" {
				sc.Addr = addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			metrics, err := observability.NewPrometheusCollector(reg)
			if err != nil {
				return err
			}

			eng, bs, err := a.loadEngine(ctx, soundalike.WithMetricsCollector(metrics))
			if err != nil {
				return err
			}

			api := httpapi.New(eng, httpapi.Config{
				RequestTimeout: sc.RequestTimeout,
				RateLimit:      sc.RateLimit,
				RateBurst:      sc.RateBurst,
				TopN:           a.cfg.Engine.TopN,
			},
				httpapi.WithReloadSource(bs),
				httpapi.WithGatherer(reg),
				httpapi.WithLogger(a.log),
			)

			srv := &http.Server{
				Addr:         sc.Addr,
				Handler:      api.Handler(),
				ReadTimeout:  sc.ReadTimeout,
				WriteTimeout: sc.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", sc.Addr).Int("tracks", eng.Stats().Tracks).Msg("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.log.Info().Msg("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "override server.addr")
	return cmd
}
