package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/city-forecast/internal/api/http"
	"github.com/i474232898/city-forecast/internal/config"
	"github.com/i474232898/city-forecast/internal/forecast"
	"github.com/i474232898/city-forecast/internal/logging"
	"github.com/i474232898/city-forecast/internal/scheduler"
	"github.com/i474232898/city-forecast/internal/store"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "city-forecast",
		Short:         "Daily temperature forecasts for every place matching a city name",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newLookupCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.New(cfg.Log.Level, cfg.Log.Format)

			wired, err := buildApp(cfg, log)
			if err != nil {
				return err
			}

			// In-memory probe history with configured retention.
			probes := store.NewMemoryStore(cfg.Probe.MaxHistory, cfg.Probe.MaxAge)

			sched := scheduler.New(cfg.Probe.Cities, cfg.Probe.Interval, cfg.Probe.Timeout, wired.service, probes, log)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			accessLog := log.Writer()
			defer accessLog.Close()

			server := httpapi.NewApp(cfg.ReadTimeout, cfg.WriteTimeout, accessLog)
			httpapi.RegisterRoutes(server, wired.service, log, cfg.RequestTimeout)

			upstreams := make([]httpapi.Upstream, 0, len(wired.upstreams))
			for _, u := range wired.upstreams {
				upstreams = append(upstreams, u)
			}
			httpapi.RegisterHealthRoutes(server, probes, upstreams...)

			go func() {
				log.WithField("port", cfg.Port).Info("listening")
				if err := server.Listen(":" + cfg.Port); err != nil {
					log.WithError(err).Error("fiber server stopped")
				}
			}()

			// Wait for termination signal
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.ShutdownWithContext(shutdownCtx); err != nil {
				log.WithError(err).Error("error during shutdown")
			}
			return nil
		},
	}
}

func newLookupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <city>",
		Short: "Resolve a city and print its forecasts as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.New(cfg.Log.Level, cfg.Log.Format)
			log.SetOutput(cmd.ErrOrStderr())

			wired, err := buildApp(cfg, log)
			if err != nil {
				return err
			}

			cities, err := wired.service.CityForecasts(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(cities) == 0 {
				return forecast.ErrCityNotFound
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cities)
		},
	}
}
