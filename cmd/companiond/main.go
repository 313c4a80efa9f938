// Package main is used for the companiond daemon.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/duotasks/companiond/internal/download"
	"github.com/duotasks/companiond/internal/install"
	"github.com/duotasks/companiond/internal/providers"
	"github.com/duotasks/companiond/internal/rest"
	"github.com/duotasks/companiond/internal/scheduling"
	"github.com/duotasks/companiond/internal/seed"
	"github.com/duotasks/companiond/internal/state"
	"github.com/duotasks/companiond/internal/updater"
)

var (
	varPath = "/var/lib/companiond/"
	runPath = "/run/companiond/"
)

const updateCheckJob = scheduling.JobName("update-check")

func main() {
	// Prepare a logger.
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Run the daemon.
	err := run()
	if err != nil {
		slog.Error(err.Error())

		// Sleep for a second to allow output buffers to flush.
		time.Sleep(1 * time.Second)

		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Create storage path if missing.
	err := os.MkdirAll(varPath, 0o700)
	if err != nil {
		return err
	}

	// Get persistent state.
	s, err := state.LoadOrCreate(filepath.Join(varPath, "state.json"))
	if err != nil {
		return err
	}

	// Apply seed configuration when present.
	seedUpdate, err := seed.GetUpdate(filepath.Join(varPath, "seed.yaml"))
	if err != nil && !seed.IsMissing(err) {
		return err
	}

	if seedUpdate != nil {
		slog.Info("Applying update configuration from seed data")

		s.Update = *seedUpdate

		err = s.Save()
		if err != nil {
			return err
		}
	}

	// Get the update provider. A broken or unreachable provider isn't fatal,
	// the configuration can still be fixed through the API.
	provider, err := providers.Load(ctx, s.Update.Provider, providerConfig(s))
	if err != nil {
		if !errors.Is(err, providers.ErrProviderUnavailable) {
			slog.Warn("Unable to initialize update provider", "provider", s.Update.Provider, "error", err)
		} else {
			slog.Warn("Update provider is currently unavailable", "provider", s.Update.Provider)
		}
	}

	// Setup the installer.
	var handler install.Handler
	if s.Update.InstallCommand != "" {
		handler = &install.CommandHandler{Command: s.Update.InstallCommand}
	}

	// Setup the update workflow.
	u := updater.New(s, provider, download.NewLocalService(nil), install.New(handler), filepath.Join(varPath, "installed-version"))

	// Setup the REST server.
	server, err := rest.NewServer(ctx, s, u, filepath.Join(runPath, "unix.socket"))
	if err != nil {
		return err
	}

	// Setup the periodic update check.
	scheduler, err := scheduling.NewScheduler()
	if err != nil {
		return err
	}

	if s.Update.CheckFrequency != "never" {
		interval, err := time.ParseDuration(s.Update.CheckFrequency)
		if err != nil {
			return errors.New("invalid update check frequency: " + err.Error())
		}

		err = scheduler.RegisterIntervalJob(updateCheckJob, interval, func(ctx context.Context) error {
			return u.Check(ctx, false)
		})
		if err != nil {
			return err
		}
	}

	scheduler.Start()

	defer func() { _ = scheduler.Shutdown() }()

	slog.Info("Starting up", "socket", filepath.Join(runPath, "unix.socket"), "provider", s.Update.Provider)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return server.Serve(ctx)
	})

	// Run the launch check.
	group.Go(func() error {
		return u.Check(ctx, false)
	})

	return group.Wait()
}

// providerConfig builds the provider configuration map from the update
// configuration.
func providerConfig(s *state.State) map[string]string {
	config := map[string]string{}

	for key, value := range s.Update.ProviderConfig {
		config[key] = value
	}

	if s.Update.ManifestURL != "" {
		config["manifest_url"] = s.Update.ManifestURL
	}

	return config
}
