// Package main hosts the backend notification triggers.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/duotasks/companiond/internal/functions"
	"github.com/duotasks/companiond/internal/push"
	"github.com/duotasks/companiond/internal/store"
	"github.com/duotasks/companiond/internal/triggers"
)

var dataPath = "/var/lib/companion-functions/"

func main() {
	// Prepare a logger.
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

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

	address := os.Getenv("FUNCTIONS_LISTEN_ADDRESS")
	if address == "" {
		address = ":8090"
	}

	// Create storage path if missing.
	err := os.MkdirAll(dataPath, 0o700)
	if err != nil {
		return err
	}

	// Setup the stores.
	positions, err := store.LoadPositions(filepath.Join(dataPath, "positions.json"))
	if err != nil {
		return err
	}

	blobs, err := store.NewBlobs(filepath.Join(dataPath, "blobs"))
	if err != nil {
		return err
	}

	profiles, err := store.LoadProfiles(filepath.Join(dataPath, "profiles.json"))
	if err != nil {
		return err
	}

	// Setup push delivery.
	pusher, err := push.NewClient(os.Getenv("PUSH_ENDPOINT"), os.Getenv("PUSH_SERVER_KEY"))
	if err != nil {
		return err
	}

	server := functions.NewServer(address, &triggers.Handlers{
		Positions: positions,
		Blobs:     blobs,
		Profiles:  profiles,
		Pusher:    pusher,
	})

	slog.Info("Starting up", "address", address)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return server.Serve(ctx)
	})

	return group.Wait()
}
