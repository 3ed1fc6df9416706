// Package main is the entry point for the clipharbor hub server.
//
// WHY a separate main.go:
// Keeps the startup/wiring logic isolated from business logic. server.go
// owns HTTP routing, state.go owns shared state, broadcast.go owns
// real-time push, and main.go is the thin glue that creates them, connects
// them, and starts listening. This separation means you can test each
// component independently without invoking the full startup sequence.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clipharbor/hub/hub/blobstore"
	"github.com/clipharbor/hub/hub/index"
	"github.com/clipharbor/hub/shared/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// defaultConfigPath is the file checked when --config isn't given.
// WHY a constant: Makes the default discoverable and easy to change in one
// place if the project's layout conventions evolve.
const defaultConfigPath = "hub-config.toml"

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "clipharbor-hub",
		Short: "clipharbor hub: the central clipboard sync server",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", defaultConfigPath, "path to the hub's TOML configuration file")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "raise the log level to debug")

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("hub exited with error")
	}
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	// --- Step 1: Load configuration -------------------------------------
	// WHY load config first: Every other component depends on configuration
	// values (index path, image path, auth secret, listen address). If the
	// config is missing or invalid, there's no point initializing anything
	// else — fail fast with a clear error message instead of a cryptic
	// nil-pointer later.
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load hub config from %s: %w", configPath, err)
	}
	log.WithField("path", configPath).Info("hub config loaded")

	// --- Step 2: Initialize the index engine -----------------------------
	// WHY index before state: Global State seeds its ever-seen set from the
	// index's recent documents, so the index must exist and be queryable
	// before State is constructed.
	idx, err := index.Open(cfg.IndexPath)
	if err != nil {
		return fmt.Errorf("open index at %q: %w", cfg.IndexPath, err)
	}
	defer idx.Close()
	log.WithField("path", cfg.IndexPath).Info("index engine initialized")

	// --- Step 3: Initialize the blob store and digest cache --------------
	blobs, err := blobstore.New(cfg.ImagePath)
	if err != nil {
		return fmt.Errorf("initialize blob store at %q: %w", cfg.ImagePath, err)
	}
	digests, err := blobstore.NewDigestCache(10000)
	if err != nil {
		return fmt.Errorf("initialize digest cache: %w", err)
	}
	log.WithField("path", cfg.ImagePath).Info("blob store initialized")

	// --- Step 4: Create the broadcaster and worker pool -------------------
	// WHY create these before state: State wires both in at construction
	// and needs them ready before accepting any device session.
	broadcaster := NewBroadcaster()
	workers := NewWorkerPool(WorkerCount)
	log.WithField("workers", WorkerCount).Info("worker pool initialized")

	state, err := NewState(idx, blobs, digests, broadcaster, workers)
	if err != nil {
		return fmt.Errorf("initialize global state: %w", err)
	}
	log.WithField("devices", len(state.AllDevices())).Info("global state seeded")

	// --- Step 5: Create and start the server ------------------------------
	// WHY pass state and auth token: Dependency injection keeps the server
	// testable. In tests you can supply a test State and a known token
	// without touching config files or environment variables.
	server := NewServer(state, cfg.Secret, cfg.WebRoot)

	errCh := make(chan error, 1)
	go func() {
		if cfg.UseTLS {
			errCh <- listenAndServeTLS(server, cfg)
			return
		}
		errCh <- server.ListenAndServe(cfg.Endpoint)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("hub server failed: %w", err)
	case sig := <-sigCh:
		log.WithField("signal", sig).Info("shutting down")
		workers.Close()
		return nil
	}
}
