package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/aouyang1/einkframe/api"
	"github.com/aouyang1/einkframe/buttons"
	"github.com/aouyang1/einkframe/config"
	"github.com/aouyang1/einkframe/display"
	"github.com/aouyang1/einkframe/infoscreen"
	"github.com/aouyang1/einkframe/logging"
	"github.com/aouyang1/einkframe/photocache"
	"github.com/aouyang1/einkframe/slideshow"
	"github.com/aouyang1/einkframe/store"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the frame: slideshow, web api, sync and buttons",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	// Initialize database
	db, err := store.NewDatabase(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	cache := photocache.New(cfg.CacheDir)
	if err := os.MkdirAll(cache.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	painter, err := infoscreen.NewPainter(infoscreen.DefaultWidth, infoscreen.DefaultHeight)
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	frame := slideshow.NewController(slideshow.ControllerConfig{
		Settings: db,
		Photos:   cache,
		Sink:     display.NewExecSink(cfg.DisplayCmd, cfg.DisplayTimeout),
		Clock:    clock,
		Info:     painter,
		InfoPath: cfg.InfoScreenPath(),
	})
	defer frame.Close()

	dispatcher := slideshow.NewDispatcher(cfg.DispatchWorkers, cfg.DispatchQueue)
	defer dispatcher.Close()

	power := display.NewPower(cfg.DisplayOutput)

	wsCfg := api.WebServerConfig{
		DB:      db,
		Cache:   cache,
		Frame:   frame,
		Power:   power,
		Tasks:   dispatcher,
		Address: advertisedAddress(cfg.ListenAddr),
	}

	var wg sync.WaitGroup
	runBackground := func(name string, fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
			slog.Debug("background manager stopped", "manager", name)
		}()
	}

	if cfg.RemoteEnabled() {
		bucket, err := api.NewS3Bucket(ctx, cfg.AWSProfile, cfg.S3Bucket)
		if err != nil {
			return fmt.Errorf("failed to initialize remote sync: %w", err)
		}
		remote := api.NewRemoteManager(bucket, cache, cfg.RemoteInterval, clock)
		wsCfg.Remote = remote
		runBackground("remote", remote.Run)
	} else {
		slog.Info("no s3 bucket configured, remote sync disabled")
	}

	runBackground("local", api.NewLocalManager(cache, cfg.CacheLimit, clock).Run)

	scheduleManager, err := api.NewScheduleManager(db, power, clock)
	if err != nil {
		return err
	}
	runBackground("schedule", scheduleManager.Run)

	ws := api.NewWebServer(wsCfg)

	if cfg.ButtonsEnabled {
		watcher, err := setupButtons(ws, frame, dispatcher)
		if err != nil {
			return err
		}
		runBackground("buttons", func(ctx context.Context) {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("button watcher stopped", "error", err)
			}
		})
	}

	dispatcher.Submit("startup", func(ctx context.Context) error {
		return resumeSlideshow(ctx, ws, frame, db)
	})

	err = ws.Run(ctx, cfg.ListenAddr)
	wg.Wait()
	return err
}

// resumeSlideshow restores the persisted slideshow state after a restart.
func resumeSlideshow(ctx context.Context, ws *api.WebServer, frame *slideshow.Controller, db *store.Database) error {
	settings, err := db.GetSettings()
	if err != nil {
		return err
	}
	if !settings.Slideshow.Enabled {
		slog.Info("slideshow disabled, waiting for a start request")
		return nil
	}

	count, err := frame.Selector().Count()
	if err != nil {
		return err
	}
	if count == 0 {
		slog.Info("slideshow enabled but no photos cached, showing info screen")
		return frame.ShowInfo(ctx, ws.InfoScreen())
	}

	_, err = ws.StartSlideshow(ctx, 0)
	return err
}

func setupButtons(ws *api.WebServer, frame *slideshow.Controller, dispatcher *slideshow.Dispatcher) (*buttons.Watcher, error) {
	if err := buttons.Init(); err != nil {
		return nil, err
	}

	watcher := buttons.NewWatcher(dispatcher, buttons.DefaultDebounce)
	bindings := []struct {
		label  string
		pin    string
		action buttons.Action
	}{
		{"info", buttons.PinA, func(ctx context.Context) error {
			return frame.ShowInfo(ctx, ws.InfoScreen())
		}},
		{"previous", buttons.PinB, func(ctx context.Context) error {
			_, err := frame.Previous(ctx)
			return err
		}},
		{"next", buttons.PinC, func(ctx context.Context) error {
			_, err := frame.Next(ctx)
			return err
		}},
		{"toggle", buttons.PinD, ws.ToggleSlideshow},
	}
	for _, b := range bindings {
		if err := watcher.Bind(b.label, b.pin, b.action); err != nil {
			return nil, err
		}
	}
	return watcher, nil
}

// advertisedAddress turns a listen address into something a person can type
// into a browser.
func advertisedAddress(listen string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}

	_, port, err := net.SplitHostPort(listen)
	if err != nil || port == "" {
		return fmt.Sprintf("http://%s.local", host)
	}
	return fmt.Sprintf("http://%s.local:%s", host, port)
}
