// Command rcast runs the podcast client pipeline headlessly: background
// feed sync, on-demand audio caching, playback, and queue autoplay.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rcast/internal/autoplay"
	"rcast/internal/cache"
	"rcast/internal/config"
	"rcast/internal/feed"
	"rcast/internal/logging"
	"rcast/internal/player"
	"rcast/internal/store"
	"rcast/internal/syncer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	addURL := flag.String("add", "", "subscribe to a feed URL and exit")
	listShows := flag.Bool("list", false, "print subscriptions and their episodes, then exit")
	flag.Parse()

	// Missing .env is fine; the config file carries the defaults.
	_ = godotenv.Load()

	manager := config.NewManager(".")
	if err := manager.Load(); err != nil {
		return err
	}
	cfg := manager.Config()

	logging.Configure(cfg.LogLevel, nil)
	log := logging.WithComponent("main")

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fetcher := feed.NewFetcher()
	coordinator := syncer.New(db, fetcher)

	if *listShows {
		return printLibrary(ctx, db)
	}

	if *addURL != "" {
		show, err := coordinator.AddShow(ctx, *addURL)
		if err != nil {
			return err
		}
		fmt.Printf("subscribed to %q (%d episodes)\n", show.Title, mustCount(ctx, db, show.ID))
		return nil
	}

	audio, err := cache.NewAudio(cfg.AudioCacheDir, nil)
	if err != nil {
		return err
	}
	images, err := cache.NewImages(cfg.ImageCacheDir, nil)
	if err != nil {
		return err
	}
	go warmArtwork(ctx, db, images)

	output := player.NewMPV()
	defer output.Close()
	engine := player.NewEngine(output)
	defer engine.Stop()

	playEpisode := func(ctx context.Context, episodeID int64) error {
		ep, err := db.GetEpisode(ctx, episodeID)
		if err != nil {
			return err
		}
		path, err := audio.Resolve(ctx, ep.URL, ep.ID)
		if err != nil {
			return err
		}
		if err := engine.Play(path, ep.ID, ep.Duration); err != nil {
			return err
		}
		settings, err := db.GetSettings(ctx)
		if err == nil {
			engine.SetVolume(settings.DefaultVolume)
		}
		return nil
	}

	driver := autoplay.New(engine, db, playEpisode)

	settings, err := db.GetSettings(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("using default settings")
	}
	interval := time.Duration(settings.SyncIntervalMinutes) * time.Minute
	if interval < time.Minute {
		interval = time.Minute
	}
	go coordinator.Run(ctx, interval)

	log.Info().Msg("rcast started")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return nil
		case <-ticker.C:
			settings, err := db.GetSettings(ctx)
			if err != nil {
				settings.AutoPlayNext = false
			}
			driver.Tick(ctx, settings.AutoPlayNext)
		}
	}
}

// printLibrary writes every subscription and its episodes to stdout,
// newest first, played episodes marked with an asterisk.
func printLibrary(ctx context.Context, db *store.Store) error {
	shows, err := db.ListShows(ctx)
	if err != nil {
		return err
	}
	for _, show := range shows {
		fmt.Println(show.Title)
		episodes, err := db.ListEpisodes(ctx, show.ID)
		if err != nil {
			return err
		}
		for _, ep := range episodes {
			marker := " "
			if ep.IsPlayed {
				marker = "*"
			}
			fmt.Printf("  %s %-12s %s\n", marker, ep.FormatPublishDate(), ep.Title)
		}
	}
	return nil
}

func mustCount(ctx context.Context, db *store.Store, showID int64) int64 {
	count, err := db.CountEpisodes(ctx, showID)
	if err != nil {
		return 0
	}
	return count
}

// warmArtwork pulls each show's cover into the image cache so it is on
// disk before anything asks for it.
func warmArtwork(ctx context.Context, db *store.Store, images *cache.Images) {
	log := logging.WithComponent("artwork")
	shows, err := db.ListShows(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list shows")
		return
	}
	for _, show := range shows {
		if show.ImageURL == "" {
			continue
		}
		if _, err := images.Resolve(ctx, show.ImageURL); err != nil {
			log.Warn().Err(err).Str("show", show.Title).Msg("artwork fetch failed")
		}
	}
}
