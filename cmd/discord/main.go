// cmd/discord/main.go
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"soundkeeper/internal/config"
	"soundkeeper/internal/discord"
	"soundkeeper/internal/music/cluster"
	"soundkeeper/internal/settings"
	"soundkeeper/internal/storage"
	v "soundkeeper/internal/version"

	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg := config.New()

	if cfg.LogPath != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    20, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
		}))
	}

	log.Printf("[INFO] Starting %v %v...", v.AppName, v.AppVersion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	sett := settings.New(store, cfg.SettingsCacheTTL)

	if len(cfg.ClusterNodes) > 0 {
		log.Printf("[WARN] Remote cluster nodes %v configured but no remote transport is built in; using the in-process node", cfg.ClusterNodes)
	}
	node := cluster.NewMemoryClient(cluster.MemoryConfig{IdleTimeout: cfg.IdleTimeout})

	bot, err := discord.NewBot(cfg, store, sett, node)
	if err != nil {
		log.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	log.Println("[INFO] Discord bot exited cleanly")
}
