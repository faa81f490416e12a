package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"statboard/internal/cache"
	"statboard/internal/config"
	"statboard/internal/controller"
	"statboard/internal/logging"
	"statboard/pkg/pubg"
	"time"

	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to the JSON config file")
	player := flag.String("player", "", "player name to look up")
	mode := flag.String("mode", "", "game mode, e.g. squad-fpp (default from config)")
	out := flag.String("out", "", "write the stats chart PNG here")
	flag.Parse()

	if *player == "" {
		fmt.Fprintln(os.Stderr, "Usage: pubg -player <name> [-mode squad-fpp] [-out chart.png]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.Logging)

	var accountCache cache.Cache
	if cfg.PUBG.Cache {
		redisCache, err := cache.NewRedisCache(cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
		} else {
			accountCache = redisCache
			defer redisCache.Close()
		}
	}

	client := pubg.New(cfg.PUBG.APIKey, cfg.PUBG.BaseURL, cfg.PUBG.RequestsPerMinute,
		pubg.WithRetries(cfg.PUBG.MaxRetries, time.Duration(cfg.PUBG.MaxRetryWait)*time.Second),
	)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pc := controller.NewPUBG(client, accountCache, cfg.PUBG.Shard, cfg.PUBG.DefaultMode, time.Duration(cfg.PUBG.DefaultCacheTTL)*time.Second)
	view, err := pc.PlayerStats(ctx, *player, *mode)
	if err != nil {
		log.Error().Err(err).Str("player", *player).Msg("Could not load player stats")
		os.Exit(1)
	}

	fmt.Printf("%s (%s) %s\n", view.Player, view.AccountID, view.Mode)
	fmt.Printf("rounds %d, win rate %.1f%%, K/D %.2f\n", view.RoundsPlayed, view.WinRate*100, view.KDRatio)
	for i, label := range view.Chart.Categories {
		fmt.Printf("  %-10s %s\n", label, view.Chart.Labels[i])
	}

	if *out != "" {
		if err := os.WriteFile(*out, view.Chart.PNG, 0o644); err != nil {
			log.Error().Err(err).Str("path", *out).Msg("Failed to write chart")
			os.Exit(1)
		}
		log.Info().Str("path", *out).Msg("Chart written")
	}
}
