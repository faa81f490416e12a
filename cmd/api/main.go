package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"statboard/internal/aws"
	"statboard/internal/cache"
	"statboard/internal/config"
	"statboard/internal/controller"
	"statboard/internal/database"
	"statboard/internal/logging"
	"statboard/internal/rabbitmq"
	"statboard/internal/server"
	"statboard/pkg/pubg"
	"statboard/pkg/riot"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to the JSON config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(cfg.Logging)
	log.Info().Str("env", cfg.Env).Int("port", cfg.Port).Msg("Starting statboard API")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database connection")
	}
	defer db.Disconnect(context.Background())

	// Redis only caches account lookups, so the API can run without it
	var appCache cache.Cache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, account lookups will not be cached")
	} else {
		appCache = redisCache
		defer redisCache.Close()
	}

	rabbit, err := rabbitmq.NewClientFromConfig(cfg.RabbitMQ)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create RabbitMQ client")
	}
	defer rabbit.Close()

	if err := rabbit.Setup(); err != nil {
		log.Fatal().Err(err).Msg("Failed to declare RabbitMQ topology")
	}

	var files aws.FileService
	if cfg.AWS.Bucket != "" {
		files, err = aws.NewFileService(ctx, cfg.AWS.AccessKey, cfg.AWS.SecretKey, cfg.AWS.Bucket, cfg.AWS.Region)
		if err != nil {
			log.Warn().Err(err).Msg("S3 unavailable, generated image URLs will be stored as-is")
			files = nil
		}
	}

	riotClient := riot.New(cfg.Riot.APIKey,
		riot.WithPlatformURL(cfg.Riot.PlatformURL),
		riot.WithRegionalURL(cfg.Riot.RegionalURL),
		riot.WithRetries(cfg.Riot.MaxRetries, seconds(cfg.Riot.MaxRetryWait)),
		riot.WithTimeout(seconds(cfg.Riot.RequestTimeout)),
	)

	pubgClient := pubg.New(cfg.PUBG.APIKey, cfg.PUBG.BaseURL, cfg.PUBG.RequestsPerMinute,
		pubg.WithRetries(cfg.PUBG.MaxRetries, seconds(cfg.PUBG.MaxRetryWait)),
	)
	defer pubgClient.Close()

	var pubgCache cache.Cache
	if cfg.PUBG.Cache {
		pubgCache = appCache
	}

	// Image jobs are consumed in-process alongside the API
	images := controller.NewImages(db, controller.NewOpenAIGenerator(cfg.OpenAI), files)
	go images.Run(ctx, func() (<-chan amqp.Delivery, error) {
		return rabbit.Consume(cfg.AppName + "-api")
	})

	srv := server.New(*cfg, server.Controllers{
		Server:  controller.NewServer(db, appCache, rabbit, files),
		Matches: controller.NewMatch(riotClient, appCache, seconds(cfg.Riot.AccountTTL)),
		PUBG:    controller.NewPUBG(pubgClient, pubgCache, cfg.PUBG.Shard, cfg.PUBG.DefaultMode, seconds(cfg.PUBG.DefaultCacheTTL)),
		Notes:   controller.NewNotes(db, rabbit, cfg.RabbitMQ.RoutingKey),
		Tokens:  controller.NewToken(db),
	})

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
