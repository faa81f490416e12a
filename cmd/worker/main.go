package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"statboard/internal/aws"
	"statboard/internal/config"
	"statboard/internal/controller"
	"statboard/internal/database"
	"statboard/internal/logging"
	"statboard/internal/rabbitmq"
	"strconv"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// worker runs only the note image consumer, for scaling generation apart
// from the API
func main() {
	configPath := flag.String("config", "config/config.json", "path to the JSON config file")
	consumerTag := flag.String("tag", "", "RabbitMQ consumer tag (default \"<app>-worker-<pid>\")")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database connection")
	}
	defer db.Disconnect(context.Background())

	client, err := rabbitmq.NewClientFromConfig(cfg.RabbitMQ)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create RabbitMQ client")
	}
	defer client.Close()

	if err := client.Setup(); err != nil {
		log.Fatal().Err(err).Msg("Failed to declare RabbitMQ topology")
	}
	if err := client.Health(); err != nil {
		log.Fatal().Err(err).Msg("RabbitMQ health check failed")
	}

	var files aws.FileService
	if cfg.AWS.Bucket != "" {
		files, err = aws.NewFileService(ctx, cfg.AWS.AccessKey, cfg.AWS.SecretKey, cfg.AWS.Bucket, cfg.AWS.Region)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 file service")
		}
		if err := files.TestConnection(ctx); err != nil {
			log.Fatal().Err(err).Msg("S3 connection test failed")
		}
	}

	tag := *consumerTag
	if tag == "" {
		tag = cfg.AppName + "-worker-" + strconv.Itoa(os.Getpid())
	}

	images := controller.NewImages(db, controller.NewOpenAIGenerator(cfg.OpenAI), files)

	log.Info().Str("queue", cfg.RabbitMQ.QueueName).Msg("Waiting for image jobs. Press CTRL+C to exit.")
	images.Run(ctx, func() (<-chan amqp.Delivery, error) {
		return client.Consume(tag)
	})
	log.Info().Msg("Worker stopped")
}
