package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"statboard/internal/config"
	"statboard/internal/controller"
	"statboard/internal/database"
	"statboard/internal/logging"
	"statboard/internal/model"
	"time"

	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to the JSON config file")
	name := flag.String("name", "", "token name, shown as the user's display name (default \"<app> - Admin Token\")")
	role := flag.String("role", model.RoleAdmin, "token role: ADMIN or USER")
	days := flag.Int("days", 365, "days until the token expires, 0 for never")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.Logging)

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer db.Disconnect(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tc := controller.NewToken(db)

	var rawToken string
	if *name == "" && *role == model.RoleAdmin && *days == 365 {
		rawToken, err = tc.GenerateInitialAdminToken(ctx, cfg.AppName)
	} else {
		var expiresAt *time.Time
		if *days > 0 {
			t := time.Now().AddDate(0, 0, *days)
			expiresAt = &t
		}
		rawToken, _, err = tc.GenerateToken(ctx, *name, *role, expiresAt)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to create token")
		os.Exit(1)
	}

	fmt.Println("Token created successfully!")
	fmt.Println("Token:", rawToken)
	fmt.Println("IMPORTANT: Save this token securely. It won't be shown again.")
}
