package controller

import (
	"context"
	"statboard/internal/aws"
	"statboard/internal/cache"
	"statboard/internal/database"
	"statboard/internal/rabbitmq"
	"time"
)

type ServerController interface {
	Online() string

	// Health checks every configured dependency; a nil map value means healthy
	Health(ctx context.Context) map[string]error
}

type serverController struct {
	checks map[string]func(context.Context) error
}

// NewServer takes each dependency that can be health-checked. Any of them
// may be nil when that dependency is not configured.
func NewServer(db database.Database, c cache.Cache, rabbit rabbitmq.Client, files aws.FileService) ServerController {
	checks := map[string]func(context.Context) error{}

	if db != nil {
		checks["mongodb"] = func(context.Context) error { return db.Health() }
	}
	if c != nil {
		checks["redis"] = c.Ping
	}
	if rabbit != nil {
		checks["rabbitmq"] = func(context.Context) error { return rabbit.Health() }
	}
	if files != nil {
		checks["s3"] = files.TestConnection
	}

	return &serverController{checks: checks}
}

func (sc *serverController) Online() string {
	return "Online"
}

func (sc *serverController) Health(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	results := make(map[string]error, len(sc.checks))
	for name, check := range sc.checks {
		results[name] = check(ctx)
	}
	return results
}
