package server

import (
	"fmt"
	"net/http"
	"statboard/internal/config"
	"statboard/internal/controller"
	"time"
)

// Controllers groups everything the HTTP layer delegates to
type Controllers struct {
	Server  controller.ServerController
	Matches controller.MatchController
	PUBG    controller.PubgController
	Notes   controller.NotesController
	Tokens  controller.TokenController
}

type Server struct {
	sc     controller.ServerController
	mc     controller.MatchController
	pc     controller.PubgController
	nc     controller.NotesController
	tc     controller.TokenController
	config config.Config
}

func New(config config.Config, controllers Controllers) *http.Server {
	server := Server{
		sc:     controllers.Server,
		mc:     controllers.Matches,
		pc:     controllers.PUBG,
		nc:     controllers.Notes,
		tc:     controllers.Tokens,
		config: config,
	}

	// A match page may sit through rate-limit retries before rendering
	riot := config.Riot
	writeTimeout := time.Duration(riot.MaxRetryWait*riot.MaxRetries+riot.RequestTimeout+30) * time.Second

	return &http.Server{
		Addr:         fmt.Sprintf(":%v", config.Port),
		Handler:      server.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
	}
}
