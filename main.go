package main

import (
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/garagehub/garagehub-api/api/handlers"
	"github.com/garagehub/garagehub-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Config.Validate(); err != nil {
		log.Fatalf("garagehub-api is not configured: %v", err)
	}

	if err := a.Initialize(); err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}

	zap.S().Infow("garagehub-api is up and running",
		"port", a.Config.Port,
		"url", a.Config.BaseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", a.Config.Port), a.Router))
}
