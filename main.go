package main

import (
	"os"

	"github.com/finote/finote/internal/app"
	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetLevel(log.InfoLevel)
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			log.Fatalf("invalid LOG_LEVEL %q: %v", level, err)
		}
		log.SetLevel(parsed)
	}
}

func main() {
	application, err := app.NewApplication()
	if err != nil {
		log.Fatalf("finote failed to start: %v", err)
	}
	if err := application.Run(); err != nil {
		log.Fatal(err)
	}
}
