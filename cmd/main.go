package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZayanAhmed07/SpikeLeagueScrim/app"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/config"
)

func main() {
	configPath := flag.String("config", "./config", "path to the config directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	go func() {
		if err := application.Start(); err != nil {
			log.Fatalf("application failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	application.Stop()
}
