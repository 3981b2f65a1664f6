package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/imagine-hussain/not-redis/internal/server"
	"github.com/imagine-hussain/not-redis/pkg/config"
	"github.com/imagine-hussain/not-redis/pkg/store"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting not-redis with config: %+v", cfg)

	st := store.New()
	srv := server.New(cfg, st)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Printf("Shutting down (%d keys in store)...", st.Len())

	if err := srv.Stop(); err != nil {
		log.Printf("Error stopping server: %v", err)
	}

	log.Println("Server stopped")
}
