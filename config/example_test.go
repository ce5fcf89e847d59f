package config_test

import (
	"context"
	"fmt"
	"log"

	"github.com/sagarc03/signet/config"
)

func ExampleLoad() {
	// Load with defaults only (no config file)
	cfg, err := config.Load(nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Backend: %s, Origins: %v\n", cfg.Storage.Backend, cfg.CORS.AllowedOrigins)
	// Output: Backend: local, Origins: [*]
}

func ExampleWithContext() {
	cfg, _ := config.Load(nil, nil)

	// Store config in context
	ctx := config.WithContext(context.Background(), cfg)

	// Retrieve later (e.g., in a subcommand)
	retrieved, err := config.FromContext(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Retrieved backend: %s\n", retrieved.Storage.Backend)
	// Output: Retrieved backend: local
}
