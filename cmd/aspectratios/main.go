// Command aspectratios assigns every stored projector its canonical aspect
// ratio. New databases get this through schema migration 3; run this only
// to reclassify an existing database.
package main

import (
	"context"
	"flag"
	"log"

	"projector-server/internal/aspect"
	"projector-server/internal/config"
	"projector-server/internal/db"
	"projector-server/internal/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	dbPath := flag.String("db", cfg.Storage.DBPath, "path to the projector database")
	flag.Parse()

	if err := db.InitDatabase(*dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	n, err := aspect.MigrateAll(context.Background(), services.NewProjectorService(db.DB))
	if err != nil {
		log.Fatalf("Aspect ratio pass failed after %d projectors: %v", n, err)
	}
	log.Printf("Done: %d projectors classified", n)
}
