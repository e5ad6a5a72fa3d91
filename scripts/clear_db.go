package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"pong-game/internal/config"
	"pong-game/internal/db"
)

func main() {
	// Load config
	cfg, err := config.Load(config.GetEnv())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to MongoDB
	mongodb, err := db.NewMongoDB(cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongodb.Close(ctx)
	}()

	ctx := context.Background()

	// Delete all match history
	matchResult, err := mongodb.MatchHistory().DeleteMany(ctx, map[string]interface{}{})
	if err != nil {
		log.Fatalf("Failed to delete match history: %v", err)
	}
	fmt.Printf("Deleted %d match records\n", matchResult.DeletedCount)

	// Delete all tournament history
	tournamentResult, err := mongodb.TournamentHistory().DeleteMany(ctx, map[string]interface{}{})
	if err != nil {
		log.Fatalf("Failed to delete tournament history: %v", err)
	}
	fmt.Printf("Deleted %d tournament records\n", tournamentResult.DeletedCount)

	fmt.Println("Database cleared successfully")
}
