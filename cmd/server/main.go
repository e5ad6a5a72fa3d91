package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pong-game/internal/config"
	"pong-game/internal/db"
	"pong-game/internal/game"
	"pong-game/internal/handlers"
	"pong-game/internal/matchmaking"
	"pong-game/internal/middleware"
	"pong-game/internal/models"
	"pong-game/internal/services"
	"pong-game/internal/tournament"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting pong game server in %s mode", cfg.Environment)

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

	log.Printf("Connected to MongoDB database: %s", cfg.MongoDB.Database)

	recorder := db.NewRecorder(mongodb)

	// Core components
	hub := handlers.NewHub()

	gameManager := game.NewManager(hub, recorder, game.Options{
		MatchDuration:        cfg.MatchDuration(),
		BotMoveInterval:      cfg.BotMoveInterval(),
		TournamentStartDelay: cfg.TournamentStartDelay(),
		ForcedEndGrace:       cfg.ForcedEndGrace(),
	})

	tournamentEngine := tournament.NewEngine(hub, recorder, cfg.TournamentStartDelay())
	tournamentEngine.SetSessionStarter(gameManager)
	gameManager.SetTournamentReporter(tournamentEngine)

	matchmakingQueue := matchmaking.NewQueue(cfg.MatchmakingInterval(), cfg.BotFallback())
	matchmakingQueue.SetSessionChecker(gameManager.HasActiveSession)
	matchmakingQueue.SetMatchCreator(func(p1, p2 models.PlayerRef, gameType models.GameType) {
		gameManager.CreateSession(p1, p2, gameType)
	})
	matchmakingQueue.Start()
	defer matchmakingQueue.Stop()

	// A dropped connection tears down the player's state synchronously:
	// queue slot first, then any live session, then tournament standing.
	hub.SetDisconnectHandler(func(playerID string) {
		matchmakingQueue.Leave(playerID)
		gameManager.HandleDisconnect(playerID)
		tournamentEngine.HandleDisconnect(playerID)
	})
	go hub.Run()

	cleanup := services.NewSessionCleanupService(gameManager, cfg.StaleSessionSweep(), cfg.StaleSessionThreshold())
	cleanup.Start()
	defer cleanup.Stop()

	// Create handlers
	dispatcher := handlers.NewDispatcher(hub, matchmakingQueue, gameManager, tournamentEngine)
	wsHandler := handlers.NewWebSocketHandler(hub, dispatcher)
	tournamentHandler := handlers.NewTournamentHandler(tournamentEngine)
	statsHandler := handlers.NewStatsHandler(dispatcher)

	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Set up router
	router := mux.NewRouter()
	router.Use(middleware.SecurityHeaders)

	// WebSocket route
	router.HandleFunc("/ws/game", rateLimiter.RateLimitHandler(middleware.WebSocketUpgradeLimit, wsHandler.HandleWebSocket))

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/tournament", rateLimiter.RateLimitHandler(middleware.TournamentCreationLimit, tournamentHandler.CreateTournament)).Methods("POST")
	api.HandleFunc("/tournament", tournamentHandler.ListTournaments).Methods("GET")
	api.HandleFunc("/tournament/available", tournamentHandler.ListAvailable).Methods("GET")
	api.HandleFunc("/tournament/{id}", tournamentHandler.GetTournament).Methods("GET")
	api.HandleFunc("/tournament/{id}/join", tournamentHandler.JoinTournament).Methods("POST")
	api.HandleFunc("/tournament/{id}/leave", tournamentHandler.LeaveTournament).Methods("POST")
	api.HandleFunc("/tournament/{id}/start", tournamentHandler.StartTournament).Methods("POST")
	api.HandleFunc("/tournament/{id}/match/{matchId}/result", rateLimiter.RateLimitHandler(middleware.MatchResultLimit, tournamentHandler.ReportMatchResult)).Methods("POST")

	api.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")

	// API Documentation
	router.HandleFunc("/docs", handlers.ServeAPIDocs).Methods("GET")

	// Health check
	router.HandleFunc("/health", statsHandler.HealthCheck).Methods("GET")

	// CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Frontend.URL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Player-ID"},
		AllowCredentials: true,
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	tournamentEngine.Shutdown()
	gameManager.Shutdown()

	log.Println("Server stopped")
}
