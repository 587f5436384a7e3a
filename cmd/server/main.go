package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sandlotlabs/dugout/pkg/api"
	authproviders "github.com/sandlotlabs/dugout/pkg/auth/providers"
	"github.com/sandlotlabs/dugout/pkg/baseball"
	"github.com/sandlotlabs/dugout/pkg/baseball/rosters"
	"github.com/sandlotlabs/dugout/pkg/hub"
	"github.com/sandlotlabs/dugout/pkg/log"
	"github.com/sandlotlabs/dugout/pkg/queue"
	"github.com/sandlotlabs/dugout/pkg/repositories"
	"github.com/sandlotlabs/dugout/pkg/version"
	"github.com/sandlotlabs/dugout/pkg/workers"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	dbPath := flag.String("db", "dugout.db", "SQLite database path (ignored when DATABASE_URL is set)")
	rosterPath := flag.String("roster", "", "Optional roster JSON file")
	regulationInnings := flag.Int("innings", 9, "Regulation innings per game")
	unlimitedFouls := flag.Bool("unlimited-fouls", true, "Foul balls at two strikes never strike the batter out")
	mercyRuleRuns := flag.Int("mercy-runs", 10, "Run lead that ends a game early (0 disables)")
	firebaseProjectID := flag.String("firebase-project-id", "", "Firebase project ID (empty disables auth)")
	firebaseAPIKey := flag.String("firebase-api-key", "", "Firebase API key")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting dugout server version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repository repositories.Repository
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		repository = repositories.NewPostgresRepository(ctx, connStr)
	} else {
		sqliteRepo, err := repositories.NewSQLiteRepository(ctx, *dbPath)
		if err != nil {
			panic(fmt.Sprintf("Failed to open sqlite repository: %v", err))
		}
		repository = sqliteRepo
	}
	defer repository.Close(context.Background())

	var rosterProvider rosters.Provider
	if *rosterPath != "" {
		fileProvider, err := rosters.NewProviderFromFile(*rosterPath)
		if err != nil {
			panic(fmt.Sprintf("Failed to load roster file: %v", err))
		}
		rosterProvider = fileProvider
	} else {
		rosterProvider = rosters.NewStaticProvider()
	}

	defaultRules := baseball.Rules{
		RegulationInnings: *regulationInnings,
		UnlimitedFouls:    *unlimitedFouls,
		MercyRuleRuns:     *mercyRuleRuns,
		MinPitchQuality:   baseball.DefaultRules().MinPitchQuality,
	}

	resultsQueue := queue.NewInMemoryQueue(1000)
	saveResultWorker := workers.NewSaveResultWorker(workers.NewSaveResultWorkerOptions{
		Repository:   repository,
		ResultsQueue: resultsQueue,
		Interval:     5 * time.Second,
	})
	go saveResultWorker.Start(ctx)

	roomManager := hub.NewRoomManager(ctx, hub.NewRoomManagerOptions{
		Repository:     repository,
		ResultsQueue:   resultsQueue,
		RosterProvider: rosterProvider,
		DefaultRules:   defaultRules,
	})

	var authProvider authproviders.AuthProvider
	if *firebaseProjectID != "" {
		authProvider, err = authproviders.NewFirebaseAuthProvider(ctx, *firebaseProjectID, *firebaseAPIKey)
		if err != nil {
			panic(fmt.Sprintf("Failed to create firebase auth provider: %v", err))
		}
	} else {
		log.Warn("No firebase project configured, accepting all API tokens")
		authProvider = authproviders.NewNoopAuthProvider()
	}

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:         *port,
		AuthProvider: authProvider,
		Repository:   repository,
		RoomManager:  roomManager,
		DefaultRules: defaultRules,
	})
	go apiServer.Start()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}
}
