package main

import (
	"context"
	"log"
	"net/http"

	"schoolresults/adapters/llm"
	"schoolresults/adapters/postgres"
	"schoolresults/adapters/spreadsheet"
	"schoolresults/api"
	"schoolresults/app"
	"schoolresults/internal/config"
	"schoolresults/internal/errors"
	"schoolresults/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase initializes the PostgreSQL database connection
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	resultRepo := postgres.NewResultRepository(db)

	reportGen, err := llm.NewReportGenerator(llm.Config{
		Model:       appConfig.LLM.Model,
		APIKey:      appConfig.LLM.APIKey,
		BaseURL:     appConfig.LLM.BaseURL,
		Temperature: appConfig.LLM.Temperature,
		MaxTokens:   appConfig.LLM.MaxTokens,
		Timeout:     appConfig.LLM.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to create report generator: %v", err)
	}

	ingest := app.NewIngestService(spreadsheet.NewReader(), userRepo, resultRepo, appConfig.Results.Retention)
	analytics := app.NewAnalyticsService(userRepo, resultRepo, reportGen)

	server := api.NewServer(ingest, analytics, userRepo, resultRepo)

	addr := ":" + appConfig.Server.Port
	log.Printf("School results service listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.Fatal("Server failed:", err)
	}
}
