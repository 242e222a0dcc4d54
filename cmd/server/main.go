/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the estimation server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize the SQLite rule-set store
  3. Build the rate client and API handler
  4. Load the active rule-set revision (built-in tables otherwise)
  5. Start the server with graceful shutdown

COMMAND-LINE FLAGS:
  -port           HTTP server port (default: 8080)
  -db             SQLite database path (default: obra.db, ":memory:" works)
  -rates-url      Base URL of the SGS rate API
  -rates-series   SGS series number (default: 4189, annualized Selic)
  -rates-timeout  Rate fetch timeout

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database connection
  4. Exit

EXAMPLES:
  ./server -db=":memory:"
  ./server -port=3000 -rates-timeout=5s

SEE ALSO:
  - api/server.go: Router configuration
  - rates/client.go: SGS client
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/construtiva/obra-engine/api"
	"github.com/construtiva/obra-engine/rates"
	"github.com/construtiva/obra-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "obra.db", "SQLite database path")
	ratesURL := flag.String("rates-url", rates.DefaultBaseURL, "Base URL of the SGS rate API")
	ratesSeries := flag.Int("rates-series", rates.DefaultSeries, "SGS series number")
	ratesTimeout := flag.Duration("rates-timeout", 10*time.Second, "Rate fetch timeout")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Rate client
	rateClient := rates.NewClient()
	rateClient.BaseURL = *ratesURL
	rateClient.Series = *ratesSeries
	rateClient.HTTPClient.Timeout = *ratesTimeout

	// Initialize handler
	handler := api.NewHandler(store, rateClient)
	if err := handler.LoadRules(context.Background()); err != nil {
		log.Printf("Warning: failed to load stored rule set, using built-in tables: %v", err)
	}

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
