package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/briankipchirchir/kopesha-backend/internal/db"
	"github.com/briankipchirchir/kopesha-backend/internal/handlers"
	"github.com/briankipchirchir/kopesha-backend/internal/repository"
	"github.com/briankipchirchir/kopesha-backend/internal/services"
	"github.com/briankipchirchir/kopesha-backend/internal/tracker"
)

func main() {
	// Load .env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env: %s", err)
	}

	// Connect to MongoDB
	uri := os.Getenv("MONGOURI")
	if uri == "" {
		log.Fatal("MONGOURI environment variable not set")
	}
	client, err := db.Connect(context.Background(), uri)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()
	log.Println("Successfully connected to MongoDB")

	database := client.Database("kopeshadb")

	loanRepo := repository.NewMongoLoanRepository(database)
	if err := loanRepo.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// Payment status tracker: Redis when REDIS_ADDR is set, otherwise a
	// process-lifetime in-memory map.
	var statuses tracker.Tracker
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		statuses = tracker.NewRedisTracker(addr)
		log.Printf("Tracking payment statuses in Redis at %s", addr)
	} else {
		statuses = tracker.NewMemoryTracker()
	}

	gateway := services.NewMpesaGateway()

	loanService := services.NewLoanService(loanRepo, statuses)
	loanHandler := handlers.NewLoanHandler(loanService)

	paymentService := services.NewPaymentService(loanRepo, gateway, statuses)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	rateLimiter := handlers.NewRateLimiter(5, time.Minute)
	defer rateLimiter.Stop()

	// Set up router
	router := mux.NewRouter()
	router.Use(handlers.RequestLogger)
	router.Use(handlers.CORS)

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "HEAD")

	router.Handle("/apply", handlers.RateLimit(rateLimiter, http.HandlerFunc(loanHandler.Apply))).Methods("POST", "OPTIONS")
	router.Handle("/stk-push", handlers.RateLimit(rateLimiter, http.HandlerFunc(paymentHandler.StkPush))).Methods("POST", "OPTIONS")
	router.HandleFunc("/mpesa/callback", paymentHandler.Callback).Methods("POST")
	router.HandleFunc("/mpesa/status/{checkoutRequestID}", paymentHandler.Status).Methods("GET")
	router.HandleFunc("/all", loanHandler.GetAll).Methods("GET")
	router.HandleFunc("/delete/{trackingId}", loanHandler.Delete).Methods("DELETE", "OPTIONS")

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server running on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalf("Server error: %v", err)
	case <-quit:
		log.Println("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	log.Println("Server exited")
}
