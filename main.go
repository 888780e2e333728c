package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"habitMasteryAPI/handlers"
	"habitMasteryAPI/internal/push"
	"habitMasteryAPI/middleware"
	"habitMasteryAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool                *pgxpool.Pool
	userService           *services.UserService
	habitService          *services.HabitService
	teamService           *services.TeamService
	congratulationService *services.CongratulationService
	fcmService            *push.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	congratulationService = services.NewCongratulationService(dbPool)
	userService = services.NewUserService(dbPool, congratulationService)
	habitService = services.NewHabitService(dbPool, congratulationService)
	teamService = services.NewTeamService(dbPool)

	fcmService, err = push.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		congratulationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	habitHandler := handlers.NewHabitHandler(habitService)
	teamHandler := handlers.NewTeamHandler(teamService)
	congratulationHandler := handlers.NewCongratulationHandler(congratulationService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "habit-mastery-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/dashboard", userHandler.GetDashboard).Methods("GET")
	protected.HandleFunc("/user/stats", userHandler.GetStats).Methods("GET")
	protected.HandleFunc("/user/settings", userHandler.GetSettings).Methods("GET")
	protected.HandleFunc("/user/settings", userHandler.UpdateSettings).Methods("PUT")

	protected.HandleFunc("/habits", habitHandler.CreateHabit).Methods("POST")
	protected.HandleFunc("/habits", habitHandler.GetHabits).Methods("GET")
	protected.HandleFunc("/habits/{habitId}", habitHandler.GetHabit).Methods("GET")
	protected.HandleFunc("/habits/{habitId}", habitHandler.DeleteHabit).Methods("DELETE")
	protected.HandleFunc("/habits/{habitId}/toggle", habitHandler.ToggleTracking).Methods("POST")
	protected.HandleFunc("/habits/{habitId}/complete", habitHandler.CompleteHabit).Methods("POST")
	protected.HandleFunc("/habits/{habitId}/trackings", habitHandler.GetTrackings).Methods("GET")
	protected.HandleFunc("/habits/{habitId}/calendar", habitHandler.GetCalendar).Methods("GET")

	protected.HandleFunc("/teams", teamHandler.CreateTeam).Methods("POST")
	protected.HandleFunc("/teams", teamHandler.GetTeams).Methods("GET")
	protected.HandleFunc("/teams/{teamId}", teamHandler.GetTeam).Methods("GET")
	protected.HandleFunc("/teams/{teamId}/join", teamHandler.JoinTeam).Methods("POST")
	protected.HandleFunc("/teams/{teamId}/leave", teamHandler.LeaveTeam).Methods("POST")
	protected.HandleFunc("/teams/{teamId}/board", teamHandler.GetBoard).Methods("GET")

	protected.HandleFunc("/congratulations", congratulationHandler.GetCongratulations).Methods("GET")
	protected.HandleFunc("/congratulations/unread-count", congratulationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/congratulations/{congratulationId}/read", congratulationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/congratulations/read-all", congratulationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/congratulations/register-device", congratulationHandler.RegisterDevice).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
