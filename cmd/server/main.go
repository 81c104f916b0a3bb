package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/geoflow/geoflow/internal/audit"
	"github.com/geoflow/geoflow/internal/auth"
	"github.com/geoflow/geoflow/internal/config"
	"github.com/geoflow/geoflow/internal/db"
	"github.com/geoflow/geoflow/internal/domain"
	"github.com/geoflow/geoflow/internal/export"
	"github.com/geoflow/geoflow/internal/metrics"
	"github.com/geoflow/geoflow/internal/middleware"
	"github.com/geoflow/geoflow/internal/repository"
	"github.com/geoflow/geoflow/internal/server"
	"github.com/geoflow/geoflow/internal/workflow"
	"github.com/geoflow/geoflow/migrations"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Run migrations before opening the pool
	if err := db.RunMigrations(migrations.FS, cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	store := repository.NewStore(conn.Pool)
	uow := repository.NewUnitOfWork(conn)

	if err := bootstrapAdmin(ctx, uow); err != nil {
		log.Fatalf("Failed to bootstrap admin user: %v", err)
	}

	// Configure change capture per table. High churn bookkeeping columns are
	// excluded so updates touching only them leave no record, and the users
	// table never logs query text or the password column.
	engine := audit.NewEngine()
	engine.Register("data_sources", audit.TableConfig{
		LogRowLevel:    true,
		LogQueryText:   true,
		IgnoredColumns: []string{"last_updated", "updated_by"},
	})
	engine.Register("load_instances", audit.TableConfig{
		LogRowLevel:    true,
		LogQueryText:   true,
		IgnoredColumns: []string{"last_updated"},
	})
	engine.Register("users", audit.TableConfig{
		LogRowLevel:    true,
		LogQueryText:   false,
		IgnoredColumns: []string{"password"},
	})

	service := workflow.NewService(store, uow, engine)
	exporter := export.NewService(store.AuditLogs, cfg.Server.ExportDir)
	handler := server.NewHandler(service, exporter)

	mux := http.NewServeMux()
	handler.Routes(mux)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := conn.Pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	root := corsHandler.Handler(
		middleware.LoggingMiddleware(
			middleware.SessionMiddleware(mux),
		),
	)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting geoflow server on %s", cfg.Server.Addr)
		log.Printf("API available under http://localhost%s/api/v1", cfg.Server.Addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// bootstrapAdmin creates the first admin account when the user table is
// empty. The password comes from GEOFLOW_ADMIN_PASSWORD and must be rotated
// after first login.
func bootstrapAdmin(ctx context.Context, uow repository.UnitOfWork) error {
	return uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		users, err := store.Users.List(ctx)
		if err != nil {
			return err
		}
		if len(users) > 0 {
			return nil
		}

		password := os.Getenv("GEOFLOW_ADMIN_PASSWORD")
		if password == "" {
			password = "admin"
			log.Println("[bootstrap] GEOFLOW_ADMIN_PASSWORD not set, using default")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		role, err := store.Roles.GetByName(ctx, "admin")
		if err != nil {
			return err
		}
		admin, err := store.Users.Create(ctx, domain.User{
			Name:         "Administrator",
			Username:     "admin",
			PasswordHash: hash,
		}, []int64{role.RoleID})
		if err != nil {
			return err
		}
		log.Printf("[bootstrap] created admin user %q (uid %d)", admin.Username, admin.UID)
		return nil
	})
}
