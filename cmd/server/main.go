package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/condo-market/internal/adapter/handler"
	"github.com/rl1809/condo-market/internal/adapter/messenger"
	"github.com/rl1809/condo-market/internal/adapter/storage"
	"github.com/rl1809/condo-market/internal/core/service"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	httpAddr := getEnv("HTTP_ADDR", ":8080")
	mysqlDSN := getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/condomarket?parseTime=true")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	migrationsPath := getEnv("MIGRATIONS_PATH", "./internal/adapter/storage/migrations")
	countryCode := getEnv("WHATSAPP_COUNTRY_CODE", "55")
	requestTimeout := 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	if err := runMigrations(db, migrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Println("migrations applied")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Initialize adapters
	store := storage.NewMySQLStore(db)
	cache := storage.NewRedisAdapter(rdb)
	whatsapp := messenger.NewWhatsApp(countryCode)

	// Initialize services
	sessions := service.NewSessionManager()
	catalog := service.NewCatalogService(store, cache, requestTimeout)
	checkout := service.NewCheckoutService(store, cache, whatsapp, sessions, requestTimeout)
	fulfillment := service.NewFulfillmentService(store, requestTimeout)
	loyalty := service.NewLoyaltyService(store, requestTimeout)

	httpHandler := handler.NewHTTPHandler(sessions, catalog, checkout, fulfillment, loyalty)

	httpServer := &http.Server{
		Addr:    httpAddr,
		Handler: httpHandler.Routes(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	rdb.Close()
	db.Close()
	log.Println("connections closed")
}

func runMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}
