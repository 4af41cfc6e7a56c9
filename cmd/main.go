package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gorm.io/gorm"

	"github.com/gerenciacar/gerenciacar-server/cmd/api"
	"github.com/gerenciacar/gerenciacar-server/cmd/models"
	"github.com/gerenciacar/gerenciacar-server/config"
	"github.com/gerenciacar/gerenciacar-server/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrations(cfg, logger)
			return
		case "clear-db":
			runDatabaseClear(cfg, logger)
			return
		default:
			logger.Error("unknown command", slog.String("command", os.Args[1]))
			os.Exit(1)
		}
	}

	startServer(cfg, logger)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func openDatabase(cfg config.Config, logger *slog.Logger) *gorm.DB {
	database, err := db.NewPSQLStorage(cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		logger.Error("database initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("connected to the database")
	return database
}

func closeDatabase(database *gorm.DB, logger *slog.Logger) {
	sqlDB, err := database.DB()
	if err == nil {
		sqlDB.Close()
	}
	logger.Info("database connection closed")
}

func runMigrations(cfg config.Config, logger *slog.Logger) {
	database := openDatabase(cfg, logger)
	defer closeDatabase(database, logger)

	if err := performMigrations(database, logger); err != nil {
		logger.Error("migration failed", slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("migrations completed successfully")
}

func performMigrations(database *gorm.DB, logger *slog.Logger) error {
	migrations := []struct {
		model interface{}
		name  string
	}{
		{&models.User{}, "User"},
		{&models.Client{}, "Client"},
		{&models.Vehicle{}, "Vehicle"},
		{&models.Service{}, "Service"},
		{&models.Appointment{}, "Appointment"},
	}

	for _, m := range migrations {
		logger.Info("migrating table", slog.String("model", m.name))
		if err := database.AutoMigrate(m.model); err != nil {
			return fmt.Errorf("error migrating %s table: %w", m.name, err)
		}
	}
	return nil
}

func startServer(cfg config.Config, logger *slog.Logger) {
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	database := openDatabase(cfg, logger)
	defer closeDatabase(database, logger)

	server := api.NewAPIServer(cfg, database, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.Any("err", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", slog.Any("err", err))
		}
	}
}

func runDatabaseClear(cfg config.Config, logger *slog.Logger) {
	database := openDatabase(cfg, logger)
	defer closeDatabase(database, logger)

	var confirmation string
	fmt.Print("Are you sure you want to clear the database? (yes/no): ")
	fmt.Scanln(&confirmation)
	if confirmation != "yes" {
		logger.Info("database clearing cancelled")
		return
	}

	// Drop order respects foreign keys: children first.
	tables := []interface{}{
		&models.Appointment{},
		&models.Vehicle{},
		&models.Service{},
		&models.Client{},
		&models.User{},
	}
	for _, table := range tables {
		if err := database.Migrator().DropTable(table); err != nil {
			logger.Warn("error dropping table", slog.Any("table", fmt.Sprintf("%T", table)), slog.Any("err", err))
		} else {
			logger.Info("table dropped", slog.String("table", fmt.Sprintf("%T", table)))
		}
	}

	logger.Info("database cleared successfully")
}
