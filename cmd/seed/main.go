// Command seed loads faculties, courses and students from a YAML file into
// MongoDB.
//
// Usage:
//
//	./seed -file seed.yaml
//
// The command waits for the connection manager to reach the database. It
// exits 1 when the retry budget is exhausted, the file is invalid, or an
// insert fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/database"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/course"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/faculty"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/seed"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/student"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	file := flag.String("file", "seed.yaml", "YAML seed file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Development)
	defer func() { _ = logger.Sync() }()

	data, err := seed.LoadFile(*file)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := database.NewManager(database.Settings{
		URI:            cfg.Database.URI,
		MaxRetries:     cfg.Database.MaxRetries,
		RetryDelay:     cfg.Database.RetryDelay,
		ReconnectDelay: cfg.Database.ReconnectDelay,
	},
		database.NewMongoDialer(cfg.Database.DatabaseName(), cfg.Database.ServerSelectionTimeout),
		resilience.NewTimerScheduler(),
		logger,
	)
	defer func() { _ = manager.Close(context.Background()) }()

	go manager.Connect(ctx)
	if _, err := manager.Wait(ctx); err != nil {
		return fmt.Errorf("wait for database: %w", err)
	}

	seeder := seed.NewSeeder(
		store.NewCollection[faculty.Faculty](manager, faculty.Collection),
		store.NewCollection[course.Course](manager, course.Collection),
		store.NewCollection[student.Student](manager, student.Collection),
		logger,
	)

	res, err := seeder.Seed(ctx, data)
	if err != nil {
		return err
	}

	logger.Info("Seed complete",
		zap.String("file", *file),
		zap.Int("faculties", res.Faculties),
		zap.Int("courses", res.Courses),
		zap.Int("students", res.Students),
		zap.Int("skipped", res.Failed),
	)
	return nil
}
