package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ad/go-roadmap-progress/internal/db"
	"github.com/ad/go-roadmap-progress/internal/handlers"
	"github.com/ad/go-roadmap-progress/internal/services"
	"github.com/go-telegram/bot"
	_ "github.com/joho/godotenv/autoload"
	_ "modernc.org/sqlite"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "roadmap.db"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	sqlDB, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqlDB.Close()

	if err := db.InitSchema(sqlDB); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	dbQueue := db.NewDBQueue(sqlDB)
	defer dbQueue.Close()

	userRepo := db.NewUserRepository(dbQueue)
	roadmapRepo := db.NewRoadmapRepository(dbQueue)
	stepRepo := db.NewStepRepository(dbQueue)
	topicRepo := db.NewTopicRepository(dbQueue)
	resourceRepo := db.NewResourceRepository(dbQueue)
	progressRepo := db.NewProgressRepository(dbQueue)
	chatRepo := db.NewChatRepository(dbQueue)

	var notifier *services.CompletionNotifier
	if botToken := os.Getenv("BOT_TOKEN"); botToken != "" {
		b, err := bot.New(botToken)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		notifier = services.NewCompletionNotifier(b, userRepo, roadmapRepo)
		log.Printf("Telegram completion notifications enabled")
	}

	sequencer := services.NewStepSequencer(stepRepo)
	aggregator := services.NewCompletionAggregator(stepRepo)
	tracker := services.NewProgressTracker(userRepo, roadmapRepo, stepRepo, resourceRepo, progressRepo, sequencer, aggregator, notifier)

	handler := handlers.NewHandler(userRepo, roadmapRepo, stepRepo, topicRepo, resourceRepo, chatRepo, tracker)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Printf("Server started on port %s, DB: %s", port, dbPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
