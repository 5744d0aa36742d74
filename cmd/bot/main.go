package main

import (
	"log"

	"github.com/joho/godotenv"

	"lifesavers-united/internal/bot"
	"lifesavers-united/internal/config"
	"lifesavers-united/internal/repository"
	"lifesavers-united/internal/service/archive"
	"lifesavers-united/internal/service/email"
	"lifesavers-united/internal/service/reconcile"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redis, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v (in-flight locks disabled)", err)
		redis = nil
	}
	if redis != nil {
		defer redis.Close()
	}

	repos := repository.NewRepositories(db)

	reconcileService := reconcile.NewService(repos.Request, repos.History, redis)
	reconcileService.SetNotifier(email.NewService(cfg))

	if minioClient, err := config.NewMinIOClient(cfg); err != nil {
		log.Printf("Warning: Failed to connect to MinIO: %v (request archiving disabled)", err)
	} else {
		reconcileService.SetArchiver(archive.NewService(minioClient, cfg.MinIOBucket))
	}

	telegramBot, err := bot.New(cfg.TelegramToken, reconcileService, repos.TelegramUser)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	log.Println("Bot is running. Press Ctrl+C to stop.")
	if err := telegramBot.Run(); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
}
