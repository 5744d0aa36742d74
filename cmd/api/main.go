package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"lifesavers-united/internal/config"
	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/handler"
	"lifesavers-united/internal/middleware"
	"lifesavers-united/internal/repository"
	"lifesavers-united/internal/service"
	"lifesavers-united/internal/service/auth"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redis, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v (locks and stats cache disabled)", err)
		redis = nil
	}
	if redis != nil {
		defer redis.Close()
	}

	minioClient, err := config.NewMinIOClient(cfg)
	if err != nil {
		log.Printf("Warning: Failed to connect to MinIO: %v (request archiving disabled)", err)
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, redis, minioClient, cfg)
	handlers := handler.NewHandlers(services)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	setupRoutes(app, handlers, services.Auth)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Printf("Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRoutes(app *fiber.App, h *handler.Handlers, authService auth.Service) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	public := v1.Group("/public")
	public.Post("/requests", h.Public.SubmitRequest)
	public.Get("/requests", h.Public.ListRequests)
	public.Get("/stats", h.Public.Stats)
	public.Post("/donors", h.Donor.Register)

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", h.Auth.Register)
	authRoutes.Post("/login", h.Auth.Login)
	authRoutes.Post("/refresh", h.Auth.RefreshToken)

	protected := v1.Group("", middleware.AuthRequired(authService))

	protected.Get("/auth/me", h.Auth.Me)
	protected.Post("/auth/assign-role", middleware.RequireRole(domain.RoleSuperuser), h.Auth.AssignRole)

	requests := protected.Group("/requests")
	requests.Post("/", h.Request.Submit)
	requests.Get("/", h.Request.List)
	requests.Get("/:requestId", h.Request.Get)
	requests.Get("/:requestId/history", h.Request.History)
	requests.Post("/:requestId/verify", middleware.RequireRole(domain.RoleCoordinator), h.Request.Verify)
	requests.Post("/:requestId/close", middleware.RequireRole(domain.RoleCoordinator), h.Request.Close)
	requests.Post("/:requestId/donations", h.Donation.Record)
	requests.Get("/:requestId/donations", h.Donation.List)

	donors := protected.Group("/donors")
	donors.Get("/compatible", h.Donor.FindCompatible)
	donors.Get("/:donorId", h.Donor.Get)
}
