package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/jpcervantes/tours-api/internal/cache"
	"github.com/jpcervantes/tours-api/internal/config"
	"github.com/jpcervantes/tours-api/internal/db"
	"github.com/jpcervantes/tours-api/internal/handlers"
	"github.com/jpcervantes/tours-api/internal/middleware"
	"github.com/jpcervantes/tours-api/internal/models"
	"github.com/jpcervantes/tours-api/internal/seed"
	"github.com/jpcervantes/tours-api/internal/services/media"
	"github.com/jpcervantes/tours-api/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := gdb.AutoMigrate(&models.User{}, &models.Tour{}, &models.TourMedia{}); err != nil {
		log.Fatal(err)
	}

	if err := seed.Admin(gdb, cfg); err != nil {
		log.Fatal("seed admin:", err)
	}

	rdc := cache.New(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdc.Ping(context.Background()); err != nil {
		log.Fatal("Redis no disponible:", err)
	}

	store := storage.NewS3Storage(cfg.S3)
	mediaSvc := media.NewService(gdb, store, cfg.S3)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	tourH := handlers.NewTourHandler(gdb, mediaSvc, rdc, cfg.MediaOrderFilter)
	mediaH := handlers.NewMediaHandler(mediaSvc, rdc)
	healthH := &handlers.HealthHandler{DB: gdb, Cache: rdc}

	app := fiber.New(fiber.Config{
		// 4 imágenes de hasta 20MB más el resto del form
		BodyLimit: 90 * 1024 * 1024,
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "Content-Length",
	}))

	api := app.Group("/api")

	// public
	api.Get("/health", healthH.Check)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/update-password", authH.UpdatePassword)

	api.Get("/tours", tourH.List)
	api.Get("/tours/latest", tourH.Latest)
	api.Get("/tours/slug/:slug", tourH.GetBySlug)
	api.Get("/tours/:id", tourH.GetByID)

	// protected (JWT); el middleware va por ruta para que las rutas
	// no registradas bajo /api caigan al 404 y no al 401
	jwtMW := middleware.JWTFromHeader(cfg.JWTSecret)
	localsMW := middleware.AttachJWTLocals()
	adminMW := middleware.RequireRoles("admin")

	api.Get("/auth/me", jwtMW, localsMW, authH.Me)

	api.Post("/tours", jwtMW, localsMW, adminMW, tourH.Create)
	api.Put("/tours/:id", jwtMW, localsMW, adminMW, tourH.Update)
	api.Delete("/tours/:id", jwtMW, localsMW, adminMW, tourH.Delete)
	api.Post("/tours/media/:id", jwtMW, localsMW, adminMW, mediaH.Upload)
	api.Delete("/tours/:tourId/media/:mediaId", jwtMW, localsMW, adminMW, mediaH.Delete)

	// todo lo demás es 404
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"msg": "Ruta no encontrada",
		})
	})

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
