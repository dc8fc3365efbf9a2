package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/jpcervantes/tours-api/internal/cache"
)

type HealthHandler struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "up"
	if sqlDB, err := h.DB.DB(); err != nil || sqlDB.PingContext(c.Context()) != nil {
		dbStatus = "down"
	}

	redisStatus := "up"
	if err := h.Cache.Ping(c.Context()); err != nil {
		redisStatus = "down"
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"db":     dbStatus,
		"redis":  redisStatus,
	})
}
