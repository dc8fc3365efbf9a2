package seed

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/jpcervantes/tours-api/internal/config"
	"github.com/jpcervantes/tours-api/internal/models"
	"github.com/jpcervantes/tours-api/internal/utils"
)

// Admin crea el usuario admin inicial si no existe. Idempotente: con
// ADMIN_EMAIL vacío o el usuario ya creado no hace nada.
func Admin(db *gorm.DB, cfg config.Config) error {
	if cfg.AdminEmail == "" {
		log.Println("ADMIN_EMAIL no definido, seed omitido")
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		return nil // ya existe
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: hashed,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("Usuario admin creado correctamente")
	return nil
}
