package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect abre la conexión a Postgres. TranslateError convierte las
// violaciones de unique en gorm.ErrDuplicatedKey, que el handler de
// tours usa para reintentar slugs.
func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
}
