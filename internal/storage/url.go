package storage

import (
	"fmt"
	"strings"

	"github.com/jpcervantes/tours-api/internal/config"
)

// ObjectKey arma la clave relativa bajo la que vive un objeto:
// <entorno>/<carpeta>/<identificador>. El llamador garantiza que el
// identificador sea único; aquí no se chequea colisión.
func ObjectKey(environment, folder, id string) string {
	if environment == "" {
		environment = "local"
	}
	return fmt.Sprintf("%s/%s/%s", environment, folder, id)
}

// PublicURL resuelve una clave relativa a una URL navegable. Clave
// vacía devuelve nil sin error. Si hay CDN configurado gana sobre la
// URL directa del bucket. Determinística: misma clave y misma config,
// misma URL.
func PublicURL(cfg config.S3Config, key string) *string {
	if key == "" {
		return nil
	}

	// exactamente un separador entre base y clave
	normalized := "/" + strings.TrimLeft(key, "/")

	var url string
	if cfg.CDNHost != "" {
		url = "https://" + cfg.CDNHost + normalized
	} else {
		url = fmt.Sprintf("https://%s.s3.%s.amazonaws.com%s", cfg.Bucket, cfg.Region, normalized)
	}
	return &url
}
