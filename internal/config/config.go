package config

import (
	"os"
	"strconv"
)

// S3Config agrupa todo lo necesario para subir y resolver objetos.
// CDNHost es opcional: si está vacío se usa la URL directa del bucket.
type S3Config struct {
	Region      string
	Bucket      string
	AccessKey   string
	SecretKey   string
	Environment string
	CDNHost     string
}

type Config struct {
	AppPort       string
	DBDSN         string
	JWTSecret     string
	JWTExpiresMin int

	RedisAddr     string
	RedisPassword string

	AdminName     string
	AdminEmail    string
	AdminPassword string

	// Filtro defensivo de order fuera de [0,3] en el detalle por slug.
	MediaOrderFilter bool

	S3 S3Config
}

func Load() Config {
	expires, _ := strconv.Atoi(get("JWT_EXPIRES_MIN", "10080"))
	orderFilter, _ := strconv.ParseBool(get("MEDIA_ORDER_FILTER", "true"))

	return Config{
		AppPort:       get("APP_PORT", "8080"),
		DBDSN:         must("DB_DSN"),
		JWTSecret:     must("JWT_SECRET"),
		JWTExpiresMin: expires,

		RedisAddr:     get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: get("REDIS_PASSWORD", ""),

		AdminName:     get("ADMIN_NAME", "Admin"),
		AdminEmail:    get("ADMIN_EMAIL", ""),
		AdminPassword: get("ADMIN_PASSWORD", ""),

		MediaOrderFilter: orderFilter,

		S3: S3Config{
			Region:      get("AWS_REGION", ""),
			Bucket:      get("AWS_BUCKET_NAME", ""),
			AccessKey:   get("AWS_ACCESS_KEY_ID", ""),
			SecretKey:   get("AWS_SECRET_ACCESS_KEY", ""),
			Environment: get("AWS_S3_ENVIROMENT", "local"),
			CDNHost:     get("AWS_CDN_URL", ""),
		},
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
