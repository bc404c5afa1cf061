package config

import (
	"os"
	"strconv"
)

type Config struct {
	DB     DBConfig
	JWT    JWTConfig
	Server ServerConfig
	Geo    GeoConfig
	Order  OrderConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port string
}

// GeoConfig holds the fan-out radii in meters. Nearby users are matched by
// postal code first, then by distance from the actor's coordinate.
type GeoConfig struct {
	NewGroupRadiusMeters float64
	LocationRadiusMeters float64
}

// OrderConfig controls the per-member order-placement saga.
type OrderConfig struct {
	MemberRetryAttempts int
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "greencart"),
			Password: getEnv("DB_PASSWORD", "greencart_secret"),
			Name:     getEnv("DB_NAME", "greencart"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Geo: GeoConfig{
			NewGroupRadiusMeters: getEnvAsFloat("GEO_NEW_GROUP_RADIUS_METERS", 200),
			LocationRadiusMeters: getEnvAsFloat("GEO_LOCATION_RADIUS_METERS", 100),
		},
		Order: OrderConfig{
			MemberRetryAttempts: getEnvAsInt("ORDER_MEMBER_RETRY_ATTEMPTS", 3),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
