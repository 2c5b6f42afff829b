package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	AuthModeNone = "none"
	AuthModeJWT  = "jwt"
)

// Config holds process-wide settings read from the environment.
type Config struct {
	Env      string // local | staging | prod
	Port     int
	LogLevel string

	// Database
	DatabaseURL       string // runtime connection (pooled > url > direct)
	DatabaseURLRaw    string
	DatabaseURLPooled string
	DatabaseURLDirect string // migrations / DDL

	RunMigrationsOnStartup bool

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Rate limiting (0 disables)
	RateLimitRPS   int
	RateLimitBurst int

	// Auth
	AuthMode       string // none | jwt
	AuthEnabled    bool
	AuthRequired   bool
	JWTSecret      string
	JWTIssuer      string
	JWTTTLMinutes  int
	BcryptCost     int
	DevAuthEnabled bool

	// Blob storage for report files
	Blob BlobConfig

	// Reports
	ReportsMaxRangeDays int

	// Nutrition aggregation
	NutritionPageSize     int
	NutritionMaxRangeDays int
}

// Load reads the configuration from environment variables.
func Load() *Config {
	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "debug"
	}

	// Priority: DATABASE_URL_POOLED > DATABASE_URL > DATABASE_URL_DIRECT
	dbPooled := strings.TrimSpace(os.Getenv("DATABASE_URL_POOLED"))
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	dbDirect := strings.TrimSpace(os.Getenv("DATABASE_URL_DIRECT"))
	runtimeDB := firstNonEmpty(dbPooled, dbURL, dbDirect)

	authMode := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_MODE")))
	if authMode == "" {
		authMode = AuthModeNone
	}
	if authMode != AuthModeNone && authMode != AuthModeJWT {
		log.Printf("WARNING: unknown AUTH_MODE=%q, fallback to %s", authMode, AuthModeNone)
		authMode = AuthModeNone
	}
	authEnabled := authMode != AuthModeNone

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "change_me"
	}
	if jwtSecret == "change_me" && env != "local" {
		log.Println("WARNING: JWT_SECRET is set to 'change_me' in non-local environment!")
	}
	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "coach-hub"
	}

	// bcrypt accepts 4..31; anything else falls back to the library default.
	bcryptCost := envInt("BCRYPT_COST", 10)
	if bcryptCost < 4 || bcryptCost > 31 {
		bcryptCost = 10
	}

	s3PresignTTL := envInt("S3_PRESIGN_TTL_SECONDS", 900)
	if s3PresignTTL <= 0 {
		s3PresignTTL = 900
	}

	pageSize := envInt("NUTRITION_PAGE_SIZE", 100)
	if pageSize <= 0 {
		pageSize = 100
	}
	maxRange := envInt("NUTRITION_MAX_RANGE_DAYS", 366)
	if maxRange <= 0 {
		maxRange = 366
	}

	return &Config{
		Env:      env,
		Port:     envInt("PORT", 8080),
		LogLevel: logLevel,

		DatabaseURL:       runtimeDB,
		DatabaseURLRaw:    dbURL,
		DatabaseURLPooled: dbPooled,
		DatabaseURLDirect: dbDirect,

		RunMigrationsOnStartup: parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP"),

		CORSAllowedOrigins:   parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), env),
		CORSAllowCredentials: parseBoolEnv("CORS_ALLOW_CREDENTIALS"),

		RateLimitRPS:   envInt("RATE_LIMIT_RPS", 0),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 0),

		AuthMode:       authMode,
		AuthEnabled:    authEnabled,
		AuthRequired:   authEnabled && parseBoolEnv("AUTH_REQUIRED"),
		JWTSecret:      jwtSecret,
		JWTIssuer:      jwtIssuer,
		JWTTTLMinutes:  envInt("JWT_TTL_MINUTES", 10080),
		BcryptCost:     bcryptCost,
		DevAuthEnabled: parseBoolEnv("DEV_AUTH_ENABLED"),

		Blob: BlobConfig{
			Mode: parseBlobMode("BLOB_MODE", BlobModeLocal),
			S3: S3Config{
				Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
				Region:            strings.TrimSpace(os.Getenv("S3_REGION")),
				Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
				AccessKeyID:       strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
				SecretAccessKey:   strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
				PublicBaseURL:     strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
				PresignTTLSeconds: s3PresignTTL,
				PreferPublicURL:   parseBoolEnv("S3_PREFER_PUBLIC_URL"),
			},
		},

		ReportsMaxRangeDays: envInt("REPORTS_MAX_RANGE_DAYS", 90),

		NutritionPageSize:     pageSize,
		NutritionMaxRangeDays: maxRange,
	}
}

// parseCORSOrigins splits CORS_ALLOWED_ORIGINS. Local env defaults to
// localhost dev origins, everything else denies by default.
func parseCORSOrigins(raw, env string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == "local" {
			return []string{"http://localhost:3000", "http://localhost:5173"}
		}
		return nil
	}

	var origins []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func parseBlobMode(key string, defaultVal string) string {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch mode {
	case "":
		return defaultVal
	case BlobModeLocal, BlobModeS3, BlobModeAuto:
		return mode
	default:
		log.Printf("WARNING: unknown %s=%q, fallback to %s", key, mode, defaultVal)
		return defaultVal
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, defaultVal int) int {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using %d", key, s, defaultVal)
		return defaultVal
	}
	return v
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
