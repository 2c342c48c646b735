package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	BlobDriver   string // fs|minio
	BlobBasePath string // fs root, or key prefix for minio

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	AuthHMACSecret string
	AdminUser      string
	AdminPassHash  string // bcrypt; empty disables login

	CORSOrigins []string

	LogLevel string // debug|info|warn|error
	LogFile  string // empty disables the rotating file

	// export defaults
	ModuleIDStart   int64
	CategoryDefault string
	OriginalWWWRoot string

	ExportRatePerMin int
}

// Load reads an optional .env file (missing files are ignored) and then the
// environment. Variables already set win over the file.
func Load(files ...string) Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:             mode,
		HTTPAddr:         envOr("HTTP_ADDR", ":8080"),
		DBDriver:         envOr("DB_DRIVER", "sqlite"),
		DBDSN:            envOr("DB_DSN", ""),
		BlobDriver:       envOr("BLOB_DRIVER", "fs"),
		BlobBasePath:     envOr("BLOB_BASE_PATH", "./data"),
		MinioEndpoint:    envOr("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:   os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:   os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:      envOr("MINIO_BUCKET", "examlab-exports"),
		MinioUseSSL:      envBool("MINIO_USE_SSL", mode == ModeOnline),
		AuthHMACSecret:   envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		AdminUser:        envOr("ADMIN_USER", "admin"),
		AdminPassHash:    os.Getenv("ADMIN_PASS_HASH"),
		CORSOrigins:      csvOr("CORS_ORIGINS", "http://localhost:3000"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		LogFile:          envOr("LOG_FILE", "logs/examlab.log"),
		ModuleIDStart:    int64(envInt("MODULEID_START", 5000)),
		CategoryDefault:  envOr("CATEGORY_DEFAULT", "Default category"),
		OriginalWWWRoot:  envOr("ORIGINAL_WWWROOT", "https://example.invalid"),
		ExportRatePerMin: envInt("EXPORT_RATE_PER_MIN", 30),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
