package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Dataset     DatasetConfig
	Recognition RecognitionConfig
	Live        LiveConfig
	Stats       StatsConfig
	SMTP        SMTPConfig
	Cleanup     CleanupConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DatasetConfig locates enrollment images and the trained classifier artifact.
type DatasetConfig struct {
	Dir          string
	ArtifactPath string
}

// RecognitionConfig tunes the detector and classifier used for static uploads.
type RecognitionConfig struct {
	CascadeFile         string
	ConfidenceThreshold float64
	Neighbors           int
}

// LiveConfig tunes the camera sampler.
type LiveConfig struct {
	Enabled           bool
	DeviceID          int
	FrameWidth        int
	FrameHeight       int
	DetectionInterval int
	DNNModelFile      string
	DNNConfigFile     string
	FontFile          string
	JPEGQuality       int
}

// StatsConfig governs caching of the attendance dashboard numbers.
type StatsConfig struct {
	CacheTTL time.Duration
}

// SMTPConfig carries credentials for attendance notification mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// CleanupConfig schedules the duplicate-attendance sweep.
type CleanupConfig struct {
	Enabled bool
	At      string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dataset = DatasetConfig{
		Dir:          v.GetString("DATASET_DIR"),
		ArtifactPath: v.GetString("MODEL_PATH"),
	}

	cfg.Recognition = RecognitionConfig{
		CascadeFile:         v.GetString("FACE_CASCADE_FILE"),
		ConfidenceThreshold: v.GetFloat64("RECOGNITION_CONFIDENCE_THRESHOLD"),
		Neighbors:           v.GetInt("RECOGNITION_NEIGHBORS"),
	}

	cfg.Live = LiveConfig{
		Enabled:           v.GetBool("ENABLE_LIVE_STREAM"),
		DeviceID:          v.GetInt("CAMERA_DEVICE_ID"),
		FrameWidth:        v.GetInt("CAMERA_FRAME_WIDTH"),
		FrameHeight:       v.GetInt("CAMERA_FRAME_HEIGHT"),
		DetectionInterval: v.GetInt("LIVE_DETECTION_INTERVAL"),
		DNNModelFile:      v.GetString("FACE_DNN_MODEL_FILE"),
		DNNConfigFile:     v.GetString("FACE_DNN_CONFIG_FILE"),
		FontFile:          v.GetString("OVERLAY_FONT_FILE"),
		JPEGQuality:       v.GetInt("LIVE_JPEG_QUALITY"),
	}

	cfg.Stats = StatsConfig{
		CacheTTL: parseDuration(v.GetString("STATS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.SMTP = SMTPConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
	}

	cfg.Cleanup = CleanupConfig{
		Enabled: v.GetBool("ENABLE_CLEANUP_JOB"),
		At:      v.GetString("CLEANUP_AT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "facemark")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DATASET_DIR", "./dataset")
	v.SetDefault("MODEL_PATH", "./model.json")

	v.SetDefault("FACE_CASCADE_FILE", "./assets/haarcascade_frontalface_default.xml")
	v.SetDefault("RECOGNITION_CONFIDENCE_THRESHOLD", 0.5)
	v.SetDefault("RECOGNITION_NEIGHBORS", 5)

	v.SetDefault("ENABLE_LIVE_STREAM", false)
	v.SetDefault("CAMERA_DEVICE_ID", 0)
	v.SetDefault("CAMERA_FRAME_WIDTH", 640)
	v.SetDefault("CAMERA_FRAME_HEIGHT", 480)
	v.SetDefault("LIVE_DETECTION_INTERVAL", 30)
	v.SetDefault("FACE_DNN_MODEL_FILE", "./assets/res10_300x300_ssd_iter_140000.caffemodel")
	v.SetDefault("FACE_DNN_CONFIG_FILE", "./assets/deploy.prototxt")
	v.SetDefault("OVERLAY_FONT_FILE", "")
	v.SetDefault("LIVE_JPEG_QUALITY", 80)

	v.SetDefault("STATS_CACHE_TTL", "5m")

	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")

	v.SetDefault("ENABLE_CLEANUP_JOB", false)
	v.SetDefault("CLEANUP_AT", "02:30")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
