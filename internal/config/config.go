package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

var Version = "dev"

// Config carries everything the service needs at construction time. It is
// loaded once in main and passed down; nothing reads the environment after
// Load returns.
type Config struct {
	Port    string `envconfig:"PORT" default:"3000"`
	EnvMode string `envconfig:"NODE_ENV" default:"development"`

	// SecureMode enables hardening headers and per-IP rate limiting on
	// the /api routes.
	SecureMode bool `envconfig:"SECURE_MODE" default:"false"`

	// APIKey, when set, must match the Authorization header on
	// /api/upload requests.
	APIKey string `envconfig:"API_KEY"`

	UploadDir string `envconfig:"UPLOAD_DIR" default:"/var/tmp/convertz/uploads"`
	OutputDir string `envconfig:"OUTPUT_DIR" default:"/var/tmp/convertz/converted"`

	FileRetention  time.Duration `envconfig:"FILE_RETENTION" default:"1h"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"2147483648"`

	// MaxConcurrentJobs bounds simultaneous ffmpeg spawns per request.
	// 0 keeps the historical unbounded fan-out.
	MaxConcurrentJobs int `envconfig:"MAX_CONCURRENT_JOBS" default:"0"`

	FFmpegPath string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`

	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"60"`

	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL"`
	DiscordPingUserID string `envconfig:"DISCORD_PING_USER_ID"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Conversion parameter policy. Requests outside these bounds are rejected
// before any file is staged.
const (
	ResolutionMin  = 50
	ResolutionMax  = 100
	ResolutionStep = 5

	FpsMin = 15
	FpsMax = 60

	BitrateMin  = 1000
	BitrateMax  = 10000
	BitrateStep = 100
)

var AllowedFormats = []string{"mp4", "webm", "mkv", "mov", "avi"}

var ContainerMIMEs = map[string]string{
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mkv":  "video/x-matroska",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
}

// Upload extensions accepted as conversion sources.
var AllowedUploadExts = map[string]bool{
	".mp4": true, ".webm": true, ".mkv": true, ".mov": true, ".avi": true,
	".flv": true, ".wmv": true, ".ts": true, ".m4v": true, ".3gp": true,
	".mpg": true, ".mpeg": true,
}

const ZipDownloadName = "converted_videos.zip"

func Contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
