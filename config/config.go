package config

import (
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// Strategies accepted by VIDEO_RANKING.
	RankingTop      = "top"
	RankingDuration = "duration"
)

// Config stores the application configuration. It is built once at startup
// and handed to every component constructor.
type Config struct {
	Port            string `env:"PORT" envDefault:"11037"`
	PublicURL       string `env:"PUBLIC_URL" envDefault:"http://localhost:11037"`
	LogMissingPaths bool   `env:"LOG_MISSING_PATHS" envDefault:"false"` // 未知路径告警

	// Spotify 凭据：SpotifyBase64 为空时由 client/secret 推导
	SpotifyClient   string  `env:"SPOTIFY_CLIENT"`
	SpotifySecret   string  `env:"SPOTIFY_SECRET"`
	SpotifyBase64   string  `env:"SPOTIFY_BASE64"`
	SpotifyAPIURL   string  `env:"SPOTIFY_API_URL" envDefault:"https://api.spotify.com/v1"`
	SpotifyTokenURL string  `env:"SPOTIFY_TOKEN_URL" envDefault:"https://accounts.spotify.com/api/token"`
	SpotifyRate     float64 `env:"SPOTIFY_RATE_LIMIT" envDefault:"10"` // requests per second

	YoutubeSearchURL string `env:"YOUTUBE_SEARCH_URL" envDefault:"https://www.youtube.com/results"`
	VideoRanking     string `env:"VIDEO_RANKING" envDefault:"top"`

	AudioFormat string `env:"AUDIO_FORMAT" envDefault:"m4a"`
	EternalDir  string `env:"ETERNAL_DIR" envDefault:"eternal"`
	SongsDir    string `env:"SONGS_DIR" envDefault:"songs"`
	AudioDir    string `env:"AUDIO_DIR" envDefault:"audio"`
	LogDir      string `env:"LOG_DIR" envDefault:"logs"`

	// 存储阈值（字节）：buffer <= size <= emergency
	StorageSize      int64 `env:"STORAGE_SIZE" envDefault:"10737418240"`
	StorageBuffer    int64 `env:"STORAGE_BUFFER" envDefault:"8589934592"`
	StorageEmergency int64 `env:"STORAGE_EMERGENCY" envDefault:"16106127360"`
	StorageWatch     bool  `env:"STORAGE_WATCH" envDefault:"false"`

	DownloaderShell      string        `env:"DOWNLOADER_SHELL" envDefault:"bash"`
	DownloaderScript     string        `env:"DOWNLOADER_SCRIPT" envDefault:"yt.sh"`
	SongDownloadTimeout  time.Duration `env:"SONG_DOWNLOAD_TIMEOUT" envDefault:"50s"`
	AudioDownloadTimeout time.Duration `env:"AUDIO_DOWNLOAD_TIMEOUT" envDefault:"10m"`
	HTTPTimeout          time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	// Redis配置
	RedisHost         string `env:"REDIS_HOST" envDefault:"127.0.0.1"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisDB           int    `env:"REDIS_DB" envDefault:"0"`
	AlertRedisChannel string `env:"ALERT_REDIS_CHANNEL"`

	FirebaseApp    string `env:"FIREBASE_APP"`
	FirebaseDevice string `env:"FIREBASE_DEVICE"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE" envDefault:"logs/jukebox.log"`
}

// Load reads a .env file if present (existing variables win) and parses the
// environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	if c.SpotifyBase64 == "" && c.SpotifyClient != "" && c.SpotifySecret != "" {
		c.SpotifyBase64 = base64.StdEncoding.EncodeToString([]byte(c.SpotifyClient + ":" + c.SpotifySecret))
	}
	// 凭据只保留编码后的形式
	c.SpotifyClient = ""
	c.SpotifySecret = ""

	c.AudioFormat = strings.TrimPrefix(strings.ToLower(c.AudioFormat), ".")
	c.VideoRanking = strings.ToLower(c.VideoRanking)
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
}

// Validate rejects values the components cannot work with. The ordering of
// the storage thresholds is not checked.
func (c *Config) Validate() error {
	if c.AudioFormat == "" || strings.ContainsAny(c.AudioFormat, `/\`) {
		return fmt.Errorf("invalid AUDIO_FORMAT %q", c.AudioFormat)
	}
	switch c.VideoRanking {
	case RankingTop, RankingDuration:
	default:
		return fmt.Errorf("invalid VIDEO_RANKING %q (want %q or %q)", c.VideoRanking, RankingTop, RankingDuration)
	}
	if c.SpotifyRate <= 0 {
		return fmt.Errorf("SPOTIFY_RATE_LIMIT must be positive, got %v", c.SpotifyRate)
	}
	return nil
}

// SpotifyConfigured reports whether fresh provider lookups are possible.
// Without it the service runs in cache-only mode.
func (c *Config) SpotifyConfigured() bool {
	return c.SpotifyBase64 != ""
}

// RedisAddr returns host:port for the redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
