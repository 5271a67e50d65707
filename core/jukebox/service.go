package jukebox

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"EternalJukebox/config"
	"EternalJukebox/core/alert"
	"EternalJukebox/core/downloader"
	"EternalJukebox/core/spotify"
	"EternalJukebox/core/youtube"
	"EternalJukebox/logger"
	"EternalJukebox/model"
	"EternalJukebox/storage"

	"golang.org/x/sync/singleflight"
)

// MetadataProvider is the subset of the Spotify client the resolvers use.
type MetadataProvider interface {
	GetTrack(ctx context.Context, bearer, id string) (*model.SpotifyTrack, error)
	GetAudioAnalysis(ctx context.Context, bearer, id string) (*model.SpotifyAudioAnalysis, error)
	SearchTracks(ctx context.Context, bearer, query string, limit int) ([]model.SpotifyTrack, error)
}

// TokenSource hands out a bearer token for provider calls.
type TokenSource interface {
	ValidToken(ctx context.Context) (string, error)
}

// VideoSearcher turns a free-text query into ranked candidates.
type VideoSearcher interface {
	Search(ctx context.Context, query string) []model.VideoCandidate
}

// Downloader fetches one audio file.
type Downloader interface {
	Download(ctx context.Context, job downloader.Job) error
}

// Options wires a Service. Every field except Alerter is required.
type Options struct {
	Provider     MetadataProvider
	Tokens       TokenSource
	Videos       VideoSearcher
	Ranker       youtube.Ranker
	Downloader   Downloader
	Storage      *storage.Manager
	Alerter      alert.Notifier
	PublicURL    string
	SongTimeout  time.Duration // bound for the track-id audio path
	AudioTimeout time.Duration // bound for the source-url audio path
}

// Service resolves track ids into cached analysis and audio files.
type Service struct {
	provider     MetadataProvider
	tokens       TokenSource
	videos       VideoSearcher
	ranker       youtube.Ranker
	downloader   Downloader
	storage      *storage.Manager
	layout       *storage.Layout
	alerter      alert.Notifier
	publicURL    string
	songTimeout  time.Duration
	audioTimeout time.Duration

	flights singleflight.Group
}

// New 创建解析服务
func New(opts Options) *Service {
	ranker := opts.Ranker
	if ranker == nil {
		ranker = youtube.TopResult{}
	}
	alerter := opts.Alerter
	if alerter == nil {
		alerter = alert.LogNotifier{}
	}
	return &Service{
		provider:     opts.Provider,
		tokens:       opts.Tokens,
		videos:       opts.Videos,
		ranker:       ranker,
		downloader:   opts.Downloader,
		storage:      opts.Storage,
		layout:       opts.Storage.Layout(),
		alerter:      alerter,
		publicURL:    opts.PublicURL,
		songTimeout:  opts.SongTimeout,
		audioTimeout: opts.AudioTimeout,
	}
}

// NewFromConfig builds the full component graph from cfg. The returned func
// releases the alert connections.
func NewFromConfig(cfg *config.Config) (*Service, func() error, error) {
	layout := storage.NewLayout(cfg)
	if err := layout.EnsureDirs(); err != nil {
		return nil, nil, fmt.Errorf("create cache directories: %w", err)
	}

	notifier, closeAlerts := alert.NewFromConfig(cfg)
	manager := storage.NewManager(layout, storage.ThresholdsFromConfig(cfg), notifier)

	client := spotify.NewClient(cfg.SpotifyAPIURL, cfg.SpotifyTokenURL, cfg.HTTPTimeout, cfg.SpotifyRate)
	tokens := spotify.NewTokenManager(cfg.SpotifyBase64, client)
	if !tokens.Configured() {
		logger.Warn("[Jukebox] 未配置 Spotify 凭据，仅能返回缓存结果")
	}

	svc := New(Options{
		Provider:     client,
		Tokens:       tokens,
		Videos:       youtube.NewSearcher(cfg.YoutubeSearchURL, cfg.HTTPTimeout),
		Ranker:       youtube.NewRanker(cfg.VideoRanking),
		Downloader:   downloader.New(cfg.DownloaderShell, cfg.DownloaderScript, cfg.LogDir),
		Storage:      manager,
		Alerter:      notifier,
		PublicURL:    cfg.PublicURL,
		SongTimeout:  cfg.SongDownloadTimeout,
		AudioTimeout: cfg.AudioDownloadTimeout,
	})
	return svc, closeAlerts, nil
}

// Layout exposes the cache layout, e.g. for serving files.
func (s *Service) Layout() *storage.Layout {
	return s.layout
}

// ReclaimStorage runs one eviction pass.
func (s *Service) ReclaimStorage(ctx context.Context) {
	s.storage.Reclaim(ctx)
}

// StorageUsage reports current cache usage.
func (s *Service) StorageUsage() storage.Usage {
	return s.storage.Usage()
}

// WatchStorage reclaims whenever files are added, until ctx is done.
func (s *Service) WatchStorage(ctx context.Context, debounce time.Duration) error {
	return s.storage.Watch(ctx, debounce)
}

// Alert forwards an operator alert to the configured sinks.
func (s *Service) Alert(ctx context.Context, title, body string) {
	s.alerter.Alert(ctx, title, body)
}

func (s *Service) songURL(id string) string {
	return s.publicURL + "/api/song?id=" + url.QueryEscape(id)
}

// flight runs fn once per key across concurrent callers. fn keeps running
// when the caller that started it goes away so its result still lands in
// the cache.
func (s *Service) flight(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.flights.DoChan(key, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			logger.Debug("[Jukebox] 复用进行中的解析", logger.String("key", key))
		}
		return res.Val, res.Err
	}
}

// withRetries runs fn up to maxAttempts times. A provider status error ends
// the loop at once as ErrNotFound; anything else is retried.
func (s *Service) withRetries(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			return nil
		}
		if spotify.IsStatusError(err) {
			return fmt.Errorf("%w: %s: %w", ErrNotFound, op, err)
		}
		lastErr = err
		logger.Warn("[Jukebox] 请求失败，准备重试",
			logger.String("op", op),
			logger.Int("attempt", attempt),
			logger.ErrorField(err))
	}

	s.alerter.Alert(ctx, alert.TitleError,
		fmt.Sprintf("%s failed after %d attempts: %v", op, maxAttempts, lastErr))
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrTransientFailure, op, maxAttempts, lastErr)
}
