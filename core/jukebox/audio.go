package jukebox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"EternalJukebox/core/alert"
	"EternalJukebox/core/downloader"
	"EternalJukebox/logger"
	"EternalJukebox/model"
	"EternalJukebox/storage"
)

const videoURLPrefix = "https://youtu.be/"

// ResolveAudioBySource returns a cached audio file for source, downloading
// it if needed. When that fails and fallbackTrackID is set, the track-id
// path is tried instead.
func (s *Service) ResolveAudioBySource(ctx context.Context, source, fallbackTrackID string) (string, error) {
	if source == "" {
		return s.fallback(ctx, source, fallbackTrackID, errors.New("empty source"))
	}

	key := storage.AudioKey(source)
	path := s.layout.AudioPath(key)
	if storage.Exists(path) {
		return path, nil
	}

	_, err := s.flight(ctx, string(storage.NamespaceResolvedAudio)+":"+key, func(ctx context.Context) (interface{}, error) {
		if storage.Exists(path) {
			return nil, nil
		}
		s.storage.Reclaim(ctx)
		return nil, s.downloader.Download(ctx, downloader.Job{
			Source:      source,
			Destination: path,
			Format:      s.layout.Format(),
			LogName:     key,
			Timeout:     s.audioTimeout,
		})
	})
	if err == nil {
		return path, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return s.fallback(ctx, source, fallbackTrackID, err)
}

func (s *Service) fallback(ctx context.Context, source, fallbackTrackID string, cause error) (string, error) {
	if fallbackTrackID == "" {
		return "", fmt.Errorf("%w: audio for %q: %w", ErrNotFound, source, cause)
	}
	logger.Warn("[Jukebox] 音源获取失败，改用曲目 ID",
		logger.String("source", source),
		logger.String("fallback", fallbackTrackID),
		logger.ErrorField(cause))
	return s.ResolveAudioByTrackID(ctx, fallbackTrackID)
}

// ResolveAudioByTrackID returns a cached audio file for trackID. On a miss
// it looks the track up, searches for a matching video and downloads it.
func (s *Service) ResolveAudioByTrackID(ctx context.Context, trackID string) (string, error) {
	id := storage.SanitizeID(trackID)
	if id == "" {
		return "", fmt.Errorf("%w: empty track id %q", ErrNotFound, trackID)
	}
	path := s.layout.SongPath(id)
	if storage.Exists(path) {
		return path, nil
	}

	_, err := s.flight(ctx, string(storage.NamespaceResolvedSong)+":"+id, func(ctx context.Context) (interface{}, error) {
		if storage.Exists(path) {
			return nil, nil
		}
		return nil, s.downloadSong(ctx, id, path)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func (s *Service) downloadSong(ctx context.Context, id, path string) error {
	s.storage.Reclaim(ctx)

	bearer, err := s.tokens.ValidToken(ctx)
	if err != nil {
		// 音频接口只区分找到与未找到
		return fmt.Errorf("%w: track %s: %v", ErrNotFound, id, err)
	}

	var track *model.SpotifyTrack
	err = s.withRetries(ctx, "track "+id, func() error {
		t, err := s.provider.GetTrack(ctx, bearer, id)
		if err != nil {
			return err
		}
		if len(t.Artists) == 0 {
			return errors.New("track has no artists")
		}
		track = t
		return nil
	})
	if err != nil {
		return err
	}

	query := fmt.Sprintf("%s - %s", track.Artists[0].Name, track.Name)
	video, ok := s.ranker.Select(s.videos.Search(ctx, query), time.Duration(track.DurationMs)*time.Millisecond)
	if !ok {
		s.alerter.Alert(ctx, alert.TitleError, fmt.Sprintf("No search results for %s (%s)", query, id))
		return fmt.Errorf("%w: no video for %q", ErrNotFound, query)
	}

	logger.Info("[Jukebox] 选定视频",
		logger.String("trackId", id),
		logger.String("query", query),
		logger.String("videoId", video.ID),
		logger.Duration("duration", video.Duration))

	err = s.downloader.Download(ctx, downloader.Job{
		Source:      videoURLPrefix + video.ID,
		Destination: path,
		Format:      s.layout.Format(),
		LogName:     id,
		Timeout:     s.songTimeout,
	})
	if err != nil {
		return fmt.Errorf("%w: download %s: %w", ErrNotFound, video.ID, err)
	}
	return nil
}
