package jukebox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"EternalJukebox/logger"
	"EternalJukebox/model"
	"EternalJukebox/storage"
)

// ResolveAnalysis returns the analysis for trackID, from cache when present
// and from the provider otherwise. Fresh results are written to the cache.
func (s *Service) ResolveAnalysis(ctx context.Context, trackID string) (*model.EternalAudio, error) {
	id := storage.SanitizeID(trackID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty track id %q", ErrNotFound, trackID)
	}
	path := s.layout.AnalysisPath(id)

	if audio, ok := readAnalysis(path); ok {
		return audio, nil
	}

	v, err := s.flight(ctx, string(storage.NamespaceAnalysis)+":"+id, func(ctx context.Context) (interface{}, error) {
		if audio, ok := readAnalysis(path); ok {
			return audio, nil
		}
		return s.fetchAnalysis(ctx, id, path)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.EternalAudio), nil
}

func (s *Service) fetchAnalysis(ctx context.Context, id, path string) (*model.EternalAudio, error) {
	s.storage.Reclaim(ctx)

	bearer, err := s.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}

	var audio *model.EternalAudio
	err = s.withRetries(ctx, "analysis "+id, func() error {
		track, err := s.provider.GetTrack(ctx, bearer, id)
		if err != nil {
			return err
		}
		analysis, err := s.provider.GetAudioAnalysis(ctx, bearer, id)
		if err != nil {
			return err
		}
		audio, err = s.normalize(id, track, analysis)
		return err
	})
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(audio)
	if err == nil {
		err = storage.WriteFileAtomic(path, data)
	}
	if err != nil {
		// 写缓存失败不影响本次返回
		logger.Warn("[Jukebox] 写入分析缓存失败",
			logger.String("trackId", id),
			logger.ErrorField(err))
	} else {
		logger.Info("[Jukebox] 分析结果已缓存",
			logger.String("trackId", id),
			logger.String("name", audio.Info.Name),
			logger.String("artist", audio.Info.Artist))
	}
	return audio, nil
}

func (s *Service) normalize(id string, track *model.SpotifyTrack, analysis *model.SpotifyAudioAnalysis) (*model.EternalAudio, error) {
	if len(track.Artists) == 0 {
		return nil, errors.New("track has no artists")
	}
	// 曲目被重新关联时以返回的 ID 为准
	infoID := track.ID
	if infoID == "" {
		infoID = id
	}
	return &model.EternalAudio{
		Info: model.EternalInfo{
			ID:     infoID,
			Name:   track.Name,
			Title:  track.Name,
			Artist: track.Artists[0].Name,
			URL:    s.songURL(infoID),
		},
		Analysis: model.EternalAnalysis{
			Sections: orEmpty(analysis.Sections),
			Bars:     orEmpty(analysis.Bars),
			Beats:    orEmpty(analysis.Beats),
			Tatums:   orEmpty(analysis.Tatums),
			Segments: orEmpty(analysis.Segments),
		},
		AudioSummary: analysis.Track,
	}, nil
}

func orEmpty(s []model.TimedSegment) []model.TimedSegment {
	if s == nil {
		return []model.TimedSegment{}
	}
	return s
}

// readAnalysis loads a cached analysis. A corrupt file counts as a miss and
// is replaced by the next successful resolution.
func readAnalysis(path string) (*model.EternalAudio, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("[Jukebox] 读取分析缓存失败", logger.String("path", path), logger.ErrorField(err))
		}
		return nil, false
	}
	var audio model.EternalAudio
	if err := json.Unmarshal(data, &audio); err != nil {
		logger.Warn("[Jukebox] 分析缓存已损坏", logger.String("path", path), logger.ErrorField(err))
		return nil, false
	}
	return &audio, true
}
