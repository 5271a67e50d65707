package jukebox

import (
	"context"
	"fmt"
	"strings"

	"EternalJukebox/model"
)

const (
	DefaultSearchLimit = 30
	maxSearchLimit     = 50
)

// Search looks tracks up by free text. Tracks without artists are skipped.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]model.EternalInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrNotFound)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	bearer, err := s.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}

	var tracks []model.SpotifyTrack
	err = s.withRetries(ctx, "search "+query, func() error {
		var err error
		tracks, err = s.provider.SearchTracks(ctx, bearer, query, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	infos := make([]model.EternalInfo, 0, len(tracks))
	for _, t := range tracks {
		if len(t.Artists) == 0 {
			continue
		}
		infos = append(infos, model.EternalInfo{
			ID:     t.ID,
			Name:   t.Name,
			Title:  t.Name,
			Artist: t.Artists[0].Name,
			URL:    s.songURL(t.ID),
		})
	}
	return infos, nil
}
