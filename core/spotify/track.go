package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"EternalJukebox/model"
)

// GetTrack 获取曲目元数据
func (c *Client) GetTrack(ctx context.Context, bearer, id string) (*model.SpotifyTrack, error) {
	req, err := c.createRequest(ctx, http.MethodGet, fmt.Sprintf("%s/tracks/%s", c.baseURL, url.PathEscape(id)), bearer, nil)
	if err != nil {
		return nil, fmt.Errorf("create track request: %w", err)
	}

	var track model.SpotifyTrack
	if err := c.do(req, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// GetAudioAnalysis 获取曲目的音频分析
func (c *Client) GetAudioAnalysis(ctx context.Context, bearer, id string) (*model.SpotifyAudioAnalysis, error) {
	req, err := c.createRequest(ctx, http.MethodGet, fmt.Sprintf("%s/audio-analysis/%s", c.baseURL, url.PathEscape(id)), bearer, nil)
	if err != nil {
		return nil, fmt.Errorf("create analysis request: %w", err)
	}

	var analysis model.SpotifyAudioAnalysis
	if err := c.do(req, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}
