package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"EternalJukebox/model"
)

// SearchTracks 按关键词搜索曲目
func (c *Client) SearchTracks(ctx context.Context, bearer, query string, limit int) ([]model.SpotifyTrack, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	req, err := c.createRequest(ctx, http.MethodGet, fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode()), bearer, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}

	var result model.SpotifySearchResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return result.Tracks.Items, nil
}
