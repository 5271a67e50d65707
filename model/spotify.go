package model

import "encoding/json"

// SpotifyArtist Spotify 艺术家
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack /v1/tracks/{id} 的响应
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMs int64           `json:"duration_ms"`
}

// SpotifyAudioAnalysis /v1/audio-analysis/{id} 的响应
type SpotifyAudioAnalysis struct {
	Sections []TimedSegment  `json:"sections"`
	Bars     []TimedSegment  `json:"bars"`
	Beats    []TimedSegment  `json:"beats"`
	Tatums   []TimedSegment  `json:"tatums"`
	Segments []TimedSegment  `json:"segments"`
	Track    json.RawMessage `json:"track"`
}

// SpotifySearchResult /v1/search?type=track 的响应
type SpotifySearchResult struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyToken client-credentials 换取的令牌
type SpotifyToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // 秒
}
