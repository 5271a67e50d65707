package model

import "encoding/json"

// EternalInfo 曲目基本信息，title 与 name 相同，保留给旧客户端
type EternalInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	URL    string `json:"url"` // 本服务的歌曲播放地址
}

// TimedSegment is one unit of musical analysis. Sections and segments carry
// extra provider features; bars, beats and tatums only carry timing.
type TimedSegment struct {
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
	Confidence float64 `json:"confidence"`

	// section features
	Loudness                *float64 `json:"loudness,omitempty"`
	Tempo                   *float64 `json:"tempo,omitempty"`
	TempoConfidence         *float64 `json:"tempo_confidence,omitempty"`
	Key                     *int     `json:"key,omitempty"`
	KeyConfidence           *float64 `json:"key_confidence,omitempty"`
	Mode                    *int     `json:"mode,omitempty"`
	ModeConfidence          *float64 `json:"mode_confidence,omitempty"`
	TimeSignature           *int     `json:"time_signature,omitempty"`
	TimeSignatureConfidence *float64 `json:"time_signature_confidence,omitempty"`

	// segment features
	LoudnessStart   *float64  `json:"loudness_start,omitempty"`
	LoudnessMaxTime *float64  `json:"loudness_max_time,omitempty"`
	LoudnessMax     *float64  `json:"loudness_max,omitempty"`
	LoudnessEnd     *float64  `json:"loudness_end,omitempty"`
	Pitches         []float64 `json:"pitches,omitempty"`
	Timbre          []float64 `json:"timbre,omitempty"`
}

// EternalAnalysis 五组按时间顺序排列的分析片段
type EternalAnalysis struct {
	Sections []TimedSegment `json:"sections"`
	Bars     []TimedSegment `json:"bars"`
	Beats    []TimedSegment `json:"beats"`
	Tatums   []TimedSegment `json:"tatums"`
	Segments []TimedSegment `json:"segments"`
}

// EternalAudio is the unit written to the analysis cache and returned to
// clients. AudioSummary is the provider's track-level summary, passed
// through untouched.
type EternalAudio struct {
	Info         EternalInfo     `json:"info"`
	Analysis     EternalAnalysis `json:"analysis"`
	AudioSummary json.RawMessage `json:"audio_summary,omitempty"`
}
