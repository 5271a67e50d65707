package model

import "time"

// VideoCandidate is one search hit; its position in the result slice is its rank.
type VideoCandidate struct {
	ID       string        `json:"id"` // 11 位视频 ID
	Duration time.Duration `json:"duration"`
}
