package youtube

import (
	"time"

	"EternalJukebox/config"
	"EternalJukebox/model"
)

// Ranker picks one video out of ranked search results.
type Ranker interface {
	Select(candidates []model.VideoCandidate, target time.Duration) (model.VideoCandidate, bool)
}

// TopResult always takes the first search hit.
type TopResult struct{}

func (TopResult) Select(candidates []model.VideoCandidate, _ time.Duration) (model.VideoCandidate, bool) {
	if len(candidates) == 0 {
		return model.VideoCandidate{}, false
	}
	return candidates[0], true
}

// ClosestDuration takes the hit whose running time is nearest to the track's.
// Ties go to the better ranked hit.
type ClosestDuration struct{}

func (ClosestDuration) Select(candidates []model.VideoCandidate, target time.Duration) (model.VideoCandidate, bool) {
	if len(candidates) == 0 {
		return model.VideoCandidate{}, false
	}
	best := 0
	for i := 1; i < len(candidates); i++ {
		if absDiff(candidates[i].Duration, target) < absDiff(candidates[best].Duration, target) {
			best = i
		}
	}
	return candidates[best], true
}

func absDiff(a, b time.Duration) time.Duration {
	if a > b {
		return a - b
	}
	return b - a
}

// NewRanker 根据配置名称返回排序策略，未知名称回退到 TopResult
func NewRanker(name string) Ranker {
	if name == config.RankingDuration {
		return ClosestDuration{}
	}
	return TopResult{}
}
