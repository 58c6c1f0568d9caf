package game

import (
	"cmp"
	"slices"
	"time"
)

// LeaderboardEntry is a ranked score. Rank is the 1-based position after
// sorting; equal scores still get distinct consecutive ranks.
type LeaderboardEntry struct {
	ID          uint      `json:"id"`
	UserName    string    `json:"userName"`
	Score       int       `json:"score"`
	TotalRounds int       `json:"totalRounds"`
	TimeTaken   int       `json:"timeTaken"`
	PlayedAt    time.Time `json:"playedAt"`
	Rank        int       `json:"rank"`
}

// Rank orders scores by score descending, then time taken ascending, then
// most recently played first, and keeps the first limit entries.
// A limit of zero or less keeps them all. The input is not modified.
func Rank(scores []Score, limit int) []LeaderboardEntry {
	sorted := slices.Clone(scores)
	slices.SortStableFunc(sorted, func(a, b Score) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.TimeTaken, b.TimeTaken); c != 0 {
			return c
		}
		return b.PlayedAt.Compare(a.PlayedAt)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]LeaderboardEntry, len(sorted))
	for i, s := range sorted {
		out[i] = LeaderboardEntry{
			ID:          s.ID,
			UserName:    s.UserName,
			Score:       s.Score,
			TotalRounds: s.TotalRounds,
			TimeTaken:   s.TimeTaken,
			PlayedAt:    s.PlayedAt,
			Rank:        i + 1,
		}
	}
	return out
}
