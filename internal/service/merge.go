package service

import "loyalty-wallet/internal/model"

// MergeStats counts how each id was resolved by Merge.
type MergeStats struct {
	LocalOnly  int `json:"local_only"`
	RemoteOnly int `json:"remote_only"`
	LocalWins  int `json:"local_wins"`
	RemoteWins int `json:"remote_wins"`
}

// Merge reconciles a local and a remote collection with last-writer-wins on
// UpdatedAt. Every id of either side is kept. For an id on both sides the
// record with the strictly greater UpdatedAt wins and ties go to local.
// The result is ordered by UpdatedAt descending, then id.
func Merge(local, remote model.Cards) (model.Cards, MergeStats) {
	var stats MergeStats

	merged := local.ByID()
	for _, r := range remote.ByID() {
		l, ok := merged[r.ID]
		switch {
		case !ok:
			merged[r.ID] = r
			stats.RemoteOnly++
		case r.UpdatedAt > l.UpdatedAt:
			merged[r.ID] = r
			stats.RemoteWins++
		default:
			stats.LocalWins++
		}
	}
	stats.LocalOnly = len(merged) - stats.RemoteOnly - stats.RemoteWins - stats.LocalWins

	out := make(model.Cards, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	out.SortByUpdated()
	return out, stats
}
