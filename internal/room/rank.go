package room

import (
	"math"
	"sort"
)

// Rankings orders players for the game-over broadcast: score descending,
// ties broken by finish time ascending. A player who never finished sorts
// after everyone who did, regardless of score. Player ID breaks any
// remaining tie so the output is deterministic.
func Rankings(players map[string]*Player) []RankEntry {
	entries := make([]RankEntry, 0, len(players))
	times := make(map[string]int64, len(players))

	for id, p := range players {
		t := int64(math.MaxInt64)
		if p.IsFinished {
			t = p.FinishTime
		}
		times[id] = t
		entries = append(entries, RankEntry{
			PlayerID: id,
			Name:     p.Name,
			Score:    p.Score,
			Accuracy: p.Accuracy,
			Time:     p.FinishTime,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		ta, tb := times[a.PlayerID], times[b.PlayerID]
		unfinishedA := ta == math.MaxInt64
		unfinishedB := tb == math.MaxInt64
		if unfinishedA != unfinishedB {
			return unfinishedB
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if ta != tb {
			return ta < tb
		}
		return a.PlayerID < b.PlayerID
	})
	return entries
}
