// Package schedule turns wall-clock time into channel playback positions,
// creating the illusion of always-running broadcast channels over a fixed
// catalog of files. Two callers resolving the same channel at the same
// instant converge on the same (file, offset) without any coordination,
// because position is a pure function of elapsed time since the go-live
// epoch.
package schedule

import (
	"math"
	"sort"
	"time"

	"github.com/airwavetv/airwave/internal/catalog"
)

// Resolve computes the current playback position for a channel.
// This is a pure function with no I/O: it takes the fixed go-live epoch,
// the moment to resolve for, and an immutable catalog snapshot, and is
// safe to call from any number of concurrent callers.
//
// Semantics:
//   - elapsed time is clamped to >= 0, so a channel whose epoch lies in
//     the future resolves to its first entry at offset 0
//   - position wraps every TotalSeconds, replaying the catalog forever
//   - zero-duration entries occupy an empty interval and are never
//     selected; a catalog where every entry has zero duration resolves
//     to (index 0, offset 0) as a defined degenerate case
//
// ErrNoContent is the only error returned, when the snapshot is empty.
func Resolve(epoch, now time.Time, index *catalog.ChannelIndex) (*Position, error) {
	if index == nil || index.Len() == 0 {
		return nil, ErrNoContent
	}

	elapsed := now.Sub(epoch).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	total := index.TotalSeconds()
	if total == 0 {
		// Every entry measured zero seconds; defined degenerate case
		return positionAt(index, 0, 0, now), nil
	}

	position := math.Mod(elapsed, total)

	// Smallest i with prefix[i] <= position < prefix[i+1]. Entries with
	// zero duration satisfy prefix[i] == prefix[i+1] and are skipped.
	i := sort.Search(index.Len(), func(i int) bool {
		return index.PrefixAt(i+1) > position
	})

	return positionAt(index, i, position-index.PrefixAt(i), now), nil
}

// positionAt builds a Position for entry i with the given intra-file offset
func positionAt(index *catalog.ChannelIndex, i int, offset float64, now time.Time) *Position {
	entry := index.Entry(i)
	startedAt := now.Add(-secondsToDuration(offset))
	return &Position{
		VideoID:         entry.ID,
		Path:            entry.Path,
		FileName:        entry.FileName,
		VideoIndex:      i,
		OffsetSeconds:   offset,
		DurationSeconds: entry.DurationSeconds,
		StartedAt:       startedAt,
		EndsAt:          startedAt.Add(secondsToDuration(entry.DurationSeconds)),
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
