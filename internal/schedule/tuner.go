package schedule

import (
	"sync"
	"time"

	"github.com/airwavetv/airwave/internal/catalog"
)

// Tuner is the stateful wrapper around Resolve. It resolves exactly once
// when a channel becomes active and relies on end-of-file advancement
// thereafter; continuous re-resolution would make decode startup latency
// visible as re-seeking, so drift against the ideal virtual position is
// accepted and only corrected at the next channel switch.
//
// The tuner owns the "what is playing right now" state that callers pass
// around: the active channel and the last resolved video index.
type Tuner struct {
	index *catalog.Index
	epoch time.Time
	now   func() time.Time

	mu             sync.Mutex
	activeChannel  string
	lastVideoIndex int
}

// NewTuner creates a tuner over the given duration index and go-live epoch
func NewTuner(index *catalog.Index, epoch time.Time) *Tuner {
	return &Tuner{
		index:          index,
		epoch:          epoch,
		now:            time.Now,
		lastVideoIndex: -1,
	}
}

// TuneTo switches the tuner to a channel and resolves its current
// position. ErrNoContent means the channel has nothing to schedule; the
// channel still becomes active so the caller can show an idle state.
func (t *Tuner) TuneTo(channel string) (*Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tuneLocked(channel)
}

// TuneUp switches to the next channel in name order, wrapping at the end
func (t *Tuner) TuneUp() (string, *Position, error) {
	return t.step(1)
}

// TuneDown switches to the previous channel in name order, wrapping at
// the start
func (t *Tuner) TuneDown() (string, *Position, error) {
	return t.step(-1)
}

// step moves the active channel by delta within the sorted channel list
// and resolves the new channel's position
func (t *Tuner) step(delta int) (string, *Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	channels := t.index.Channels()
	if len(channels) == 0 {
		return "", nil, ErrNoContent
	}

	current := -1
	for i, name := range channels {
		if name == t.activeChannel {
			current = i
			break
		}
	}
	// An unknown or unset active channel starts from the first entry
	next := 0
	if current >= 0 {
		next = (current + delta + len(channels)) % len(channels)
	}

	channel := channels[next]
	pos, err := t.tuneLocked(channel)
	return channel, pos, err
}

func (t *Tuner) tuneLocked(channel string) (*Position, error) {
	t.activeChannel = channel
	t.lastVideoIndex = -1

	snapshot, ok := t.index.Snapshot(channel)
	if !ok {
		return nil, ErrNoContent
	}

	pos, err := Resolve(t.epoch, t.now().UTC(), snapshot)
	if err != nil {
		return nil, err
	}

	t.lastVideoIndex = pos.VideoIndex
	return pos, nil
}

// Advance moves to the next entry in canonical order after the playback
// engine reports end-of-file, wrapping at the end of the catalog. The
// returned position always starts at offset 0.
func (t *Tuner) Advance() (*Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot, ok := t.index.Snapshot(t.activeChannel)
	if !ok || snapshot.Len() == 0 {
		t.lastVideoIndex = -1
		return nil, ErrNoContent
	}

	// A rebuild may have shrunk the catalog under us; wrap into range
	next := (t.lastVideoIndex + 1) % snapshot.Len()
	if next < 0 {
		next = 0
	}
	t.lastVideoIndex = next

	entry := snapshot.Entry(next)
	now := t.now().UTC()
	return &Position{
		VideoID:         entry.ID,
		Path:            entry.Path,
		FileName:        entry.FileName,
		VideoIndex:      next,
		OffsetSeconds:   0,
		DurationSeconds: entry.DurationSeconds,
		StartedAt:       now,
		EndsAt:          now.Add(secondsToDuration(entry.DurationSeconds)),
	}, nil
}

// Active returns the active channel name and last resolved video index.
// The index is -1 when nothing has been resolved on the active channel.
func (t *Tuner) Active() (string, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeChannel, t.lastVideoIndex
}
