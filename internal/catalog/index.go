// Package catalog maintains the per-channel duration index: an ordered list
// of measured video files plus cached prefix sums over their durations.
// Snapshots are immutable and published atomically, so position resolution
// never observes a catalog mid-rebuild.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Entry is one schedulable video inside a channel catalog
type Entry struct {
	ID              uuid.UUID `json:"id"`
	Path            string    `json:"path"`
	FileName        string    `json:"file_name"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// sortKey is the canonical ordering key: normalized file name with the
// path as tie-break. The resolver's correctness depends on this order
// being reproducible across re-scans.
func (e Entry) sortKey() (string, string) {
	return strings.ToLower(e.FileName), e.Path
}

// ChannelIndex is an immutable snapshot of one channel's catalog with
// cached prefix sums. prefix[0] = 0 and prefix[len] = total, so
// prefix[i] is the virtual position at which entry i begins.
type ChannelIndex struct {
	entries []Entry
	prefix  []float64
}

// BuildChannelIndex sorts the given entries into canonical order and
// computes their prefix sums. A negative duration means a prober
// invariant was violated upstream and is reported as ErrIndexInconsistent.
func BuildChannelIndex(entries []Entry) (*ChannelIndex, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		ni, pi := sorted[i].sortKey()
		nj, pj := sorted[j].sortKey()
		if ni != nj {
			return ni < nj
		}
		return pi < pj
	})

	prefix := make([]float64, len(sorted)+1)
	for i, e := range sorted {
		if e.DurationSeconds < 0 {
			return nil, ErrIndexInconsistent
		}
		prefix[i+1] = prefix[i] + e.DurationSeconds
	}

	return &ChannelIndex{entries: sorted, prefix: prefix}, nil
}

// Len returns the number of entries in the snapshot
func (x *ChannelIndex) Len() int {
	return len(x.entries)
}

// Entry returns the entry at index i in canonical order
func (x *ChannelIndex) Entry(i int) Entry {
	return x.entries[i]
}

// Entries returns a copy of the snapshot's entries in canonical order
func (x *ChannelIndex) Entries() []Entry {
	out := make([]Entry, len(x.entries))
	copy(out, x.entries)
	return out
}

// PrefixAt returns the cumulative duration of all entries before index i.
// Valid for i in [0, Len()]; PrefixAt(Len()) equals TotalSeconds.
func (x *ChannelIndex) PrefixAt(i int) float64 {
	return x.prefix[i]
}

// TotalSeconds returns the summed duration of all entries
func (x *ChannelIndex) TotalSeconds() float64 {
	return x.prefix[len(x.prefix)-1]
}

// Index is the in-memory duration index for all channels. A single writer
// (the library scanner) publishes immutable snapshots; any number of
// readers resolve positions against them concurrently. Publication is a
// plain pointer swap under a short lock, so readers never see a
// half-rebuilt channel.
type Index struct {
	mu       sync.RWMutex
	channels map[string]*ChannelIndex
}

// NewIndex creates an empty duration index
func NewIndex() *Index {
	return &Index{channels: make(map[string]*ChannelIndex)}
}

// Publish replaces a channel's catalog wholesale with the given entries
// and returns the new snapshot
func (ix *Index) Publish(channel string, entries []Entry) (*ChannelIndex, error) {
	snapshot, err := BuildChannelIndex(entries)
	if err != nil {
		return nil, err
	}

	ix.mu.Lock()
	ix.channels[channel] = snapshot
	ix.mu.Unlock()

	return snapshot, nil
}

// Upsert inserts or replaces a single entry, keyed by path, within a
// channel and returns the entry's durable identity. Re-upserting
// identical data leaves the published snapshot observationally unchanged.
func (ix *Index) Upsert(channel string, entry Entry) (uuid.UUID, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var entries []Entry
	if existing, ok := ix.channels[channel]; ok {
		entries = existing.Entries()
	}

	replaced := false
	for i := range entries {
		if entries[i].Path == entry.Path {
			// Keep the durable identity assigned on first insert
			entry.ID = entries[i].ID
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		entries = append(entries, entry)
	}

	snapshot, err := BuildChannelIndex(entries)
	if err != nil {
		return uuid.Nil, err
	}
	ix.channels[channel] = snapshot

	return entry.ID, nil
}

// Snapshot returns the current immutable snapshot for a channel.
// The second return value is false when the channel is unknown.
func (ix *Index) Snapshot(channel string) (*ChannelIndex, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	snapshot, ok := ix.channels[channel]
	return snapshot, ok
}

// EntriesFor returns a channel's entries in canonical order; empty for an
// unknown channel
func (ix *Index) EntriesFor(channel string) []Entry {
	snapshot, ok := ix.Snapshot(channel)
	if !ok {
		return nil
	}
	return snapshot.Entries()
}

// TotalDuration returns the channel's summed duration in seconds; 0 for
// an empty or unknown channel
func (ix *Index) TotalDuration(channel string) float64 {
	snapshot, ok := ix.Snapshot(channel)
	if !ok {
		return 0
	}
	return snapshot.TotalSeconds()
}

// Channels returns all known channel names in sorted order
func (ix *Index) Channels() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	names := make([]string, 0, len(ix.channels))
	for name := range ix.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Drop removes a channel from the index
func (ix *Index) Drop(channel string) {
	ix.mu.Lock()
	delete(ix.channels, channel)
	ix.mu.Unlock()
}
