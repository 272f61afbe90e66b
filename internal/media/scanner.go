// Package media owns the boundary between the filesystem and the duration
// index: discovering channel subfolders, probing file durations, and
// publishing rebuilt catalogs.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/airwavetv/airwave/internal/catalog"
	"github.com/airwavetv/airwave/internal/db"
	"github.com/airwavetv/airwave/internal/logger"
	"github.com/airwavetv/airwave/internal/models"
	"github.com/google/uuid"
)

// Scan retention and cleanup settings
const (
	scanRetentionPeriod = 1 * time.Hour
	cleanupInterval     = 15 * time.Minute
	defaultWorkers      = 4
)

// ScanStatus represents the current state of a library scan
type ScanStatus string

// Library scan status constants
const (
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusCancelled ScanStatus = "cancelled"
	ScanStatusFailed    ScanStatus = "failed"
)

// Common scanner errors
var (
	ErrScanNotFound       = errors.New("scan not found")
	ErrScanAlreadyRunning = errors.New("a scan is already running")
	ErrInvalidDirectory   = errors.New("invalid directory path")
)

// ScanProgress tracks the progress of a library scan operation
type ScanProgress struct {
	ScanID         string     `json:"scan_id"`
	Status         ScanStatus `json:"status"`
	Channels       []string   `json:"channels,omitempty"`
	TotalFiles     int        `json:"total_files"`
	ProcessedFiles int        `json:"processed_files"`
	SuccessCount   int        `json:"success_count"`
	SkippedCount   int        `json:"skipped_count"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Errors         []string   `json:"errors,omitempty"`
	mu             sync.RWMutex
	cancelFunc     context.CancelFunc
}

// Scanner rebuilds channel catalogs from the library on disk. Each
// immediate subfolder of the library root is one channel. The scanner is
// the duration index's single writer: a channel's entry list is built off
// to the side (probe completion order does not matter, canonical order is
// imposed at publish) and swapped in atomically.
type Scanner struct {
	repos       *db.Repositories
	index       *catalog.Index
	probe       ProbeFunc
	formats     map[string]bool
	workers     int
	activeScans map[string]*ScanProgress
	mu          sync.RWMutex
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewScanner creates a new library scanner instance. formats are bare
// extensions such as "mp4"; workers bounds per-file probe parallelism.
func NewScanner(repos *db.Repositories, index *catalog.Index, probe ProbeFunc, formats []string, workers int) *Scanner {
	if workers < 1 {
		workers = defaultWorkers
	}

	formatSet := make(map[string]bool, len(formats))
	for _, f := range formats {
		formatSet["."+strings.ToLower(strings.TrimPrefix(f, "."))] = true
	}

	s := &Scanner{
		repos:       repos,
		index:       index,
		probe:       probe,
		formats:     formatSet,
		workers:     workers,
		activeScans: make(map[string]*ScanProgress),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}

	go s.runCleanupLoop()

	return s
}

// StartScan initiates an asynchronous scan of the library root and
// returns the scan ID used to track progress
func (s *Scanner) StartScan(ctx context.Context, rootPath string) (string, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: directory does not exist", ErrInvalidDirectory)
		}
		return "", fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: path is not a directory", ErrInvalidDirectory)
	}

	// Check-and-insert must be atomic so only one scan runs at a time
	s.mu.Lock()
	for _, scan := range s.activeScans {
		scan.mu.RLock()
		if scan.Status == ScanStatusRunning {
			scan.mu.RUnlock()
			s.mu.Unlock()
			return "", ErrScanAlreadyRunning
		}
		scan.mu.RUnlock()
	}

	scanID := uuid.New().String()
	scanCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	progress := &ScanProgress{
		ScanID:     scanID,
		Status:     ScanStatusRunning,
		StartTime:  time.Now().UTC(),
		Errors:     []string{},
		cancelFunc: cancel,
	}

	s.activeScans[scanID] = progress
	s.mu.Unlock()

	go s.performScan(scanCtx, scanID, rootPath)

	logger.Log.Info().
		Str("scan_id", scanID).
		Str("library", rootPath).
		Msg("Library scan started")

	return scanID, nil
}

// GetScanProgress retrieves the current progress of a scan
func (s *Scanner) GetScanProgress(scanID string) (*ScanProgress, error) {
	s.mu.RLock()
	progress, exists := s.activeScans[scanID]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrScanNotFound
	}

	progress.mu.RLock()
	defer progress.mu.RUnlock()

	return &ScanProgress{
		ScanID:         progress.ScanID,
		Status:         progress.Status,
		Channels:       append([]string{}, progress.Channels...),
		TotalFiles:     progress.TotalFiles,
		ProcessedFiles: progress.ProcessedFiles,
		SuccessCount:   progress.SuccessCount,
		SkippedCount:   progress.SkippedCount,
		StartTime:      progress.StartTime,
		EndTime:        progress.EndTime,
		Errors:         append([]string{}, progress.Errors...),
	}, nil
}

// CancelScan cancels a running scan
func (s *Scanner) CancelScan(scanID string) error {
	s.mu.RLock()
	progress, exists := s.activeScans[scanID]
	s.mu.RUnlock()

	if !exists {
		return ErrScanNotFound
	}

	progress.mu.Lock()
	if progress.Status != ScanStatusRunning {
		progress.mu.Unlock()
		return fmt.Errorf("scan is not running (status: %s)", progress.Status)
	}
	if progress.cancelFunc != nil {
		progress.cancelFunc()
	}
	progress.mu.Unlock()

	logger.Log.Info().
		Str("scan_id", scanID).
		Msg("Library scan cancellation requested")

	return nil
}

// performScan executes the actual scanning logic asynchronously
func (s *Scanner) performScan(ctx context.Context, scanID, rootPath string) {
	s.mu.RLock()
	progress := s.activeScans[scanID]
	s.mu.RUnlock()

	channelDirs, err := listChannelDirs(rootPath)
	if err != nil {
		progress.recordError(fmt.Sprintf("failed to list channel folders: %v", err))
		s.finalizeScan(progress, ScanStatusFailed)
		return
	}

	var channelNames []string
	totalFiles := 0
	filesByChannel := make(map[string][]string, len(channelDirs))
	for _, dir := range channelDirs {
		name := filepath.Base(dir)
		files, err := s.listVideoFiles(dir)
		if err != nil {
			progress.recordError(fmt.Sprintf("failed to list %s: %v", dir, err))
			continue
		}
		channelNames = append(channelNames, name)
		filesByChannel[name] = files
		totalFiles += len(files)
	}

	progress.mu.Lock()
	progress.Channels = channelNames
	progress.TotalFiles = totalFiles
	progress.mu.Unlock()

	logger.Log.Info().
		Str("scan_id", scanID).
		Int("channels", len(channelNames)).
		Int("total_files", totalFiles).
		Msg("Found channel folders to scan")

	for _, name := range channelNames {
		if ctx.Err() != nil {
			s.finalizeScan(progress, ScanStatusCancelled)
			return
		}
		s.scanChannel(ctx, progress, rootPath, name, filesByChannel[name])
	}

	if ctx.Err() != nil {
		s.finalizeScan(progress, ScanStatusCancelled)
		return
	}
	s.finalizeScan(progress, ScanStatusCompleted)
}

// scanChannel probes one channel folder and publishes its rebuilt catalog
func (s *Scanner) scanChannel(ctx context.Context, progress *ScanProgress, rootPath, name string, files []string) {
	channel, err := s.repos.Channels.GetOrCreateByName(ctx, name, fmt.Sprintf("Auto-discovered in %s", rootPath))
	if err != nil {
		progress.recordError(fmt.Sprintf("channel %s: %v", name, err))
		return
	}

	videos := s.probeFiles(ctx, progress, channel.ID, files)
	if ctx.Err() != nil {
		return
	}

	// Canonical order is imposed here and at index build; probe
	// completion order is irrelevant
	sort.Slice(videos, func(i, j int) bool {
		ki, kj := videos[i].SortKey(), videos[j].SortKey()
		if ki != kj {
			return ki < kj
		}
		return videos[i].Path < videos[j].Path
	})

	if err := s.repos.Videos.ReplaceForChannel(ctx, channel.ID, videos); err != nil {
		progress.recordError(fmt.Sprintf("channel %s: %v", name, err))
		return
	}

	if _, err := s.index.Publish(channel.Name, entriesFromVideos(videos)); err != nil {
		progress.recordError(fmt.Sprintf("channel %s: %v", name, err))
		return
	}

	logger.Log.Info().
		Str("channel", channel.Name).
		Int("videos", len(videos)).
		Msg("Channel catalog published")
}

// probeFiles measures durations with a bounded worker pool. Files whose
// duration cannot be measured are excluded from the catalog, never stored
// with a stand-in duration.
func (s *Scanner) probeFiles(ctx context.Context, progress *ScanProgress, channelID uuid.UUID, files []string) []*models.Video {
	jobs := make(chan string)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var videos []*models.Video

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				video := s.probeFile(ctx, progress, channelID, path)
				if video != nil {
					mu.Lock()
					videos = append(videos, video)
					mu.Unlock()
				}
			}
		}()
	}

	for _, path := range files {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return videos
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	return videos
}

// probeFile measures a single file; nil means the file was skipped
func (s *Scanner) probeFile(ctx context.Context, progress *ScanProgress, channelID uuid.UUID, path string) *models.Video {
	duration, err := s.probe(ctx, path)
	if err != nil {
		if ctx.Err() == nil {
			logger.Log.Warn().
				Err(err).
				Str("path", path).
				Msg("Skipping file with unmeasurable duration")
			progress.recordSkip(fmt.Sprintf("%s: %v", path, err))
		}
		return nil
	}

	video := models.NewVideo(channelID, path, filepath.Base(path), duration)
	if info, err := os.Stat(path); err == nil {
		size := info.Size()
		modified := info.ModTime().UTC()
		video.SizeBytes = &size
		video.ModifiedAt = &modified
	}

	progress.recordSuccess()
	return video
}

// finalizeScan completes the scan and updates final status
func (s *Scanner) finalizeScan(progress *ScanProgress, status ScanStatus) {
	endTime := time.Now().UTC()

	progress.mu.Lock()
	progress.Status = status
	progress.EndTime = &endTime
	progress.mu.Unlock()

	logger.Log.Info().
		Str("scan_id", progress.ScanID).
		Str("status", string(status)).
		Int("total_files", progress.TotalFiles).
		Int("success_count", progress.SuccessCount).
		Int("skipped_count", progress.SkippedCount).
		Dur("duration", endTime.Sub(progress.StartTime)).
		Msg("Library scan finished")
}

// Stop gracefully stops the scanner's background cleanup goroutine
func (s *Scanner) Stop() {
	close(s.stopCleanup)
	<-s.cleanupDone
	logger.Log.Debug().Msg("Scanner cleanup goroutine stopped")
}

// runCleanupLoop runs periodic cleanup of old completed scans
func (s *Scanner) runCleanupLoop() {
	defer close(s.cleanupDone)

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCleanup:
			return
		case <-ticker.C:
			s.CleanupOldScans(scanRetentionPeriod)
		}
	}
}

// CleanupOldScans removes finished scans older than the given duration
func (s *Scanner) CleanupOldScans(olderThan time.Duration) {
	cutoff := time.Now().Add(-olderThan)
	removed := 0

	s.mu.Lock()
	defer s.mu.Unlock()

	for scanID, progress := range s.activeScans {
		progress.mu.RLock()
		status := progress.Status
		endTime := progress.EndTime
		progress.mu.RUnlock()

		if status == ScanStatusRunning || endTime == nil {
			continue
		}
		if endTime.Before(cutoff) {
			delete(s.activeScans, scanID)
			removed++
		}
	}

	if removed > 0 {
		logger.Log.Debug().
			Int("removed_count", removed).
			Msg("Cleaned up old scans")
	}
}

// isVideoFile checks if a file has a supported video extension
func (s *Scanner) isVideoFile(path string) bool {
	return s.formats[strings.ToLower(filepath.Ext(path))]
}

// listVideoFiles returns the video files directly inside a channel folder
func (s *Scanner) listVideoFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if s.isVideoFile(path) {
			files = append(files, path)
		}
	}
	return files, nil
}

// listChannelDirs returns the immediate subdirectories of the library root
func listChannelDirs(rootPath string) ([]string, error) {
	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(rootPath, entry.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// entriesFromVideos converts video rows into catalog entries
func entriesFromVideos(videos []*models.Video) []catalog.Entry {
	entries := make([]catalog.Entry, 0, len(videos))
	for _, v := range videos {
		entries = append(entries, catalog.Entry{
			ID:              v.ID,
			Path:            v.Path,
			FileName:        v.FileName,
			DurationSeconds: v.DurationSeconds,
		})
	}
	return entries
}

// recordError appends a scan-level error
func (p *ScanProgress) recordError(msg string) {
	p.mu.Lock()
	p.Errors = append(p.Errors, msg)
	p.mu.Unlock()
}

// recordSkip records a file excluded from the catalog
func (p *ScanProgress) recordSkip(msg string) {
	p.mu.Lock()
	p.SkippedCount++
	p.ProcessedFiles++
	p.Errors = append(p.Errors, msg)
	p.mu.Unlock()
}

// recordSuccess records a successfully measured file
func (p *ScanProgress) recordSuccess() {
	p.mu.Lock()
	p.SuccessCount++
	p.ProcessedFiles++
	p.mu.Unlock()
}
