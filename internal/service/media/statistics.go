package media

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/media-cache/internal/logger"
)

// summarySeparator frames the session summary.
const summarySeparator = "═══════════════════════════════════════════════════════════════"

// Statistics is a snapshot of the session counters.
type Statistics struct {
	// StartTime is when the session began.
	StartTime time.Time `json:"start_time"`
	// EndTime is when the snapshot was taken.
	EndTime time.Time `json:"end_time"`
	// DownloadsSucceeded is the number of completed downloads.
	DownloadsSucceeded int64 `json:"downloads_succeeded"`
	// DownloadsFailed is the number of failed or canceled downloads.
	DownloadsFailed int64 `json:"downloads_failed"`
	// RemovalsSucceeded is the number of deleted local copies.
	RemovalsSucceeded int64 `json:"removals_succeeded"`
	// RemovalsFailed is the number of failed deletions.
	RemovalsFailed int64 `json:"removals_failed"`
	// PlaybacksStarted is the number of successful player hand-offs.
	PlaybacksStarted int64 `json:"playbacks_started"`
	// PlaybacksFailed is the number of failed player hand-offs.
	PlaybacksFailed int64 `json:"playbacks_failed"`
	// ExistenceChecksFailed is the number of reconciliation checks that failed.
	ExistenceChecksFailed int64 `json:"existence_checks_failed"`
	// TotalBytesDownloaded is the size of every completed download.
	TotalBytesDownloaded int64 `json:"total_bytes_downloaded"`
	// Errors lists every recorded failure.
	Errors []ErrorRecord `json:"errors,omitempty"`
}

// ErrorRecord is a single failure kept for the session summary.
type ErrorRecord struct {
	// Operation is the failed operation.
	Operation Operation `json:"operation"`
	// ItemID is the affected item.
	ItemID string `json:"item_id,omitempty"`
	// ItemTitle is the title of the affected item.
	ItemTitle string `json:"item_title,omitempty"`
	// ErrorMessage is the error text.
	ErrorMessage string `json:"error"`
}

// SessionStatistics accumulates Statistics from concurrent operations.
type SessionStatistics struct {
	mu    sync.Mutex
	stats Statistics
}

// NewSessionStatistics starts a session now.
func NewSessionStatistics() *SessionStatistics {
	return &SessionStatistics{stats: Statistics{StartTime: time.Now()}}
}

// Snapshot returns a copy of the counters.
func (s *SessionStatistics) Snapshot() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.stats
	snapshot.EndTime = time.Now()
	snapshot.Errors = slices.Clone(s.stats.Errors)

	return snapshot
}

func (s *SessionStatistics) recordSuccess(op Operation, bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch op {
	case OperationDownload:
		s.stats.DownloadsSucceeded++
		s.stats.TotalBytesDownloaded += bytes
	case OperationRemove:
		s.stats.RemovalsSucceeded++
	case OperationPlay:
		s.stats.PlaybacksStarted++
	case OperationLoad, OperationCheck:
	}
}

// recordFailure counts a failure and keeps it for the summary.
// Canceled contexts are counted but not kept, they are expected during shutdown.
func (s *SessionStatistics) recordFailure(opErr *OperationError) {
	if opErr == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch opErr.Op {
	case OperationDownload:
		s.stats.DownloadsFailed++
	case OperationRemove:
		s.stats.RemovalsFailed++
	case OperationPlay:
		s.stats.PlaybacksFailed++
	case OperationCheck:
		s.stats.ExistenceChecksFailed++
	case OperationLoad:
	}

	if isCanceled(opErr) {
		return
	}

	s.stats.Errors = append(s.stats.Errors, ErrorRecord{
		Operation:    opErr.Op,
		ItemID:       opErr.ItemID,
		ItemTitle:    opErr.ItemTitle,
		ErrorMessage: opErr.Err.Error(),
	})
}

// PrintSummary logs a formatted summary of the session. Nothing is printed for an idle session.
func (s *SessionStatistics) PrintSummary(ctx context.Context) {
	stats := s.Snapshot()

	operations := stats.DownloadsSucceeded + stats.DownloadsFailed +
		stats.RemovalsSucceeded + stats.RemovalsFailed +
		stats.PlaybacksStarted + stats.PlaybacksFailed
	if operations == 0 && len(stats.Errors) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Info(ctx, summarySeparator)

	if ctx.Err() != nil {
		logger.Info(ctx, "              SESSION SUMMARY (Interrupted)")
	} else {
		logger.Info(ctx, "                    SESSION SUMMARY")
	}

	logger.Info(ctx, summarySeparator)

	printCounter(ctx, "Downloaded:      ", stats.DownloadsSucceeded)
	printCounter(ctx, "Download failed: ", stats.DownloadsFailed)
	printCounter(ctx, "Removed:         ", stats.RemovalsSucceeded)
	printCounter(ctx, "Remove failed:   ", stats.RemovalsFailed)
	printCounter(ctx, "Played:          ", stats.PlaybacksStarted)
	printCounter(ctx, "Playback failed: ", stats.PlaybacksFailed)
	printCounter(ctx, "Checks failed:   ", stats.ExistenceChecksFailed)

	if stats.TotalBytesDownloaded > 0 {
		duration := stats.EndTime.Sub(stats.StartTime)

		//nolint:gosec // TotalBytesDownloaded is always positive, no overflow risk.
		logger.Infof(ctx, "Data Downloaded:  %s", humanize.Bytes(uint64(stats.TotalBytesDownloaded)))
		logger.Infof(ctx, "Duration:         %s", formatDuration(duration))

		if duration > 100*time.Millisecond {
			bytesPerSecond := float64(stats.TotalBytesDownloaded) / duration.Seconds()
			logger.Infof(ctx, "Average Speed:    %s/s", humanize.Bytes(uint64(bytesPerSecond)))
		}
	}

	logger.Info(ctx, summarySeparator)

	printErrorDetails(ctx, stats.Errors)
}

func printCounter(ctx context.Context, label string, value int64) {
	if value > 0 {
		logger.Infof(ctx, "%s%d", label, value)
	}
}

// printErrorDetails prints every recorded failure and a command retrying the failed downloads.
func printErrorDetails(ctx context.Context, records []ErrorRecord) {
	if len(records) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "ERRORS ENCOUNTERED: %d", len(records))

	failedDownloads := make([]string, 0, len(records))

	for i := range records {
		logger.Info(ctx, "")

		if records[i].ItemID != "" {
			logger.Errorf(ctx, "  [%d] %s: %s (ID: %s)",
				i+1, records[i].Operation, records[i].ItemTitle, records[i].ItemID)
		} else {
			logger.Errorf(ctx, "  [%d] %s", i+1, records[i].Operation)
		}

		logger.Errorf(ctx, "      Error: %s", records[i].ErrorMessage)

		if records[i].Operation == OperationDownload && !slices.Contains(failedDownloads, records[i].ItemID) {
			failedDownloads = append(failedDownloads, records[i].ItemID)
		}
	}

	if len(failedDownloads) > 0 {
		logger.Info(ctx, "")
		logger.Infof(ctx, "To retry failed downloads, run: media-cache download %s", strings.Join(failedDownloads, " "))
	}
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}
