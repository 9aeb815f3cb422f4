package tasks

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	RunID   string // Identifies the operation that emitted the update
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	CheckBlobs Phase = iota
	ResolveURLs
	FetchMetadata
	Transfer
	Done
)

func (p Phase) String() string {
	switch p {
	case CheckBlobs:
		return "check_blobs"
	case ResolveURLs:
		return "resolve_urls"
	case FetchMetadata:
		return "fetch_metadata"
	case Transfer:
		return "transfer"
	case Done:
		return "done"
	default:
		return ""
	}
}

func checkBlobsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckBlobs,
		Total:   total,
		Message: fmt.Sprintf("Checking blob cache for %d songs...", total),
	}
}

func resolveURLsUpdate(misses, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveURLs,
		Step:    total - misses,
		Total:   total,
		Message: fmt.Sprintf("Resolving %d playback URLs (%d cached)...", misses, total-misses),
	}
}

func fetchMetadataUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMetadata,
		Total:   total,
		Message: "Fetching song metadata...",
	}
}

func transferUpdate(step, total int, res *AudioResult) ProgressUpdate {
	name := res.ID
	if res.Song != nil {
		name = res.Song.DisplayName()
	}

	msg := fmt.Sprintf("[%d/%d] ✓ %s (%s, %s)", step, total, name, res.Source, humanize.Bytes(uint64(max(res.Size, 0))))
	if res.Err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, res.Err)
	}

	return ProgressUpdate{
		Phase:   Transfer,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    *res,
	}
}

func doneUpdate(results []AudioResult) ProgressUpdate {
	failed := 0
	var bytes int64
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		bytes += max(r.Size, 0)
	}

	return ProgressUpdate{
		Phase:   Done,
		Step:    len(results),
		Total:   len(results),
		Message: fmt.Sprintf("Finished: %d ok, %d failed, %s", len(results)-failed, failed, humanize.Bytes(uint64(bytes))),
		Data:    results,
	}
}
