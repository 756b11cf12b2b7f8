package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFlockConverged BookmarkType = "flock_converged"
	BookmarkFlockDispersed BookmarkType = "flock_dispersed"
	BookmarkSteeringStall  BookmarkType = "steering_stall"
	BookmarkFirstEncounter BookmarkType = "first_encounter"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	RunID       string       `csv:"run_id" json:"-"`
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	stalled      bool // absent rate currently above the stall threshold
	encountered  bool // an encounter has been bookmarked
	convergedLow bool // spread currently below the convergence threshold
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Converged: spread fell below half of the recent peak
		if b := bd.checkConverged(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Dispersed: spread exceeds twice the recent average
		if b := bd.checkDispersed(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Stall: most decisions carried no direction
	if b := bd.checkStall(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// First encounter of the run
	if !bd.encountered && stats.Encounters > 0 {
		bd.encountered = true
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkFirstEncounter,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d agent pairs within encounter radius, closest %.3f", stats.Encounters, stats.MinSeparation),
		})
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkConverged(stats WindowStats) *Bookmark {
	var peak float64
	for _, h := range bd.getHistory() {
		peak = max(peak, h.FlockSpread)
	}
	if peak == 0 {
		return nil
	}

	low := stats.FlockSpread < peak*0.5
	if !low {
		bd.convergedLow = false
		return nil
	}
	if bd.convergedLow {
		return nil
	}
	bd.convergedLow = true
	return &Bookmark{
		Type:        BookmarkFlockConverged,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Flock spread %.2f is below half the recent peak %.2f", stats.FlockSpread, peak),
	}
}

func (bd *BookmarkDetector) checkDispersed(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 2 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.FlockSpread
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.FlockSpread > avg*2 {
		return &Bookmark{
			Type:        BookmarkFlockDispersed,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Flock spread %.2f is %.1fx average (%.2f)", stats.FlockSpread, stats.FlockSpread/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStall(stats WindowStats) *Bookmark {
	if stats.Decisions == 0 {
		return nil
	}
	if stats.AbsentRate < 0.5 {
		bd.stalled = false
		return nil
	}
	if bd.stalled {
		return nil
	}
	bd.stalled = true
	return &Bookmark{
		Type:        BookmarkSteeringStall,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%.0f%% of decisions carried no direction", stats.AbsentRate*100),
	}
}
