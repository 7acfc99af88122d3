package batch

import "log/slog"

// StaleTracker flags a batch as "mostly empty" once a run of Patience
// consecutive images yields zero detections at every radius in the
// policy. It never aborts the batch and never affects PerImageResult —
// every image is still scanned and recorded. This is the detection-count
// analogue of a cost-improvement convergence tracker: instead of watching
// for a shrinking cost to stop stalling out, it watches for an empty
// streak to flag a run that's probably pointed at the wrong data.
type StaleTracker struct {
	patience   int
	staleCount int
	maxStreak  int
	flagged    bool
}

func NewStaleTracker(patience int) *StaleTracker {
	return &StaleTracker{patience: patience}
}

// Update records one image's outcome and reports whether the stale streak
// just crossed the patience threshold for the first time.
func (s *StaleTracker) Update(res PerImageResult) (justFlagged bool) {
	if s.patience <= 0 {
		return false
	}
	if res.MarkerCount() == 0 && res.SunCount() == 0 {
		s.staleCount++
	} else {
		s.staleCount = 0
	}
	if s.staleCount > s.maxStreak {
		s.maxStreak = s.staleCount
	}
	if !s.flagged && s.staleCount >= s.patience {
		s.flagged = true
		slog.Info("batch run mostly empty",
			"stale_streak", s.staleCount,
			"patience", s.patience,
		)
		return true
	}
	return false
}

// Flagged reports whether the patience threshold has ever been crossed.
func (s *StaleTracker) Flagged() bool { return s.flagged }

// MaxStreak returns the longest run of consecutive empty images observed.
func (s *StaleTracker) MaxStreak() int { return s.maxStreak }
