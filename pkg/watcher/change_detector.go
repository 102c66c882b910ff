package watcher

import (
	"path/filepath"

	"github.com/ritzau/graphcompare/pkg/finder"
)

// ChangeAnalysis describes which comparisons need to be re-run
type ChangeAnalysis struct {
	// NeedRescan is set when files appeared or disappeared, so the
	// directory pairing itself may have changed
	NeedRescan   bool
	Pairs        []finder.Pair
	ChangedFiles []string
}

// AnalyzeChanges determines which of the current pairs are affected by a change
func AnalyzeChanges(event ChangeEvent, pairs []finder.Pair) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
		NeedRescan:   event.Type != ChangeTypeModified,
	}

	changed := make(map[string]bool, len(event.Paths))
	for _, path := range event.Paths {
		changed[absPath(path)] = true
	}

	for _, pair := range pairs {
		if changed[absPath(pair.A)] || changed[absPath(pair.B)] {
			analysis.Pairs = append(analysis.Pairs, pair)
		}
	}

	return analysis
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
