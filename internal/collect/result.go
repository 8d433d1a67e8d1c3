package collect

import (
	"fmt"
	"strings"
)

// ReasonNo360 is the skip reason for matches the provider has no 360 data for.
const ReasonNo360 = "no 360 data"

// Skip records a match whose 360 frames were not written.
type Skip struct {
	MatchID int64
	Reason  string
}

// Result tracks counts and skipped matches from a collection run.
type Result struct {
	MatchesFound int
	MatchesKept  int
	EventFiles   int
	FrameFiles   int
	Skipped      []Skip
}

// AddSkip records a skipped match.
func (r *Result) AddSkip(matchID int64, reason string) {
	r.Skipped = append(r.Skipped, Skip{MatchID: matchID, Reason: reason})
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	s := fmt.Sprintf(
		"matches=%d kept=%d events=%d frames=%d skipped=%d",
		r.MatchesFound, r.MatchesKept, r.EventFiles, r.FrameFiles, len(r.Skipped),
	)
	if len(r.Skipped) == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(s)
	for _, sk := range r.Skipped {
		fmt.Fprintf(&b, "\n  match %d: %s", sk.MatchID, sk.Reason)
	}
	return b.String()
}
