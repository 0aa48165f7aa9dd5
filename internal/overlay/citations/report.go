package citations

import (
	"fmt"
	"sort"
	"strings"
)

// Guard names an eligibility check.
type Guard string

// Eligibility checks, in the order they run.
const (
	GuardCursor  Guard = "cursor"
	GuardMarked  Guard = "marked"
	GuardComment Guard = "comment"
	GuardBracket Guard = "bracket"
)

// ScanReport summarises one RenderVisible pass.
type ScanReport struct {
	// Lines is the number of viewport lines in the citation zone.
	Lines int
	// OutsideZone is the number of viewport lines skipped by zone.
	OutsideZone int
	// LineErrors counts lines whose scan failed.
	LineErrors int
	// Candidates counts citations with at least one key.
	Candidates int
	// Installed counts new annotations.
	Installed int
	// Rejected counts candidates by the guard that rejected them.
	Rejected map[Guard]int
}

func (r ScanReport) String() string {
	var rej []string
	for g, n := range r.Rejected {
		rej = append(rej, fmt.Sprintf("%s=%d", g, n))
	}
	sort.Strings(rej)
	return fmt.Sprintf("lines=%d candidates=%d installed=%d errors=%d rejected=[%s]",
		r.Lines, r.Candidates, r.Installed, r.LineErrors, strings.Join(rej, " "))
}
