package citations

import (
	"github.com/dshills/citemark/internal/citeproc"
	"github.com/dshills/citemark/internal/editor"
)

// State is the lifecycle state of a citation span.
type State int

const (
	// Candidate is a span found by the extractor that has not been checked.
	Candidate State = iota
	// Rejected spans failed an eligibility check. Terminal.
	Rejected
	// Pending annotations have a marker installed and a request in flight.
	Pending
	// Resolved annotations show rendered markup.
	Resolved
	// Errored annotations show the error class.
	Errored
	// Cleared annotations have lost their marker; the text is plain again.
	Cleared
)

var stateNames = [...]string{"candidate", "rejected", "pending", "resolved", "errored", "cleared"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Annotation is an installed citation overlay.
type Annotation struct {
	line     int
	from, to int
	request  citeproc.Request

	mark        *editor.Marker
	placeholder *Placeholder
	state       State
	err         error
}

// Line returns the line the annotation was installed on.
func (a *Annotation) Line() int {
	return a.line
}

// Range returns the current range of the annotation. ok is false once it
// has been cleared.
func (a *Annotation) Range() (from, to editor.Pos, ok bool) {
	return a.mark.Find()
}

// Request returns the resolution request sent for the annotation.
func (a *Annotation) Request() citeproc.Request {
	return a.request
}

// Placeholder returns the widget displayed for the annotation.
func (a *Annotation) Placeholder() *Placeholder {
	return a.placeholder
}

// State returns the lifecycle state.
func (a *Annotation) State() State {
	return a.state
}

// Err returns the resolution error of an Errored annotation. It is nil when
// the provider answered that the citation is unknown.
func (a *Annotation) Err() error {
	return a.err
}

// Clear removes the marker, returning the text to plain.
func (a *Annotation) Clear() {
	a.mark.Clear()
}
