// Package taskitems marks completed Markdown task list items, such as
// "- [x] write tests", with a line class.
package taskitems

import (
	"regexp"

	"github.com/dshills/citemark/internal/editor"
	"github.com/dshills/citemark/internal/logging"
)

// DefaultClass is the wrap class given to completed task lines.
const DefaultClass = "task-item-done"

var doneRE = regexp.MustCompile(`(?i)^\s*([-+*]|\d+[.)])\s\[x\]\s`)

// IsDone reports whether line is a checked task list item.
func IsDone(line string) bool {
	return doneRE.MatchString(line)
}

// Host is the editor the annotator decorates. *editor.Document implements
// it.
type Host interface {
	LineCount() int
	Line(n int) string
	HasLineClass(n int, where, class string) bool
	AddLineClass(n int, where, class string) bool
	RemoveLineClass(n int, where, class string) bool
	Refresh()
}

// Notifier delivers the host events that trigger an update.
type Notifier interface {
	OnChange(fn func(editor.Change))
	OnCursorActivity(fn func())
}

// Annotator keeps the done class in step with the document text.
type Annotator struct {
	host   Host
	class  string
	logger *logging.Logger
}

// New creates an annotator. An empty class selects DefaultClass.
func New(host Host, class string, logger *logging.Logger) *Annotator {
	if class == "" {
		class = DefaultClass
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Annotator{host: host, class: class, logger: logger.WithComponent("taskitems")}
}

// Class returns the line class the annotator applies.
func (a *Annotator) Class() string {
	return a.class
}

// Subscribe updates the document on every change and cursor move.
func (a *Annotator) Subscribe(n Notifier) {
	n.OnChange(func(editor.Change) { a.Apply() })
	n.OnCursorActivity(func() { a.Apply() })
}

// Apply adds the class to every done line and removes it from every other
// line. It refreshes the host once if any line changed, and returns the
// number of lines changed.
func (a *Annotator) Apply() int {
	changed := 0
	for i := 0; i < a.host.LineCount(); i++ {
		done := IsDone(a.host.Line(i))
		if done == a.host.HasLineClass(i, editor.WhereWrap, a.class) {
			continue
		}
		if done {
			a.host.AddLineClass(i, editor.WhereWrap, a.class)
		} else {
			a.host.RemoveLineClass(i, editor.WhereWrap, a.class)
		}
		changed++
	}
	if changed > 0 {
		a.logger.Debug("updated %d lines", changed)
		a.host.Refresh()
	}
	return changed
}
