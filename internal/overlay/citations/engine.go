package citations

import (
	"strings"

	"github.com/dshills/citemark/internal/citation"
	"github.com/dshills/citemark/internal/citeproc"
	"github.com/dshills/citemark/internal/editor"
	"github.com/dshills/citemark/internal/logging"
)

// Host is the editor the engine annotates. *editor.Document implements it.
type Host interface {
	Viewport() (from, to int)
	Line(n int) string
	ModeAt(p editor.Pos) string
	TokenTypeAt(p editor.Pos) string
	Cursor() editor.Pos
	SetCursor(p editor.Pos)
	CoordsChar(x, y int) editor.Pos
	Focus()
	FindMarks(from, to editor.Pos) []*editor.Marker
	MarkText(from, to editor.Pos, opts editor.MarkOptions) (*editor.Marker, error)
	Refresh()
}

// Notifier delivers the host events that trigger a scan.
type Notifier interface {
	OnChange(fn func(editor.Change))
	OnCursorActivity(fn func())
	OnViewportChange(fn func(from, to int))
}

// Extractor finds citations in one line.
type Extractor func(line string) ([]citation.Match, error)

// Config configures an Engine.
type Config struct {
	// Zone is the mode name of lines that may hold citations.
	Zone string
	// Class is carried by every placeholder.
	Class string
	// ErrorClass is added to placeholders whose citation failed to resolve.
	ErrorClass string
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Zone:       editor.DefaultZone,
		Class:      "citeproc-citation",
		ErrorClass: "error",
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the engine configuration. Empty fields keep their
// defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		if cfg.Zone != "" {
			e.cfg.Zone = cfg.Zone
		}
		if cfg.Class != "" {
			e.cfg.Class = cfg.Class
		}
		if cfg.ErrorClass != "" {
			e.cfg.ErrorClass = cfg.ErrorClass
		}
	}
}

// WithExtractor replaces citation.Extract.
func WithExtractor(fn Extractor) Option {
	return func(e *Engine) {
		e.extract = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithScanHook calls fn with the report of every scan.
func WithScanHook(fn func(ScanReport)) Option {
	return func(e *Engine) {
		e.onScan = fn
	}
}

// Engine installs citation annotations on a host.
type Engine struct {
	host     Host
	resolver Resolver
	extract  Extractor
	cfg      Config
	logger   *logging.Logger
	onScan   func(ScanReport)

	annotations []*Annotation
}

// New creates an engine.
func New(host Host, resolver Resolver, opts ...Option) *Engine {
	e := &Engine{
		host:     host,
		resolver: resolver,
		extract:  citation.Extract,
		cfg:      DefaultConfig(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithComponent("citations")
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Subscribe rescans the viewport on every change, cursor move and scroll
// reported by n.
func (e *Engine) Subscribe(n Notifier) {
	n.OnChange(func(editor.Change) { e.RenderVisible() })
	n.OnCursorActivity(func() { e.RenderVisible() })
	n.OnViewportChange(func(int, int) { e.RenderVisible() })
}

// RenderVisible scans the viewport and annotates every eligible citation.
func (e *Engine) RenderVisible() ScanReport {
	e.prune()
	from, to := e.host.Viewport()
	r := ScanReport{Rejected: make(map[Guard]int)}
	for i := from; i < to; i++ {
		e.scanLine(i, &r)
	}
	if r.Installed > 0 || r.LineErrors > 0 {
		e.logger.Debug("scanned lines %d-%d: %s", from, to, r)
	}
	if e.onScan != nil {
		e.onScan(r)
	}
	return r
}

func (e *Engine) scanLine(i int, r *ScanReport) {
	defer func() {
		if v := recover(); v != nil {
			r.LineErrors++
			e.logger.WithField("line", i).Warn("scan panic: %v", v)
		}
	}()

	if e.host.ModeAt(editor.Pos{Line: i}) != e.cfg.Zone {
		r.OutsideZone++
		return
	}
	r.Lines++

	text := e.host.Line(i)
	matches, err := e.extract(text)
	if err != nil {
		r.LineErrors++
		e.logger.WithField("line", i).Debug("extract: %v", err)
		return
	}
	for _, m := range matches {
		if len(m.Items) == 0 {
			continue
		}
		r.Candidates++
		if g, ok := e.check(i, text, m); !ok {
			r.Rejected[g]++
			continue
		}
		if e.install(i, text, m) {
			r.Installed++
		} else {
			r.Rejected[GuardMarked]++
		}
	}
}

// check runs the eligibility guards in order and returns the first that
// fails.
func (e *Engine) check(i int, text string, m citation.Match) (Guard, bool) {
	from := editor.Pos{Line: i, Ch: m.From}
	to := editor.Pos{Line: i, Ch: m.To}

	if cur := e.host.Cursor(); cur.Line == i && cur.Ch >= m.From && cur.Ch <= m.To {
		return GuardCursor, false
	}
	if len(e.host.FindMarks(from, to)) > 0 {
		return GuardMarked, false
	}
	if isComment(e.host.TokenTypeAt(from)) || isComment(e.host.TokenTypeAt(to)) {
		return GuardComment, false
	}
	if wikiLinked(text, m.From, m.To) {
		return GuardBracket, false
	}
	return "", true
}

func isComment(tokenType string) bool {
	return strings.Contains(tokenType, "comment")
}

// wikiLinked reports whether [from, to) sits inside "[[" and "]]", either
// just outside the span or sharing its outer brackets.
func wikiLinked(text string, from, to int) bool {
	if from >= 2 && to+2 <= len(text) && text[from-2:from] == "[[" && text[to:to+2] == "]]" {
		return true
	}
	return from >= 1 && to >= 1 && to+1 <= len(text) &&
		text[from-1:from+1] == "[[" && text[to-1:to+1] == "]]"
}

func (e *Engine) install(i int, text string, m citation.Match) bool {
	req := citeproc.RequestFromMatch(m)
	ph := newPlaceholder(text[m.From:m.To], req.Keys, e.cfg.Class)
	a := &Annotation{
		line:        i,
		from:        m.From,
		to:          m.To,
		request:     req,
		placeholder: ph,
		state:       Pending,
	}
	ph.onClick = e.activate
	ph.onClear = func(*Placeholder) { a.state = Cleared }

	mark, err := e.host.MarkText(editor.Pos{Line: i, Ch: m.From}, editor.Pos{Line: i, Ch: m.To}, editor.MarkOptions{
		ClearOnEnter: true,
		ReplacedWith: ph,
	})
	if err != nil {
		e.logger.WithField("line", i).Debug("mark %s: %v", ph.Attr(AttrCiteKeys), err)
		return false
	}
	a.mark = mark
	e.annotations = append(e.annotations, a)

	e.resolver.Resolve(req, func(o Outcome) { e.complete(a, o) })
	return true
}

// complete applies a resolution outcome. Outcomes for annotations that are
// no longer pending and attached are dropped.
func (e *Engine) complete(a *Annotation, o Outcome) {
	if a.state != Pending || !a.placeholder.Attached() {
		return
	}
	if o.Err == nil && o.Found {
		a.placeholder.setContent(o.Content)
		a.state = Resolved
		a.mark.Changed()
		e.host.Refresh()
		return
	}

	a.placeholder.addClass(e.cfg.ErrorClass)
	a.state = Errored
	a.err = o.Err
	a.mark.Changed()
	if o.Err != nil {
		e.logger.WithField("keys", a.placeholder.Attr(AttrCiteKeys)).Debug("resolve: %v", o.Err)
	}
}

// activate turns a clicked placeholder back into text and puts the cursor
// where the user clicked.
func (e *Engine) activate(p *Placeholder, x, y int) {
	if p.mark != nil {
		p.mark.Clear()
	}
	e.host.SetCursor(e.host.CoordsChar(x, y))
	e.host.Focus()
}

func (e *Engine) prune() {
	live := e.annotations[:0]
	for _, a := range e.annotations {
		if a.state != Cleared {
			live = append(live, a)
		}
	}
	clear(e.annotations[len(live):])
	e.annotations = live
}

// Annotations returns the installed annotations in installation order.
func (e *Engine) Annotations() []*Annotation {
	e.prune()
	return append([]*Annotation(nil), e.annotations...)
}

// Count returns the number of installed annotations in state s.
func (e *Engine) Count(s State) int {
	n := 0
	for _, a := range e.annotations {
		if a.state == s {
			n++
		}
	}
	return n
}

// ClearErrored clears every errored annotation so the next scan requests
// it again. It returns the number cleared.
func (e *Engine) ClearErrored() int {
	n := 0
	for _, a := range e.Annotations() {
		if a.state == Errored {
			a.Clear()
			n++
		}
	}
	return n
}

// ClearAll clears every annotation.
func (e *Engine) ClearAll() {
	for _, a := range e.Annotations() {
		a.Clear()
	}
	e.annotations = nil
}
