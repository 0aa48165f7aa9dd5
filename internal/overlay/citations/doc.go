// Package citations renders Pandoc citations in the visible part of a
// document as inline widgets.
//
// On every scan the engine walks the viewport, extracts citations from each
// line in the Markdown zone and installs a marker for each eligible one. The
// marker replaces the citation text with a Placeholder, which shows the raw
// text until the resolver answers with rendered markup, or shows it with an
// error class if the citation cannot be resolved.
//
// A citation is eligible unless, checked in this order:
//
//   - the cursor is on it, boundaries included;
//   - a marker already covers it;
//   - either boundary is inside a comment;
//   - it is wrapped in a wiki link, as in "[[@doe2020]]".
//
// Markers clear when the cursor enters them or their text is edited, which
// returns the text to plain so it can be edited. A later scan picks it up
// again. A resolution that arrives after its marker was cleared is
// discarded without effect.
//
// The engine is not safe for concurrent use. It must be driven from the
// goroutine that owns the host, and its Resolver must deliver outcomes on
// that goroutine.
package citations
