// Package editor implements an in-memory text document with the services
// the overlay engines need from a host editor: line and viewport access,
// mode and token classification, a cursor, text markers that track edits,
// replacement widgets, line classes and a screen layout.
//
// A Document is not safe for concurrent use. It is driven from a single
// event loop; asynchronous work reaches it only through callbacks posted
// to that loop.
//
// Columns are byte offsets within a line.
package editor
