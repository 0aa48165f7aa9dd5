package editor

// Widget is displayed in place of the text covered by a marker.
type Widget interface {
	// Content returns the widget's HTML fragment.
	Content() string
	// Mounted is called with the marker when the widget is attached, and
	// with nil when the marker is cleared.
	Mounted(m *Marker)
}

// Clickable is implemented by widgets that handle mouse clicks. x and y
// are the screen cell of the click, y relative to the viewport.
type Clickable interface {
	Click(x, y int)
}

// Classed is implemented by widgets that carry style classes.
type Classed interface {
	Classes() []string
}
