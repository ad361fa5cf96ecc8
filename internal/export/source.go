package export

// Snapshot is one encoded frame of a render source.
type Snapshot struct {
	Width  int
	Height int
	// Data is the encoded frame, normally PNG.
	Data []byte
}

// RenderSource is the map engine the controller captures from.
type RenderSource interface {
	// OnceIdle returns a future that resolves the next time the source has
	// finished drawing and has no repaint queued. Each call subscribes anew.
	OnceIdle() *Future[struct{}]
	// TriggerRepaint asks the source to draw another frame.
	TriggerRepaint()
	// Snapshot returns the most recently completed frame.
	Snapshot() (Snapshot, error)
}
