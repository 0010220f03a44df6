package monitor

// MapSurface is the rendering abstraction the entity tracker draws on. It is
// the outbound seam to whatever mapping layer is in use: the production
// implementation broadcasts operations to browser map clients over websocket,
// tests substitute a recording fake.
//
// Marker tooltips are bound once at creation and never re-bound; popup content
// is replaced on every update.
type MapSurface interface {
	// AddMarker places a new marker with an agency colored icon, a static
	// tooltip and initial popup content.
	AddMarker(id string, lat float64, lon float64, color string, tooltip string, popup string)
	// MoveMarker moves an existing marker to new coordinates.
	MoveMarker(id string, lat float64, lon float64)
	// SetMarkerPopup replaces the popup content of an existing marker.
	SetMarkerPopup(id string, popup string)
	// AddTrail starts a trail for the entity with a single point.
	AddTrail(id string, lat float64, lon float64, color string)
	// ExtendTrail appends a point to an existing trail.
	ExtendTrail(id string, lat float64, lon float64)
	// TrimTrail drops the oldest trail points so at most keep remain.
	TrimTrail(id string, keep int)
	// RemoveEntity removes the marker and trail for the entity.
	RemoveEntity(id string)
}
