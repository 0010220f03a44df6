package monitor

import (
	"sync"
	"time"

	"github.com/philsawicki/public-transit-live-map/business/data/transit"
)

// TrackerPolicy controls the resource behavior of the entity store. The zero
// value preserves the historical behavior of the system: trails grow without
// bound and entities are never removed, so vehicles that stop reporting
// freeze in place instead of disappearing.
type TrackerPolicy struct {
	// MaxTrailPoints caps the number of points kept per trail. 0 means
	// unbounded.
	MaxTrailPoints int
	// ExpireAfter removes entities not reconciled within the window when the
	// expiry sweep runs. 0 means entities live for the process lifetime.
	ExpireAfter time.Duration
}

// mapEntity is the tracker's book-keeping for one live vehicle: one marker
// and one trail on the surface, keyed by the vehicle id.
type mapEntity struct {
	lastLat     float64
	lastLon     float64
	trailPoints int
	lastSeen    time.Time
}

// EntityTracker owns the keyed store of live map entities and applies
// create-or-update semantics per normalized vehicle record. Reconcile is safe
// to call from concurrently resolving fetches; reconciliations for different
// vehicle ids commute, repeated reconciliations of the same id are last
// writer wins.
type EntityTracker struct {
	surface MapSurface
	policy  TrackerPolicy

	mu       sync.Mutex
	entities map[string]*mapEntity

	now func() time.Time
}

// MakeEntityTracker creates an EntityTracker drawing on surface.
func MakeEntityTracker(surface MapSurface, policy TrackerPolicy) *EntityTracker {
	return &EntityTracker{
		surface:  surface,
		policy:   policy,
		entities: make(map[string]*mapEntity),
		now:      time.Now,
	}
}

// Reconcile applies one normalized vehicle record to the entity store. The
// first sighting of an id creates a marker and a single point trail; every
// later sighting moves the marker, replaces its popup and appends to the
// trail. Records without a position are ignored.
func (t *EntityTracker) Reconcile(vehicle *transit.Vehicle) {
	if !vehicle.HasPosition() {
		return
	}
	id := vehicle.ID()

	t.mu.Lock()
	defer t.mu.Unlock()

	entity, exists := t.entities[id]
	if !exists {
		color := vehicle.Agency.Color()
		t.surface.AddMarker(id, vehicle.Latitude, vehicle.Longitude, color,
			vehicle.Title(), vehicle.PopupHTML())
		t.surface.AddTrail(id, vehicle.Latitude, vehicle.Longitude, color)
		t.entities[id] = &mapEntity{
			lastLat:     vehicle.Latitude,
			lastLon:     vehicle.Longitude,
			trailPoints: 1,
			lastSeen:    t.now(),
		}
		return
	}

	t.surface.MoveMarker(id, vehicle.Latitude, vehicle.Longitude)
	t.surface.SetMarkerPopup(id, vehicle.PopupHTML())
	t.surface.ExtendTrail(id, vehicle.Latitude, vehicle.Longitude)
	entity.lastLat = vehicle.Latitude
	entity.lastLon = vehicle.Longitude
	entity.trailPoints++
	entity.lastSeen = t.now()

	if t.policy.MaxTrailPoints > 0 && entity.trailPoints > t.policy.MaxTrailPoints {
		t.surface.TrimTrail(id, t.policy.MaxTrailPoints)
		entity.trailPoints = t.policy.MaxTrailPoints
	}
}

// EntityCount returns the number of live entities.
func (t *EntityTracker) EntityCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entities)
}

// ExpireStale removes entities not reconciled since now minus the expiry
// window and returns the removed and remaining counts. A zero ExpireAfter
// policy makes this a no-op.
func (t *EntityTracker) ExpireStale(now time.Time) (removed int, remaining int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.policy.ExpireAfter <= 0 {
		return 0, len(t.entities)
	}
	cutoff := now.Add(-t.policy.ExpireAfter)
	for id, entity := range t.entities {
		if entity.lastSeen.Before(cutoff) {
			t.surface.RemoveEntity(id)
			delete(t.entities, id)
			removed++
		}
	}
	return removed, len(t.entities)
}
