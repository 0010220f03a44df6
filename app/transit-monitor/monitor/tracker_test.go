package monitor

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/philsawicki/public-transit-live-map/business/data/transit"
)

// fakeSurface records the rendering operations the tracker issues so tests
// can assert on the resulting display state.
type fakeSurface struct {
	mu       sync.Mutex
	markers  map[string]fakeMarker
	trails   map[string][][2]float64
	removed  []string
	popupSet map[string]int
}

type fakeMarker struct {
	lat     float64
	lon     float64
	color   string
	tooltip string
	popup   string
}

func makeFakeSurface() *fakeSurface {
	return &fakeSurface{
		markers:  make(map[string]fakeMarker),
		trails:   make(map[string][][2]float64),
		popupSet: make(map[string]int),
	}
}

func (f *fakeSurface) AddMarker(id string, lat, lon float64, color, tooltip, popup string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers[id] = fakeMarker{lat: lat, lon: lon, color: color, tooltip: tooltip, popup: popup}
}

func (f *fakeSurface) MoveMarker(id string, lat, lon float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	marker := f.markers[id]
	marker.lat, marker.lon = lat, lon
	f.markers[id] = marker
}

func (f *fakeSurface) SetMarkerPopup(id string, popup string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	marker := f.markers[id]
	marker.popup = popup
	f.markers[id] = marker
	f.popupSet[id]++
}

func (f *fakeSurface) AddTrail(id string, lat, lon float64, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trails[id] = [][2]float64{{lat, lon}}
}

func (f *fakeSurface) ExtendTrail(id string, lat, lon float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trails[id] = append(f.trails[id], [2]float64{lat, lon})
}

func (f *fakeSurface) TrimTrail(id string, keep int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trail := f.trails[id]
	if len(trail) > keep {
		f.trails[id] = trail[len(trail)-keep:]
	}
}

func (f *fakeSurface) RemoveEntity(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.markers, id)
	delete(f.trails, id)
	f.removed = append(f.removed, id)
}

func makeSTLTestVehicle(ref string, lat, lon float64) transit.Vehicle {
	return transit.Vehicle{
		Agency:     transit.AgencySTL,
		LineNumber: 2,
		Direction:  transit.West,
		VehicleRef: ref,
		Latitude:   lat,
		Longitude:  lon,
		STL:        &transit.STLVehicleDetails{Heading: 90, SpeedKmHr: 20},
	}
}

func TestReconcileCreateThenUpdate(t *testing.T) {
	is := is.New(t)

	surface := makeFakeSurface()
	tracker := MakeEntityTracker(surface, TrackerPolicy{})

	first := makeSTLTestVehicle("8042", 45.10, -73.10)
	second := makeSTLTestVehicle("8042", 45.20, -73.20)

	tracker.Reconcile(&first)
	tracker.Reconcile(&second)

	// One entity: the marker sits at the second position, the trail holds
	// both positions in arrival order.
	is.Equal(tracker.EntityCount(), 1)
	marker := surface.markers["STL:8042"]
	is.Equal(marker.lat, 45.20)
	is.Equal(marker.lon, -73.20)
	is.Equal(surface.trails["STL:8042"], [][2]float64{{45.10, -73.10}, {45.20, -73.20}})

	// The popup is replaced on update; the tooltip was bound once.
	is.Equal(surface.popupSet["STL:8042"], 1)
	is.True(marker.tooltip != "")
}

func TestReconcileDistinctIDs(t *testing.T) {
	is := is.New(t)

	surface := makeFakeSurface()
	tracker := MakeEntityTracker(surface, TrackerPolicy{})

	a := makeSTLTestVehicle("1", 45.1, -73.1)
	b := makeSTLTestVehicle("2", 45.2, -73.2)

	// Arrival order must not affect the final count.
	tracker.Reconcile(&b)
	tracker.Reconcile(&a)

	is.Equal(tracker.EntityCount(), 2)
	is.Equal(len(surface.markers), 2)
	is.Equal(len(surface.trails), 2)
}

func TestReconcileIgnoresPositionlessRecords(t *testing.T) {
	is := is.New(t)

	surface := makeFakeSurface()
	tracker := MakeEntityTracker(surface, TrackerPolicy{})

	vehicle := makeSTLTestVehicle("8042", 0, 0)
	tracker.Reconcile(&vehicle)

	is.Equal(tracker.EntityCount(), 0)
	is.Equal(len(surface.markers), 0)
}

func TestReconcileTrailCap(t *testing.T) {
	is := is.New(t)

	surface := makeFakeSurface()
	tracker := MakeEntityTracker(surface, TrackerPolicy{MaxTrailPoints: 3})

	for i := 0; i < 5; i++ {
		vehicle := makeSTLTestVehicle("8042", 45.0+float64(i), -73.0)
		tracker.Reconcile(&vehicle)
	}

	trail := surface.trails["STL:8042"]
	is.Equal(len(trail), 3)
	// Oldest points were dropped.
	is.Equal(trail[0][0], 47.0)
	is.Equal(trail[2][0], 49.0)
}

func TestReconcileUnboundedTrailByDefault(t *testing.T) {
	is := is.New(t)

	surface := makeFakeSurface()
	tracker := MakeEntityTracker(surface, TrackerPolicy{})

	for i := 0; i < 50; i++ {
		vehicle := makeSTLTestVehicle("8042", 45.0+float64(i)/100, -73.0)
		tracker.Reconcile(&vehicle)
	}
	is.Equal(len(surface.trails["STL:8042"]), 50)
}

func TestExpireStale(t *testing.T) {
	is := is.New(t)

	surface := makeFakeSurface()
	tracker := MakeEntityTracker(surface, TrackerPolicy{ExpireAfter: time.Minute})

	base := time.Date(2018, 8, 6, 15, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return base }

	stale := makeSTLTestVehicle("old", 45.1, -73.1)
	tracker.Reconcile(&stale)

	tracker.now = func() time.Time { return base.Add(50 * time.Second) }
	fresh := makeSTLTestVehicle("new", 45.2, -73.2)
	tracker.Reconcile(&fresh)

	removed, remaining := tracker.ExpireStale(base.Add(90 * time.Second))
	is.Equal(removed, 1)
	is.Equal(remaining, 1)
	is.Equal(surface.removed, []string{"STL:old"})

	_, stillTracked := surface.markers["STL:new"]
	is.True(stillTracked)
}

func TestExpireStaleDisabledByDefault(t *testing.T) {
	is := is.New(t)

	surface := makeFakeSurface()
	tracker := MakeEntityTracker(surface, TrackerPolicy{})

	vehicle := makeSTLTestVehicle("8042", 45.1, -73.1)
	tracker.Reconcile(&vehicle)

	// Entities are never removed unless an expiry window is configured.
	removed, remaining := tracker.ExpireStale(time.Now().Add(24 * time.Hour))
	is.Equal(removed, 0)
	is.Equal(remaining, 1)
}

func TestReconcileConcurrentDistinctIDs(t *testing.T) {
	is := is.New(t)

	surface := makeFakeSurface()
	tracker := MakeEntityTracker(surface, TrackerPolicy{})

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			vehicle := makeSTLTestVehicle(fmt.Sprintf("bus-%d", n), 45.0+float64(n)/100, -73.0)
			tracker.Reconcile(&vehicle)
		}(i)
	}
	wg.Wait()

	is.Equal(tracker.EntityCount(), 40)
}
