package transit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matryer/is"
)

const stlMapPageFixture = `<html><head><script>
	var keyForNextTime="1533515051842";
	</script></head><body>map page</body></html>`

const stlVehicleFeedFixture = `<?xml version="1.0" encoding="utf-8" ?>
<body copyright="All data copyright STL 2018.">
	<vehicle id="8042" routeTag="2O" dirTag="2O_O" lat="45.5995" lon="-73.7830"
		secsSinceReport="9" predictable="true" heading="135" speedKmHr="32"/>
	<vehicle id="8055" routeTag="2O" dirTag="2O_O" lat="45.6102" lon="-73.7455"
		secsSinceReport="14" predictable="true" heading="90"/>
	<vehicle routeTag="2O" lat="45.0" lon="-73.0"/>
	<lastTime time="1533515051842"/>
</body>`

// makeSTLFixtureServer serves the two-stage upstream: the map page carrying
// the session token, then the vehicle feed that requires it.
func makeSTLFixtureServer(t *testing.T, mapPage string, feed string) *httptest.Server {
	t.Helper()
	handler := http.NewServeMux()
	handler.HandleFunc("/googleMap/customGoogleMap.jsp", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("r") == "" {
			t.Errorf("map page request missing route parameter")
		}
		_, _ = w.Write([]byte(mapPage))
	})
	handler.HandleFunc("/service/googleMapXMLFeed", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "1533515051842" {
			t.Errorf("feed request carried key %q, want the scraped token", r.URL.Query().Get("key"))
		}
		if r.URL.Query().Get("command") != "vehicleLocations" {
			t.Errorf("feed request carried command %q", r.URL.Query().Get("command"))
		}
		_, _ = w.Write([]byte(feed))
	})
	return httptest.NewServer(handler)
}

func TestSTLFetchLine(t *testing.T) {
	is := is.New(t)

	server := makeSTLFixtureServer(t, stlMapPageFixture, stlVehicleFeedFixture)
	defer server.Close()

	client := MakeSTLClient(server.URL, time.Second)
	vehicles, err := client.FetchLine(context.Background(), 2, West)
	is.NoErr(err)

	// The structured parse returns every vehicle element with an id, not
	// just the first; the element without an id is excluded.
	is.Equal(len(vehicles), 2)

	first := vehicles[0]
	is.Equal(first.Agency, AgencySTL)
	is.Equal(first.VehicleRef, "8042")
	is.Equal(first.LineNumber, 2)
	is.Equal(first.Direction, West)
	is.Equal(first.Latitude, 45.5995)
	is.Equal(first.Longitude, -73.7830)
	is.True(first.STL != nil)
	is.Equal(first.STL.Heading, 135)
	is.Equal(first.STL.SpeedKmHr, 32)
	is.Equal(first.STL.LastUpdate, time.UnixMilli(1533515051842))

	// Partial records are valid: the second vehicle has no speed attribute.
	second := vehicles[1]
	is.Equal(second.VehicleRef, "8055")
	is.Equal(second.STL.Heading, 90)
	is.Equal(second.STL.SpeedKmHr, 0)
}

func TestSTLFetchLineTokenNotFound(t *testing.T) {
	is := is.New(t)

	server := makeSTLFixtureServer(t, `<html><body>no token here</body></html>`, stlVehicleFeedFixture)
	defer server.Close()

	client := MakeSTLClient(server.URL, time.Second)

	// A page without the token pattern must fail promptly with a
	// descriptive error instead of hanging.
	done := make(chan error, 1)
	go func() {
		_, err := client.FetchLine(context.Background(), 2, West)
		done <- err
	}()
	select {
	case err := <-done:
		is.True(errors.Is(err, ErrTokenNotFound))
	case <-time.After(5 * time.Second):
		t.Fatal("FetchLine still pending after 5s with no token in the map page")
	}
}

func TestSTLFetchLineMalformedFeed(t *testing.T) {
	is := is.New(t)

	server := makeSTLFixtureServer(t, stlMapPageFixture, `{"not": "xml"}`)
	defer server.Close()

	client := MakeSTLClient(server.URL, time.Second)
	_, err := client.FetchLine(context.Background(), 2, West)
	is.True(err != nil)
}

func TestSTLFetchLineRouteCode(t *testing.T) {
	is := is.New(t)

	var gotRoute string
	handler := http.NewServeMux()
	handler.HandleFunc("/googleMap/customGoogleMap.jsp", func(w http.ResponseWriter, r *http.Request) {
		gotRoute = r.URL.Query().Get("r")
		_, _ = w.Write([]byte(stlMapPageFixture))
	})
	handler.HandleFunc("/service/googleMapXMLFeed", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<body><lastTime time="0"/></body>`))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	client := MakeSTLClient(server.URL, time.Second)
	_, err := client.FetchLine(context.Background(), 42, West)
	is.NoErr(err)

	// Routes are addressed with the French direction letter.
	is.Equal(gotRoute, "42O")
}
