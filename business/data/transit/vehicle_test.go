package transit

import (
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestVehicleID(t *testing.T) {
	is := is.New(t)

	stm := Vehicle{Agency: AgencySTM, VehicleRef: "30001"}
	is.Equal(stm.ID(), "STM:30001")

	stl := Vehicle{Agency: AgencySTL, VehicleRef: "8042"}
	is.Equal(stl.ID(), "STL:8042")
}

func TestVehicleHasPosition(t *testing.T) {
	tests := []struct {
		name string
		give Vehicle
		want bool
	}{
		{name: "both coordinates", give: Vehicle{Latitude: 45.5, Longitude: -73.6}, want: true},
		{name: "missing longitude", give: Vehicle{Latitude: 45.5}, want: false},
		{name: "missing latitude", give: Vehicle{Longitude: -73.6}, want: false},
		{name: "no coordinates", give: Vehicle{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.give.HasPosition(); got != tt.want {
				t.Errorf("HasPosition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSTMVehicleTitleAndPopup(t *testing.T) {
	is := is.New(t)

	vehicle := Vehicle{
		Agency:     AgencySTM,
		LineNumber: 10,
		Direction:  North,
		VehicleRef: "30001",
		Latitude:   45.5,
		Longitude:  -73.6,
		STM: &STMVehicleDetails{
			StopName:             "Station Henri-Bourassa",
			AimedArrivalTime:     time.Date(2018, 8, 6, 15, 30, 0, 0, time.Local),
			RecordedAtTime:       time.Date(2018, 8, 6, 15, 29, 40, 0, time.Local),
			LineDescription:      "De Lorimier",
			LineDirectionName:    "Nord",
			LinePublicIdentifier: "10",
		},
	}

	title := vehicle.Title()
	is.Equal(title, "<strong>STM</strong> 10 De Lorimier (Nord)")

	popup := vehicle.PopupHTML()
	is.True(strings.Contains(popup, title))
	is.True(strings.Contains(popup, "Station Henri-Bourassa"))
	is.True(strings.Contains(popup, "15:30:00"))
	is.True(strings.Contains(popup, "15:29:40"))
}

func TestSTLVehicleTitleAndPopup(t *testing.T) {
	is := is.New(t)

	vehicle := Vehicle{
		Agency:     AgencySTL,
		LineNumber: 2,
		Direction:  West,
		VehicleRef: "8042",
		Latitude:   45.6,
		Longitude:  -73.7,
		STL: &STLVehicleDetails{
			Heading:   135,
			SpeedKmHr: 32,
		},
	}

	// The STL title uses the agency's own route naming, so West shows as "O".
	is.Equal(vehicle.Title(), "<strong>STL</strong> 2O")

	popup := vehicle.PopupHTML()
	is.True(strings.Contains(popup, "135&deg;"))
	is.True(strings.Contains(popup, "32 km/h"))
}

func TestPopupNotCachedBetweenUpdates(t *testing.T) {
	is := is.New(t)

	vehicle := Vehicle{
		Agency:     AgencySTL,
		LineNumber: 2,
		Direction:  East,
		VehicleRef: "8042",
		STL:        &STLVehicleDetails{SpeedKmHr: 10},
	}
	before := vehicle.PopupHTML()
	vehicle.STL.SpeedKmHr = 55
	after := vehicle.PopupHTML()
	is.True(before != after)
	is.True(strings.Contains(after, "55 km/h"))
}
