package transit

import (
	"fmt"
	"time"
)

// Vehicle is the normalized record every adapter produces and the entity
// tracker consumes. Exactly one of the agency detail fields is set, matching
// the Agency tag; the tracker treats the details as opaque.
type Vehicle struct {
	Agency     Agency    `json:"agency"`
	LineNumber int       `json:"line_number"`
	Direction  Direction `json:"direction"`
	VehicleRef string    `json:"vehicle_ref"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`

	STM *STMVehicleDetails `json:"stm,omitempty"`
	STL *STLVehicleDetails `json:"stl,omitempty"`
}

// STMVehicleDetails carries the fields the STM positions feed reports for a
// vehicle, merged with the line metadata shared by all vehicles of a response.
type STMVehicleDetails struct {
	AimedArrivalTime         time.Time `json:"aimed_arrival_time"`
	AimedDepartureTime       time.Time `json:"aimed_departure_time"`
	IndexTrace               int       `json:"index_trace"`
	IsAtStop                 bool      `json:"is_at_stop"`
	IsCancelled              bool      `json:"is_cancelled"`
	IsCongestion             bool      `json:"is_congestion"`
	IsLast                   bool      `json:"is_last"`
	IsPlanified              bool      `json:"is_planified"`
	IsRampCancelled          bool      `json:"is_ramp_cancelled"`
	IsReal                   bool      `json:"is_real"`
	JourneyRef               string    `json:"journey_ref"`
	LastStop                 string    `json:"last_stop"`
	NextStop                 string    `json:"next_stop"`
	RecordedAtTime           time.Time `json:"recorded_at_time"`
	SecondAimedArrivalTime   time.Time `json:"second_aimed_arrival_time"`
	SecondAimedDepartureTime time.Time `json:"second_aimed_departure_time"`
	SecondNextStop           string    `json:"second_next_stop"`
	StopIsAccessible         bool      `json:"stop_is_accessible"`
	StopName                 string    `json:"stop_name"`
	Time                     string    `json:"time"`
	Trace                    string    `json:"trace"`
	VehicleAtStop            string    `json:"vehicle_at_stop"`
	VehicleIsAccessible      bool      `json:"vehicle_is_accessible"`

	LineCategory         string `json:"line_category"`
	LineDescription      string `json:"line_description"`
	LineDirectionName    string `json:"line_direction_name"`
	LinePublicIdentifier string `json:"line_public_identifier"`
}

// STLVehicleDetails carries the fields extracted from the STL vehicle feed.
type STLVehicleDetails struct {
	Heading    int       `json:"heading"`
	SpeedKmHr  int       `json:"speed_km_hr"`
	LastUpdate time.Time `json:"last_update"`
}

// ID returns the globally unique vehicle identity key. It is stable across
// polls for as long as the agency's own vehicle reference is stable.
func (v *Vehicle) ID() string {
	return fmt.Sprintf("%s:%s", v.Agency, v.VehicleRef)
}

// HasPosition reports whether both coordinates are present. Records without a
// position are discarded before reaching the entity tracker.
func (v *Vehicle) HasPosition() bool {
	return v.Latitude != 0 && v.Longitude != 0
}

// Title builds the static tooltip text for the vehicle. It is bound once when
// the marker is created and never re-bound.
func (v *Vehicle) Title() string {
	if v.STM != nil {
		return fmt.Sprintf("<strong>%s</strong> %s %s (%s)",
			v.Agency, v.STM.LinePublicIdentifier, v.STM.LineDescription, v.STM.LineDirectionName)
	}
	return fmt.Sprintf("<strong>%s</strong> %d%s", v.Agency, v.LineNumber, v.Direction.QueryCode())
}

// PopupHTML builds the popup content for the vehicle. It is recomputed on
// every update since the underlying fields change between polls.
func (v *Vehicle) PopupHTML() string {
	switch {
	case v.STM != nil:
		return fmt.Sprintf(
			"<p>%s</p><strong>Next stop:</strong> %s"+
				"<br><strong>Aimed arrival time:</strong> %s"+
				"<br><strong>Recorded at:</strong> %s",
			v.Title(), v.STM.StopName,
			localTime(v.STM.AimedArrivalTime), localTime(v.STM.RecordedAtTime))
	case v.STL != nil:
		return fmt.Sprintf(
			"<p>%s</p><strong>Heading:</strong> %d&deg;"+
				"<br><strong>Speed:</strong> %d km/h",
			v.Title(), v.STL.Heading, v.STL.SpeedKmHr)
	}
	return fmt.Sprintf("<p>%s</p>", v.Title())
}

func localTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("15:04:05")
}
