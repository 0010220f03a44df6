package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/philsawicki/public-transit-live-map/foundation/httpclient"
)

// DefaultSTMBaseURL is the root of the STM i3 positions API.
const DefaultSTMBaseURL = "https://api.stm.info/pub/i3/v1c/api/fr"

// stmOrigin must accompany every request; the upstream rejects requests
// without it.
const stmOrigin = "http://beta.stm.info"

// STMClient fetches vehicle positions from the STM JSON REST API.
type STMClient struct {
	client  *httpclient.Client
	baseURL string
}

// MakeSTMClient creates an STMClient. An empty baseURL selects the production
// endpoint.
func MakeSTMClient(baseURL string, timeout time.Duration) *STMClient {
	if baseURL == "" {
		baseURL = DefaultSTMBaseURL
	}
	headers := http.Header{}
	headers.Set("Connection", "keep-alive")
	headers.Set("Origin", stmOrigin)
	return &STMClient{
		client:  httpclient.MakeClient(timeout, headers),
		baseURL: baseURL,
	}
}

// Agency implements the agency fetcher contract.
func (c *STMClient) Agency() Agency {
	return AgencySTM
}

// stmPositionsResponse is the upstream payload: vehicle entries keyed by
// vehicle reference under "result", plus a sibling "line" object shared by all
// vehicles of the response.
type stmPositionsResponse struct {
	Error        bool                      `json:"error"`
	ErrorMessage string                    `json:"errorMessage"`
	Result       map[string]stmResultEntry `json:"result"`
	Line         stmLineInfo               `json:"line"`
}

type stmResultEntry struct {
	AimedArrivalTime         string `json:"aimed_arrival_time"`
	AimedDepartureTime       string `json:"aimed_departure_time"`
	IndexTrace               int    `json:"index_trace"`
	IsAtStop                 bool   `json:"is_at_stop"`
	IsCancelled              bool   `json:"is_cancelled"`
	IsCongestion             bool   `json:"is_congestion"`
	IsLast                   bool   `json:"is_last"`
	IsPlanified              bool   `json:"is_planified"`
	IsRampCancelled          bool   `json:"is_ramp_cancelled"`
	IsReal                   bool   `json:"is_real"`
	JourneyRef               string `json:"journeyRef"`
	LastStop                 string `json:"last_stop"`
	NextStop                 string `json:"next_stop"`
	RecordedAtTime           string `json:"recorded_at_time"`
	SecondAimedArrivalTime   string `json:"second_aimed_arrival_time"`
	SecondAimedDepartureTime string `json:"second_aimed_departure_time"`
	SecondNextStop           string `json:"second_next_stop"`
	StopIsAccessible         bool   `json:"stop_is_accessible"`
	StopName                 string `json:"stop_name"`
	Time                     string `json:"time"`
	Trace                    string `json:"trace"`
	VehicleAtStop            string `json:"vehicle_at_stop"`
	VehicleIsAccessible      bool   `json:"vehicle_is_accessible"`
	VehicleLat               string `json:"vehicle_lat"`
	VehicleLon               string `json:"vehicle_lon"`
	VehicleRef               string `json:"vehicle_ref"`
}

type stmLineInfo struct {
	Category         string `json:"category"`
	Description      string `json:"description"`
	DirectionName    string `json:"direction_name"`
	PublicIdentifier string `json:"public_identifier"`
}

// FetchLine retrieves the positions of every vehicle currently reported on
// the given line and direction. An upstream-reported error yields an empty
// list and no error: "no vehicles this tick" is a normal outcome, distinct
// from a transport or parse failure.
func (c *STMClient) FetchLine(ctx context.Context, lineNumber int, direction Direction) ([]Vehicle, error) {
	url := fmt.Sprintf("%s/lines/%d/positions/?direction=%s&wheelchair=0&o=web&_=%d",
		c.baseURL, lineNumber, direction.QueryCode(), time.Now().UnixMilli())

	body, err := c.client.Get(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching STM positions for line %d%s: %w",
			lineNumber, direction.QueryCode(), err)
	}

	var payload stmPositionsResponse
	if err = json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing STM positions for line %d%s: %w",
			lineNumber, direction.QueryCode(), err)
	}
	if payload.Error {
		return nil, nil
	}

	var vehicles []Vehicle
	for _, entry := range payload.Result {
		if entry.VehicleRef == "" {
			continue
		}
		vehicles = append(vehicles, makeSTMVehicle(lineNumber, direction, entry, payload.Line))
	}
	return vehicles, nil
}

// makeSTMVehicle builds a normalized Vehicle from one result entry merged with
// the line metadata shared by the response.
func makeSTMVehicle(lineNumber int, direction Direction, entry stmResultEntry, line stmLineInfo) Vehicle {
	return Vehicle{
		Agency:     AgencySTM,
		LineNumber: lineNumber,
		Direction:  direction,
		VehicleRef: entry.VehicleRef,
		Latitude:   lenientFloat(entry.VehicleLat),
		Longitude:  lenientFloat(entry.VehicleLon),
		STM: &STMVehicleDetails{
			AimedArrivalTime:         lenientTime(entry.AimedArrivalTime),
			AimedDepartureTime:       lenientTime(entry.AimedDepartureTime),
			IndexTrace:               entry.IndexTrace,
			IsAtStop:                 entry.IsAtStop,
			IsCancelled:              entry.IsCancelled,
			IsCongestion:             entry.IsCongestion,
			IsLast:                   entry.IsLast,
			IsPlanified:              entry.IsPlanified,
			IsRampCancelled:          entry.IsRampCancelled,
			IsReal:                   entry.IsReal,
			JourneyRef:               entry.JourneyRef,
			LastStop:                 entry.LastStop,
			NextStop:                 entry.NextStop,
			RecordedAtTime:           lenientTime(entry.RecordedAtTime),
			SecondAimedArrivalTime:   lenientTime(entry.SecondAimedArrivalTime),
			SecondAimedDepartureTime: lenientTime(entry.SecondAimedDepartureTime),
			SecondNextStop:           entry.SecondNextStop,
			StopIsAccessible:         entry.StopIsAccessible,
			StopName:                 entry.StopName,
			Time:                     entry.Time,
			Trace:                    entry.Trace,
			VehicleAtStop:            entry.VehicleAtStop,
			VehicleIsAccessible:      entry.VehicleIsAccessible,
			LineCategory:             line.Category,
			LineDescription:          line.Description,
			LineDirectionName:        line.DirectionName,
			LinePublicIdentifier:     line.PublicIdentifier,
		},
	}
}
