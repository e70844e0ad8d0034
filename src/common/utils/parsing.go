package utils

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jack-barr3tt/journey-tracker/src/common/types"
)

func UnmarshalStationList(data []byte) ([]types.Station, error) {
	var resp types.StationListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return resp.Stations, nil
}

func UnmarshalDepartureBoard(data []byte) ([]types.Departure, error) {
	var resp types.DepartureBoardResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return resp.Journeys, nil
}

// UnmarshalJourneys decodes a stored journey blob. An empty blob is an empty
// list.
func UnmarshalJourneys(data []byte) ([]types.Journey, error) {
	if len(data) == 0 {
		return []types.Journey{}, nil
	}

	var journeys []types.Journey
	if err := json.Unmarshal(data, &journeys); err != nil {
		return nil, fmt.Errorf("decode journeys: %w", err)
	}
	if journeys == nil {
		journeys = []types.Journey{}
	}
	return journeys, nil
}

func MarshalJourneys(journeys []types.Journey) ([]byte, error) {
	if journeys == nil {
		journeys = []types.Journey{}
	}
	return json.Marshal(journeys)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"15:04:05",
	"15:04",
}

// FormatTimeOfDay renders a departure timestamp as a local time of day.
// Values that do not parse are returned unchanged.
func FormatTimeOfDay(raw string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if layout == time.RFC3339 {
			t = t.In(loc)
		}
		return t.Format("15:04")
	}

	return raw
}
