package types

// Payloads returned by the rail data endpoint.

type StationListResponse struct {
	Stations []Station `json:"stations"`
}

type DepartureBoardResponse struct {
	Journeys []Departure `json:"journeys"`
}
