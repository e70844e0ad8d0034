package api

import "github.com/jack-barr3tt/journey-tracker/src/common/types"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type NotFoundResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Journeys int    `json:"journeys"`
}

type AddJourneyRequest struct {
	From types.Station `json:"from"`
	To   types.Station `json:"to"`
}

type SearchFieldRequest struct {
	Query string `json:"query"`
}

type SelectFieldRequest struct {
	Code string `json:"code"`
}
