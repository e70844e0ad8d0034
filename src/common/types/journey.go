package types

import "time"

type Station struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Journey is a saved from/to pair plus the last departure snapshot fetched
// for it. ID never changes once assigned.
type Journey struct {
	ID            string  `json:"id"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	FromCode      string  `json:"fromCode,omitempty"`
	ToCode        string  `json:"toCode,omitempty"`
	DepartureTime string  `json:"departureTime"`
	ArrivalTime   string  `json:"arrivalTime"`
	Status        string  `json:"status"`
	Platform      *string `json:"platform,omitempty"`
	Operator      *string `json:"operator,omitempty"`
}

type Departure struct {
	DepartureTime string  `json:"departureTime"`
	ArrivalTime   string  `json:"arrivalTime"`
	Status        string  `json:"status"`
	Platform      *string `json:"platform,omitempty"`
	Operator      *string `json:"operator,omitempty"`
}

// WithDeparture returns a copy of j with its timing fields replaced by d.
func (j Journey) WithDeparture(d Departure) Journey {
	j.DepartureTime = d.DepartureTime
	j.ArrivalTime = d.ArrivalTime
	j.Status = d.Status
	j.Platform = d.Platform
	j.Operator = d.Operator
	return j
}

// LookupCodes returns the station identifiers to query the departure board
// with. Journeys saved without codes fall back to their display names.
func (j Journey) LookupCodes() (string, string) {
	from, to := j.FromCode, j.ToCode
	if from == "" {
		from = j.From
	}
	if to == "" {
		to = j.To
	}
	return from, to
}

type EventType string

const (
	JourneyAdded     EventType = "added"
	JourneyRemoved   EventType = "removed"
	JourneyRefreshed EventType = "refreshed"
)

type JourneyEvent struct {
	Type    EventType `json:"type"`
	Journey Journey   `json:"journey"`
	At      time.Time `json:"at"`
}
