package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jack-barr3tt/journey-tracker/src/common/journeys"
	"github.com/jack-barr3tt/journey-tracker/src/common/rail"
)

func (s *APIServer) GetStations(c *fiber.Ctx) error {
	stations := s.Stations.SearchStations(c.UserContext(), c.Query("query"))
	return c.JSON(stations)
}

func (s *APIServer) GetJourneys(c *fiber.Ctx) error {
	return c.JSON(s.Journeys.Journeys())
}

func (s *APIServer) AddJourney(c *fiber.Ctx) error {
	var req AddJourneyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Bad Request",
			Message: "Body must be a JSON object with from and to stations",
		})
	}

	list, err := s.Journeys.Add(c.UserContext(), req.From, req.To)
	if err != nil {
		return departureError(c, err, "Failed to add journey")
	}

	return c.Status(http.StatusCreated).JSON(list)
}

func (s *APIServer) RefreshJourney(c *fiber.Ctx) error {
	list, err := s.Journeys.Refresh(c.UserContext(), c.Params("id"))
	if err != nil {
		return departureError(c, err, "Failed to refresh journey")
	}

	return c.JSON(list)
}

func (s *APIServer) DeleteJourney(c *fiber.Ctx) error {
	return c.JSON(s.Journeys.Remove(c.UserContext(), c.Params("id")))
}

// departureError maps a failed departure lookup to a response.
func departureError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, journeys.ErrMissingStation):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
		})
	case errors.Is(err, rail.ErrNoDepartures):
		return c.Status(http.StatusNotFound).JSON(NotFoundResponse{
			Error: "No departures found",
		})
	default:
		return c.Status(http.StatusBadGateway).JSON(ErrorResponse{
			Error:   "Upstream error",
			Message: message,
		})
	}
}
