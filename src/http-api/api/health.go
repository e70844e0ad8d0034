package api

import (
	"github.com/gofiber/fiber/v2"
)

const version = "1.0.0"

// GetHealth reports liveness and how many journeys are held in memory.
func (s *APIServer) GetHealth(c *fiber.Ctx) error {
	response := HealthResponse{
		Status:   "healthy",
		Version:  version,
		Journeys: len(s.Journeys.Journeys()),
	}
	return c.JSON(response)
}
