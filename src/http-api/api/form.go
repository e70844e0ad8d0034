package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jack-barr3tt/journey-tracker/src/http-api/view"
)

func (s *APIServer) GetForm(c *fiber.Ctx) error {
	form, err := s.form(c)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(form.State())
}

func (s *APIServer) SearchFormField(c *fiber.Ctx) error {
	form, err := s.form(c)
	if err != nil {
		return sessionError(c, err)
	}

	var req SearchFieldRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Bad Request",
			Message: "Body must be a JSON object with a query",
		})
	}

	state, err := form.Search(c.UserContext(), view.FieldName(c.Params("field")), req.Query)
	if err != nil {
		return formError(c, err)
	}
	return c.JSON(state)
}

func (s *APIServer) SelectFormField(c *fiber.Ctx) error {
	form, err := s.form(c)
	if err != nil {
		return sessionError(c, err)
	}

	var req SelectFieldRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Bad Request",
			Message: "Body must be a JSON object with a station code",
		})
	}

	state, err := form.Select(view.FieldName(c.Params("field")), req.Code)
	if err != nil {
		return formError(c, err)
	}
	return c.JSON(state)
}

func (s *APIServer) SubmitForm(c *fiber.Ctx) error {
	form, err := s.form(c)
	if err != nil {
		return sessionError(c, err)
	}

	list, err := form.Submit(c.UserContext(), s.Journeys)
	if err != nil {
		if errors.Is(err, view.ErrBusy) || errors.Is(err, view.ErrNotReady) {
			return formError(c, err)
		}
		return departureError(c, err, "Failed to add journey")
	}

	return c.Status(http.StatusCreated).JSON(list)
}

func formError(c *fiber.Ctx, err error) error {
	status := http.StatusBadRequest
	if errors.Is(err, view.ErrBusy) || errors.Is(err, view.ErrNotReady) {
		status = http.StatusConflict
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
	})
}

func sessionError(c *fiber.Ctx, err error) error {
	return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "Session error",
		Message: err.Error(),
	})
}
