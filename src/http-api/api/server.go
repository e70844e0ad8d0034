package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/jack-barr3tt/journey-tracker/src/common/journeys"
	"github.com/jack-barr3tt/journey-tracker/src/http-api/view"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const formTTL = 24 * time.Hour

type APIServer struct {
	Journeys *journeys.Controller
	Stations view.StationSearcher
	Forms    *view.Forms
	Sessions *session.Store
	Logger   *zap.SugaredLogger
	Location *time.Location
	pages    *pages
}

func NewServer(controller *journeys.Controller, stations view.StationSearcher, location *time.Location, logger *zap.SugaredLogger) (*APIServer, error) {
	pages, err := loadPages(location)
	if err != nil {
		return nil, err
	}

	return &APIServer{
		Journeys: controller,
		Stations: stations,
		Forms:    view.NewForms(stations, formTTL),
		Sessions: session.New(session.Config{Expiration: formTTL}),
		Logger:   logger,
		Location: location,
		pages:    pages,
	}, nil
}

func RegisterHandlers(app *fiber.App, s *APIServer) {
	app.Get("/health", s.GetHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/", s.GetIndex)
	app.Post("/form/search", s.PostFormSearch)
	app.Post("/form/:field/select", s.PostFormSelect)
	app.Post("/form/submit", s.PostFormSubmit)
	app.Post("/journeys/:id/refresh", s.PostRefreshJourney)
	app.Post("/journeys/:id/delete", s.PostDeleteJourney)

	api := app.Group("/api")
	api.Get("/stations", s.GetStations)
	api.Get("/journeys", s.GetJourneys)
	api.Post("/journeys", s.AddJourney)
	api.Post("/journeys/:id/refresh", s.RefreshJourney)
	api.Delete("/journeys/:id", s.DeleteJourney)
	api.Get("/form", s.GetForm)
	api.Put("/form/:field", s.SearchFormField)
	api.Post("/form/:field/select", s.SelectFormField)
	api.Post("/form/submit", s.SubmitForm)
}

// form returns the add-journey form of the caller's session. The id is read
// before Save, which releases the session back to its pool.
func (s *APIServer) form(c *fiber.Ctx) (*view.Form, error) {
	sess, err := s.Sessions.Get(c)
	if err != nil {
		return nil, err
	}
	id := sess.ID()
	if sess.Fresh() {
		sess.Set("started", time.Now().Unix())
	}
	if err := sess.Save(); err != nil {
		return nil, err
	}
	return s.Forms.Get(id), nil
}
