package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jack-barr3tt/journey-tracker/src/common/types"
	"github.com/jack-barr3tt/journey-tracker/src/common/utils"
	"github.com/jack-barr3tt/journey-tracker/src/http-api/view"
)

//go:embed templates/*.html
var templatesFS embed.FS

type pages struct {
	tmpl *template.Template
}

type IndexData struct {
	Form     view.FormState
	Journeys []types.Journey
}

func loadPages(location *time.Location) (*pages, error) {
	return loadPagesFromFS(templatesFS, "templates", location)
}

func loadPagesFromFS(fsys fs.FS, dir string, location *time.Location) (*pages, error) {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"timeOfDay": func(raw string) string {
			return utils.FormatTimeOfDay(raw, location)
		},
		"dict": dict,
	}).ParseFS(sub, "*.html")
	if err != nil {
		return nil, err
	}

	return &pages{tmpl: tmpl}, nil
}

// dict builds a map from alternating keys and values for passing several
// arguments to a nested template.
func dict(pairs ...interface{}) (map[string]interface{}, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func (p *pages) render(c *fiber.Ctx, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (s *APIServer) GetIndex(c *fiber.Ctx) error {
	form, err := s.form(c)
	if err != nil {
		return err
	}

	return s.pages.render(c, "index.html", IndexData{
		Form:     form.State(),
		Journeys: s.Journeys.Journeys(),
	})
}

func (s *APIServer) PostFormSearch(c *fiber.Ctx) error {
	form, err := s.form(c)
	if err != nil {
		return err
	}

	form.SearchBoth(c.UserContext(), c.FormValue("fromQuery"), c.FormValue("toQuery"))
	return c.Redirect("/", http.StatusSeeOther)
}

func (s *APIServer) PostFormSelect(c *fiber.Ctx) error {
	form, err := s.form(c)
	if err != nil {
		return err
	}

	if _, err := form.Select(view.FieldName(c.Params("field")), c.FormValue("code")); err != nil {
		s.Logger.Debugw("ignored station selection", "field", c.Params("field"), "error", err)
	}
	return c.Redirect("/", http.StatusSeeOther)
}

// PostFormSubmit adds the selected journey. Failures are logged only; the
// page simply shows the list unchanged.
func (s *APIServer) PostFormSubmit(c *fiber.Ctx) error {
	form, err := s.form(c)
	if err != nil {
		return err
	}

	if _, err := form.Submit(c.UserContext(), s.Journeys); err != nil {
		s.Logger.Infow("journey not added", "error", err)
	}
	return c.Redirect("/", http.StatusSeeOther)
}

func (s *APIServer) PostRefreshJourney(c *fiber.Ctx) error {
	// the controller already logs lookup failures
	_, _ = s.Journeys.Refresh(c.UserContext(), c.Params("id"))
	return c.Redirect("/", http.StatusSeeOther)
}

func (s *APIServer) PostDeleteJourney(c *fiber.Ctx) error {
	s.Journeys.Remove(c.UserContext(), c.Params("id"))
	return c.Redirect("/", http.StatusSeeOther)
}
