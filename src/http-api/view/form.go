package view

import (
	"context"
	"errors"
	"sync"

	"github.com/jack-barr3tt/journey-tracker/src/common/types"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownField   = errors.New("unknown form field")
	ErrUnknownStation = errors.New("station is not among the suggestions")
	ErrNotReady       = errors.New("select both stations before adding a journey")
	ErrBusy           = errors.New("a journey is already being added")
)

type FieldName string

const (
	FieldFrom FieldName = "from"
	FieldTo   FieldName = "to"
)

type StationSearcher interface {
	SearchStations(ctx context.Context, query string) []types.Station
}

type JourneyAdder interface {
	Add(ctx context.Context, from, to types.Station) ([]types.Journey, error)
}

type FieldState struct {
	Query       string          `json:"query"`
	Suggestions []types.Station `json:"suggestions"`
	Selected    *types.Station  `json:"selected,omitempty"`
}

type FormState struct {
	From       FieldState `json:"from"`
	To         FieldState `json:"to"`
	Submitting bool       `json:"submitting"`
	CanSubmit  bool       `json:"canSubmit"`
}

// field holds one station input. Every search takes a new sequence token and
// cancels the one before it; only the latest token may set suggestions.
type field struct {
	mu          sync.Mutex
	query       string
	suggestions []types.Station
	selected    *types.Station
	seq         uint64
	cancel      context.CancelFunc
}

func (f *field) search(ctx context.Context, searcher StationSearcher, query string) FieldState {
	f.mu.Lock()
	f.seq++
	token := f.seq
	if f.cancel != nil {
		f.cancel()
	}
	searchCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.query = query
	f.mu.Unlock()

	results := searcher.SearchStations(searchCtx, query)

	f.mu.Lock()
	defer f.mu.Unlock()
	cancel()
	if token == f.seq {
		f.suggestions = results
		f.cancel = nil
	}
	return f.stateLocked()
}

func (f *field) selectCode(code string) (FieldState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if code == "" {
		f.selected = nil
		return f.stateLocked(), nil
	}

	for _, s := range f.suggestions {
		if s.Code == code {
			station := s
			f.selected = &station
			return f.stateLocked(), nil
		}
	}
	return f.stateLocked(), ErrUnknownStation
}

func (f *field) selection() *types.Station {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selected == nil {
		return nil
	}
	s := *f.selected
	return &s
}

func (f *field) clearSelection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = nil
}

func (f *field) state() FieldState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *field) stateLocked() FieldState {
	suggestions := make([]types.Station, len(f.suggestions))
	copy(suggestions, f.suggestions)

	var selected *types.Station
	if f.selected != nil {
		s := *f.selected
		selected = &s
	}

	return FieldState{
		Query:       f.query,
		Suggestions: suggestions,
		Selected:    selected,
	}
}

// Form is the add-journey form of one browser session: two independent
// station fields and the Idle/Submitting state of the add action.
type Form struct {
	searcher StationSearcher
	from     *field
	to       *field

	mu         sync.Mutex
	submitting bool
}

func NewForm(searcher StationSearcher) *Form {
	return &Form{
		searcher: searcher,
		from:     &field{},
		to:       &field{},
	}
}

func (f *Form) field(name FieldName) (*field, error) {
	switch name {
	case FieldFrom:
		return f.from, nil
	case FieldTo:
		return f.to, nil
	default:
		return nil, ErrUnknownField
	}
}

func (f *Form) Search(ctx context.Context, name FieldName, query string) (FieldState, error) {
	fld, err := f.field(name)
	if err != nil {
		return FieldState{}, err
	}
	return fld.search(ctx, f.searcher, query), nil
}

// SearchBoth runs the searches for both fields concurrently. A field whose
// query has not changed keeps its suggestions.
func (f *Form) SearchBoth(ctx context.Context, fromQuery, toQuery string) FormState {
	var g errgroup.Group

	for _, q := range []struct {
		field *field
		query string
	}{{f.from, fromQuery}, {f.to, toQuery}} {
		if q.field.state().Query == q.query {
			continue
		}
		q := q
		g.Go(func() error {
			q.field.search(ctx, f.searcher, q.query)
			return nil
		})
	}

	_ = g.Wait()
	return f.State()
}

func (f *Form) Select(name FieldName, code string) (FieldState, error) {
	fld, err := f.field(name)
	if err != nil {
		return FieldState{}, err
	}
	return fld.selectCode(code)
}

// Submit adds a journey for the selected stations. It is rejected while
// another submit is in flight or a station is missing. On success both
// selections are cleared; on failure the form is left as it was.
func (f *Form) Submit(ctx context.Context, adder JourneyAdder) ([]types.Journey, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	from, to := f.from.selection(), f.to.selection()
	if from == nil || to == nil {
		f.mu.Unlock()
		return nil, ErrNotReady
	}
	f.submitting = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	list, err := adder.Add(ctx, *from, *to)
	if err != nil {
		return list, err
	}

	f.from.clearSelection()
	f.to.clearSelection()
	return list, nil
}

func (f *Form) State() FormState {
	f.mu.Lock()
	submitting := f.submitting
	f.mu.Unlock()

	from, to := f.from.state(), f.to.state()
	return FormState{
		From:       from,
		To:         to,
		Submitting: submitting,
		CanSubmit:  !submitting && from.Selected != nil && to.Selected != nil,
	}
}
