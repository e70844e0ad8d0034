package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jack-barr3tt/journey-tracker/src/common/types"
)

var (
	paddington = types.Station{Code: "PAD", Name: "Paddington"}
	reading    = types.Station{Code: "RDG", Name: "Reading"}
)

// staticSearcher answers from a fixed table.
type staticSearcher map[string][]types.Station

func (s staticSearcher) SearchStations(ctx context.Context, query string) []types.Station {
	if r, ok := s[query]; ok {
		return r
	}
	return []types.Station{}
}

// gatedSearcher blocks each query until the test releases it, and ignores
// cancellation so stale results still come back.
type gatedSearcher struct {
	mu        sync.Mutex
	gates     map[string]chan []types.Station
	cancelled map[string]bool
	started   chan string
}

func newGatedSearcher() *gatedSearcher {
	return &gatedSearcher{
		gates:     make(map[string]chan []types.Station),
		cancelled: make(map[string]bool),
		started:   make(chan string, 10),
	}
}

func (g *gatedSearcher) gate(query string) chan []types.Station {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[query]
	if !ok {
		ch = make(chan []types.Station, 1)
		g.gates[query] = ch
	}
	return ch
}

func (g *gatedSearcher) SearchStations(ctx context.Context, query string) []types.Station {
	gate := g.gate(query)
	g.started <- query
	result := <-gate
	if ctx.Err() != nil {
		g.mu.Lock()
		g.cancelled[query] = true
		g.mu.Unlock()
	}
	return result
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("started %q want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestSearch_latestWins(t *testing.T) {
	searcher := newGatedSearcher()
	form := NewForm(searcher)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		form.Search(ctx, FieldFrom, "Lo")
	}()
	waitFor(t, searcher.started, "Lo")

	done := make(chan FieldState, 1)
	go func() {
		state, _ := form.Search(ctx, FieldFrom, "Lon")
		done <- state
	}()
	waitFor(t, searcher.started, "Lon")

	// the later search resolves first
	londonBridge := []types.Station{{Code: "LBG", Name: "London Bridge"}}
	searcher.gate("Lon") <- londonBridge
	<-done

	// the earlier, superseded search resolves last
	searcher.gate("Lo") <- []types.Station{{Code: "LOO", Name: "Looe"}}
	wg.Wait()

	state := form.State().From
	if state.Query != "Lon" {
		t.Fatalf("Query=%q want=%q", state.Query, "Lon")
	}
	if len(state.Suggestions) != 1 || state.Suggestions[0].Code != "LBG" {
		t.Fatalf("Suggestions=%v want London Bridge", state.Suggestions)
	}

	searcher.mu.Lock()
	defer searcher.mu.Unlock()
	if !searcher.cancelled["Lo"] {
		t.Fatal("superseded search was not cancelled")
	}
	if searcher.cancelled["Lon"] {
		t.Fatal("latest search was cancelled")
	}
}

func TestSearch_fieldsAreIndependent(t *testing.T) {
	form := NewForm(staticSearcher{
		"Read": {reading},
		"Padd": {paddington},
	})
	ctx := context.Background()

	if _, err := form.Search(ctx, FieldFrom, "Read"); err != nil {
		t.Fatalf("Search(from) = %v", err)
	}

	state := form.State()
	if len(state.From.Suggestions) != 1 || state.From.Suggestions[0] != reading {
		t.Fatalf("from suggestions=%v", state.From.Suggestions)
	}
	if len(state.To.Suggestions) != 0 || state.To.Query != "" {
		t.Fatalf("to field changed: %+v", state.To)
	}

	form.Search(ctx, FieldTo, "Padd")
	state = form.State()
	if state.From.Suggestions[0] != reading || state.To.Suggestions[0] != paddington {
		t.Fatalf("state=%+v", state)
	}
}

func TestSearch_unknownField(t *testing.T) {
	form := NewForm(staticSearcher{})
	if _, err := form.Search(context.Background(), "via", "Read"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err=%v want %v", err, ErrUnknownField)
	}
}

func TestSearchBoth(t *testing.T) {
	form := NewForm(staticSearcher{
		"Read": {reading},
		"Padd": {paddington},
	})

	state := form.SearchBoth(context.Background(), "Padd", "Read")
	if state.From.Suggestions[0] != paddington || state.To.Suggestions[0] != reading {
		t.Fatalf("state=%+v", state)
	}

	form.Select(FieldFrom, "PAD")
	// unchanged query keeps the field's suggestions and selection
	state = form.SearchBoth(context.Background(), "Padd", "")
	if state.From.Selected == nil || state.From.Selected.Code != "PAD" {
		t.Fatalf("from selection lost: %+v", state.From)
	}
	if len(state.To.Suggestions) != 0 {
		t.Fatalf("to suggestions=%v want []", state.To.Suggestions)
	}
}

func TestSelect(t *testing.T) {
	form := NewForm(staticSearcher{"Read": {reading}})
	form.Search(context.Background(), FieldTo, "Read")

	if _, err := form.Select(FieldTo, "XXX"); !errors.Is(err, ErrUnknownStation) {
		t.Fatalf("err=%v want %v", err, ErrUnknownStation)
	}

	state, err := form.Select(FieldTo, "RDG")
	if err != nil {
		t.Fatalf("Select() = %v", err)
	}
	if state.Selected == nil || *state.Selected != reading {
		t.Fatalf("Selected=%v want Reading", state.Selected)
	}

	state, _ = form.Select(FieldTo, "")
	if state.Selected != nil {
		t.Fatalf("Selected=%v want nil", state.Selected)
	}
}

type blockingAdder struct {
	release chan struct{}
	entered chan struct{}
	err     error
	calls   int
}

func (b *blockingAdder) Add(ctx context.Context, from, to types.Station) ([]types.Journey, error) {
	b.calls++
	if b.entered != nil {
		b.entered <- struct{}{}
	}
	if b.release != nil {
		<-b.release
	}
	if b.err != nil {
		return []types.Journey{}, b.err
	}
	return []types.Journey{{ID: "1", From: from.Name, To: to.Name}}, nil
}

func readyForm(t *testing.T) *Form {
	t.Helper()
	form := NewForm(staticSearcher{"Padd": {paddington}, "Read": {reading}})
	form.SearchBoth(context.Background(), "Padd", "Read")
	if _, err := form.Select(FieldFrom, "PAD"); err != nil {
		t.Fatalf("select from: %v", err)
	}
	if _, err := form.Select(FieldTo, "RDG"); err != nil {
		t.Fatalf("select to: %v", err)
	}
	return form
}

func TestSubmit_notReady(t *testing.T) {
	form := NewForm(staticSearcher{"Padd": {paddington}})
	form.Search(context.Background(), FieldFrom, "Padd")
	form.Select(FieldFrom, "PAD")

	if form.State().CanSubmit {
		t.Fatal("CanSubmit=true with only one station")
	}

	adder := &blockingAdder{}
	if _, err := form.Submit(context.Background(), adder); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err=%v want %v", err, ErrNotReady)
	}
	if adder.calls != 0 {
		t.Fatalf("adder calls=%d want=0", adder.calls)
	}
}

func TestSubmit_success(t *testing.T) {
	form := readyForm(t)
	if !form.State().CanSubmit {
		t.Fatal("CanSubmit=false with both stations selected")
	}

	list, err := form.Submit(context.Background(), &blockingAdder{})
	if err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	if len(list) != 1 || list[0].From != "Paddington" || list[0].To != "Reading" {
		t.Fatalf("list=%+v", list)
	}

	state := form.State()
	if state.From.Selected != nil || state.To.Selected != nil {
		t.Fatalf("selections not cleared: %+v", state)
	}
	if state.Submitting || state.CanSubmit {
		t.Fatalf("state=%+v want idle and not submittable", state)
	}
}

func TestSubmit_busyWhileInFlight(t *testing.T) {
	form := readyForm(t)
	adder := &blockingAdder{release: make(chan struct{}), entered: make(chan struct{}, 1)}

	errc := make(chan error, 1)
	go func() {
		_, err := form.Submit(context.Background(), adder)
		errc <- err
	}()
	<-adder.entered

	state := form.State()
	if !state.Submitting || state.CanSubmit {
		t.Fatalf("state=%+v want submitting", state)
	}

	if _, err := form.Submit(context.Background(), &blockingAdder{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("second submit err=%v want %v", err, ErrBusy)
	}

	close(adder.release)
	if err := <-errc; err != nil {
		t.Fatalf("first submit err=%v", err)
	}
	if form.State().Submitting {
		t.Fatal("still submitting after completion")
	}
}

func TestSubmit_failureKeepsSelection(t *testing.T) {
	form := readyForm(t)

	_, err := form.Submit(context.Background(), &blockingAdder{err: errors.New("HTTP 500")})
	if err == nil {
		t.Fatal("Submit() = nil; want error")
	}

	state := form.State()
	if state.Submitting {
		t.Fatal("busy indicator not cleared after failure")
	}
	if state.From.Selected == nil || state.To.Selected == nil {
		t.Fatalf("selections lost after failure: %+v", state)
	}
}

func TestForms_perSessionAndExpiry(t *testing.T) {
	forms := NewForms(staticSearcher{}, time.Hour)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	forms.now = func() time.Time { return now }

	a := forms.Get("a")
	if forms.Get("a") != a {
		t.Fatal("same session returned a different form")
	}
	if forms.Get("b") == a {
		t.Fatal("different sessions share a form")
	}

	now = now.Add(2 * time.Hour)
	forms.Get("b")
	if forms.Len() != 1 {
		t.Fatalf("Len()=%d want=1 after expiry", forms.Len())
	}
	if forms.Get("a") == a {
		t.Fatal("expired form was reused")
	}
}
