package journeys

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jack-barr3tt/journey-tracker/src/common/events"
	"github.com/jack-barr3tt/journey-tracker/src/common/store"
	"github.com/jack-barr3tt/journey-tracker/src/common/types"
	"go.uber.org/zap"
)

const maxSaveAttempts = 3

var ErrMissingStation = errors.New("both stations are required")

type DepartureSource interface {
	NextDeparture(ctx context.Context, fromCode, toCode string) (types.Departure, error)
}

type Persister interface {
	Load(ctx context.Context) store.Snapshot
	Save(ctx context.Context, journeys []types.Journey, expected int64) (int64, error)
}

// mutation transforms a copy of the list and reports whether it changed it.
type mutation func([]types.Journey) ([]types.Journey, bool)

// Controller owns the ordered list of saved journeys. Every change is saved
// to the store in full and announced to the publisher.
type Controller struct {
	mu       sync.Mutex
	journeys []types.Journey
	revision int64

	// mutations applied locally but not yet saved
	pending []mutation

	departures DepartureSource
	store      Persister
	publisher  events.Publisher
	logger     *zap.SugaredLogger

	newID func() string
	now   func() time.Time
}

// NewController loads the saved list once.
func NewController(ctx context.Context, departures DepartureSource, persister Persister, publisher events.Publisher, logger *zap.SugaredLogger) *Controller {
	if publisher == nil {
		publisher = events.Discard{}
	}

	snap := persister.Load(ctx)
	logger.Infow("loaded saved journeys", "count", len(snap.Journeys), "revision", snap.Revision)

	return &Controller{
		journeys:   snap.Journeys,
		revision:   snap.Revision,
		departures: departures,
		store:      persister,
		publisher:  publisher,
		logger:     logger,
		newID:      newJourneyID,
		now:        time.Now,
	}
}

// newJourneyID returns a UUIDv7, which is ordered by creation time.
func newJourneyID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (c *Controller) Journeys() []types.Journey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.journeys)
}

func (c *Controller) Get(id string) (types.Journey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return find(c.journeys, id)
}

// Add looks up the next departure between two stations and appends a new
// journey for it. If the lookup fails the list is left unchanged.
func (c *Controller) Add(ctx context.Context, from, to types.Station) ([]types.Journey, error) {
	if from.Code == "" || to.Code == "" {
		return c.Journeys(), ErrMissingStation
	}

	departure, err := c.departures.NextDeparture(ctx, from.Code, to.Code)
	if err != nil {
		c.logger.Warnw("error adding journey", "from", from.Code, "to", to.Code, "error", err)
		return c.Journeys(), fmt.Errorf("fetch departure: %w", err)
	}

	journey := types.Journey{
		ID:       c.newID(),
		From:     from.Name,
		To:       to.Name,
		FromCode: from.Code,
		ToCode:   to.Code,
	}.WithDeparture(departure)

	list, changed := c.apply(ctx, func(js []types.Journey) ([]types.Journey, bool) {
		if _, exists := find(js, journey.ID); exists {
			return js, false
		}
		return append(js, journey), true
	})

	if changed {
		c.publish(ctx, types.JourneyAdded, journey)
	}
	return list, nil
}

// Remove drops the journey with the given id. Unknown ids are a no-op.
func (c *Controller) Remove(ctx context.Context, id string) []types.Journey {
	removed, ok := c.Get(id)
	if !ok {
		return c.Journeys()
	}

	list, changed := c.apply(ctx, func(js []types.Journey) ([]types.Journey, bool) {
		out := js[:0]
		for _, j := range js {
			if j.ID != id {
				out = append(out, j)
			}
		}
		return out, len(out) != len(js)
	})

	if changed {
		c.publish(ctx, types.JourneyRemoved, removed)
	}
	return list
}

// Refresh fetches the latest departure for a saved journey and overwrites its
// timing fields in place. Unknown ids are a no-op; a failed lookup leaves the
// journey untouched.
func (c *Controller) Refresh(ctx context.Context, id string) ([]types.Journey, error) {
	journey, ok := c.Get(id)
	if !ok {
		return c.Journeys(), nil
	}

	fromCode, toCode := journey.LookupCodes()
	departure, err := c.departures.NextDeparture(ctx, fromCode, toCode)
	if err != nil {
		c.logger.Warnw("error refreshing journey", "id", id, "error", err)
		return c.Journeys(), fmt.Errorf("fetch departure: %w", err)
	}

	var refreshed types.Journey
	list, changed := c.apply(ctx, func(js []types.Journey) ([]types.Journey, bool) {
		for i := range js {
			if js[i].ID == id {
				js[i] = js[i].WithDeparture(departure)
				refreshed = js[i]
				return js, true
			}
		}
		return js, false
	})

	if changed {
		c.publish(ctx, types.JourneyRefreshed, refreshed)
	}
	return list, nil
}

// Flush saves the list again if an earlier save did not reach the store. A
// store changed elsewhere in the meantime is reloaded and the unsaved changes
// are applied to it again.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil
	}

	_, err := c.save(ctx)
	return err
}

// apply runs m against the list and saves the result. It reports whether
// the list held by the controller ends up changed by m.
func (c *Controller) apply(ctx context.Context, m mutation) ([]types.Journey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, changed := m(clone(c.journeys))
	if !changed {
		return clone(c.journeys), false
	}
	c.journeys = next
	c.pending = append(c.pending, m)

	applied, err := c.save(ctx)
	if err != nil {
		c.logger.Errorw("failed to save journeys", "pending", len(c.pending), "error", err)
	}
	return clone(c.journeys), applied
}

// save writes the list. When another writer saved first, the stored list is
// reloaded and every unsaved mutation is applied to it again; mutations that
// no longer change anything are dropped. applied reports whether the most
// recent mutation is still part of the list. Called with c.mu held.
func (c *Controller) save(ctx context.Context) (bool, error) {
	applied := true

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		revision, err := c.store.Save(ctx, c.journeys, c.revision)
		if err == nil {
			c.revision = revision
			c.pending = nil
			return applied, nil
		}
		if !errors.Is(err, store.ErrStaleRevision) {
			return applied, err
		}

		c.logger.Infow("journey store changed elsewhere, reapplying", "revision", c.revision, "attempt", attempt)
		snap := c.store.Load(ctx)
		c.journeys, c.revision = snap.Journeys, snap.Revision

		last := len(c.pending) - 1
		kept := c.pending[:0]
		for i, m := range c.pending {
			next, changed := m(clone(c.journeys))
			if i == last {
				applied = changed
			}
			if changed {
				c.journeys = next
				kept = append(kept, m)
			}
		}
		c.pending = kept

		if len(c.pending) == 0 {
			return applied, nil
		}
	}

	return applied, fmt.Errorf("gave up after %d attempts: %w", maxSaveAttempts, store.ErrStaleRevision)
}

func (c *Controller) publish(ctx context.Context, eventType types.EventType, journey types.Journey) {
	event := types.JourneyEvent{
		Type:    eventType,
		Journey: journey,
		At:      c.now().UTC(),
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warnw("error publishing journey event", "type", eventType, "id", journey.ID, "error", err)
	}
}

func find(js []types.Journey, id string) (types.Journey, bool) {
	for _, j := range js {
		if j.ID == id {
			return j, true
		}
	}
	return types.Journey{}, false
}

func clone(js []types.Journey) []types.Journey {
	out := make([]types.Journey, len(js))
	copy(out, js)
	return out
}
