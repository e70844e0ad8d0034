package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jack-barr3tt/journey-tracker/src/common/config"
	"github.com/jack-barr3tt/journey-tracker/src/common/types"
	"github.com/jack-barr3tt/journey-tracker/src/common/utils"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Key is the fixed key the journey list is stored under.
const Key = "train_journeys"

var (
	// ErrStaleRevision means another writer saved since the caller loaded.
	ErrStaleRevision = errors.New("journey store revision is stale")
	// ErrNotFound is returned by backends when nothing has been saved yet.
	ErrNotFound = errors.New("journey store is empty")
)

var saveCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "journey_store_save_count",
	Help: "Number of journey list saves by result",
}, []string{"result"})

func init() {
	prometheus.MustRegister(saveCount)
}

// Backend reads and writes the raw journey blob together with its revision.
type Backend interface {
	Read(ctx context.Context) ([]byte, int64, error)
	Write(ctx context.Context, blob []byte, expected int64) (int64, error)
	Close() error
}

type Snapshot struct {
	Journeys []types.Journey
	Revision int64
}

type Store struct {
	backend Backend
	logger  *zap.SugaredLogger
}

func New(backend Backend, logger *zap.SugaredLogger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
	}
}

// Open builds the store for the configured backend.
func Open(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*Store, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Store.Backend {
	case "redis":
		backend = NewRedisBackend(utils.NewRedisClient(cfg.Redis), Key)
	case "postgres":
		pool, perr := utils.NewPostgresConnection(ctx, cfg.Postgres)
		if perr != nil {
			return nil, fmt.Errorf("connect to postgres: %w", perr)
		}
		backend, err = NewPostgresBackend(ctx, pool, Key)
	case "sqlite":
		db, serr := utils.NewSQLiteConnection(cfg.Store.SQLitePath)
		if serr != nil {
			return nil, fmt.Errorf("open sqlite: %w", serr)
		}
		backend, err = NewSQLiteBackend(ctx, db, Key)
	case "memory":
		backend = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Infow("journey store ready", "backend", cfg.Store.Backend)
	return New(backend, logger), nil
}

// Load returns the saved journeys. Missing or unreadable data is an empty
// list; errors are logged, never returned.
func (s *Store) Load(ctx context.Context) Snapshot {
	blob, revision, err := s.backend.Read(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warnw("failed to read journey store", "error", err)
		}
		return Snapshot{Journeys: []types.Journey{}}
	}

	journeys, err := utils.UnmarshalJourneys(blob)
	if err != nil {
		s.logger.Warnw("discarding unreadable journey store", "revision", revision, "error", err)
		return Snapshot{Journeys: []types.Journey{}, Revision: revision}
	}

	return Snapshot{Journeys: journeys, Revision: revision}
}

// Save overwrites the stored list if it is still at expected revision and
// returns the new revision.
func (s *Store) Save(ctx context.Context, journeys []types.Journey, expected int64) (int64, error) {
	blob, err := utils.MarshalJourneys(journeys)
	if err != nil {
		saveCount.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("encode journeys: %w", err)
	}

	revision, err := s.backend.Write(ctx, blob, expected)
	switch {
	case errors.Is(err, ErrStaleRevision):
		saveCount.WithLabelValues("stale").Inc()
		return 0, err
	case err != nil:
		saveCount.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("write journeys: %w", err)
	}

	saveCount.WithLabelValues("ok").Inc()
	s.logger.Debugw("saved journeys", "count", len(journeys), "revision", revision)
	return revision, nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}
