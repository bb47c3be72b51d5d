package character

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"genjigraph/internal/metrics"
	"genjigraph/pkg/models"
)

// Store executes a TraversalSpec against a graph. Fetch returns a nil record
// when no character matches.
type Store interface {
	Fetch(ctx context.Context, spec TraversalSpec) (*RawRecord, error)
	Ping(ctx context.Context) error
}

type Repo struct {
	Store Store
	Log   *zap.Logger
}

func NewRepo(store Store, log *zap.Logger) *Repo {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repo{Store: store, Log: log}
}

// GetCharacterData looks up one character and its optional related
// characters and poems.
func (r *Repo) GetCharacterData(ctx context.Context, q Query) (*models.CharacterData, error) {
	spec, err := Build(q)
	if err != nil {
		metrics.CharacterLookups.WithLabelValues("invalid").Inc()
		return nil, err
	}

	raw, err := r.Store.Fetch(ctx, spec)
	if err != nil {
		metrics.CharacterLookups.WithLabelValues("error").Inc()
		if errors.Is(err, ErrStorageFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	data, report, err := Assemble(raw, q.IncludeRelatedCharacters, q.IncludeRelatedPoems)
	if errors.Is(err, ErrNotFound) {
		metrics.CharacterLookups.WithLabelValues("not_found").Inc()
		r.Log.Info("character not found", zap.String("name", spec.Name))
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	for _, d := range report.Dropped {
		metrics.PoemsDropped.WithLabelValues(d.Reason).Inc()
		if d.Reason == DropMissingPoem {
			// an optional match with no poem, not worth a warning
			continue
		}
		r.Log.Warn("skipping poem",
			zap.String("character", spec.Name),
			zap.String("pnum", d.PNum),
			zap.String("reason", d.Reason),
			zap.Error(d.Err),
		)
	}

	metrics.CharacterLookups.WithLabelValues("found").Inc()
	return data, nil
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.Store.Ping(ctx)
}
