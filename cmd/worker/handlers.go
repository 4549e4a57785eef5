package worker

import (
	"context"
	"fmt"

	"github.com/shivamghaware/BlogIn/internal/events"
	apperrors "github.com/shivamghaware/BlogIn/internal/errors"
	"github.com/shivamghaware/BlogIn/internal/metrics"
	"github.com/shivamghaware/BlogIn/internal/models"
	"github.com/shivamghaware/BlogIn/internal/repository"
	"github.com/shivamghaware/BlogIn/internal/store"
	"github.com/shivamghaware/BlogIn/internal/suggest"
	"github.com/shivamghaware/BlogIn/internal/util"
)

// Relay republishes events from other processes on the local bus, so
// local subscribers see remote writes.
type Relay struct {
	bus *events.Bus
}

func NewRelay(bus *events.Bus) *Relay {
	return &Relay{bus: bus}
}

func (r *Relay) Handle(_ context.Context, e events.Event) error {
	if e.Origin == r.bus.Origin() {
		metrics.KafkaMessages.WithLabelValues("in", "skipped").Inc()
		return nil
	}
	e.Remote = true
	r.bus.Publish(e)
	metrics.KafkaMessages.WithLabelValues("in", "ok").Inc()
	return nil
}

// Suggester precomputes tag suggestions whenever a post is written and
// stores them under the post's suggestions key.
type Suggester struct {
	store   *store.Adapter
	posts   *repository.Posts
	service *suggest.Service
	clock   util.Clock
}

func NewSuggester(a *store.Adapter, posts *repository.Posts, svc *suggest.Service, clock util.Clock) *Suggester {
	if clock == nil {
		clock = util.NewRealClock()
	}
	if svc == nil {
		svc = suggest.NewService(nil)
	}
	return &Suggester{store: a, posts: posts, service: svc, clock: clock}
}

func (s *Suggester) Handle(ctx context.Context, e events.Event) error {
	if e.Signal != events.DataChanged || e.Kind != events.KindPost || e.ID == "" {
		return nil
	}

	p, err := s.posts.GetBySlug(ctx, e.ID)
	if apperrors.Code(err) == apperrors.CodeNotFound {
		// Deleted since the event was published.
		return nil
	}
	if err != nil {
		return err
	}

	categories, err := s.service.Try(ctx, p.Content)
	if err != nil {
		return err
	}

	sg := models.Suggestions{Slug: p.Slug, Categories: categories, CreatedAt: s.clock.NowUtc()}
	if err := s.store.Write(ctx, store.SuggestionsKey(p.Slug), sg, events.Ref{Kind: events.KindSuggestion, ID: p.Slug}); err != nil {
		return err
	}
	logg.Debug("worker", "Stored "+fmt.Sprint(len(categories))+" suggestions for post")
	return nil
}

// Chain runs every handler in order and reports the first failure.
func Chain(handlers ...Handler) Handler {
	return HandlerFunc(func(ctx context.Context, e events.Event) error {
		var first error
		for _, h := range handlers {
			if err := h.Handle(ctx, e); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
