// Package publisher renders roadmap documents and stores them behind
// time-limited access URLs.
package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skillnavigator/roadmap-service/internal/logging"
	"github.com/skillnavigator/roadmap-service/internal/metrics"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
)

const (
	// URLTTL is how long a published access URL stays valid.
	URLTTL = 3600 * time.Second

	ContentType = "text/html; charset=utf-8"
	keyPrefix   = "roadmaps/"
)

// ObjectStore persists rendered artifacts and signs read URLs for them.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Publisher struct {
	store   ObjectStore
	metrics *metrics.Metrics
	now     func() time.Time
	newKey  func() string
}

type Option func(*Publisher)

// WithClock overrides the clock used for the generation date and expiry.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func New(store ObjectStore, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		metrics: metrics.Default(),
		now:     time.Now,
		newKey:  func() string { return keyPrefix + uuid.NewString() + ".html" },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish renders doc, stores it under a fresh key and returns a URL valid
// for URLTTL. Any failure wraps domain.ErrPublish.
func (p *Publisher) Publish(ctx context.Context, doc *domain.RoadmapDocument) (domain.PublishedArtifact, error) {
	artifact, err := p.publish(ctx, doc)
	p.metrics.RecordPublish(err)
	if err != nil {
		logging.New(ctx).LogError("publish", err)
		return domain.PublishedArtifact{}, err
	}
	return artifact, nil
}

func (p *Publisher) publish(ctx context.Context, doc *domain.RoadmapDocument) (domain.PublishedArtifact, error) {
	now := p.now()
	body, err := Render(doc, now)
	if err != nil {
		return domain.PublishedArtifact{}, fmt.Errorf("%w: %w", domain.ErrPublish, err)
	}

	key := p.newKey()
	if err := p.store.Put(ctx, key, body, ContentType); err != nil {
		return domain.PublishedArtifact{}, fmt.Errorf("%w: store %s: %w", domain.ErrPublish, key, err)
	}

	url, err := p.store.PresignGet(ctx, key, URLTTL)
	if err != nil {
		return domain.PublishedArtifact{}, fmt.Errorf("%w: presign %s: %w", domain.ErrPublish, key, err)
	}

	return domain.PublishedArtifact{
		ObjectKey: key,
		AccessURL: url,
		ExpiresAt: now.Add(URLTTL),
	}, nil
}
