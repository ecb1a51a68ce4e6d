// Package service runs the paid roadmap generation workflow.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/skillnavigator/roadmap-service/internal/logging"
	"github.com/skillnavigator/roadmap-service/internal/metrics"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/events"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/ledger"
)

// Generator produces a roadmap document from the model.
type Generator interface {
	Generate(ctx context.Context, skillName, currentLevel string) (*domain.RoadmapDocument, error)
}

// ArtifactPublisher stores a rendered roadmap and returns its access URL.
type ArtifactPublisher interface {
	Publish(ctx context.Context, doc *domain.RoadmapDocument) (domain.PublishedArtifact, error)
}

// Workflow orchestrates check, generate, publish and settle. Credit is only
// spent after an artifact is published.
type Workflow struct {
	ledger    ledger.Ledger
	generator Generator
	publisher ArtifactPublisher
	events    events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Deps struct {
	Ledger    ledger.Ledger
	Generator Generator
	Publisher ArtifactPublisher
	Events    events.Publisher
	Metrics   *metrics.Metrics
}

func NewWorkflow(deps Deps) *Workflow {
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Default()
	}
	return &Workflow{
		ledger:    deps.Ledger,
		generator: deps.Generator,
		publisher: deps.Publisher,
		events:    deps.Events,
		metrics:   deps.Metrics,
		now:       time.Now,
	}
}

// Run executes one generation request. Failures are returned as
// *domain.WorkflowError.
func (w *Workflow) Run(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	req = req.Normalize()
	logger := logging.New(ctx).With("user_id", req.UserID)
	logger.LogInfof("workflow", "state=%s skill=%q level=%q", domain.StateReceived, req.SkillName, req.CurrentLevel)

	if !req.Valid() {
		return w.fail(logger, domain.Fail(domain.CodeValidation, domain.StateReceived, domain.ErrValidation))
	}

	if !w.ledger.Check(ctx, req.UserID) {
		return w.fail(logger, domain.Fail(domain.CodeInsufficientCredits, domain.StateReceived, domain.ErrInsufficientCredits))
	}
	logger.LogInfof("workflow", "state=%s", domain.StateCreditChecked)

	doc, err := w.generator.Generate(ctx, req.SkillName, req.CurrentLevel)
	if err != nil {
		return w.fail(logger, domain.Fail(domain.CodeGeneration, domain.StateCreditChecked, err))
	}
	logger.LogInfof("workflow", "state=%s steps=%d", domain.StateGenerated, len(doc.Steps))

	artifact, err := w.publisher.Publish(ctx, doc)
	if err != nil {
		return w.fail(logger, domain.Fail(domain.CodePublish, domain.StateGenerated, err))
	}
	logger.LogInfof("workflow", "state=%s object_key=%s", domain.StatePublished, artifact.ObjectKey)

	balance, err := w.ledger.Decrement(ctx, req.UserID)
	if err != nil {
		// The object stays in storage; its key is logged for reconciliation.
		logger.LogErrorf("settle", "settlement failed, unsettled object_key=%s: %v", artifact.ObjectKey, err)
		if errors.Is(err, domain.ErrInsufficientCredits) {
			return w.fail(logger, domain.Fail(domain.CodeSettlement, domain.StatePublished, errors.Join(domain.ErrSettlement, err)))
		}
		return w.fail(logger, domain.Fail(domain.CodeLedgerUnavailable, domain.StatePublished, err))
	}
	w.metrics.RecordSettlement()
	logger.LogInfof("workflow", "state=%s new_balance=%d", domain.StateSettled, balance)

	evt := domain.SettledEvent{
		UserID:     req.UserID,
		SkillName:  req.SkillName,
		ObjectKey:  artifact.ObjectKey,
		NewBalance: balance,
		RequestID:  logging.RequestID(ctx),
		SettledAt:  w.now().UTC(),
	}
	if err := w.events.PublishSettled(ctx, evt); err != nil {
		logger.LogWarnf("events", "settled event not delivered: %v", err)
	}

	return domain.GenerationResult{Artifact: artifact, NewBalance: balance}, nil
}

func (w *Workflow) fail(logger *logging.Logger, werr *domain.WorkflowError) (domain.GenerationResult, error) {
	w.metrics.RecordFailure(werr.Code)
	logger.LogWarnf("workflow", "state=%s code=%s after=%s: %v", domain.StateFailed, werr.Code, werr.State, werr.Err)
	return domain.GenerationResult{}, werr
}
