package app

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
	"github.com/nathantilsley/changed-dirs/internal/changes/ports"
)

// DetectService implements ports.DetectUseCase: resolve the changed files,
// classify them into first-level directories, and publish the result.
type DetectService struct {
	resolver   *Resolver
	classifier *domain.Classifier
	publisher  ports.PublishPort
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewDetectService creates a DetectService.
func NewDetectService(
	resolver *Resolver,
	classifier *domain.Classifier,
	publisher ports.PublishPort,
	logger *slog.Logger,
	tracer trace.Tracer,
) *DetectService {
	return &DetectService{
		resolver:   resolver,
		classifier: classifier,
		publisher:  publisher,
		logger:     logger,
		tracer:     tracer,
	}
}

// Execute runs one detection for trigger.
func (s *DetectService) Execute(ctx context.Context, trigger domain.Trigger) (domain.Result, error) {
	ctx, span := s.tracer.Start(ctx, "detect")
	defer span.End()

	s.logger.Info("detecting changed directories",
		"event", trigger.Name,
		"repo", trigger.Repo.String(),
		"baseDir", s.classifier.BaseDir(),
	)

	res := s.resolver.Resolve(ctx, trigger)
	s.logger.Debug("changed files", "source", res.Source, "files", res.Files)

	dirs := s.classifier.Classify(res.Files)
	result := domain.Result{
		Dirs:      dirs.Names(),
		Source:    res.Source,
		FileCount: len(res.Files),
		BaseDir:   s.classifier.BaseDir(),
	}

	span.SetAttributes(
		attribute.String("source", result.Source),
		attribute.Int("files", result.FileCount),
		attribute.Int("dirs", len(result.Dirs)),
	)
	s.logger.Info("changed directories", "count", dirs.Len(), "dirs", result.Dirs, "source", result.Source)

	if err := s.publisher.Publish(ctx, result); err != nil {
		return domain.Result{}, fmt.Errorf("publishing result: %w", err)
	}
	return result, nil
}
