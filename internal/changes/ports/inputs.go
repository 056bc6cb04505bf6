package ports

import (
	"context"

	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
)

// DetectUseCase is the driving port for detecting changed directories.
type DetectUseCase interface {
	Execute(ctx context.Context, trigger domain.Trigger) (domain.Result, error)
}
