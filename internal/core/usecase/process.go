package usecase

import (
	"context"
	"fmt"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/core/ports"
)

// ProcessSubmissionUseCase routes a queued submission. The submission id is
// used as correlation id so every record of the run can be found again.
type ProcessSubmissionUseCase struct {
	loader ports.DocumentLoader
	router ports.DocumentRouter
}

func NewProcessSubmissionUseCase(loader ports.DocumentLoader, router ports.DocumentRouter) *ProcessSubmissionUseCase {
	return &ProcessSubmissionUseCase{
		loader: loader,
		router: router,
	}
}

func (uc *ProcessSubmissionUseCase) ProcessSubmission(ctx context.Context, sub domain.Submission) (domain.RouteOutcome, error) {
	doc, err := uc.loader.Load(ctx, sub)
	if err != nil {
		return domain.RouteOutcome{}, fmt.Errorf("load submission %s: %w", sub.ID, err)
	}

	outcome, err := uc.router.RouteCorrelated(ctx, doc, sub.ID)
	if err != nil {
		return domain.RouteOutcome{}, fmt.Errorf("route submission %s: %w", sub.ID, err)
	}
	return outcome, nil
}
