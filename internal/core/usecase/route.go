package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/core/ports"
)

type DocumentRouter struct {
	store      ports.RecordStore
	classifier ports.DocumentClassifier
	email      ports.EmailExtractor
	json       ports.JSONExtractor
}

func NewDocumentRouter(
	store ports.RecordStore,
	classifier ports.DocumentClassifier,
	email ports.EmailExtractor,
	json ports.JSONExtractor,
) *DocumentRouter {
	return &DocumentRouter{
		store:      store,
		classifier: classifier,
		email:      email,
		json:       json,
	}
}

// Process classifies the document, hands it to the matching agent and
// returns the thread id. Agent failures end up as ERROR records; only a
// failing store is reported as an error.
func (uc *DocumentRouter) Process(ctx context.Context, doc domain.Document) (string, error) {
	outcome, err := uc.RouteCorrelated(ctx, doc, "")
	if err != nil {
		return "", err
	}
	return outcome.ThreadID, nil
}

func (uc *DocumentRouter) Route(ctx context.Context, doc domain.Document) (domain.RouteOutcome, error) {
	return uc.RouteCorrelated(ctx, doc, "")
}

func (uc *DocumentRouter) RouteCorrelated(ctx context.Context, doc domain.Document, correlationID string) (domain.RouteOutcome, error) {
	cls, threadID, err := uc.classifier.Classify(ctx, doc, correlationID)
	if err != nil {
		return domain.RouteOutcome{}, fmt.Errorf("classify document: %w", err)
	}

	outcome := domain.RouteOutcome{
		ThreadID: threadID,
		Format:   cls.Format,
		Intent:   cls.Intent,
		Final:    domain.StepClassify,
	}

	var agentErr error
	switch cls.Format {
	case domain.FormatEmail:
		_, agentErr = uc.email.Extract(ctx, doc, threadID, correlationID, cls)
	case domain.FormatJSON:
		_, agentErr = uc.json.Extract(ctx, doc, threadID, correlationID)
	default:
		return uc.recordError(ctx, outcome, correlationID, domain.ErrorDetail{
			Kind:    "no_agent",
			Message: fmt.Sprintf("no agent available for format %s", cls.Format),
		})
	}

	if agentErr != nil {
		slog.Warn("agent_failed",
			"thread_id", threadID,
			"format", string(cls.Format),
			"error", agentErr,
		)
		return uc.recordError(ctx, outcome, correlationID, domain.ErrorDetail{
			Kind:    agentErrorKind(agentErr),
			Message: agentErr.Error(),
		})
	}

	outcome.Final = domain.StepExtract
	slog.Debug("document_routed",
		"thread_id", threadID,
		"format", string(cls.Format),
		"intent", string(cls.Intent),
	)
	return outcome, nil
}

func (uc *DocumentRouter) recordError(
	ctx context.Context,
	outcome domain.RouteOutcome,
	correlationID string,
	detail domain.ErrorDetail,
) (domain.RouteOutcome, error) {
	_, err := uc.store.Append(ctx, domain.MemoryRecord{
		ThreadID:      outcome.ThreadID,
		CorrelationID: correlationID,
		SourceAgent:   domain.SourceRouter,
		StepType:      domain.StepError,
		Payload:       domain.Payload{Error: &detail},
	})
	if err != nil {
		return outcome, fmt.Errorf("record routing error: %w", err)
	}
	outcome.Final = domain.StepError
	return outcome, nil
}

func agentErrorKind(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrEmptyDocument):
		return "empty_document"
	default:
		return "agent_failure"
	}
}
