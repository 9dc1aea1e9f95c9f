package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type StepType string

const (
	StepClassify StepType = "CLASSIFY"
	StepExtract  StepType = "EXTRACT"
	StepError    StepType = "ERROR"
)

const (
	SourceClassifier = "classifier_agent"
	SourceEmailAgent = "email_agent"
	SourceJSONAgent  = "json_agent"
	SourceRouter     = "router"
)

// Payload carries exactly one of its fields.
type Payload struct {
	Classification *Classification  `json:"classification,omitempty"`
	Email          *EmailExtraction `json:"email,omitempty"`
	JSON           *JSONExtraction  `json:"json,omitempty"`
	Error          *ErrorDetail     `json:"error,omitempty"`
}

// MemoryRecord is one append-only entry of the shared history.
type MemoryRecord struct {
	ID            string    `json:"record_id"`
	ThreadID      string    `json:"thread_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	SourceAgent   string    `json:"source_agent"`
	StepType      StepType  `json:"step_type"`
	Timestamp     time.Time `json:"timestamp"`
	Payload       Payload   `json:"payload"`
}

// Prepare validates the record and fills the id and timestamp when absent.
// notBefore is the timestamp of the latest record already stored for the
// same thread; the result is never earlier than it.
func (r *MemoryRecord) Prepare(now, notBefore time.Time) error {
	if strings.TrimSpace(r.ThreadID) == "" {
		return WrapError(ErrInvalidRecord, "append record", errors.New("thread_id is required"))
	}
	if strings.TrimSpace(r.SourceAgent) == "" {
		return WrapError(ErrInvalidRecord, "append record", errors.New("source_agent is required"))
	}
	switch r.StepType {
	case StepClassify, StepExtract, StepError:
	default:
		return WrapError(ErrInvalidRecord, "append record", fmt.Errorf("unknown step_type %q", r.StepType))
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = now.UTC()
	}
	if r.Timestamp.Before(notBefore) {
		r.Timestamp = notBefore
	}
	return nil
}

type RecordFilter struct {
	SourceAgent   string
	StepType      StepType
	ThreadID      string
	CorrelationID string
	Since         time.Time
	Until         time.Time
}

func (f RecordFilter) Match(r MemoryRecord) bool {
	if f.SourceAgent != "" && r.SourceAgent != f.SourceAgent {
		return false
	}
	if f.StepType != "" && r.StepType != f.StepType {
		return false
	}
	if f.ThreadID != "" && r.ThreadID != f.ThreadID {
		return false
	}
	if f.CorrelationID != "" && r.CorrelationID != f.CorrelationID {
		return false
	}
	if !f.Since.IsZero() && r.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && r.Timestamp.After(f.Until) {
		return false
	}
	return true
}

// RecordView is the display projection of a record.
type RecordView struct {
	RecordID    string    `json:"record_id" yaml:"record_id"`
	ThreadID    string    `json:"thread_id" yaml:"thread_id"`
	SourceAgent string    `json:"source_agent" yaml:"source_agent"`
	StepType    StepType  `json:"step_type" yaml:"step_type"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Summary     string    `json:"summary" yaml:"summary"`
}

func NewRecordView(r MemoryRecord) RecordView {
	return RecordView{
		RecordID:    r.ID,
		ThreadID:    r.ThreadID,
		SourceAgent: r.SourceAgent,
		StepType:    r.StepType,
		Timestamp:   r.Timestamp,
		Summary:     r.Payload.Summary(),
	}
}

func (p Payload) Summary() string {
	switch {
	case p.Classification != nil:
		c := p.Classification
		return fmt.Sprintf("format=%s intent=%s confidence=%.2f", c.Format, c.Intent, c.Confidence)
	case p.Email != nil:
		e := p.Email
		return fmt.Sprintf("from=%q subject=%q urgency=%s", e.Sender, e.Subject, e.Urgency)
	case p.JSON != nil:
		j := p.JSON
		if !j.Valid {
			return fmt.Sprintf("valid=false error=%q", j.Error)
		}
		if j.Structure == nil {
			return "valid=true"
		}
		if j.Structure.Kind == "object" {
			return fmt.Sprintf("valid=true keys=%s", strings.Join(j.Structure.Keys, ","))
		}
		return fmt.Sprintf("valid=true kind=%s count=%d", j.Structure.Kind, j.Structure.Count)
	case p.Error != nil:
		return fmt.Sprintf("%s: %s", p.Error.Kind, p.Error.Message)
	default:
		return ""
	}
}
