package domain

import (
	"bytes"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

type Format string

const (
	FormatEmail   Format = "EMAIL"
	FormatJSON    Format = "JSON"
	FormatUnknown Format = "UNKNOWN"
)

type Intent string

const (
	IntentUrgent        Intent = "URGENT"
	IntentNormal        Intent = "NORMAL"
	IntentInvalid       Intent = "INVALID"
	IntentNotApplicable Intent = "N/A"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is an uploaded payload as received from the outer layer.
// Content must not be modified after construction.
type Document struct {
	Name       string    `json:"name,omitempty"`
	Content    []byte    `json:"-"`
	ReceivedAt time.Time `json:"received_at"`
}

func NewDocument(name string, content []byte) Document {
	buf := make([]byte, len(content))
	copy(buf, content)
	return Document{
		Name:       strings.TrimSpace(name),
		Content:    buf,
		ReceivedAt: time.Now().UTC(),
	}
}

// Extension returns the lower-cased declared extension including the dot.
func (d Document) Extension() string {
	if d.Name == "" {
		return ""
	}
	return strings.ToLower(filepath.Ext(d.Name))
}

// Text decodes the content as UTF-8, falling back to Latin-1 for byte
// sequences that are not valid UTF-8.
func (d Document) Text() string {
	raw := bytes.TrimPrefix(d.Content, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw)
	}
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}

func (d Document) IsBlank() bool {
	return strings.TrimSpace(d.Text()) == ""
}

// RouteOutcome summarizes one pass of a document through the router.
type RouteOutcome struct {
	ThreadID string   `json:"thread_id"`
	Format   Format   `json:"format"`
	Intent   Intent   `json:"intent"`
	Final    StepType `json:"final_step"`
}
