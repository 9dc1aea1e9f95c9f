package agents

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

type jsonLocationError struct {
	err    error
	offset int64
}

func (e *jsonLocationError) Error() string { return e.err.Error() }
func (e *jsonLocationError) Unwrap() error { return e.err }

// decodeStrict parses exactly one JSON value and rejects trailing data.
func decodeStrict(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, &jsonLocationError{err: err, offset: errorOffset(err, data)}
	}
	end := dec.InputOffset()
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, &jsonLocationError{err: err, offset: skipSpace(data, end)}
		}
		return nil, &jsonLocationError{
			err:    errors.New("unexpected data after top-level value"),
			offset: skipSpace(data, end),
		}
	}
	return value, nil
}

// errorOffset returns the index of the byte that made decoding fail.
func errorOffset(err error, data []byte) int64 {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) && syntaxErr.Offset > 0 {
		return syntaxErr.Offset - 1
	}
	return int64(len(data))
}

func skipSpace(data []byte, offset int64) int64 {
	for offset < int64(len(data)) {
		switch data[offset] {
		case ' ', '\t', '\r', '\n':
			offset++
		default:
			return offset
		}
	}
	return offset
}

// lineColumn converts a byte index into 1-based line and column numbers.
func lineColumn(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	if offset < 0 {
		offset = 0
	}
	prefix := data[:offset]
	line := bytes.Count(prefix, []byte{'\n'}) + 1
	col := int(offset) - bytes.LastIndexByte(prefix, '\n')
	if col < 1 {
		col = 1
	}
	return line, col
}

func looksLikeJSON(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// canonicalJSON re-serializes a decoded value with sorted keys and a
// two-space indent.
func canonicalJSON(value any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func summarizeStructure(value any) *domain.StructureSummary {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return &domain.StructureSummary{Kind: "object", Keys: keys, Count: len(keys)}
	case []any:
		return &domain.StructureSummary{Kind: "array", Count: len(v)}
	case string:
		return &domain.StructureSummary{Kind: "string", Count: 1}
	case json.Number:
		return &domain.StructureSummary{Kind: "number", Count: 1}
	case bool:
		return &domain.StructureSummary{Kind: "boolean", Count: 1}
	default:
		return &domain.StructureSummary{Kind: "null", Count: 1}
	}
}
