// Package rulesfile loads classifier heuristics from a YAML file.
package rulesfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/samakshmehra/document-processing-system/internal/core/agents"
	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

// Load reads path and overlays it on agents.DefaultRules. An empty path
// returns the defaults.
func Load(path string) (agents.Rules, error) {
	if path == "" {
		return agents.DefaultRules(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return agents.Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (agents.Rules, error) {
	rules := agents.DefaultRules()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return agents.Rules{}, domain.WrapError(domain.ErrInvalidInput, "parse rules file", err)
	}
	if rules.HeaderScanLines < 0 || rules.SnippetChars < 0 {
		return agents.Rules{}, domain.WrapError(domain.ErrInvalidInput, "parse rules file", errors.New("limits must not be negative"))
	}
	return rules.Normalize(), nil
}
