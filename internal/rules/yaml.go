package rules

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/thebtf/tabtriage/pkg/models"
)

// ruleFile is the YAML document shape for rule import and export.
type ruleFile struct {
	Rules []models.CategoryRule `yaml:"rules"`
}

// ExportYAML writes the custom rules as a YAML document.
func (s *Store) ExportYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ruleFile{Rules: s.CustomRules()}); err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	return enc.Close()
}

// ImportYAML replaces the custom rules with those in the YAML document read from r.
func (s *Store) ImportYAML(ctx context.Context, r io.Reader) ([]models.CategoryRule, error) {
	var doc ruleFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return s.SaveCustomRules(ctx, doc.Rules)
}
