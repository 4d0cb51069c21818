// Package detector implements the prompt-injection detection stage of the
// security pipeline: a catalogue of regular expressions, grouped into
// categories, compiled once at startup from an embedded YAML file and
// evaluated against every incoming query.
package detector

import (
	"fmt"
	"regexp"
)

// Category names one of the nine recognized injection-attack families.
type Category string

const (
	CategoryInstructionOverride Category = "instruction_override"
	CategorySystemData          Category = "system_data"
	CategoryMetaQuery           Category = "meta_query"
	CategoryRoleplay            Category = "roleplay"
	CategoryChainInjection      Category = "chain_injection"
	CategoryEncodingAttack      Category = "encoding_attack"
	CategorySocialEngineering   Category = "social_engineering"
	CategoryContextManipulation Category = "context_manipulation"
	CategoryMultiStepExploit    Category = "multi_step_exploit"
)

// PatternDef is one row of the embedded pattern catalogue.
type PatternDef struct {
	ID          string   `yaml:"id"`
	Category    Category `yaml:"category"`
	Severity    float64  `yaml:"severity"`
	Regex       string   `yaml:"regex"`
	Description string   `yaml:"description"`

	compiled *regexp.Regexp
}

type catalogue struct {
	Version  string       `yaml:"version"`
	Patterns []PatternDef `yaml:"patterns"`
}

func (c *catalogue) compile() error {
	for i := range c.Patterns {
		p := &c.Patterns[i]
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return fmt.Errorf("detector: pattern %s: %w", p.ID, err)
		}
		p.compiled = re
	}
	return nil
}

// Match records one pattern firing against the evaluated text.
type Match struct {
	PatternID   string   `json:"pattern_id"`
	Category    Category `json:"category"`
	Severity    float64  `json:"severity"`
	Description string   `json:"description"`
	Matched     string   `json:"matched"`
}

// Result is the outcome of running the full catalogue against one input.
type Result struct {
	Detected   bool              `json:"detected"`
	Confidence float64           `json:"confidence"`
	Matches    []Match           `json:"matches"`
	Categories map[Category]bool `json:"categories"`
}

// CategoryCount reports how many distinct categories fired.
func (r Result) CategoryCount() int {
	return len(r.Categories)
}

// HasCategory reports whether any match in the result belongs to cat.
func (r Result) HasCategory(cat Category) bool {
	return r.Categories[cat]
}
