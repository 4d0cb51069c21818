package detector

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var embeddedPatterns []byte

// categoryBoost is added to the aggregate confidence when matches span at
// least two distinct categories, reflecting that a multi-pronged attempt is
// more likely to be deliberate than a single coincidental match.
const categoryBoost = 0.1

// multiCategoryCeiling is the category count at which confidence is raised
// to certainty regardless of the individual pattern severities.
const multiCategoryCeiling = 3

var whitespaceRun = regexp.MustCompile(`\s+`)

// Detector holds a compiled copy of the injection-pattern catalogue.
type Detector struct {
	patterns []PatternDef
}

// New loads and compiles the embedded pattern catalogue. The catalogue is
// parsed once; callers should keep the returned Detector for the life of
// the process and call Detect concurrently — it holds no mutable state.
func New() (*Detector, error) {
	var cat catalogue
	if err := yaml.Unmarshal(embeddedPatterns, &cat); err != nil {
		return nil, fmt.Errorf("detector: unmarshal embedded catalogue: %w", err)
	}
	if err := cat.compile(); err != nil {
		return nil, err
	}
	if len(cat.Patterns) == 0 {
		return nil, fmt.Errorf("detector: embedded catalogue has no patterns")
	}
	return &Detector{patterns: cat.Patterns}, nil
}

// Detect evaluates text against every pattern in the catalogue. Matching is
// case-insensitive by pattern construction; in addition, every pattern is
// tested a second time against a whitespace-collapsed, lowercased variant of
// text so that irregular spacing or newlines inserted between words of an
// otherwise-recognized phrase don't defeat detection.
func (d *Detector) Detect(text string) Result {
	variant := strings.ToLower(whitespaceRun.ReplaceAllString(text, " "))

	matches := make([]Match, 0)
	categories := make(map[Category]bool)
	var maxSeverity float64

	for _, p := range d.patterns {
		found := p.compiled.FindString(text)
		if found == "" {
			found = p.compiled.FindString(variant)
		}
		if found == "" {
			continue
		}
		matches = append(matches, Match{
			PatternID:   p.ID,
			Category:    p.Category,
			Severity:    p.Severity,
			Description: p.Description,
			Matched:     found,
		})
		categories[p.Category] = true
		if p.Severity > maxSeverity {
			maxSeverity = p.Severity
		}
	}

	if len(matches) == 0 {
		return Result{Detected: false, Confidence: 0, Categories: map[Category]bool{}}
	}

	confidence := maxSeverity
	if len(categories) >= 2 {
		confidence += categoryBoost
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	if len(categories) >= multiCategoryCeiling {
		confidence = 1.0
	}

	return Result{
		Detected:   true,
		Confidence: confidence,
		Matches:    matches,
		Categories: categories,
	}
}
