// Package classifier merges sanitizer flags, the InjectionDetector result,
// and two fixed keyword buckets into a single SAFE/SUSPICIOUS/MALICIOUS/EMPTY
// verdict for one query.
package classifier

import (
	"github.com/cortexguard/secure-rag/services/detector"
	"github.com/cortexguard/secure-rag/services/sanitize"
)

// Classification is the intent tier assigned to a query.
type Classification string

const (
	ClassificationSafe       Classification = "SAFE"
	ClassificationSuspicious Classification = "SUSPICIOUS"
	ClassificationMalicious  Classification = "MALICIOUS"
	ClassificationEmpty      Classification = "EMPTY"
)

// hasDangerousFlag reports whether res carries a sanitizer flag the decision
// cascade treats as evidence of an obfuscation attempt: a detected base64
// payload, or any of the unicode_* probes.
func hasDangerousFlag(res sanitize.Result) bool {
	return res.HasDangerousFlag()
}

// maliciousWithFlagFloor and maliciousConfidenceBoost implement rule 3 of the
// decision cascade: a moderately-confident injection match combined with an
// obfuscation flag escalates to MALICIOUS with a confidence bump.
const (
	maliciousConfidenceFloor    = 0.7
	maliciousWithFlagFloor      = 0.5
	maliciousConfidenceBoost    = 0.2
	suspiciousConfidenceFloor   = 0.5
	suspiciousKeywordThreshold  = 2
	safeConfidenceWithBusiness  = 0.95
	safeConfidenceWithoutWord   = 0.8
)

// escalatingCategories are the InjectionDetector categories that, on a
// single match regardless of confidence, are enough to mark a query
// SUSPICIOUS per rule 4.
var escalatingCategories = map[detector.Category]bool{
	detector.CategorySystemData:          true,
	detector.CategoryMetaQuery:           true,
	detector.CategoryInstructionOverride: true,
	detector.CategoryRoleplay:            true,
	detector.CategoryChainInjection:      true,
	detector.CategorySocialEngineering:   true,
	detector.CategoryContextManipulation: true,
}

// Result is the outcome of classifying one query.
type Result struct {
	Classification  Classification
	Confidence      float64
	Reason          string
	InjectionResult detector.Result
}

// Classifier evaluates sanitized text against the injection detector and
// the fixed keyword buckets.
type Classifier struct {
	injection *detector.Detector
}

// New wraps an already-constructed injection detector.
func New(injection *detector.Detector) *Classifier {
	return &Classifier{injection: injection}
}

// Classify implements the nine-rule decision cascade. Rules are evaluated
// in order and the first match wins.
func (c *Classifier) Classify(sanitized sanitize.Result) Result {
	text := sanitized.Text

	// Rule 1: empty text.
	if text == "" || sanitized.HasFlag(sanitize.FlagEmptyInput) {
		return Result{Classification: ClassificationEmpty, Confidence: 1.0, Reason: "empty"}
	}

	inj := c.injection.Detect(text)
	dangerous := hasDangerousFlag(sanitized)

	// Rule 2: high-confidence injection match.
	if inj.Confidence >= maliciousConfidenceFloor {
		return Result{
			Classification: ClassificationMalicious,
			Confidence: inj.Confidence,
			Reason: "injection_confidence_high",
			InjectionResult: inj,
		}
	}

	// Rule 3: moderate-confidence injection plus an obfuscation flag.
	if inj.Confidence >= maliciousWithFlagFloor && dangerous {
		boosted := inj.Confidence + maliciousConfidenceBoost
		if boosted > 1.0 {
			boosted = 1.0
		}
		return Result{
			Classification: ClassificationMalicious,
			Confidence: boosted,
			Reason: "injection_confidence_with_obfuscation",
			InjectionResult: inj,
		}
	}

	// Rule 4: a detection in an always-escalating category.
	if inj.Detected {
		for cat := range inj.Categories {
			if escalatingCategories[cat] {
				return Result{
					Classification: ClassificationSuspicious,
					Confidence: inj.Confidence,
					Reason: "injection_category_" + string(cat),
					InjectionResult: inj,
				}
			}
		}
	}

	// Rule 5: any sub-threshold-for-malicious but still meaningful injection confidence.
	if inj.Confidence >= suspiciousConfidenceFloor {
		return Result{
			Classification: ClassificationSuspicious,
			Confidence: inj.Confidence,
			Reason: "injection_confidence_moderate",
			InjectionResult: inj,
		}
	}

	suspiciousHits := countMatches(suspiciousKeywords, text)
	businessHits := countMatches(businessKeywords, text)

	// Rule 6.
	if suspiciousHits >= suspiciousKeywordThreshold && businessHits == 0 {
		return Result{Classification: ClassificationSuspicious, Confidence: 0.6, Reason: "keyword_suspicious_no_business", InjectionResult: inj}
	}

	// Rule 7.
	if suspiciousHits >= 1 && dangerous {
		return Result{Classification: ClassificationSuspicious, Confidence: 0.6, Reason: "keyword_suspicious_with_obfuscation", InjectionResult: inj}
	}

	// Rule 8.
	if dangerous && businessHits == 0 {
		return Result{Classification: ClassificationSuspicious, Confidence: 0.55, Reason: "obfuscation_no_business", InjectionResult: inj}
	}

	// Rule 9: fall through to SAFE.
	confidence := safeConfidenceWithoutWord
	if businessHits > 0 {
		confidence = safeConfidenceWithBusiness
	}
	return Result{Classification: ClassificationSafe, Confidence: confidence, Reason: "no_signal", InjectionResult: inj}
}
