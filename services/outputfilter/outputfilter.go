// Package outputfilter rescans LLM output for disclosures of system
// prompts, model identity, retrieval architecture, the security stack
// itself, or acknowledgment of a jailbreak attempt, before the response
// reaches the client.
package outputfilter

import "regexp"

// LeakCategory names one of the five recognized disclosure classes.
type LeakCategory string

const (
	LeakSystem       LeakCategory = "system_leak"
	LeakModel        LeakCategory = "model_leak"
	LeakArchitecture LeakCategory = "architecture_leak"
	LeakSecurity     LeakCategory = "security_leak"
	LeakOverride     LeakCategory = "override_leak"
)

// blockingCategories force a block action regardless of total leak count.
var blockingCategories = map[LeakCategory]bool{
	LeakSystem:       true,
	LeakModel:        true,
	LeakArchitecture: true,
	LeakSecurity:     true,
}

type leakPattern struct {
	category LeakCategory
	re       *regexp.Regexp
}

var leakPatterns = []leakPattern{
	{LeakSystem, regexp.MustCompile(`(?i)system\s+prompt`)},
	{LeakSystem, regexp.MustCompile(`(?i)my\s+instructions?\s+(are|is)`)},
	{LeakSystem, regexp.MustCompile(`(?i)i\s+was\s+(told|instructed)\s+to`)},

	{LeakModel, regexp.MustCompile(`(?i)\b(gpt-4|gpt-3\.5|claude|llama|deepseek|gemini|grok|xai)\b`)},
	{LeakModel, regexp.MustCompile(`(?i)\bsk-[a-zA-Z0-9]{16,}\b`)},
	{LeakModel, regexp.MustCompile(`(?i)\bapi[_-]?key\s*[:=]\s*\S+`)},

	{LeakArchitecture, regexp.MustCompile(`(?i)\bweaviate\b|\bpinecone\b|\bqdrant\b|\bmilvus\b`)},
	{LeakArchitecture, regexp.MustCompile(`(?i)\brag\s+pipeline\b`)},
	{LeakArchitecture, regexp.MustCompile(`(?i)\bcosine\s+similarity\b`)},
	{LeakArchitecture, regexp.MustCompile(`(?i)\b(gin-gonic|gin\s+framework|fastapi|express\.js)\b`)},
	{LeakArchitecture, regexp.MustCompile(`(?i)\bvector\s+(index|database|store)\b`)},

	{LeakSecurity, regexp.MustCompile(`(?i)\binjection\s+detector\b`)},
	{LeakSecurity, regexp.MustCompile(`(?i)\boutput\s+filter\b`)},
	{LeakSecurity, regexp.MustCompile(`(?i)\bintent\s+classifier\b`)},
	{LeakSecurity, regexp.MustCompile(`(?i)\bsecurity\s+middleware\b`)},
	{LeakSecurity, regexp.MustCompile(`(?i)\bsanitiz(er|ation)\s+(pipeline|stage)\b`)},

	{LeakOverride, regexp.MustCompile(`(?i)\bi\s+will\s+ignore\s+(my\s+)?(previous\s+)?(instructions?|rules?)\b`)},
	{LeakOverride, regexp.MustCompile(`(?i)\bas\s+you\s+requested,\s+i(.| )?ve\s+disabled\b`)},
	{LeakOverride, regexp.MustCompile(`(?i)\bjailbreak\s+successful\b`)},
	{LeakOverride, regexp.MustCompile(`(?i)\bi\s+am\s+now\s+in\s+(developer|debug|unrestricted)\s+mode\b`)},
}

// Action is the disposition chosen for a response after scanning.
type Action string

const (
	ActionPass   Action = "pass"
	ActionRedact Action = "redact"
	ActionBlock  Action = "block"
)

// FallbackResponse replaces a response whose leaks were severe enough to
// block outright.
const FallbackResponse = "I'm not able to share that information, but I'm happy to help with your product or documentation question."

// LeakMatch records one pattern firing during a scan.
type LeakMatch struct {
	Category LeakCategory `json:"category"`
	Matched  string       `json:"matched"`
}

// Scan is the raw result of evaluating leak patterns against a response.
type Scan struct {
	Matches []LeakMatch
}

// FilterResult is the outcome of filtering one LLM response.
type FilterResult struct {
	Response string
	Filtered bool
	Action   Action
	Reason   string
}

// Filter scans response for the five leak categories and returns the
// sanitized text plus the action taken.
func Filter(response string) FilterResult {
	scan := scanResponse(response)
	if len(scan.Matches) == 0 {
		return FilterResult{Response: response, Filtered: false, Action: ActionPass, Reason: "no_leak"}
	}

	categories := make(map[LeakCategory]bool)
	for _, m := range scan.Matches {
		categories[m.Category] = true
	}

	blocking := false
	for cat := range categories {
		if blockingCategories[cat] {
			blocking = true
			break
		}
	}
	if blocking || len(scan.Matches) >= 2 {
		return FilterResult{Response: FallbackResponse, Filtered: true, Action: ActionBlock, Reason: "leak_threshold_exceeded"}
	}

	redacted := response
	for _, m := range scan.Matches {
		redacted = replaceAll(redacted, m.Matched, "[redacted]")
	}
	return FilterResult{Response: redacted, Filtered: true, Action: ActionRedact, Reason: "single_leak_redacted"}
}

func scanResponse(response string) Scan {
	var matches []LeakMatch
	for _, p := range leakPatterns {
		found := p.re.FindString(response)
		if found == "" {
			continue
		}
		matches = append(matches, LeakMatch{Category: p.category, Matched: found})
	}
	return Scan{Matches: matches}
}

func replaceAll(s, old, new string) string {
	if old == "" {
		return s
	}
	return regexp.MustCompile(regexp.QuoteMeta(old)).ReplaceAllString(s, new)
}
