package screener

import (
	"regexp"
	"strings"
)

// RiskLevel is the band the classifier assigns to a message.
type RiskLevel string

const (
	RiskOK     RiskLevel = "ok"
	RiskHigh   RiskLevel = "high_risk"
	RiskCrisis RiskLevel = "crisis"
)

// Classification is the classifier output. Reasons lists every pattern
// name that matched within the winning level.
type Classification struct {
	Level   RiskLevel `json:"level"`
	Reasons []string  `json:"reasons,omitempty"`
}

type riskPattern struct {
	name string
	re   *regexp.Regexp
}

func pattern(name, expr string) riskPattern {
	return riskPattern{name: name, re: regexp.MustCompile(`(?i)` + expr)}
}

// Crisis patterns hard-stop the conversation. Checked before the
// high-risk set; any match wins.
var crisisPatterns = []riskPattern{
	pattern("self_harm", `\b(hurt(ing)?|harm(ing)?|cut(ting)?)\s+(myself|my\s*self|themselves|himself|herself)\b`),
	pattern("suicidal_ideation", `\b(kill\s+(myself|himself|herself|themselves)|suicide|suicidal|end\s+(my|his|her|their)\s+life|don'?t\s+want\s+to\s+(live|be\s+alive))\b`),
	pattern("violence", `\b(kill\s+(him|her|them|someone)|shoot|stab|weapon|gun|knife)\b`),
	pattern("abuse", `\b(abus(e|ed|ing)|molest(ed|ing)?|beat(s|en|ing)?\s+(me|him|her|them))\b`),
}

// High-risk patterns flag the referral but let the conversation
// continue.
var highRiskPatterns = []riskPattern{
	pattern("severe_depression", `\b(hopeless|worthless|severely?\s+depressed|deep\s+depression)\b`),
	pattern("panic", `\b(panic\s+attacks?|can'?t\s+breathe|terrified\s+all\s+the\s+time)\b`),
	pattern("overdose", `\b(overdos(e|ed|ing)|too\s+many\s+pills)\b`),
	pattern("cant_go_on", `\b(can'?t\s+(go\s+on|take\s+(it|this)\s+anymore|cope))\b`),
	pattern("unsafe", `\b(unsafe|not\s+safe|in\s+danger)\b`),
}

// Classify maps free text to a risk band. Pure and deterministic;
// empty or whitespace-only text is always ok. Crisis patterns are
// checked first and short-circuit the high-risk set, but within the
// winning level every matching pattern name is reported.
func Classify(text string) Classification {
	if strings.TrimSpace(text) == "" {
		return Classification{Level: RiskOK}
	}
	if reasons := matchAll(crisisPatterns, text); len(reasons) > 0 {
		return Classification{Level: RiskCrisis, Reasons: reasons}
	}
	if reasons := matchAll(highRiskPatterns, text); len(reasons) > 0 {
		return Classification{Level: RiskHigh, Reasons: reasons}
	}
	return Classification{Level: RiskOK}
}

func matchAll(patterns []riskPattern, text string) []string {
	var reasons []string
	for _, p := range patterns {
		if p.re.MatchString(text) {
			reasons = append(reasons, p.name)
		}
	}
	return reasons
}
