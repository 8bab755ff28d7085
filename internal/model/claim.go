package model

import "strings"

// Verdict is the categorical outcome of checking a single claim.
// Graded verdicts are spaced words, as the verification prompt asks for them;
// NO_FACTUAL_CLAIMS is a sentinel token and keeps its underscores.
type Verdict string

const (
	VerdictTrue                 Verdict = "TRUE"
	VerdictFalse                Verdict = "FALSE"
	VerdictPartiallyTrue        Verdict = "PARTIALLY TRUE"
	VerdictInsufficientEvidence Verdict = "INSUFFICIENT EVIDENCE"
	VerdictNoFactualClaims      Verdict = "NO_FACTUAL_CLAIMS"
	VerdictError                Verdict = "ERROR"
	VerdictAnalysisComplete     Verdict = "ANALYSIS COMPLETE" // Reasoning service answered in prose
)

// ParseVerdict maps a free-form verdict label to a Verdict.
// Unknown labels are kept upper-cased so nothing the service says is lost.
func ParseVerdict(s string) Verdict {
	label := strings.ToUpper(strings.TrimSpace(s))
	if label == "" {
		return VerdictInsufficientEvidence
	}
	if label == string(VerdictNoFactualClaims) || label == "NO FACTUAL CLAIMS" {
		return VerdictNoFactualClaims
	}
	label = strings.Join(strings.Fields(strings.ReplaceAll(label, "_", " ")), " ")
	return Verdict(label)
}

// SourceType tells whether a claim came from text or from an image
type SourceType string

const (
	SourceTypeText  SourceType = "text"
	SourceTypeImage SourceType = "image"
)

// ClaimVerification is the reasoning service's judgement on one claim
type ClaimVerification struct {
	Verdict     Verdict  `json:"verdict"`
	Confidence  int      `json:"confidence"`  // 0-100
	Explanation string   `json:"explanation"` // Short rationale
	Sources     []string `json:"sources"`     // http(s) URLs only, at most 5
}

// ErrorVerification builds the synthetic result used when the reasoning
// service could not be reached or kept failing.
func ErrorVerification(status string) ClaimVerification {
	return ClaimVerification{
		Verdict:     VerdictError,
		Confidence:  0,
		Explanation: "Failed to verify claim (upstream status: " + status + ")",
		Sources:     []string{},
	}
}

// ClaimResult pairs a claim with its verification
type ClaimResult struct {
	Claim      string            `json:"claim"`
	Result     ClaimVerification `json:"result"`
	SourceType SourceType        `json:"source_type"`
}
