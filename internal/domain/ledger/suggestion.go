package ledger

import (
	"github.com/shopspring/decimal"
)

// SuggestionLine is a single proposed line of an AI-generated journal
// suggestion, structurally identical to an inbound event line.
type SuggestionLine struct {
	AccountCode string          `json:"accountCode"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// Suggestion is an AI-generated journal entry proposal. Unlike an
// InboundJournalEvent it arrives as an in-process object from a synchronous
// call, not as a bus message. Its lifecycle ends either in a created journal
// entry or a silent no-op.
type Suggestion struct {
	Description     string           `json:"description"`
	Date            string           `json:"date"`
	JournalType     string           `json:"journalType"`
	Lines           []SuggestionLine `json:"lines"`
	ConfidenceScore *float64         `json:"confidenceScore,omitempty"`
	Explanation     string           `json:"explanation,omitempty"`
}

// AutoApplyPolicy is the two-key gate for automatically persisting AI
// suggestions: a global enable switch plus a per-suggestion confidence
// threshold. Operators can disable automation tenant-wide without touching
// thresholds.
type AutoApplyPolicy struct {
	Enabled       bool
	MinConfidence float64
}

// EffectiveConfidence returns the suggestion's own confidence score when
// present, falling back to the overall response confidence.
func (s Suggestion) EffectiveConfidence(overall float64) float64 {
	if s.ConfidenceScore != nil {
		return *s.ConfidenceScore
	}
	return overall
}

// ShouldAutoApply decides whether a suggestion is persisted automatically
// or left unapplied for later manual action.
func (p AutoApplyPolicy) ShouldAutoApply(s Suggestion, overallConfidence float64) bool {
	if !p.Enabled {
		return false
	}
	return s.EffectiveConfidence(overallConfidence) >= p.MinConfidence
}
