package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source keys identifying where an inbound accounting fact originated.
// These double as the keys for the per-tenant data-source feature gate.
const (
	SourceCommerce = "commerce"
	SourceAI       = "ai_assistant"
)

// EventLine is a single line of an inbound journal event, still carrying the
// human-readable account code from the producer.
type EventLine struct {
	AccountCode string          `json:"accountCode"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// InboundJournalEvent is the wire payload for a commerce-originated or
// AI-originated accounting fact. It is produced externally, consumed exactly
// once logically (at-least-once physically), and never mutated.
type InboundJournalEvent struct {
	ID          string           `json:"id"`
	SourceID    string           `json:"sourceId"`
	SourceType  string           `json:"sourceType"`
	CompanyID   uuid.UUID        `json:"companyId"`
	Date        string           `json:"date"`
	Description string           `json:"description"`
	Currency    string           `json:"currency"`
	JournalType string           `json:"journalType"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Lines       []EventLine      `json:"lines"`
}

// ProcessingStatusEvent is the outbound processing-outcome report published
// back to the producer. JournalEntryID carries the producer's original event
// id, not the persisted entry id - the producer correlates on its own id.
type ProcessingStatusEvent struct {
	JournalEntryID string    `json:"journalEntryId"`
	SourceID       string    `json:"sourceId"`
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
	ProcessedBy    string    `json:"processedBy"`
}

// eventDateLayouts are the accepted date formats for inbound events, most
// specific first.
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseEventDate parses a producer-supplied date string
func ParseEventDate(raw string) (time.Time, error) {
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", raw)
}
