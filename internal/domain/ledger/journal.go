package ledger

import (
	"strings"
	"time"

	"github.com/comptaflow/backend/internal/domain/shared"
	"github.com/comptaflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalType categorizes a journal entry
type JournalType string

const (
	JournalTypeGeneral   JournalType = "GENERAL"
	JournalTypeSales     JournalType = "SALES"
	JournalTypePurchases JournalType = "PURCHASES"
	JournalTypeBank      JournalType = "BANK"
	JournalTypeCash      JournalType = "CASH"
)

// IsValid checks if the journal type is valid
func (t JournalType) IsValid() bool {
	switch t {
	case JournalTypeGeneral, JournalTypeSales, JournalTypePurchases,
		JournalTypeBank, JournalTypeCash:
		return true
	}
	return false
}

// String returns the string representation of the journal type
func (t JournalType) String() string {
	return string(t)
}

// MapJournalType maps a free-text journal type tag from an external producer
// to the closed JournalType enum. Unknown tags map to GENERAL; the second
// return value reports whether the tag was recognized so callers can log a
// warning without rejecting the entry.
func MapJournalType(raw string) (JournalType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "general", "journal", "od", "divers":
		return JournalTypeGeneral, true
	case "sales", "sale", "vente", "ventes":
		return JournalTypeSales, true
	case "purchases", "purchase", "achat", "achats":
		return JournalTypePurchases, true
	case "bank", "banque":
		return JournalTypeBank, true
	case "cash", "caisse":
		return JournalTypeCash, true
	}
	return JournalTypeGeneral, false
}

// EntryStatus represents the lifecycle status of a persisted journal entry
type EntryStatus string

const (
	// EntryStatusPosted - entry is final from this subsystem's perspective
	EntryStatusPosted EntryStatus = "POSTED"
	// EntryStatusPending - entry awaits human validation (AI-created entries)
	EntryStatusPending EntryStatus = "PENDING"
)

// IsValid checks if the entry status is valid
func (s EntryStatus) IsValid() bool {
	return s == EntryStatusPosted || s == EntryStatusPending
}

// JournalLine is a resolved, persisted line of a journal entry. The account
// code from the wire payload has already been translated to an internal
// account id by the time a line exists.
type JournalLine struct {
	AccountID   uuid.UUID
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// JournalEntry is a persisted double-entry bookkeeping record: a header plus
// an ordered list of lines. ExternalID and ExternalSource together form the
// natural idempotency key against the originating event; the storage layer
// enforces their uniqueness per tenant.
type JournalEntry struct {
	shared.TenantEntity
	Date           time.Time
	Description    string
	JournalType    JournalType
	Currency       valueobject.Currency
	Amount         decimal.Decimal
	ExternalID     string
	ExternalSource string
	Status         EntryStatus
	Lines          []JournalLine
}

// NewJournalEntry creates a journal entry from resolved lines. Amount is
// always recomputed here as max(total debits, total credits) - it is never
// trusted from the caller.
func NewJournalEntry(
	tenantID uuid.UUID,
	date time.Time,
	description string,
	journalType JournalType,
	currency valueobject.Currency,
	externalID, externalSource string,
	status EntryStatus,
	lines []JournalLine,
) (*JournalEntry, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTRY", "tenant id is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_ENTRY", "a journal entry requires at least one line")
	}
	if !journalType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY", "invalid journal type")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY", "invalid entry status")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	for _, line := range lines {
		if line.AccountID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_ENTRY", "line account id is required")
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return nil, shared.NewDomainError("INVALID_ENTRY", "line amounts cannot be negative")
		}
	}

	entry := &JournalEntry{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		Date:           date,
		Description:    description,
		JournalType:    journalType,
		Currency:       currency,
		ExternalID:     externalID,
		ExternalSource: externalSource,
		Status:         status,
		Lines:          lines,
	}
	entry.Amount = entry.computeAmount()
	return entry, nil
}

// computeAmount derives the header amount from the line sums
func (e *JournalEntry) computeAmount() decimal.Decimal {
	debit, credit := e.Totals()
	if debit.GreaterThanOrEqual(credit) {
		return debit
	}
	return credit
}

// Totals returns the sum of debits and the sum of credits across all lines
func (e *JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, line := range e.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// IsBalanced reports whether debits and credits balance within the epsilon
// tolerance.
func (e *JournalEntry) IsBalanced() bool {
	debit, credit := e.Totals()
	return valueobject.WithinEpsilon(debit, credit)
}
