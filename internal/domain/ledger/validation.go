package ledger

import (
	"fmt"

	"github.com/comptaflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidationResult is the outcome of validating an inbound journal event.
// It is process-local and never persisted. Warnings never block processing;
// they exist for audit visibility only.
type ValidationResult struct {
	IsValid     bool
	IsBalanced  bool
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Difference  decimal.Decimal
	Errors      []string
	Warnings    []string
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateJournalEvent checks the structural and accounting-domain invariants
// of an inbound journal event. It is pure and deterministic: invalid input is
// a normal return value, never an error.
func ValidateJournalEvent(event InboundJournalEvent) ValidationResult {
	result := ValidationResult{
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		Difference:  decimal.Zero,
	}

	if event.ID == "" {
		result.addError("event id is required")
	}
	if event.SourceID == "" {
		result.addError("source id is required")
	}
	if event.CompanyID == uuid.Nil {
		result.addError("company id is required")
	}
	if event.Date == "" {
		result.addError("date is required")
	} else if _, err := ParseEventDate(event.Date); err != nil {
		result.addError("invalid date: %v", err)
	}
	if event.Description == "" {
		result.addError("description is required")
	}

	if len(event.Lines) < 2 {
		result.addError("a journal entry requires at least 2 lines, got %d", len(event.Lines))
		result.IsValid = len(result.Errors) == 0
		return result
	}

	for i, line := range event.Lines {
		validateLine(&result, i, line)
		result.TotalDebit = result.TotalDebit.Add(line.Debit)
		result.TotalCredit = result.TotalCredit.Add(line.Credit)
	}

	result.Difference = result.TotalDebit.Sub(result.TotalCredit).Abs()
	result.IsBalanced = result.Difference.LessThan(valueobject.BalanceEpsilon)
	if !result.IsBalanced {
		result.addError("entry is not balanced: debits %s, credits %s, difference %s",
			result.TotalDebit.StringFixed(2),
			result.TotalCredit.StringFixed(2),
			result.Difference.StringFixed(2))
	}

	switch {
	case event.Currency == "":
		result.addWarning("currency is missing, %s assumed", valueobject.DefaultCurrency)
	case !valueobject.Currency(event.Currency).IsSupported():
		result.addWarning("currency %q is not in the supported set", event.Currency)
	}

	if event.Amount != nil {
		computed := result.TotalDebit
		if result.TotalCredit.GreaterThan(computed) {
			computed = result.TotalCredit
		}
		if !valueobject.WithinEpsilon(*event.Amount, computed) {
			result.addWarning("declared amount %s differs from computed amount %s",
				event.Amount.StringFixed(2), computed.StringFixed(2))
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// validateLine applies the per-line rules. A line must move exactly one side
// of the entry: both sides zero is an error, both sides positive is only a
// warning to avoid false rejections on ambiguous upstream data.
func validateLine(result *ValidationResult, i int, line EventLine) {
	if line.AccountCode == "" {
		result.addError("line %d: account code is required", i+1)
	}
	if line.Description == "" {
		result.addError("line %d: description is required", i+1)
	}
	debitPositive := line.Debit.IsPositive()
	creditPositive := line.Credit.IsPositive()
	switch {
	case line.Debit.IsNegative() || line.Credit.IsNegative():
		result.addError("line %d: debit and credit cannot be negative", i+1)
	case !debitPositive && !creditPositive:
		result.addError("line %d: either debit or credit must be positive", i+1)
	case debitPositive && creditPositive:
		result.addWarning("line %d: both debit and credit are positive", i+1)
	}
}
