package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/comptaflow/backend/internal/domain/ledger"
	"github.com/comptaflow/backend/internal/domain/shared/valueobject"
	"github.com/comptaflow/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reconciler turns an AI-generated journal suggestion into a persisted
// journal entry, or into nothing at all. A nil entry with a nil error means
// the suggestion was deliberately not applied; the caller decides whether
// that is user-visible. No unbalanced entry is ever persisted through this
// path.
type Reconciler struct {
	accounts ledger.AccountRepository
	journal  ledger.JournalRepository
	logger   *zap.Logger
}

// NewReconciler creates a new suggestion reconciler
func NewReconciler(accounts ledger.AccountRepository, journal ledger.JournalRepository, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		accounts: accounts,
		journal:  journal,
		logger:   logger,
	}
}

// Reconcile resolves, balances and persists a suggestion
func (r *Reconciler) Reconcile(ctx context.Context, s ledger.Suggestion, tenantID, userID uuid.UUID) (*ledger.JournalEntry, error) {
	return r.ReconcileWithRef(ctx, s, tenantID, userID, "")
}

// ReconcileWithRef is Reconcile with an external reference attached to the
// created entry, so suggestions derived from a known source object (e.g. a
// mobile transaction) stay idempotent across redeliveries.
func (r *Reconciler) ReconcileWithRef(ctx context.Context, s ledger.Suggestion, tenantID, userID uuid.UUID, externalID string) (*ledger.JournalEntry, error) {
	ctx = logger.WithTenant(ctx, tenantID)

	if len(s.Lines) == 0 {
		r.logger.Warn("suggestion has no lines, skipping",
			zap.String("tenant_id", tenantID.String()),
		)
		return nil, nil
	}

	journalType, recognized := ledger.MapJournalType(s.JournalType)
	if !recognized {
		r.logger.Warn("unrecognized suggestion journal type, defaulting to general",
			zap.String("journal_type", s.JournalType),
		)
	}

	resolved, dropped, err := resolveLines(ctx, r.accounts, tenantID, suggestionToEventLines(s.Lines), r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve suggestion lines: %w", err)
	}
	if len(resolved) == 0 || len(dropped) > 0 {
		// A partially-resolved suggestion is not trustworthy: the AI balanced
		// the declared set, not whatever survives resolution.
		r.logger.Warn("suggestion lines could not all be resolved, not applying",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("declared", len(s.Lines)),
			zap.Int("resolved", len(resolved)),
			zap.Strings("unknown_codes", dropped),
		)
		return nil, nil
	}

	totalDebit, totalCredit := decimalTotals(resolved)
	if !valueobject.WithinEpsilon(totalDebit, totalCredit) {
		r.logger.Warn("suggestion is not balanced, not applying",
			zap.String("tenant_id", tenantID.String()),
			zap.String("total_debit", totalDebit.StringFixed(2)),
			zap.String("total_credit", totalCredit.StringFixed(2)),
		)
		return nil, nil
	}

	date := time.Now()
	if s.Date != "" {
		parsed, err := ledger.ParseEventDate(s.Date)
		if err != nil {
			r.logger.Warn("unparseable suggestion date, using today",
				zap.String("date", s.Date),
			)
		} else {
			date = parsed
		}
	}

	entry, err := ledger.NewJournalEntry(
		tenantID,
		date,
		s.Description,
		journalType,
		valueobject.DefaultCurrency,
		externalID,
		ledger.SourceAI,
		ledger.EntryStatusPending,
		resolved,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build journal entry from suggestion: %w", err)
	}
	if userID != uuid.Nil {
		entry.SetCreatedBy(userID)
	}

	if err := r.journal.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to persist suggested journal entry: %w", err)
	}

	r.logger.Info("suggested journal entry created",
		zap.String("entry_id", entry.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("amount", entry.Amount.StringFixed(2)),
	)
	return entry, nil
}

// decimalTotals sums the debit and credit sides of resolved lines
func decimalTotals(lines []ledger.JournalLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}
