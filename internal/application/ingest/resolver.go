package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/comptaflow/backend/internal/domain/ledger"
	"github.com/comptaflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// resolveLines translates account codes to internal account ids within the
// tenant's chart of accounts. Lines whose code cannot be resolved are
// dropped with a warning; any other lookup failure aborts resolution.
// Returns the resolved lines and the codes that were dropped.
func resolveLines(
	ctx context.Context,
	accounts ledger.AccountRepository,
	tenantID uuid.UUID,
	lines []ledger.EventLine,
	logger *zap.Logger,
) ([]ledger.JournalLine, []string, error) {
	resolved := make([]ledger.JournalLine, 0, len(lines))
	var dropped []string

	for _, line := range lines {
		account, err := accounts.FindByCode(ctx, tenantID, line.AccountCode)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				dropped = append(dropped, line.AccountCode)
				logger.Warn("dropping line with unknown account code",
					zap.String("tenant_id", tenantID.String()),
					zap.String("account_code", line.AccountCode),
				)
				continue
			}
			return nil, nil, fmt.Errorf("account lookup failed for code %s: %w", line.AccountCode, err)
		}
		resolved = append(resolved, ledger.JournalLine{
			AccountID:   account.ID,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}

	return resolved, dropped, nil
}

// suggestionToEventLines converts suggestion lines to the event line shape so
// both ingestion paths share one resolver.
func suggestionToEventLines(lines []ledger.SuggestionLine) []ledger.EventLine {
	out := make([]ledger.EventLine, len(lines))
	for i, line := range lines {
		out[i] = ledger.EventLine{
			AccountCode: line.AccountCode,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
		}
	}
	return out
}
