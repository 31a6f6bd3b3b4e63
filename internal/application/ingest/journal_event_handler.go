package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/comptaflow/backend/internal/domain/ledger"
	"github.com/comptaflow/backend/internal/domain/shared"
	"github.com/comptaflow/backend/internal/domain/shared/valueobject"
	"github.com/comptaflow/backend/internal/infrastructure/event"
	"github.com/comptaflow/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// outcomeKind is the terminal state of message processing
type outcomeKind int

const (
	outcomeRejected outcomeKind = iota
	outcomeGatedOut
	outcomePersisted
	outcomeFailed
	outcomeDuplicate
)

// outcome is the terminal result of processing one inbound journal event
type outcome struct {
	kind    outcomeKind
	message string
	entry   *ledger.JournalEntry
}

// JournalEventHandler consumes inbound journal events from the bus and
// drives each message through validation, policy gating, account resolution
// and persistence, reporting the outcome on the status topic.
//
// Messages are processed independently; no ordering is assumed across
// events, even for the same tenant.
type JournalEventHandler struct {
	accounts ledger.AccountRepository
	journal  ledger.JournalRepository
	settings ledger.SettingsRepository
	notifier Notifier
	dedupe   shared.IdempotencyStore
	policy   ProcessingPolicy
	logger   *zap.Logger
}

// NewJournalEventHandler creates a new handler for the journal-entry topic
func NewJournalEventHandler(
	accounts ledger.AccountRepository,
	journal ledger.JournalRepository,
	settings ledger.SettingsRepository,
	notifier Notifier,
	dedupe shared.IdempotencyStore,
	policy ProcessingPolicy,
	logger *zap.Logger,
) *JournalEventHandler {
	return &JournalEventHandler{
		accounts: accounts,
		journal:  journal,
		settings: settings,
		notifier: notifier,
		dedupe:   dedupe,
		policy:   policy,
		logger:   logger,
	}
}

// Topics returns the topics this handler subscribes to
func (h *JournalEventHandler) Topics() []string {
	return []string{TopicJournalEntry}
}

// Handle processes one inbound journal event. The processing deadline runs
// as a race against the processing goroutine: if the deadline fires first, a
// timeout status is reported but the in-flight work is not aborted - its own
// terminal status follows when it finishes. Consumers of the status topic
// must treat it as at-least-once and be idempotent on the event id.
func (h *JournalEventHandler) Handle(ctx context.Context, msg event.Message) error {
	received := time.Now()

	var evt ledger.InboundJournalEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		// Without a decodable payload there is no event id to correlate a
		// status report with; all we can do is log.
		h.logger.Error("dropping undecodable journal event payload",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return nil
	}

	if dup, err := h.alreadySeen(ctx, evt.ID); err != nil {
		h.logger.Warn("dedupe check failed, continuing",
			zap.String("event_id", evt.ID),
			zap.Error(err),
		)
	} else if dup {
		h.logger.Info("duplicate delivery detected, skipping",
			zap.String("event_id", evt.ID),
		)
		h.notifier.ReportStatus(ctx, evt.ID, evt.SourceID, true, "already processed")
		return nil
	}

	// The processing goroutine outlives a fired deadline on purpose, so it
	// runs on a context detached from the delivery's cancellation.
	processCtx := logger.WithTenant(context.WithoutCancel(ctx), evt.CompanyID)
	done := make(chan outcome, 1)
	go func() {
		done <- h.process(processCtx, evt)
	}()

	deadline := time.NewTimer(h.policy.ProcessingDeadline)
	defer deadline.Stop()

	select {
	case out := <-done:
		h.report(ctx, evt, out, received)
	case <-deadline.C:
		h.logger.Warn("processing deadline exceeded",
			zap.String("event_id", evt.ID),
			zap.Duration("deadline", h.policy.ProcessingDeadline),
		)
		h.notifier.ReportStatus(ctx, evt.ID, evt.SourceID, false,
			fmt.Sprintf("processing exceeded %s deadline", h.policy.ProcessingDeadline))
		go func() {
			out := <-done
			h.report(processCtx, evt, out, received)
		}()
	}
	return nil
}

// alreadySeen reports whether the producer event id was already processed to
// a successful terminal state. It is a read-only check: the id is marked by
// markProcessed only once the entry is known to be persisted, so a failed or
// rejected attempt leaves the id free for a producer retry. The store is
// best-effort; the storage uniqueness constraint remains the backstop.
func (h *JournalEventHandler) alreadySeen(ctx context.Context, eventID string) (bool, error) {
	if h.dedupe == nil || eventID == "" {
		return false, nil
	}
	return h.dedupe.IsProcessed(ctx, eventID)
}

// markProcessed records a successful terminal outcome for the event id so a
// redelivery can short-circuit. A mark failure is logged and ignored; the
// duplicate would be caught by the storage uniqueness constraint instead.
func (h *JournalEventHandler) markProcessed(ctx context.Context, eventID string) {
	if h.dedupe == nil || eventID == "" {
		return
	}
	if _, err := h.dedupe.MarkProcessed(ctx, eventID, h.policy.DedupeTTL); err != nil {
		h.logger.Warn("failed to mark event as processed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}
}

// process runs the RECEIVED -> terminal state transitions for one event
func (h *JournalEventHandler) process(ctx context.Context, evt ledger.InboundJournalEvent) outcome {
	result := ledger.ValidateJournalEvent(evt)
	for _, warning := range result.Warnings {
		h.logger.Warn("journal event validation warning",
			zap.String("event_id", evt.ID),
			zap.String("warning", warning),
		)
	}
	if !result.IsValid {
		return outcome{kind: outcomeRejected, message: strings.Join(result.Errors, "; ")}
	}

	sourceKey := gateKey(evt)
	enabled, err := h.settings.IsDataSourceEnabled(ctx, evt.CompanyID, sourceKey)
	if err != nil {
		return outcome{kind: outcomeFailed, message: fmt.Sprintf("data source check failed: %v", err)}
	}
	if !enabled {
		h.logger.Info("data source disabled for tenant, skipping event",
			zap.String("event_id", evt.ID),
			zap.String("tenant_id", evt.CompanyID.String()),
			zap.String("source_key", sourceKey),
		)
		return outcome{kind: outcomeGatedOut, message: fmt.Sprintf("data source %q is disabled", sourceKey)}
	}

	lines, dropped, err := resolveLines(ctx, h.accounts, evt.CompanyID, evt.Lines, h.logger)
	if err != nil {
		return outcome{kind: outcomeFailed, message: err.Error()}
	}
	if len(lines) == 0 {
		return outcome{
			kind:    outcomeRejected,
			message: fmt.Sprintf("no resolvable account codes (unknown: %s)", strings.Join(dropped, ", ")),
		}
	}

	entry, err := h.buildEntry(evt, sourceKey, lines)
	if err != nil {
		return outcome{kind: outcomeFailed, message: err.Error()}
	}

	if err := h.journal.Create(ctx, entry); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return outcome{kind: outcomeDuplicate, message: "already processed"}
		}
		return outcome{kind: outcomeFailed, message: fmt.Sprintf("journal entry write failed: %v", err)}
	}
	return outcome{kind: outcomePersisted, entry: entry}
}

// buildEntry constructs the persisted journal entry from a validated,
// resolved event.
func (h *JournalEventHandler) buildEntry(evt ledger.InboundJournalEvent, sourceKey string, lines []ledger.JournalLine) (*ledger.JournalEntry, error) {
	date, err := ledger.ParseEventDate(evt.Date)
	if err != nil {
		return nil, err
	}

	journalType, recognized := ledger.MapJournalType(evt.JournalType)
	if !recognized {
		h.logger.Warn("unrecognized journal type, defaulting to general",
			zap.String("event_id", evt.ID),
			zap.String("journal_type", evt.JournalType),
		)
	}

	return ledger.NewJournalEntry(
		evt.CompanyID,
		date,
		evt.Description,
		journalType,
		currencyOrDefault(evt.Currency),
		evt.ID,
		sourceKey,
		ledger.EntryStatusPosted,
		lines,
	)
}

// report translates a terminal outcome into a status event
func (h *JournalEventHandler) report(ctx context.Context, evt ledger.InboundJournalEvent, out outcome, received time.Time) {
	elapsed := time.Since(received).Round(time.Millisecond)

	switch out.kind {
	case outcomeRejected:
		h.notifier.ReportStatus(ctx, evt.ID, evt.SourceID, false, out.message)
	case outcomeGatedOut:
		if h.policy.NotifyGatedOut {
			h.notifier.ReportStatus(ctx, evt.ID, evt.SourceID, false, out.message)
		}
	case outcomeDuplicate:
		h.markProcessed(ctx, evt.ID)
		h.notifier.ReportStatus(ctx, evt.ID, evt.SourceID, true, out.message)
	case outcomePersisted:
		h.markProcessed(ctx, evt.ID)
		h.logger.Info("journal entry persisted",
			zap.String("event_id", evt.ID),
			zap.String("entry_id", out.entry.ID.String()),
			zap.Duration("elapsed", elapsed),
		)
		h.notifier.ReportStatus(ctx, evt.ID, evt.SourceID, true,
			fmt.Sprintf("journal entry %s created in %s", out.entry.ID, elapsed))
	case outcomeFailed:
		h.logger.Error("journal event processing failed",
			zap.String("event_id", evt.ID),
			zap.String("reason", out.message),
			zap.Duration("elapsed", elapsed),
		)
		h.notifier.ReportStatus(ctx, evt.ID, evt.SourceID, false,
			fmt.Sprintf("%s (after %s)", out.message, elapsed))
	}
}

// gateKey derives the data-source gate key from the event's origin tag
func gateKey(evt ledger.InboundJournalEvent) string {
	if s := strings.TrimSpace(strings.ToLower(evt.SourceType)); s != "" {
		return s
	}
	return ledger.SourceCommerce
}

// currencyOrDefault keeps whatever currency the producer declared; only a
// missing currency falls back to the default. Unsupported currencies were
// already warned about during validation.
func currencyOrDefault(raw string) valueobject.Currency {
	if raw == "" {
		return valueobject.DefaultCurrency
	}
	return valueobject.Currency(raw)
}

// Ensure JournalEventHandler implements event.Handler
var _ event.Handler = (*JournalEventHandler)(nil)
