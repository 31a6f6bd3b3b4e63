package ingest

import (
	"context"
	"time"

	"github.com/comptaflow/backend/internal/domain/ledger"
	"github.com/comptaflow/backend/internal/infrastructure/event"
	"go.uber.org/zap"
)

// Notifier reports a processing outcome back to the producer.
// Implementations are fire-and-forget: a failed report never surfaces to the
// caller and never blocks the primary processing path.
type Notifier interface {
	ReportStatus(ctx context.Context, journalEntryID, sourceID string, success bool, message string)
}

// StatusNotifier publishes ProcessingStatusEvent to the status topic
type StatusNotifier struct {
	publisher   event.Publisher
	logger      *zap.Logger
	processedBy string
}

// NewStatusNotifier creates a new status notifier
func NewStatusNotifier(publisher event.Publisher, processedBy string, logger *zap.Logger) *StatusNotifier {
	return &StatusNotifier{
		publisher:   publisher,
		logger:      logger,
		processedBy: processedBy,
	}
}

// ReportStatus publishes a processing-outcome event. Publish failures are
// logged and swallowed.
func (n *StatusNotifier) ReportStatus(ctx context.Context, journalEntryID, sourceID string, success bool, message string) {
	status := ledger.ProcessingStatusEvent{
		JournalEntryID: journalEntryID,
		SourceID:       sourceID,
		Success:        success,
		Message:        message,
		Timestamp:      time.Now(),
		ProcessedBy:    n.processedBy,
	}

	msg, err := event.NewMessage(TopicJournalStatus, journalEntryID, status)
	if err != nil {
		n.logger.Error("failed to build status event",
			zap.String("journal_entry_id", journalEntryID),
			zap.Error(err),
		)
		return
	}

	if err := n.publisher.Publish(ctx, msg); err != nil {
		n.logger.Error("failed to publish status event",
			zap.String("journal_entry_id", journalEntryID),
			zap.String("source_id", sourceID),
			zap.Bool("success", success),
			zap.Error(err),
		)
		return
	}

	n.logger.Debug("status event published",
		zap.String("journal_entry_id", journalEntryID),
		zap.Bool("success", success),
	)
}

// Ensure StatusNotifier implements Notifier
var _ Notifier = (*StatusNotifier)(nil)
