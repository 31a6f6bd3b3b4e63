package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/comptaflow/backend/internal/domain/ledger"
	"github.com/comptaflow/backend/internal/infrastructure/event"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MobileTransactionPayload is the wire payload for a raw mobile transaction.
// A message missing any required field is dropped with a logged reason and
// no status event - unlike the journal-entry path, there is no producer
// waiting on a status topic for these.
type MobileTransactionPayload struct {
	CompanyID       uuid.UUID      `json:"companyId" validate:"required"`
	TransactionID   string         `json:"transactionId" validate:"required"`
	UserID          uuid.UUID      `json:"userId" validate:"required"`
	Amount          *float64       `json:"amount" validate:"required"`
	Currency        string         `json:"currency" validate:"required"`
	Description     string         `json:"description" validate:"required"`
	TransactionDate string         `json:"transactionDate" validate:"required"`
	Category        string         `json:"category,omitempty"`
	Attachments     []string       `json:"attachments,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// SuggestionResponse is what the AI service returns for a transaction
type SuggestionResponse struct {
	Suggestions []ledger.Suggestion `json:"suggestions"`
	Confidence  float64             `json:"confidence"`
}

// SuggestionService asks the AI collaborator for journal entry suggestions
type SuggestionService interface {
	SuggestJournalEntries(ctx context.Context, payload MobileTransactionPayload) (*SuggestionResponse, error)
}

// MobileTransactionHandler consumes raw mobile transactions, asks the AI
// service for journal suggestions, and auto-applies those that clear the
// confidence gate. Suggestions below the gate are left unapplied for later
// manual action.
type MobileTransactionHandler struct {
	suggester  SuggestionService
	reconciler *Reconciler
	policy     ProcessingPolicy
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewMobileTransactionHandler creates a new handler for the mobile topic
func NewMobileTransactionHandler(
	suggester SuggestionService,
	reconciler *Reconciler,
	policy ProcessingPolicy,
	logger *zap.Logger,
) *MobileTransactionHandler {
	return &MobileTransactionHandler{
		suggester:  suggester,
		reconciler: reconciler,
		policy:     policy,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Topics returns the topics this handler subscribes to
func (h *MobileTransactionHandler) Topics() []string {
	return []string{TopicMobileTransaction}
}

// Handle processes one mobile transaction message
func (h *MobileTransactionHandler) Handle(ctx context.Context, msg event.Message) error {
	var payload MobileTransactionPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.logger.Error("dropping undecodable mobile transaction payload",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return nil
	}

	if err := h.validate.Struct(payload); err != nil {
		h.logger.Warn("dropping mobile transaction with missing fields",
			zap.String("message_id", msg.ID),
			zap.String("transaction_id", payload.TransactionID),
			zap.Error(err),
		)
		return nil
	}

	response, err := h.suggester.SuggestJournalEntries(ctx, payload)
	if err != nil {
		return fmt.Errorf("suggestion request failed for transaction %s: %w", payload.TransactionID, err)
	}
	if response == nil || len(response.Suggestions) == 0 {
		h.logger.Info("no suggestions for mobile transaction",
			zap.String("transaction_id", payload.TransactionID),
		)
		return nil
	}

	for i, suggestion := range response.Suggestions {
		confidence := suggestion.EffectiveConfidence(response.Confidence)
		if !h.policy.AutoApply.ShouldAutoApply(suggestion, response.Confidence) {
			h.logger.Info("suggestion left for manual review",
				zap.String("transaction_id", payload.TransactionID),
				zap.Float64("confidence", confidence),
				zap.Float64("min_confidence", h.policy.AutoApply.MinConfidence),
				zap.Bool("auto_apply_enabled", h.policy.AutoApply.Enabled),
			)
			continue
		}

		externalID := suggestionRef(payload.TransactionID, i)
		entry, err := h.reconciler.ReconcileWithRef(ctx, suggestion, payload.CompanyID, payload.UserID, externalID)
		if err != nil {
			h.logger.Error("failed to apply suggestion",
				zap.String("transaction_id", payload.TransactionID),
				zap.Error(err),
			)
			continue
		}
		if entry == nil {
			h.logger.Info("suggestion not applied",
				zap.String("transaction_id", payload.TransactionID),
			)
			continue
		}
		h.logger.Info("suggestion auto-applied",
			zap.String("transaction_id", payload.TransactionID),
			zap.String("entry_id", entry.ID.String()),
			zap.Float64("confidence", confidence),
		)
	}
	return nil
}

// suggestionRef builds the external reference for the n-th suggestion of a
// transaction, keeping redeliveries idempotent at the storage layer.
func suggestionRef(transactionID string, index int) string {
	return fmt.Sprintf("%s#%d", transactionID, index)
}

// Ensure MobileTransactionHandler implements event.Handler
var _ event.Handler = (*MobileTransactionHandler)(nil)
