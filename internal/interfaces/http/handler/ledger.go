package handler

import (
	"errors"
	"net/http"

	"github.com/comptaflow/backend/internal/application/ingest"
	"github.com/comptaflow/backend/internal/domain/ledger"
	"github.com/comptaflow/backend/internal/domain/shared"
	"github.com/comptaflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerHandler exposes the journal reconciliation surface over HTTP.
// The bus remains the primary ingestion path; these endpoints exist for
// synchronous callers (the mobile backend applying a suggestion the user
// accepted manually) and for reading back persisted entries.
type LedgerHandler struct {
	BaseHandler
	reconciler *ingest.Reconciler
	journal    ledger.JournalRepository
	logger     *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(reconciler *ingest.Reconciler, journal ledger.JournalRepository, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		reconciler: reconciler,
		journal:    journal,
		logger:     logger.Named("http.ledger"),
	}
}

// RegisterRoutes registers the ledger routes on the versioned API group
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/suggestions/reconcile", h.Reconcile)
	rg.GET("/journal-entries/:id", h.GetJournalEntry)
}

// ReconcileRequest is the request body for applying a journal suggestion
type ReconcileRequest struct {
	Suggestion ledger.Suggestion `json:"suggestion"`
	ExternalID string            `json:"externalId"`
}

// ReconcileResponse reports the outcome of a reconcile request
type ReconcileResponse struct {
	Applied bool                  `json:"applied"`
	Entry   *JournalEntryResponse `json:"entry,omitempty"`
}

// JournalEntryResponse is the read model for a persisted journal entry
type JournalEntryResponse struct {
	ID             uuid.UUID             `json:"id"`
	Date           string                `json:"date"`
	Description    string                `json:"description"`
	JournalType    string                `json:"journalType"`
	Currency       string                `json:"currency"`
	Amount         string                `json:"amount"`
	ExternalID     string                `json:"externalId,omitempty"`
	ExternalSource string                `json:"externalSource,omitempty"`
	Status         string                `json:"status"`
	Lines          []JournalLineResponse `json:"lines"`
}

// JournalLineResponse is the read model for a single journal line
type JournalLineResponse struct {
	AccountID   uuid.UUID `json:"accountId"`
	Description string    `json:"description"`
	Debit       string    `json:"debit"`
	Credit      string    `json:"credit"`
}

func toEntryResponse(entry *ledger.JournalEntry) *JournalEntryResponse {
	lines := make([]JournalLineResponse, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		lines = append(lines, JournalLineResponse{
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Debit.StringFixed(2),
			Credit:      line.Credit.StringFixed(2),
		})
	}
	return &JournalEntryResponse{
		ID:             entry.ID,
		Date:           entry.Date.Format("2006-01-02"),
		Description:    entry.Description,
		JournalType:    entry.JournalType.String(),
		Currency:       string(entry.Currency),
		Amount:         entry.Amount.StringFixed(2),
		ExternalID:     entry.ExternalID,
		ExternalSource: entry.ExternalSource,
		Status:         string(entry.Status),
		Lines:          lines,
	}
}

// Reconcile applies a journal suggestion for the calling tenant.
// POST /api/v1/suggestions/reconcile
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeUnauthorized, "tenant identification required")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeUnauthorized, "user identification required")
		return
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}
	if len(req.Suggestion.Lines) == 0 {
		h.ErrorWithCode(c, dto.ErrCodeValidation, "suggestion has no lines")
		return
	}

	entry, err := h.reconciler.ReconcileWithRef(c.Request.Context(), req.Suggestion, tenantID, userID, req.ExternalID)
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			h.ErrorWithCode(c, dto.ErrCodeAlreadyExists, "a journal entry already exists for this reference")
			return
		}
		h.logger.Error("Reconcile failed",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		h.ErrorWithCode(c, dto.ErrCodeInternal, "failed to reconcile suggestion")
		return
	}

	if entry == nil {
		// The suggestion did not survive resolution or balancing; this is
		// a clean no-op, not an error.
		h.Success(c, ReconcileResponse{Applied: false})
		return
	}

	c.JSON(http.StatusCreated, dto.NewSuccessResponse(ReconcileResponse{
		Applied: true,
		Entry:   toEntryResponse(entry),
	}))
}

// GetJournalEntry returns a persisted journal entry by ID.
// GET /api/v1/journal-entries/:id
func (h *LedgerHandler) GetJournalEntry(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeUnauthorized, "tenant identification required")
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, "invalid journal entry id")
		return
	}

	entry, err := h.journal.FindByID(c.Request.Context(), tenantID, entryID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.ErrorWithCode(c, dto.ErrCodeNotFound, "journal entry not found")
			return
		}
		h.logger.Error("Failed to load journal entry",
			zap.String("tenant_id", tenantID.String()),
			zap.String("entry_id", entryID.String()),
			zap.Error(err),
		)
		h.ErrorWithCode(c, dto.ErrCodeInternal, "failed to load journal entry")
		return
	}

	h.Success(c, toEntryResponse(entry))
}
