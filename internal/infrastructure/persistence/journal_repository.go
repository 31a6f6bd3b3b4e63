package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/comptaflow/backend/internal/domain/ledger"
	"github.com/comptaflow/backend/internal/domain/shared"
	"github.com/comptaflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormJournalRepository implements ledger.JournalRepository using GORM
type GormJournalRepository struct {
	db *gorm.DB
}

var _ ledger.JournalRepository = (*GormJournalRepository)(nil)

// NewGormJournalRepository creates a new GormJournalRepository
func NewGormJournalRepository(db *gorm.DB) *GormJournalRepository {
	return &GormJournalRepository{db: db}
}

// Create persists a journal entry and its lines in a single transaction.
// Returns shared.ErrAlreadyExists when an entry with the same external
// reference has already been persisted for the tenant, so redelivered
// events never create a second entry.
func (r *GormJournalRepository) Create(ctx context.Context, entry *ledger.JournalEntry) error {
	model := models.JournalEntryModelFromDomain(entry)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if entry.ExternalID != "" {
			var count int64
			if err := tx.Model(&models.JournalEntryModel{}).
				Where("tenant_id = ? AND external_source = ? AND external_id = ?",
					entry.TenantID, entry.ExternalSource, entry.ExternalID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return shared.ErrAlreadyExists
			}
		}
		return tx.Create(model).Error
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByExternalRef finds a journal entry by its external reference
func (r *GormJournalRepository) FindByExternalRef(ctx context.Context, tenantID uuid.UUID, externalSource, externalID string) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("tenant_id = ? AND external_source = ? AND external_id = ?", tenantID, externalSource, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a journal entry by ID for a specific tenant
func (r *GormJournalRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// isDuplicateKeyError reports whether err comes from a unique constraint
// violation. The pre-insert check in Create races with concurrent consumers;
// the database index is the authoritative guard.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint")
}
