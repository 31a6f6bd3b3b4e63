package persistence

import (
	"context"
	"errors"

	"github.com/comptaflow/backend/internal/domain/ledger"
	"github.com/comptaflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSettingsRepository implements ledger.SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

var _ ledger.SettingsRepository = (*GormSettingsRepository)(nil)

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// IsDataSourceEnabled reports whether a tenant accepts events from the given
// source. Tenants without an explicit setting default to enabled.
func (r *GormSettingsRepository) IsDataSourceEnabled(ctx context.Context, tenantID uuid.UUID, sourceKey string) (bool, error) {
	var model models.DataSourceSettingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source = ?", tenantID, sourceKey).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, err
	}
	return model.Enabled, nil
}

// SetDataSourceEnabled creates or updates the gate for a tenant and source
func (r *GormSettingsRepository) SetDataSourceEnabled(ctx context.Context, tenantID uuid.UUID, sourceKey string, enabled bool) error {
	var model models.DataSourceSettingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source = ?", tenantID, sourceKey).
		First(&model).Error
	switch {
	case err == nil:
		model.Enabled = enabled
		return r.db.WithContext(ctx).Save(&model).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		model = models.DataSourceSettingModel{Source: sourceKey, Enabled: enabled}
		model.ID = uuid.New()
		model.TenantID = tenantID
		return r.db.WithContext(ctx).Create(&model).Error
	default:
		return err
	}
}
