package handler

import (
	"github.com/comptaflow/backend/internal/domain/ledger"
	"github.com/comptaflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SettingsHandler exposes the per-tenant data-source gate. Disabling a
// source does not stop events from arriving; it makes the consumer skip
// them and report GATED_OUT instead of persisting.
type SettingsHandler struct {
	BaseHandler
	settings ledger.SettingsRepository
	logger   *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings ledger.SettingsRepository, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		logger:   logger.Named("http.settings"),
	}
}

// RegisterRoutes registers the settings routes on the versioned API group
func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings/data-sources/:source", h.GetDataSource)
	rg.PUT("/settings/data-sources/:source", h.SetDataSource)
}

// DataSourceSettingRequest is the request body for toggling a data source
type DataSourceSettingRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// DataSourceSettingResponse reports the current state of a data source gate
type DataSourceSettingResponse struct {
	SourceKey string `json:"sourceKey"`
	Enabled   bool   `json:"enabled"`
}

// GetDataSource returns whether a data source is enabled for the tenant.
// GET /api/v1/settings/data-sources/:source
func (h *SettingsHandler) GetDataSource(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeUnauthorized, "tenant identification required")
		return
	}

	sourceKey := c.Param("source")
	enabled, err := h.settings.IsDataSourceEnabled(c.Request.Context(), tenantID, sourceKey)
	if err != nil {
		h.logger.Error("Failed to load data source setting",
			zap.String("tenant_id", tenantID.String()),
			zap.String("source_key", sourceKey),
			zap.Error(err),
		)
		h.ErrorWithCode(c, dto.ErrCodeInternal, "failed to load data source setting")
		return
	}

	h.Success(c, DataSourceSettingResponse{SourceKey: sourceKey, Enabled: enabled})
}

// SetDataSource enables or disables a data source for the tenant.
// PUT /api/v1/settings/data-sources/:source
func (h *SettingsHandler) SetDataSource(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeUnauthorized, "tenant identification required")
		return
	}

	var req DataSourceSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}

	sourceKey := c.Param("source")
	if err := h.settings.SetDataSourceEnabled(c.Request.Context(), tenantID, sourceKey, *req.Enabled); err != nil {
		h.logger.Error("Failed to update data source setting",
			zap.String("tenant_id", tenantID.String()),
			zap.String("source_key", sourceKey),
			zap.Error(err),
		)
		h.ErrorWithCode(c, dto.ErrCodeInternal, "failed to update data source setting")
		return
	}

	h.logger.Info("Data source setting updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("source_key", sourceKey),
		zap.Bool("enabled", *req.Enabled),
	)
	h.Success(c, DataSourceSettingResponse{SourceKey: sourceKey, Enabled: *req.Enabled})
}
