package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSettingsRepo struct {
	mock.Mock
}

func (m *mockSettingsRepo) IsDataSourceEnabled(ctx context.Context, tenantID uuid.UUID, sourceKey string) (bool, error) {
	args := m.Called(ctx, tenantID, sourceKey)
	return args.Bool(0), args.Error(1)
}

func (m *mockSettingsRepo) SetDataSourceEnabled(ctx context.Context, tenantID uuid.UUID, sourceKey string, enabled bool) error {
	return m.Called(ctx, tenantID, sourceKey, enabled).Error(0)
}

func setupSettingsHandler(t *testing.T, settings *mockSettingsRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewSettingsHandler(settings, zap.NewNop())

	engine := gin.New()
	api := engine.Group("/api/v1")
	h.RegisterRoutes(api)
	return engine
}

func TestSettingsHandler_GetDataSource(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns enabled state", func(t *testing.T) {
		settings := new(mockSettingsRepo)
		settings.On("IsDataSourceEnabled", mock.Anything, tenantID, "mobile_money").Return(true, nil)
		engine := setupSettingsHandler(t, settings)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/settings/data-sources/mobile_money", nil)
		req.Header.Set("X-Tenant-ID", tenantID.String())
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data DataSourceSettingResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "mobile_money", body.Data.SourceKey)
		assert.True(t, body.Data.Enabled)
	})

	t.Run("requires tenant header", func(t *testing.T) {
		engine := setupSettingsHandler(t, new(mockSettingsRepo))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/settings/data-sources/mobile_money", nil)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("repository failure is an internal error", func(t *testing.T) {
		settings := new(mockSettingsRepo)
		settings.On("IsDataSourceEnabled", mock.Anything, tenantID, "mobile_money").
			Return(false, errors.New("connection refused"))
		engine := setupSettingsHandler(t, settings)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/settings/data-sources/mobile_money", nil)
		req.Header.Set("X-Tenant-ID", tenantID.String())
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestSettingsHandler_SetDataSource(t *testing.T) {
	tenantID := uuid.New()

	putSetting := func(t *testing.T, engine *gin.Engine, body string, withTenant bool) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodPut, "/api/v1/settings/data-sources/mobile_money", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if withTenant {
			req.Header.Set("X-Tenant-ID", tenantID.String())
		}
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec
	}

	t.Run("disables a source", func(t *testing.T) {
		settings := new(mockSettingsRepo)
		settings.On("SetDataSourceEnabled", mock.Anything, tenantID, "mobile_money", false).Return(nil)
		engine := setupSettingsHandler(t, settings)

		rec := putSetting(t, engine, `{"enabled": false}`, true)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data DataSourceSettingResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Data.Enabled)
		settings.AssertExpectations(t)
	})

	t.Run("rejects body without enabled field", func(t *testing.T) {
		settings := new(mockSettingsRepo)
		engine := setupSettingsHandler(t, settings)

		rec := putSetting(t, engine, `{}`, true)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		settings.AssertNotCalled(t, "SetDataSourceEnabled", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("requires tenant header", func(t *testing.T) {
		engine := setupSettingsHandler(t, new(mockSettingsRepo))

		rec := putSetting(t, engine, `{"enabled": true}`, false)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
