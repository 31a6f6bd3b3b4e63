package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/comptaflow/backend/internal/application/ingest"
)

func testPayload() ingest.MobileTransactionPayload {
	amount := 50.0
	return ingest.MobileTransactionPayload{
		CompanyID:       uuid.New(),
		TransactionID:   "tx-99",
		UserID:          uuid.New(),
		Amount:          &amount,
		Currency:        "CDF",
		Description:     "Achat fournitures",
		TransactionDate: "2024-03-15",
	}
}

func TestClient_SuggestJournalEntries(t *testing.T) {
	t.Run("posts transaction and decodes suggestions", func(t *testing.T) {
		var gotAuth string
		var gotBody ingest.MobileTransactionPayload

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/journal-suggestions", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"suggestions": [
					{"description": "Achat fournitures", "journalType": "purchases", "lines": [], "confidenceScore": 0.91}
				],
				"confidence": 0.88
			}`))
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL, APIKey: "secret"}, zap.NewNop())

		resp, err := client.SuggestJournalEntries(context.Background(), testPayload())
		require.NoError(t, err)
		assert.Equal(t, "Bearer secret", gotAuth)
		assert.Equal(t, "tx-99", gotBody.TransactionID)
		require.Len(t, resp.Suggestions, 1)
		assert.Equal(t, 0.88, resp.Confidence)
		require.NotNil(t, resp.Suggestions[0].ConfidenceScore)
		assert.Equal(t, 0.91, *resp.Suggestions[0].ConfidenceScore)
	})

	t.Run("returns error on HTTP failure status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL}, zap.NewNop())

		_, err := client.SuggestJournalEntries(context.Background(), testPayload())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 502")
	})

	t.Run("returns error on malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL}, zap.NewNop())

		_, err := client.SuggestJournalEntries(context.Background(), testPayload())
		require.Error(t, err)
	})

	t.Run("returns error when service is unreachable", func(t *testing.T) {
		client := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, zap.NewNop())

		_, err := client.SuggestJournalEntries(context.Background(), testPayload())
		require.Error(t, err)
	})
}
