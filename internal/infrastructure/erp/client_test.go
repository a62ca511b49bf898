package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncdomain "github.com/erp/bridge/internal/domain/sync"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{
			name: "valid config",
			config: &Config{
				BaseURL:     "https://erp.example.com/api",
				CompanyCode: 1,
				User:        "bridge",
				Secret:      "s3cret",
			},
			wantErr: nil,
		},
		{
			name: "missing base URL",
			config: &Config{
				CompanyCode: 1,
				User:        "bridge",
				Secret:      "s3cret",
			},
			wantErr: ErrConfigMissingBaseURL,
		},
		{
			name: "invalid company code",
			config: &Config{
				BaseURL: "https://erp.example.com/api",
				User:    "bridge",
				Secret:  "s3cret",
			},
			wantErr: ErrConfigInvalidCompany,
		},
		{
			name: "missing user",
			config: &Config{
				BaseURL:     "https://erp.example.com/api",
				CompanyCode: 1,
				Secret:      "s3cret",
			},
			wantErr: ErrConfigMissingUser,
		},
		{
			name: "missing secret",
			config: &Config{
				BaseURL:     "https://erp.example.com/api",
				CompanyCode: 1,
				User:        "bridge",
			},
			wantErr: ErrConfigMissingSecret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.True(t, tt.config.TimeoutSeconds > 0)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	config := NewConfig("https://erp.example.com/api", 2, "bridge", "s3cret")
	assert.Equal(t, "https://erp.example.com/api", config.BaseURL)
	assert.Equal(t, 2, config.CompanyCode)
	assert.Equal(t, 30, config.TimeoutSeconds)
	assert.NoError(t, config.Validate())
}

// ---------------------------------------------------------------------------
// Authentication Tests
// ---------------------------------------------------------------------------

func TestClient_Authenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/token", r.URL.Path)

		var req authRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1, req.Company)
		assert.Equal(t, "bridge", req.User)
		assert.Equal(t, "s3cret", req.Secret)

		expiresIn := int64(3600)
		writeJSON(t, w, authResponse{Token: "tok-123", ExpiresIn: &expiresIn})
	}))
	defer server.Close()

	client := createTestClient(t, server.URL)

	result, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", result.Token)
	require.NotNil(t, result.ExpiresIn)
	assert.Equal(t, time.Hour, *result.ExpiresIn)
}

func TestClient_Authenticate_NoExpiryHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, authResponse{Token: "tok-123"})
	}))
	defer server.Close()

	client := createTestClient(t, server.URL)

	result, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", result.Token)
	assert.Nil(t, result.ExpiresIn)
}

func TestClient_Authenticate_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := createTestClient(t, server.URL)

	_, err := client.Authenticate(context.Background())
	assert.ErrorIs(t, err, syncdomain.ErrAuthFailed)
}

func TestClient_Authenticate_EmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, authResponse{})
	}))
	defer server.Close()

	client := createTestClient(t, server.URL)

	_, err := client.Authenticate(context.Background())
	assert.ErrorIs(t, err, syncdomain.ErrInvalidResponse)
}

// ---------------------------------------------------------------------------
// Document Tests
// ---------------------------------------------------------------------------

func TestClient_CreateDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/documents", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var payload []documentPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload, 1)
		assert.Equal(t, 1, payload[0].Company)
		assert.Equal(t, "SI", payload[0].VoucherType)
		assert.Equal(t, "2026-08-20", payload[0].Date)
		require.Len(t, payload[0].Lines, 2)
		assert.Equal(t, "4000", payload[0].Lines[0].Account)
		assert.True(t, payload[0].Lines[0].Credit.Equal(decimal.NewFromFloat(59.90)))
		assert.Equal(t, "1200", payload[0].Lines[1].Account)
		assert.True(t, payload[0].Lines[1].Debit.Equal(decimal.NewFromFloat(59.90)))
		assert.Equal(t, "buyer@example.com", payload[0].Lines[1].Party)

		id := "DOC-42"
		writeJSON(t, w, []documentRefPayload{{DocumentID: &id}})
	}))
	defer server.Close()

	client := createTestClient(t, server.URL)

	total := decimal.NewFromFloat(59.90)
	refs, err := client.CreateDocuments(context.Background(), "tok-123", []syncdomain.AccountingDocument{
		{
			CompanyCode: 1,
			VoucherType: "SI",
			Date:        time.Date(2026, 8, 20, 15, 4, 5, 0, time.UTC),
			Notes:       "order #1001",
			Lines: []syncdomain.DocumentLine{
				{Account: "4000", Detail: "order #1001", Credit: total},
				{Account: "1200", Detail: "order #1001", Debit: total, Party: "buyer@example.com"},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "DOC-42", refs[0].DocumentID)
}

func TestClient_CreateDocuments_NullReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []documentRefPayload{{DocumentID: nil}})
	}))
	defer server.Close()

	client := createTestClient(t, server.URL)

	_, err := client.CreateDocuments(context.Background(), "tok-123", []syncdomain.AccountingDocument{
		{CompanyCode: 1, VoucherType: "SI", Date: time.Now()},
	})
	assert.ErrorIs(t, err, syncdomain.ErrDocumentRefMissing)
}

func TestClient_CreateDocuments_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []documentRefPayload{})
	}))
	defer server.Close()

	client := createTestClient(t, server.URL)

	_, err := client.CreateDocuments(context.Background(), "tok-123", []syncdomain.AccountingDocument{
		{CompanyCode: 1, VoucherType: "SI", Date: time.Now()},
	})
	assert.ErrorIs(t, err, syncdomain.ErrInvalidResponse)
}

func TestClient_CreateDocuments_RemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		writeJSON(t, w, errorEnvelope{Error: &apiError{Code: "UNBALANCED", Message: "lines do not balance"}})
	}))
	defer server.Close()

	client := createTestClient(t, server.URL)

	_, err := client.CreateDocuments(context.Background(), "tok-123", []syncdomain.AccountingDocument{
		{CompanyCode: 1, VoucherType: "SI", Date: time.Now()},
	})
	require.ErrorIs(t, err, syncdomain.ErrRemoteCallFailed)
	assert.Contains(t, err.Error(), "UNBALANCED")
}

func TestClient_VoidDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/documents/void", r.URL.Path)

		var payload []voidPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload, 1)
		assert.Equal(t, "DOC-42", payload[0].DocumentID)
		assert.Equal(t, "VOID", payload[0].State)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := createTestClient(t, server.URL)

	err := client.VoidDocuments(context.Background(), "tok-123", []syncdomain.VoidRequest{
		{CompanyCode: 1, VoucherType: "SI", DocumentID: "DOC-42", Notes: "order #1001 cancelled"},
	})
	assert.NoError(t, err)
}

// ---------------------------------------------------------------------------
// Catalog Tests
// ---------------------------------------------------------------------------

func TestClient_UpsertItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/items", r.URL.Path)

		var payload []itemPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload, 2)
		assert.Equal(t, "SKU-1", payload[0].Code)
		assert.True(t, payload[0].Active)
		assert.True(t, payload[0].Ecommerce)
		assert.False(t, payload[1].Active)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := createTestClient(t, server.URL)

	err := client.UpsertItems(context.Background(), "tok-123", []syncdomain.CatalogItem{
		{Code: "SKU-1", Description: "Widget", Price: decimal.NewFromInt(10), Active: true, Ecommerce: true},
		{Code: "SKU-2", Description: "Gone", Price: decimal.NewFromInt(5), Active: false, Ecommerce: true},
	})
	assert.NoError(t, err)
}

func TestClient_ListChangedItems(t *testing.T) {
	since := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/items/changed", r.URL.Path)
		assert.Equal(t, "2026-08-20T12:00:00Z", r.URL.Query().Get("since"))

		writeJSON(t, w, []changedItemPayload{
			{Code: "SKU-1", Price: decimal.NewFromFloat(12.50), Stock: decimal.NewFromInt(7), UpdatedAt: since.Add(time.Hour)},
		})
	}))
	defer server.Close()

	client := createTestClient(t, server.URL)

	items, err := client.ListChangedItems(context.Background(), "tok-123", since)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "SKU-1", items[0].Code)
	assert.True(t, items[0].Price.Equal(decimal.NewFromFloat(12.50)))
	assert.True(t, items[0].Stock.Equal(decimal.NewFromInt(7)))
}

func TestClient_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := createTestClient(t, server.URL)

	_, err := client.ListChangedItems(context.Background(), "tok-123", time.Now())
	assert.ErrorIs(t, err, syncdomain.ErrRemoteUnavailable)
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

func createTestClient(t *testing.T, serverURL string) *Client {
	config := &Config{
		BaseURL:        serverURL,
		CompanyCode:    1,
		User:           "bridge",
		Secret:         "s3cret",
		TimeoutSeconds: 5,
	}
	client, err := NewClient(config, nil)
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}
