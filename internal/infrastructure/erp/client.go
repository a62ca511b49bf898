package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	syncdomain "github.com/erp/bridge/internal/domain/sync"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// Client implements the accounting gateway against the ERP REST API
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Compile-time interface check
var _ syncdomain.AccountingGateway = (*Client)(nil)

// NewClient creates a new ERP API client with the given configuration
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger.Named("erp"),
	}, nil
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// Authenticate exchanges the configured API credentials for a bearer token.
// Callers go through the token cache; this performs the network call every
// time it is invoked.
func (c *Client) Authenticate(ctx context.Context) (AuthResult, error) {
	req := authRequest{
		Company: c.config.CompanyCode,
		User:    c.config.User,
		Secret:  c.config.Secret,
	}

	var resp authResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/token", "", req, &resp); err != nil {
		return AuthResult{}, err
	}

	if resp.Token == "" {
		return AuthResult{}, fmt.Errorf("%w: auth response carries no token", syncdomain.ErrInvalidResponse)
	}

	result := AuthResult{Token: resp.Token}
	if resp.ExpiresIn != nil {
		d := time.Duration(*resp.ExpiresIn) * time.Second
		result.ExpiresIn = &d
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Accounting Documents
// ---------------------------------------------------------------------------

// CreateDocuments submits accounting documents and returns the created
// references in submission order. A response that omits a document ID is
// treated as a failed call so no mapping gets recorded against it.
func (c *Client) CreateDocuments(ctx context.Context, token string, docs []syncdomain.AccountingDocument) ([]syncdomain.DocumentRef, error) {
	payload := make([]documentPayload, 0, len(docs))
	for _, doc := range docs {
		lines := make([]documentLinePayload, 0, len(doc.Lines))
		for _, line := range doc.Lines {
			lines = append(lines, documentLinePayload{
				Account:   line.Account,
				Detail:    line.Detail,
				Reference: line.Reference,
				Debit:     line.Debit,
				Credit:    line.Credit,
				Party:     line.Party,
			})
		}
		payload = append(payload, documentPayload{
			Company:     doc.CompanyCode,
			VoucherType: doc.VoucherType,
			Date:        doc.Date.Format(documentDateFormat),
			Notes:       doc.Notes,
			Lines:       lines,
		})
	}

	var resp []documentRefPayload
	if err := c.doRequest(ctx, http.MethodPost, "/documents", token, payload, &resp); err != nil {
		return nil, err
	}

	if len(resp) != len(docs) {
		return nil, fmt.Errorf("%w: submitted %d documents, got %d references",
			syncdomain.ErrInvalidResponse, len(docs), len(resp))
	}

	refs := make([]syncdomain.DocumentRef, 0, len(resp))
	for i, ref := range resp {
		if ref.DocumentID == nil || *ref.DocumentID == "" {
			return nil, fmt.Errorf("%w: document %d", syncdomain.ErrDocumentRefMissing, i)
		}
		refs = append(refs, syncdomain.DocumentRef{DocumentID: *ref.DocumentID})
	}
	return refs, nil
}

// VoidDocuments marks documents as cancelled, preserving the audit trail
func (c *Client) VoidDocuments(ctx context.Context, token string, reqs []syncdomain.VoidRequest) error {
	payload := make([]voidPayload, 0, len(reqs))
	for _, req := range reqs {
		payload = append(payload, voidPayload{
			Company:     req.CompanyCode,
			VoucherType: req.VoucherType,
			DocumentID:  req.DocumentID,
			State:       voidStateCancelled,
			Notes:       req.Notes,
		})
	}
	return c.doRequest(ctx, http.MethodPost, "/documents/void", token, payload, nil)
}

// ---------------------------------------------------------------------------
// Catalog Items
// ---------------------------------------------------------------------------

// UpsertItems creates or updates catalog items keyed by Code
func (c *Client) UpsertItems(ctx context.Context, token string, items []syncdomain.CatalogItem) error {
	payload := make([]itemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, itemPayload{
			Code:        item.Code,
			Description: item.Description,
			Price:       item.Price,
			Active:      item.Active,
			Ecommerce:   item.Ecommerce,
		})
	}
	return c.doRequest(ctx, http.MethodPut, "/items", token, payload, nil)
}

// ListChangedItems returns catalog items changed in the ERP since the given instant
func (c *Client) ListChangedItems(ctx context.Context, token string, since time.Time) ([]syncdomain.ChangedItem, error) {
	query := url.Values{}
	query.Set("since", since.UTC().Format(time.RFC3339))

	var resp []changedItemPayload
	if err := c.doRequest(ctx, http.MethodGet, "/items/changed?"+query.Encode(), token, nil, &resp); err != nil {
		return nil, err
	}

	items := make([]syncdomain.ChangedItem, 0, len(resp))
	for _, item := range resp {
		items = append(items, syncdomain.ChangedItem{
			Code:      item.Code,
			Price:     item.Price,
			Stock:     item.Stock,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// HTTP Plumbing
// ---------------------------------------------------------------------------

// doRequest performs an HTTP request against the ERP API and decodes the
// response into out when out is non-nil
func (c *Client) doRequest(ctx context.Context, method, path, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("erp: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("erp: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", syncdomain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("erp: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.logger.Warn("authentication rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: HTTP %d", syncdomain.ErrAuthFailed, resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		var envelope errorEnvelope
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error != nil {
			c.logger.Warn("remote call rejected",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("code", envelope.Error.Code),
				zap.String("message", envelope.Error.Message))
			return fmt.Errorf("%w: %s - %s", syncdomain.ErrRemoteCallFailed,
				envelope.Error.Code, envelope.Error.Message)
		}
		c.logger.Warn("remote call failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return fmt.Errorf("%w: HTTP %d", syncdomain.ErrRemoteCallFailed, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: %v", syncdomain.ErrInvalidResponse, err)
		}
	}
	return nil
}
