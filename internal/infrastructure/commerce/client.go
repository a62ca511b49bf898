package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	syncdomain "github.com/erp/bridge/internal/domain/sync"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// Client implements the commerce gateway against the platform admin API
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Compile-time interface check
var _ syncdomain.CommerceGateway = (*Client)(nil)

// NewClient creates a new commerce API client with the given configuration
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
		logger: logger.Named("commerce"),
	}, nil
}

// ---------------------------------------------------------------------------
// Wire Types
// ---------------------------------------------------------------------------

// variantPayload is the platform's variant record. IDs arrive as large
// integers, json.Number keeps them intact.
type variantPayload struct {
	ID              json.Number     `json:"id"`
	InventoryItemID json.Number     `json:"inventory_item_id"`
	Price           decimal.Decimal `json:"price"`
}

type variantsResponse struct {
	Variants []variantPayload `json:"variants"`
}

type variantUpdateRequest struct {
	Variant variantUpdatePayload `json:"variant"`
}

type variantUpdatePayload struct {
	Price decimal.Decimal `json:"price"`
}

type inventorySetRequest struct {
	InventoryItemID string          `json:"inventory_item_id"`
	LocationID      string          `json:"location_id"`
	Available       decimal.Decimal `json:"available"`
}

// ---------------------------------------------------------------------------
// Gateway Operations
// ---------------------------------------------------------------------------

// FindVariantBySKU looks up a variant by its SKU. Returns ErrVariantNotFound
// when the platform knows no variant under that SKU.
func (c *Client) FindVariantBySKU(ctx context.Context, sku string) (*syncdomain.CommerceVariant, error) {
	query := url.Values{}
	query.Set("sku", sku)

	var resp variantsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/variants?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	if len(resp.Variants) == 0 {
		return nil, fmt.Errorf("%w: %s", syncdomain.ErrVariantNotFound, sku)
	}

	variant := resp.Variants[0]
	return &syncdomain.CommerceVariant{
		ID:              variant.ID.String(),
		InventoryItemID: variant.InventoryItemID.String(),
		Price:           variant.Price,
	}, nil
}

// UpdateVariantPrice sets the variant's selling price
func (c *Client) UpdateVariantPrice(ctx context.Context, variantID string, price decimal.Decimal) error {
	req := variantUpdateRequest{Variant: variantUpdatePayload{Price: price}}
	return c.doRequest(ctx, http.MethodPut, "/variants/"+variantID, req, nil)
}

// SetInventoryLevel sets the absolute available quantity at the configured
// location
func (c *Client) SetInventoryLevel(ctx context.Context, inventoryItemID string, quantity decimal.Decimal) error {
	req := inventorySetRequest{
		InventoryItemID: inventoryItemID,
		LocationID:      c.config.LocationID,
		Available:       quantity,
	}
	return c.doRequest(ctx, http.MethodPost, "/inventory_levels/set", req, nil)
}

// ---------------------------------------------------------------------------
// HTTP Plumbing
// ---------------------------------------------------------------------------

func (c *Client) doRequest(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("commerce: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.APIBaseURL+path, body)
	if err != nil {
		return fmt.Errorf("commerce: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Access-Token", c.config.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", syncdomain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("commerce: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: HTTP %d", syncdomain.ErrAuthFailed, resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
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
