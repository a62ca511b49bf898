package sync

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	syncdomain "github.com/erp/bridge/internal/domain/sync"
)

func testProduct() *syncdomain.Product {
	skuA := "A1"
	return &syncdomain.Product{
		ID:    json.Number("2002"),
		Title: "Widget",
		Variants: []syncdomain.Variant{
			{ID: json.Number("1"), SKU: &skuA, Title: "Red", Price: decimal.NewFromInt(10)},
			{ID: json.Number("2"), SKU: nil, Title: "Blue", Price: decimal.NewFromInt(11)},
		},
	}
}

func TestProductPushService_PushProduct_SkipsVariantsWithoutSKU(t *testing.T) {
	creds := new(MockCredentialSource)
	accounting := new(MockAccountingGateway)
	service := NewProductPushService(creds, accounting, nil)

	creds.On("Acquire", mock.Anything).Return(validCredential(), nil).Once()
	accounting.On("UpsertItems", mock.Anything, "tok-1", mock.MatchedBy(func(items []syncdomain.CatalogItem) bool {
		return len(items) == 1 &&
			items[0].Code == "A1" &&
			items[0].Active &&
			items[0].Ecommerce &&
			items[0].Price.Equal(decimal.NewFromInt(10))
	})).Return(nil).Once()

	count, err := service.PushProduct(context.Background(), testProduct())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	creds.AssertExpectations(t)
	accounting.AssertExpectations(t)
}

func TestProductPushService_PushProduct_NoAddressableVariants(t *testing.T) {
	creds := new(MockCredentialSource)
	accounting := new(MockAccountingGateway)
	service := NewProductPushService(creds, accounting, nil)

	product := &syncdomain.Product{
		ID:       json.Number("2002"),
		Title:    "Widget",
		Variants: []syncdomain.Variant{{ID: json.Number("2"), SKU: nil}},
	}

	// Nothing to sync means no remote traffic at all
	count, err := service.PushProduct(context.Background(), product)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	creds.AssertNotCalled(t, "Acquire", mock.Anything)
	accounting.AssertNotCalled(t, "UpsertItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductPushService_PushProduct_EmptySKUTreatedAsMissing(t *testing.T) {
	creds := new(MockCredentialSource)
	accounting := new(MockAccountingGateway)
	service := NewProductPushService(creds, accounting, nil)

	empty := ""
	product := &syncdomain.Product{
		ID:       json.Number("2002"),
		Title:    "Widget",
		Variants: []syncdomain.Variant{{ID: json.Number("3"), SKU: &empty}},
	}

	count, err := service.PushProduct(context.Background(), product)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	creds.AssertNotCalled(t, "Acquire", mock.Anything)
}

func TestProductPushService_DeactivateProduct(t *testing.T) {
	creds := new(MockCredentialSource)
	accounting := new(MockAccountingGateway)
	service := NewProductPushService(creds, accounting, nil)

	creds.On("Acquire", mock.Anything).Return(validCredential(), nil).Once()
	accounting.On("UpsertItems", mock.Anything, "tok-1", mock.MatchedBy(func(items []syncdomain.CatalogItem) bool {
		return len(items) == 1 && items[0].Code == "A1" && !items[0].Active
	})).Return(nil).Once()

	count, err := service.DeactivateProduct(context.Background(), testProduct())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	accounting.AssertExpectations(t)
}

func TestProductPushService_PushProduct_RemoteFailure(t *testing.T) {
	creds := new(MockCredentialSource)
	accounting := new(MockAccountingGateway)
	service := NewProductPushService(creds, accounting, nil)

	creds.On("Acquire", mock.Anything).Return(validCredential(), nil)
	accounting.On("UpsertItems", mock.Anything, "tok-1", mock.Anything).
		Return(syncdomain.ErrRemoteCallFailed)

	_, err := service.PushProduct(context.Background(), testProduct())
	assert.ErrorIs(t, err, syncdomain.ErrRemoteCallFailed)
}

func TestItemDescription(t *testing.T) {
	sku := "A1"
	product := &syncdomain.Product{Title: "Widget"}

	tests := []struct {
		name    string
		variant syncdomain.Variant
		want    string
	}{
		{"distinct titles", syncdomain.Variant{SKU: &sku, Title: "Red"}, "Widget - Red"},
		{"variant repeats product title", syncdomain.Variant{SKU: &sku, Title: "Widget"}, "Widget"},
		{"empty variant title", syncdomain.Variant{SKU: &sku}, "Widget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, itemDescription(product, &tt.variant))
		})
	}
}
